package narration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"reelsmith/internal/logging"
	"reelsmith/internal/speech"
	"reelsmith/internal/subtitle"
	"reelsmith/internal/textutil"
)

// segmentGap is the silence inserted between consecutive segments, seconds.
const segmentGap = 0.5

// Segment is one narrated unit on the timeline. AudioPath is empty when
// synthesis failed or was skipped; Start/End are seconds from timeline zero.
type Segment struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	AudioPath string  `json:"audio_path,omitempty"`
}

// Synthesized reports whether the segment has backing audio.
func (s Segment) Synthesized() bool {
	return s.AudioPath != ""
}

// Result is the outcome of laying out one narration batch. Success means the
// batch ran to completion; individual segments may still lack audio, which
// ErrorMessage summarizes.
type Result struct {
	Success      bool      `json:"success"`
	Segments     []Segment `json:"segments,omitempty"`
	Duration     float64   `json:"duration"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// SubtitleEntries converts the timeline into timed subtitle cues, one per
// segment, indexed from 1.
func (r *Result) SubtitleEntries() []subtitle.Entry {
	entries := make([]subtitle.Entry, 0, len(r.Segments))
	for i, seg := range r.Segments {
		entries = append(entries, subtitle.Entry{
			Index: i + 1,
			Start: subtitle.FromSeconds(seg.Start),
			End:   subtitle.FromSeconds(seg.End),
			Text:  seg.Text,
		})
	}
	return entries
}

// FailedSegments returns the IDs of segments left without audio by a
// synthesis failure. Nil when every segment synthesized, or when synthesis
// was skipped entirely.
func (r *Result) FailedSegments() []string {
	if r.ErrorMessage == "" {
		return nil
	}
	var failed []string
	for _, seg := range r.Segments {
		if !seg.Synthesized() {
			failed = append(failed, seg.ID)
		}
	}
	return failed
}

// Engine drives segmentation, estimation, and synthesis. A nil Synthesizer
// is allowed and produces an estimate-only timeline with no audio, which the
// render pipeline accepts for silent output.
type Engine struct {
	synth  speech.Synthesizer
	logger *slog.Logger
}

// NewEngine builds an Engine. Logger may be nil.
func NewEngine(synth speech.Synthesizer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{synth: synth, logger: logger.With(logging.String(logging.FieldComponent, "narration"))}
}

// Generate segments a free-text script and lays the segments out
// sequentially with the fixed gap. Synthesis failures are absorbed per
// segment: the segment keeps its estimated duration and stays in the result
// without audio. The returned error is batch-level only (context
// cancellation); per-segment trouble never aborts the batch.
func (e *Engine) Generate(ctx context.Context, script string, opts speech.VoiceOptions) (*Result, error) {
	texts := Split(script)
	segments := make([]Segment, 0, len(texts))

	cursor := 0.0
	failures := 0
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seg := Segment{
			ID:    fmt.Sprintf("segment-%03d", i+1),
			Text:  text,
			Start: cursor,
		}
		duration, audioPath, ok := e.synthesize(ctx, text, opts)
		if !ok {
			failures++
		}
		seg.End = seg.Start + duration
		seg.AudioPath = audioPath
		segments = append(segments, seg)
		cursor = seg.End + segmentGap
	}

	return e.finish(segments, failures), nil
}

// GenerateFromEntries synthesizes audio for pre-timed cues, keeping their
// start and end times exactly as authored.
func (e *Engine) GenerateFromEntries(ctx context.Context, entries []subtitle.Entry, opts speech.VoiceOptions) (*Result, error) {
	segments := make([]Segment, 0, len(entries))

	failures := 0
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text := strings.TrimSpace(strings.ReplaceAll(entry.Text, "\n", " "))
		seg := Segment{
			ID:    fmt.Sprintf("segment-%03d", i+1),
			Text:  text,
			Start: entry.Start.Seconds(),
			End:   entry.End.Seconds(),
		}
		if _, audioPath, ok := e.synthesize(ctx, text, opts); ok {
			seg.AudioPath = audioPath
		} else {
			failures++
		}
		segments = append(segments, seg)
	}

	return e.finish(segments, failures), nil
}

// synthesize returns the segment duration, the clip path, and whether real
// audio backs it. Without a synthesizer the estimate is used and the segment
// does not count as failed.
func (e *Engine) synthesize(ctx context.Context, text string, opts speech.VoiceOptions) (duration float64, audioPath string, ok bool) {
	estimated := Estimate(text, opts.Rate)
	if e.synth == nil {
		return estimated, "", true
	}

	clip, err := e.synth.Synthesize(ctx, text, opts)
	if err != nil {
		e.logger.Warn("segment synthesis failed, keeping estimate",
			logging.String("text", textutil.Truncate(text, 40)),
			logging.Error(err))
		return estimated, "", false
	}
	if clip.Duration <= 0 {
		return estimated, clip.AudioPath, true
	}
	return clip.Duration, clip.AudioPath, true
}

func (e *Engine) finish(segments []Segment, failures int) *Result {
	result := &Result{Success: true, Segments: segments}
	if len(segments) > 0 {
		result.Duration = segments[len(segments)-1].End
	}
	if failures > 0 {
		result.ErrorMessage = fmt.Sprintf("%d of %d segments failed synthesis", failures, len(segments))
		e.logger.Warn("narration completed with failures",
			logging.Int("failed", failures),
			logging.Int("total", len(segments)))
	}
	return result
}
