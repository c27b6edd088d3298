package narration

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"reelsmith/internal/speech"
	"reelsmith/internal/subtitle"
)

type fakeSynth struct {
	durations map[string]float64
	failOn    map[string]bool
	calls     int
}

func (f *fakeSynth) Synthesize(_ context.Context, text string, _ speech.VoiceOptions) (speech.Clip, error) {
	f.calls++
	if f.failOn[text] {
		return speech.Clip{}, errors.New("synthesis refused")
	}
	duration := f.durations[text]
	if duration == 0 {
		duration = 1
	}
	return speech.Clip{
		AudioPath: fmt.Sprintf("/tmp/clip_%d.wav", f.calls),
		Duration:  duration,
	}, nil
}

func TestGenerateLaysOutTimeline(t *testing.T) {
	engine := NewEngine(nil, nil)

	result, err := engine.Generate(context.Background(), "Hello world\nこんにちは", speech.VoiceOptions{Rate: 1})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}
	if len(result.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(result.Segments))
	}

	first, second := result.Segments[0], result.Segments[1]
	if first.Start != 0 || !approx(first.End, 1.2) {
		t.Fatalf("first segment = [%v, %v], want [0, 1.2]", first.Start, first.End)
	}
	if !approx(second.Start, first.End+segmentGap) {
		t.Fatalf("second start = %v, want %v", second.Start, first.End+segmentGap)
	}
	if !approx(second.End, second.Start+1.0) {
		t.Fatalf("second end = %v, want %v", second.End, second.Start+1.0)
	}
	if !approx(result.Duration, second.End) {
		t.Fatalf("duration = %v, want %v", result.Duration, second.End)
	}
	if failed := result.FailedSegments(); failed != nil {
		t.Fatalf("estimate-only run should not report failures: %v", failed)
	}
}

func TestGenerateUsesSynthesizedDurations(t *testing.T) {
	synth := &fakeSynth{durations: map[string]float64{
		"これはテストです。": 2.25,
		"次の文です。":     1.75,
	}}
	engine := NewEngine(synth, nil)

	result, err := engine.Generate(context.Background(), "これはテストです。次の文です。", speech.VoiceOptions{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if synth.calls != 2 {
		t.Fatalf("synthesizer called %d times, want 2", synth.calls)
	}

	first, second := result.Segments[0], result.Segments[1]
	if !approx(first.End-first.Start, 2.25) {
		t.Fatalf("first duration = %v, want 2.25", first.End-first.Start)
	}
	if !first.Synthesized() || !second.Synthesized() {
		t.Fatalf("segments missing audio: %+v %+v", first, second)
	}
	if !approx(second.Start, 2.75) {
		t.Fatalf("second start = %v, want 2.75", second.Start)
	}
	if !approx(result.Duration, 4.5) {
		t.Fatalf("duration = %v, want 4.5", result.Duration)
	}
}

func TestGenerateAbsorbsSegmentFailures(t *testing.T) {
	synth := &fakeSynth{
		durations: map[string]float64{"これはテストです。": 2.0},
		failOn:    map[string]bool{"次の文です。": true},
	}
	engine := NewEngine(synth, nil)

	result, err := engine.Generate(context.Background(), "これはテストです。次の文です。", speech.VoiceOptions{Rate: 1})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !result.Success {
		t.Fatal("batch completion should report success despite segment failures")
	}
	if len(result.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(result.Segments))
	}

	failed := result.Segments[1]
	if failed.Synthesized() {
		t.Fatalf("failed segment should have no audio: %+v", failed)
	}
	// Estimated fallback: 5 native letters at 0.2 s each.
	if !approx(failed.End-failed.Start, 1.0) {
		t.Fatalf("failed segment duration = %v, want estimate 1.0", failed.End-failed.Start)
	}
	if got := result.FailedSegments(); len(got) != 1 || got[0] != "segment-002" {
		t.Fatalf("FailedSegments = %v", got)
	}
	if result.ErrorMessage != "1 of 2 segments failed synthesis" {
		t.Fatalf("ErrorMessage = %q", result.ErrorMessage)
	}
}

func TestGenerateEmptyScript(t *testing.T) {
	engine := NewEngine(nil, nil)
	result, err := engine.Generate(context.Background(), "   \n ", speech.VoiceOptions{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !result.Success || len(result.Segments) != 0 || result.Duration != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestGenerateHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(&fakeSynth{}, nil)
	if _, err := engine.Generate(ctx, "これはテストです。", speech.VoiceOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate error = %v, want context.Canceled", err)
	}
}

func TestGenerateFromEntriesKeepsTiming(t *testing.T) {
	entries := []subtitle.Entry{
		{Index: 1, Start: 1000, End: 3000, Text: "これは\nテストです。"},
		{Index: 2, Start: 3500, End: 5000, Text: "次の文です。"},
	}
	synth := &fakeSynth{failOn: map[string]bool{"次の文です。": true}}
	engine := NewEngine(synth, nil)

	result, err := engine.GenerateFromEntries(context.Background(), entries, speech.VoiceOptions{})
	if err != nil {
		t.Fatalf("GenerateFromEntries failed: %v", err)
	}
	first, second := result.Segments[0], result.Segments[1]
	if first.Start != 1.0 || first.End != 3.0 {
		t.Fatalf("first segment timing = [%v, %v], want [1, 3]", first.Start, first.End)
	}
	if first.Text != "これは テストです。" {
		t.Fatalf("line break should flatten to a space: %q", first.Text)
	}
	if !first.Synthesized() {
		t.Fatal("first segment should carry audio")
	}
	// Failure keeps the authored timing, just without audio.
	if second.Synthesized() || second.Start != 3.5 || second.End != 5.0 {
		t.Fatalf("second segment = %+v", second)
	}
	if !approx(result.Duration, 5.0) {
		t.Fatalf("duration = %v, want 5", result.Duration)
	}
}

func TestSubtitleEntriesConversion(t *testing.T) {
	result := &Result{Segments: []Segment{
		{ID: "segment-001", Text: "最初", Start: 0, End: 1.25},
		{ID: "segment-002", Text: "次", Start: 1.75, End: 2.5},
	}}

	entries := result.SubtitleEntries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	want := []subtitle.Entry{
		{Index: 1, Start: 0, End: 1250, Text: "最初"},
		{Index: 2, Start: 1750, End: 2500, Text: "次"},
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}
