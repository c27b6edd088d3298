package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"reelsmith/internal/assets"
	"reelsmith/internal/encoder"
	"reelsmith/internal/logging"
	"reelsmith/internal/media/ffprobe"
	"reelsmith/internal/narration"
	"reelsmith/internal/recipe"
	"reelsmith/internal/services"
	"reelsmith/internal/subtitle"
	"reelsmith/internal/textutil"
)

// Settings configure the delivery encode and text layout.
type Settings struct {
	Container    string
	VideoCodec   string
	AudioCodec   string
	AudioBitrate string
	Preset       string
	CRF          int
	LineWidth    float64
}

func (s Settings) withDefaults() Settings {
	if s.Container == "" {
		s.Container = "mp4"
	}
	if s.VideoCodec == "" {
		s.VideoCodec = "libx264"
	}
	if s.AudioCodec == "" {
		s.AudioCodec = "aac"
	}
	if s.AudioBitrate == "" {
		s.AudioBitrate = "192k"
	}
	if s.Preset == "" {
		s.Preset = "medium"
	}
	if s.CRF <= 0 {
		s.CRF = 23
	}
	if s.LineWidth <= 0 {
		s.LineWidth = 13
	}
	return s
}

// Spec is the input to one render run.
type Spec struct {
	Recipe    *recipe.Recipe
	Narration *narration.Result
	Materials map[string]assets.Asset
	// Timeline overrides composition when the caller already built one.
	Timeline *Timeline
	// Subtitles are the cues to burn in and export. Derived from the
	// narration timeline when empty.
	Subtitles []subtitle.Entry
	// Progress receives overall job progress after every change.
	Progress func(percent int, stage Checkpoint)
}

type loadedOverlay struct {
	window OverlayWindow
	img    image.Image
}

// runState is what a run retains in memory so a resume can continue.
type runState struct {
	timeline     *Timeline
	base         *Surface
	surface      *Surface
	text         *TextRenderer
	overlays     []loadedOverlay
	clips        []encoder.AudioClip
	entries      []subtitle.Entry
	frameWriter  *io.PipeWriter
	captureErr   chan error
	baseName     string
	capturePath  string
	audioPath    string
	muxedPath    string
	subtitlePath string
	finalPath    string
}

func (s *runState) activeOverlays(ts float64) []loadedOverlay {
	var active []loadedOverlay
	for _, overlay := range s.overlays {
		if ts >= overlay.window.Start && ts < overlay.window.End {
			active = append(active, overlay)
		}
	}
	return active
}

// Renderer executes the staged composition for render jobs. One renderer
// may serve many jobs, one at a time per job.
type Renderer struct {
	enc           *encoder.Engine
	logger        *slog.Logger
	settings      Settings
	probeDuration func(ctx context.Context, path string) (float64, error)
	probeOutput   func(ctx context.Context, path string) (ffprobe.Result, error)
}

// NewRenderer wires a renderer to its encoder engine.
func NewRenderer(enc *encoder.Engine, settings Settings, logger *slog.Logger) *Renderer {
	r := &Renderer{
		enc:      enc,
		logger:   logging.NewComponentLogger(logger, "render"),
		settings: settings.withDefaults(),
	}
	r.probeDuration = func(ctx context.Context, path string) (float64, error) {
		result, err := enc.Probe(ctx, path)
		if err != nil {
			return 0, err
		}
		return result.DurationSeconds(), nil
	}
	r.probeOutput = enc.Probe
	return r
}

// WithDurationProbe replaces the audio clip duration lookup, for tests.
func (r *Renderer) WithDurationProbe(probe func(ctx context.Context, path string) (float64, error)) {
	if probe != nil {
		r.probeDuration = probe
	}
}

// WithOutputProbe replaces the delivered-file inspection, for tests.
func (r *Renderer) WithOutputProbe(probe func(ctx context.Context, path string) (ffprobe.Result, error)) {
	if probe != nil {
		r.probeOutput = probe
	}
}

// Render executes the composition stages for the job. Full mode starts
// clean; effects restarts from frame composition; resume continues after
// the job's last checkpoint with whatever the previous run retained in
// memory.
func (r *Renderer) Render(ctx context.Context, job *Job, spec Spec, mode Mode) error {
	if job == nil {
		return services.Wrap(services.ErrValidation, "render", "render",
			"job is required", nil)
	}
	if spec.Recipe == nil {
		return services.Wrap(services.ErrValidation, "render", "render",
			"recipe is required", nil)
	}
	if spec.Narration == nil || len(spec.Narration.Segments) == 0 {
		return services.Wrap(services.ErrValidation, "render", "render",
			"narration result with segments is required", nil)
	}
	if err := os.MkdirAll(job.WorkDir, 0o755); err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "render",
			"creating job workspace failed", err)
	}

	if mode == ModeFull {
		job.reset()
	}
	start, ok := StartStage(mode, job.LastCheckpoint())
	if !ok {
		return nil
	}
	if job.state == nil {
		job.state = &runState{}
	}
	job.begin()

	startIdx := stageIndex(start)
	if startIdx > 0 && job.state.surface == nil {
		// No surfaces survive from an earlier pass, so composition restarts.
		startIdx = 0
	}
	for _, stage := range stageOrder {
		if stageIndex(stage) < startIdx {
			continue
		}
		if err := ctx.Err(); err != nil {
			r.abortCapture(job, err)
			job.fail(err.Error())
			return err
		}
		stageCtx := services.WithStage(ctx, string(stage))
		stageLogger := logging.WithContext(stageCtx, r.logger.With(logging.String("job", job.ID)))
		job.startStage(stage)
		r.report(job, spec, stage)
		stageLogger.Info("render stage started")
		if err := r.runStage(stageCtx, job, spec, stage); err != nil {
			r.abortCapture(job, err)
			job.fail(err.Error())
			// A cancelled run keeps its intermediates so resume can continue.
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				if cleanupErr := job.cleanupIntermediates(); cleanupErr != nil {
					stageLogger.Warn("cleanup after stage failure incomplete",
						logging.Error(cleanupErr))
				}
			}
			stageLogger.Error("render stage failed", logging.Error(err))
			return fmt.Errorf("stage %s: %w", stage, err)
		}
		job.completeStage(stage)
		r.report(job, spec, stage)
	}
	job.complete()
	r.report(job, spec, CheckpointFinalize)
	r.logger.Info("render completed",
		logging.String("job", job.ID),
		logging.Int("outputs", len(job.Outputs())))
	return nil
}

// Preview rasterizes the first frame of a spec to a PNG at path. It shares
// the frame composition with a full render but runs neither the capture nor
// the encode pass, so callers can gate an export on it.
func (r *Renderer) Preview(ctx context.Context, spec Spec, path string) error {
	if spec.Recipe == nil {
		return services.Wrap(services.ErrValidation, "render", "preview",
			"recipe is required", nil)
	}
	tl := spec.Timeline
	if tl == nil {
		built, err := Build(spec.Recipe, spec.Narration, spec.Materials)
		if err != nil {
			return err
		}
		tl = built
	} else if err := tl.Validate(); err != nil {
		return err
	}

	surface, err := NewSurface(tl.Width, tl.Height)
	if err != nil {
		return err
	}
	framePath := strings.TrimSuffix(path, filepath.Ext(path)) + "-source.png"
	defer func() { _ = removeIfPresent(framePath) }()
	if err := r.paintBackground(ctx, tl, surface, framePath); err != nil {
		return err
	}

	for _, overlay := range tl.ActiveOverlays(0) {
		img, err := loadImage(overlay.AssetPath)
		if err != nil {
			return err
		}
		surface.DrawInset(img, 0.4, 0.5, 0.25)
	}
	if window, ok := tl.ActiveText(0); ok {
		text, err := NewTextRenderer(tl.Style, r.settings.LineWidth)
		if err != nil {
			return err
		}
		defer text.Close()
		text.Draw(surface, window.Text)
	}
	return surface.WritePNG(path)
}

func (r *Renderer) report(job *Job, spec Spec, stage Checkpoint) {
	if spec.Progress != nil {
		spec.Progress(job.Progress(), stage)
	}
}

// abortCapture closes a frame stream the run left open so the capture
// process exits before cleanup touches its output file.
func (r *Renderer) abortCapture(job *Job, cause error) {
	state := job.state
	if state == nil || state.frameWriter == nil {
		return
	}
	state.frameWriter.CloseWithError(cause)
	if state.captureErr != nil {
		<-state.captureErr
	}
	state.frameWriter = nil
	state.captureErr = nil
}

func (r *Renderer) runStage(ctx context.Context, job *Job, spec Spec, stage Checkpoint) error {
	switch stage {
	case CheckpointSurface:
		return r.stageSurface(ctx, job, spec)
	case CheckpointAudioReady:
		return r.stageAudioReady(ctx, job, spec)
	case CheckpointFrameRender:
		return r.stageFrameRender(ctx, job, spec)
	case CheckpointCapture:
		return r.stageCapture(ctx, job, spec)
	case CheckpointAudioMux:
		return r.stageAudioMux(ctx, job)
	case CheckpointEncode:
		return r.stageEncode(ctx, job, spec)
	case CheckpointFinalize:
		return r.stageFinalize(ctx, job, spec)
	default:
		return services.Wrap(services.ErrValidation, "render", "render",
			fmt.Sprintf("unknown stage %q", stage), nil)
	}
}

// stageSurface composes the timeline, allocates the drawing surfaces,
// paints the static background, and loads fonts and overlay assets.
func (r *Renderer) stageSurface(ctx context.Context, job *Job, spec Spec) error {
	state := job.state

	tl := spec.Timeline
	if tl == nil {
		built, err := Build(spec.Recipe, spec.Narration, spec.Materials)
		if err != nil {
			return err
		}
		tl = built
	} else if err := tl.Validate(); err != nil {
		return err
	}
	state.timeline = tl
	state.baseName = textutil.OutputBaseName(spec.Recipe.Title, 60)

	base, err := NewSurface(tl.Width, tl.Height)
	if err != nil {
		return err
	}

	framePath := filepath.Join(job.WorkDir, "background-frame.png")
	if tl.Background.Kind == recipe.BackgroundVideo {
		job.AddIntermediate(func() error { return removeIfPresent(framePath) })
	}
	if err := r.paintBackground(ctx, tl, base, framePath); err != nil {
		return err
	}

	state.overlays = state.overlays[:0]
	for _, window := range tl.Overlays {
		img, err := loadImage(window.AssetPath)
		if err != nil {
			return err
		}
		state.overlays = append(state.overlays, loadedOverlay{window: window, img: img})
	}

	if state.text != nil {
		state.text.Close()
	}
	text, err := NewTextRenderer(tl.Style, r.settings.LineWidth)
	if err != nil {
		return err
	}

	state.surface = base.Clone()
	state.base = base
	state.text = text
	return nil
}

// paintBackground fills base per the timeline's background layer. Video
// backgrounds extract their first frame to framePath; the file is the
// caller's to clean up.
func (r *Renderer) paintBackground(ctx context.Context, tl *Timeline, base *Surface, framePath string) error {
	switch tl.Background.Kind {
	case recipe.BackgroundSolid:
		base.FillSolid(tl.Background.Color)
	case recipe.BackgroundGradient:
		base.FillVerticalGradient(tl.Background.ColorTop, tl.Background.ColorBottom)
	case recipe.BackgroundImage:
		img, err := loadImage(tl.Background.AssetPath)
		if err != nil {
			return err
		}
		base.FillSolid("#000000")
		base.DrawCover(img)
	case recipe.BackgroundVideo:
		if err := r.enc.ExtractFirstFrame(ctx, tl.Background.AssetPath, framePath); err != nil {
			return err
		}
		img, err := loadImage(framePath)
		if err != nil {
			return err
		}
		base.FillSolid("#000000")
		base.DrawCover(img)
	}
	return nil
}

// stageAudioReady verifies every synthesized clip exists and has a
// measurable duration, and plans the concat list with lead-in silences.
// Segments without audio stay silent gaps.
func (r *Renderer) stageAudioReady(ctx context.Context, job *Job, spec Spec) error {
	state := job.state
	state.clips = state.clips[:0]
	cursor := 0.0
	missing := 0
	for _, segment := range spec.Narration.Segments {
		if !segment.Synthesized() {
			missing++
			continue
		}
		info, err := os.Stat(segment.AudioPath)
		if err != nil {
			return services.Wrap(services.ErrNotFound, "render", "audio_ready",
				fmt.Sprintf("narration clip for %s is missing", segment.ID), err)
		}
		if info.Size() == 0 {
			return services.Wrap(services.ErrValidation, "render", "audio_ready",
				fmt.Sprintf("narration clip for %s is empty", segment.ID), nil)
		}
		duration, err := r.probeDuration(ctx, segment.AudioPath)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "render", "audio_ready",
				fmt.Sprintf("probing narration clip for %s failed", segment.ID), err)
		}
		if duration <= 0 {
			return services.Wrap(services.ErrValidation, "render", "audio_ready",
				fmt.Sprintf("narration clip for %s has no duration", segment.ID), nil)
		}
		lead := segment.Start - cursor
		if lead < 0 {
			lead = 0
		}
		state.clips = append(state.clips, encoder.AudioClip{Path: segment.AudioPath, LeadSilence: lead})
		cursor = segment.End
	}
	if missing > 0 {
		r.logger.Warn("segments without audio render silent",
			logging.String("job", job.ID),
			logging.Int("segments", missing))
	}
	return nil
}

func (r *Renderer) stageFrameRender(ctx context.Context, job *Job, spec Spec) error {
	job.state.capturePath = filepath.Join(job.WorkDir, "frames.mkv")
	return r.streamFrames(ctx, job, spec)
}

// streamFrames rasterizes every frame in timestamp order and pipes the raw
// bytes into the capture encoder. The pipe stays open for the capture
// stage to drain.
func (r *Renderer) streamFrames(ctx context.Context, job *Job, spec Spec) error {
	state := job.state
	if state.timeline == nil || state.surface == nil || state.base == nil || state.text == nil {
		return services.Wrap(services.ErrValidation, "render", "frame_render",
			"surface setup has not run", nil)
	}
	tl := state.timeline

	reader, writer := io.Pipe()
	captureDone := make(chan error, 1)
	go func() {
		err := r.enc.CaptureRawVideo(ctx, encoder.CaptureSpec{
			Width:     tl.Width,
			Height:    tl.Height,
			FrameRate: tl.FrameRate,
			Output:    state.capturePath,
		}, reader)
		// Closing the reader unblocks a frame write in flight when the
		// capture process dies before draining the stream.
		reader.CloseWithError(err)
		captureDone <- err
	}()
	state.frameWriter = writer
	state.captureErr = captureDone
	job.AddIntermediate(func() error { return removeIfPresent(state.capturePath) })

	frames := tl.FrameCount()
	fps := float64(tl.FrameRate)
	sampler := logging.NewProgressSampler(10)
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		ts := float64(i) / fps
		state.surface.CopyFrom(state.base)
		for _, overlay := range state.activeOverlays(ts) {
			state.surface.DrawInset(overlay.img, 0.4, 0.5, 0.25)
		}
		if window, ok := tl.ActiveText(ts); ok {
			state.text.Draw(state.surface, window.Text)
		}
		if _, err := writer.Write(state.surface.Pix()); err != nil {
			captureErr := <-captureDone
			state.frameWriter = nil
			state.captureErr = nil
			if captureErr != nil {
				return captureErr
			}
			return services.Wrap(services.ErrExternalTool, "render", "frame_render",
				"frame stream closed early", err)
		}
		if (i+1)%tl.FrameRate == 0 || i+1 == frames {
			frac := float64(i+1) / float64(frames)
			job.setStageProgress(CheckpointFrameRender, frac)
			r.report(job, spec, CheckpointFrameRender)
			if sampler.ShouldLog(frac*100, string(CheckpointFrameRender)) {
				r.logger.Debug("frame render progress",
					logging.String("job", job.ID),
					logging.Int("frame", i+1),
					logging.Int("frames", frames))
			}
		}
	}
	return nil
}

// stageCapture finishes the intermediate container: close the frame
// stream, wait for the capture encoder, and verify the file landed. A
// resume that lost the frame stream re-rasterizes first.
func (r *Renderer) stageCapture(ctx context.Context, job *Job, spec Spec) error {
	state := job.state
	if state.frameWriter == nil {
		if state.capturePath == "" {
			state.capturePath = filepath.Join(job.WorkDir, "frames.mkv")
		}
		if err := r.streamFrames(ctx, job, spec); err != nil {
			return err
		}
	}
	state.frameWriter.Close()
	captureErr := <-state.captureErr
	state.frameWriter = nil
	state.captureErr = nil
	if captureErr != nil {
		return captureErr
	}
	info, err := os.Stat(state.capturePath)
	if err != nil || info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, "render", "capture",
			"intermediate container was not produced", err)
	}
	return nil
}

// stageAudioMux concatenates the narration clips and muxes them onto the
// intermediate. Without clips the video stays silent.
func (r *Renderer) stageAudioMux(ctx context.Context, job *Job) error {
	state := job.state
	if state.capturePath == "" {
		return services.Wrap(services.ErrValidation, "render", "audio_mux",
			"capture has not run", nil)
	}
	if len(state.clips) == 0 {
		r.logger.Info("no narration audio, video renders silent",
			logging.String("job", job.ID))
		state.muxedPath = state.capturePath
		return nil
	}
	audioPath := filepath.Join(job.WorkDir, "narration.wav")
	if err := r.enc.ConcatAudio(ctx, state.clips, audioPath); err != nil {
		return err
	}
	job.AddIntermediate(func() error { return removeIfPresent(audioPath) })
	state.audioPath = audioPath
	muxedPath := filepath.Join(job.WorkDir, "muxed.mkv")
	if err := r.enc.MuxAudio(ctx, state.capturePath, audioPath, muxedPath); err != nil {
		return err
	}
	job.AddIntermediate(func() error { return removeIfPresent(muxedPath) })
	state.muxedPath = muxedPath
	return nil
}

// stageEncode writes the burn-in subtitle file and runs the delivery pass.
func (r *Renderer) stageEncode(ctx context.Context, job *Job, spec Spec) error {
	state := job.state
	if state.muxedPath == "" {
		return services.Wrap(services.ErrValidation, "render", "encode",
			"no intermediate to encode", nil)
	}
	tl := state.timeline
	if state.baseName == "" {
		state.baseName = textutil.OutputBaseName(spec.Recipe.Title, 60)
	}

	entries := spec.Subtitles
	if len(entries) == 0 {
		entries = spec.Narration.SubtitleEntries()
	}
	state.entries = entries
	if len(entries) > 0 {
		subtitlePath := filepath.Join(job.WorkDir, state.baseName+".srt")
		if err := writeTextFile(subtitlePath, subtitle.Marshal(entries)); err != nil {
			return err
		}
		job.AddIntermediate(func() error { return removeIfPresent(subtitlePath) })
		state.subtitlePath = subtitlePath
	}

	finalPath := filepath.Join(job.WorkDir, state.baseName+"."+r.settings.Container)
	cmd := encoder.Command{
		Input:        state.muxedPath,
		Output:       finalPath,
		VideoCodec:   r.settings.VideoCodec,
		AudioCodec:   r.settings.AudioCodec,
		AudioBitrate: r.settings.AudioBitrate,
		Width:        tl.Width,
		Height:       tl.Height,
		FrameRate:    tl.FrameRate,
		Preset:       r.settings.Preset,
		CRF:          r.settings.CRF,
	}
	if state.subtitlePath != "" {
		cmd.SubtitlePath = state.subtitlePath
		cmd.SubtitleStyle = encoder.ForceStyle(tl.Style)
	}

	sampler := logging.NewProgressSampler(10)
	err := r.enc.Encode(ctx, cmd, func(percent float64) {
		job.setStageProgress(CheckpointEncode, percent/100)
		r.report(job, spec, CheckpointEncode)
		if sampler.ShouldLog(percent, string(CheckpointEncode)) {
			r.logger.Debug("encode progress",
				logging.String("job", job.ID),
				logging.Float64(logging.FieldProgressPercent, percent))
		}
	})
	if err != nil {
		return err
	}
	if err := r.verifyDelivery(ctx, finalPath, tl, len(state.clips) > 0); err != nil {
		return err
	}
	state.finalPath = finalPath

	out, err := newOutput(OutputVideo, finalPath)
	if err != nil {
		return err
	}
	job.addOutput(out)
	job.AddProduct(func() error { return removeIfPresent(finalPath) })
	return nil
}

// verifyDelivery probes the delivered file and rejects encodes that came out
// structurally wrong: unreadable container, missing video stream, or a canvas
// that does not match the timeline. Duration drift beyond half a second is
// logged but tolerated; container rounding makes exact matches unreliable.
func (r *Renderer) verifyDelivery(ctx context.Context, path string, tl *Timeline, wantAudio bool) error {
	result, err := r.probeOutput(ctx, path)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "verify_output",
			"delivered file is not readable", err)
	}
	if result.VideoStreamCount() == 0 {
		return services.Wrap(services.ErrExternalTool, "render", "verify_output",
			"delivered file has no video stream", nil)
	}
	width, height, ok := result.Dimensions()
	if !ok || width != tl.Width || height != tl.Height {
		return services.Wrap(services.ErrExternalTool, "render", "verify_output",
			fmt.Sprintf("delivered canvas is %dx%d, expected %dx%d", width, height, tl.Width, tl.Height), nil)
	}
	if wantAudio && result.AudioStreamCount() == 0 {
		return services.Wrap(services.ErrExternalTool, "render", "verify_output",
			"delivered file lost its narration track", nil)
	}
	if duration := result.DurationSeconds(); duration > 0 && math.Abs(duration-tl.Duration) > 0.5 {
		r.logger.Warn("delivered duration drifts from timeline",
			logging.String("path", filepath.Base(path)),
			logging.Float64("delivered_s", duration),
			logging.Float64("timeline_s", tl.Duration))
	}
	r.logger.Debug("delivered file verified",
		logging.String("path", filepath.Base(path)),
		logging.Int64("size_bytes", result.SizeBytes()))
	return nil
}

// stageFinalize registers the auxiliary outputs: narration track, subtitle
// file, script text, thumbnail, and the project manifest.
func (r *Renderer) stageFinalize(ctx context.Context, job *Job, spec Spec) error {
	state := job.state
	if state.finalPath == "" {
		return services.Wrap(services.ErrValidation, "render", "finalize",
			"encode has not run", nil)
	}

	// The narration track and subtitle file registered their release hooks
	// when they were written.
	if state.audioPath != "" {
		out, err := newOutput(OutputAudio, state.audioPath)
		if err != nil {
			return err
		}
		job.addOutput(out)
	}
	if state.subtitlePath != "" {
		out, err := newOutput(OutputSubtitle, state.subtitlePath)
		if err != nil {
			return err
		}
		job.addOutput(out)
	}

	if script := scriptText(spec.Narration); script != "" {
		scriptPath := filepath.Join(job.WorkDir, state.baseName+".txt")
		if err := writeTextFile(scriptPath, script); err != nil {
			return err
		}
		out, err := newOutput(OutputScript, scriptPath)
		if err != nil {
			return err
		}
		job.addOutput(out)
		job.AddProduct(func() error { return removeIfPresent(scriptPath) })
	}

	thumbPath := filepath.Join(job.WorkDir, state.baseName+"-thumbnail.png")
	if err := r.enc.ExtractFirstFrame(ctx, state.finalPath, thumbPath); err != nil {
		return err
	}
	out, err := newOutput(OutputThumbnail, thumbPath)
	if err != nil {
		return err
	}
	job.addOutput(out)
	job.AddProduct(func() error { return removeIfPresent(thumbPath) })

	manifestPath := filepath.Join(job.WorkDir, state.baseName+".json")
	if err := writeManifest(manifestPath, job, state.timeline, spec.Recipe.Title); err != nil {
		return err
	}
	manifestOut, err := newOutput(OutputManifest, manifestPath)
	if err != nil {
		return err
	}
	job.addOutput(manifestOut)
	job.AddProduct(func() error { return removeIfPresent(manifestPath) })
	return nil
}

// scriptText flattens the narration back into a plain text script.
func scriptText(result *narration.Result) string {
	if result == nil {
		return ""
	}
	var lines []string
	for _, segment := range result.Segments {
		if segment.Text != "" {
			lines = append(lines, segment.Text)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func removeIfPresent(path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return err
}
