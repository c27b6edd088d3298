package encoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"reelsmith/internal/logging"
	"reelsmith/internal/media/ffprobe"
	"reelsmith/internal/services"
)

// Command describes one delivery encode pass from the intermediate
// container to the final output.
type Command struct {
	Input         string
	Output        string
	VideoCodec    string
	AudioCodec    string
	VideoBitrate  string
	AudioBitrate  string
	Width         int
	Height        int
	FrameRate     int
	Preset        string
	CRF           int
	SubtitlePath  string
	SubtitleStyle string
	AudioPath     string
}

// CaptureSpec describes a packed RGBA frame stream arriving on stdin.
type CaptureSpec struct {
	Width     int
	Height    int
	FrameRate int
	Output    string
}

// AudioClip is one narration clip placed on the program audio track.
// LeadSilence seconds of silence precede the clip.
type AudioClip struct {
	Path        string
	LeadSilence float64
}

// Sample rate the concat pass normalizes every clip to. Synthesizers emit
// mixed rates and the concat filter requires uniform inputs.
const concatSampleRate = "24000"

type runner func(ctx context.Context, stream *ffmpeg.Stream, stdin io.Reader, stderr io.Writer) error

type durationProbe func(ctx context.Context, path string) (float64, error)

// Engine runs ffmpeg passes for the render pipeline. The zero value is not
// usable; construct with NewEngine.
type Engine struct {
	ffmpegBin  string
	ffprobeBin string
	timeout    time.Duration
	logger     *slog.Logger
	run        runner
	durationOf durationProbe
}

// NewEngine creates an engine invoking the given ffmpeg and ffprobe
// binaries. Empty binary names resolve from PATH.
func NewEngine(ffmpegBin, ffprobeBin string, logger *slog.Logger) *Engine {
	if strings.TrimSpace(ffmpegBin) == "" {
		ffmpegBin = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBin) == "" {
		ffprobeBin = "ffprobe"
	}
	e := &Engine{
		ffmpegBin:  ffmpegBin,
		ffprobeBin: ffprobeBin,
		logger:     logging.NewComponentLogger(logger, "encoder"),
	}
	e.run = e.runStream
	e.durationOf = func(ctx context.Context, path string) (float64, error) {
		result, err := ffprobe.Inspect(ctx, e.ffprobeBin, path)
		if err != nil {
			return 0, err
		}
		return result.DurationSeconds(), nil
	}
	return e
}

// WithRunner replaces the process runner. Used by tests to avoid executing
// ffmpeg.
func (e *Engine) WithRunner(run func(ctx context.Context, stream *ffmpeg.Stream, stdin io.Reader, stderr io.Writer) error) {
	if run != nil {
		e.run = run
	}
}

// WithDurationProbe replaces the duration lookup used for encode progress.
func (e *Engine) WithDurationProbe(probe func(ctx context.Context, path string) (float64, error)) {
	if probe != nil {
		e.durationOf = probe
	}
}

// WithTimeout bounds each ffmpeg invocation. Zero leaves the caller's
// context in charge.
func (e *Engine) WithTimeout(d time.Duration) {
	e.timeout = d
}

// Encode transcodes the intermediate into the delivery container,
// optionally burning in subtitles and muxing a separate narration track.
// progress receives percentages in [0, 100] as ffmpeg reports timing; it
// may be nil.
func (e *Engine) Encode(ctx context.Context, cmd Command, progress func(percent float64)) error {
	if strings.TrimSpace(cmd.Input) == "" {
		return services.Wrap(services.ErrValidation, "encoder", "encode",
			"encode input path is required", nil)
	}
	if strings.TrimSpace(cmd.Output) == "" {
		return services.Wrap(services.ErrValidation, "encoder", "encode",
			"encode output path is required", nil)
	}

	outputArgs := ffmpeg.KwArgs{
		"movflags": "+faststart",
		"pix_fmt":  "yuv420p",
	}
	if cmd.VideoCodec != "" {
		outputArgs["c:v"] = cmd.VideoCodec
	}
	if cmd.AudioCodec != "" {
		outputArgs["c:a"] = cmd.AudioCodec
	}
	if cmd.VideoBitrate != "" {
		outputArgs["b:v"] = cmd.VideoBitrate
	}
	if cmd.AudioBitrate != "" {
		outputArgs["b:a"] = cmd.AudioBitrate
	}
	if cmd.Preset != "" {
		outputArgs["preset"] = cmd.Preset
	}
	if cmd.CRF > 0 {
		outputArgs["crf"] = strconv.Itoa(cmd.CRF)
	}
	if cmd.FrameRate > 0 {
		outputArgs["r"] = strconv.Itoa(cmd.FrameRate)
	}
	if cmd.Width > 0 && cmd.Height > 0 {
		outputArgs["s"] = fmt.Sprintf("%dx%d", cmd.Width, cmd.Height)
	}
	if cmd.SubtitlePath != "" {
		outputArgs["vf"] = SubtitleFilter(cmd.SubtitlePath, cmd.SubtitleStyle)
	}

	video := ffmpeg.Input(cmd.Input)
	var stream *ffmpeg.Stream
	if cmd.AudioPath != "" {
		outputArgs["shortest"] = ""
		audio := ffmpeg.Input(cmd.AudioPath)
		stream = ffmpeg.Output([]*ffmpeg.Stream{video, audio}, cmd.Output, outputArgs)
	} else {
		stream = video.Output(cmd.Output, outputArgs)
	}
	stream = stream.OverWriteOutput()

	tail := &tailWriter{}
	var sink io.Writer = tail
	if progress != nil {
		if total, err := e.durationOf(ctx, cmd.Input); err == nil && total > 0 {
			sink = io.MultiWriter(tail, newProgressWriter(total, progress))
		}
	}

	e.logger.Info("starting delivery encode",
		logging.String("input", cmd.Input),
		logging.String("output", cmd.Output),
		logging.String("video_codec", cmd.VideoCodec))
	if err := e.run(ctx, stream, nil, sink); err != nil {
		return wrapRun("encode", "delivery encode failed", err, tail)
	}
	if progress != nil {
		progress(100)
	}
	return nil
}

// CaptureRawVideo streams packed RGBA frames from frames into an
// intermediate matroska file. ffmpeg exits when the reader is exhausted.
func (e *Engine) CaptureRawVideo(ctx context.Context, spec CaptureSpec, frames io.Reader) error {
	if spec.Width <= 0 || spec.Height <= 0 || spec.FrameRate <= 0 {
		return services.Wrap(services.ErrValidation, "encoder", "capture",
			"capture geometry and frame rate must be positive", nil)
	}
	if strings.TrimSpace(spec.Output) == "" {
		return services.Wrap(services.ErrValidation, "encoder", "capture",
			"capture output path is required", nil)
	}
	if frames == nil {
		return services.Wrap(services.ErrValidation, "encoder", "capture",
			"capture frame reader is required", nil)
	}

	stream := ffmpeg.Input("pipe:", ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", spec.Width, spec.Height),
		"framerate": strconv.Itoa(spec.FrameRate),
	}).Output(spec.Output, ffmpeg.KwArgs{
		"c:v":     "libx264",
		"preset":  "ultrafast",
		"crf":     "18",
		"pix_fmt": "yuv420p",
	}).OverWriteOutput()

	e.logger.Debug("capturing raw frames",
		logging.String("output", spec.Output),
		logging.Int("width", spec.Width),
		logging.Int("height", spec.Height),
		logging.Int("frame_rate", spec.FrameRate))
	tail := &tailWriter{}
	if err := e.run(ctx, stream, frames, tail); err != nil {
		return wrapRun("capture", "raw frame capture failed", err, tail)
	}
	return nil
}

// ConcatAudio lays the narration clips onto one continuous track with their
// lead-in silences and writes the result as PCM WAV. Clips are resampled to
// a common rate before concatenation.
func (e *Engine) ConcatAudio(ctx context.Context, clips []AudioClip, output string) error {
	if len(clips) == 0 {
		return services.Wrap(services.ErrValidation, "encoder", "concat_audio",
			"no audio clips to concatenate", nil)
	}
	if strings.TrimSpace(output) == "" {
		return services.Wrap(services.ErrValidation, "encoder", "concat_audio",
			"concat output path is required", nil)
	}
	for _, clip := range clips {
		if strings.TrimSpace(clip.Path) == "" {
			return services.Wrap(services.ErrValidation, "encoder", "concat_audio",
				"audio clip path is required", nil)
		}
	}

	inputs := make([]*ffmpeg.Stream, 0, len(clips)*2)
	for _, clip := range clips {
		if clip.LeadSilence > 0 {
			inputs = append(inputs, ffmpeg.Input(
				"anullsrc=channel_layout=mono:sample_rate="+concatSampleRate,
				ffmpeg.KwArgs{
					"f": "lavfi",
					"t": strconv.FormatFloat(clip.LeadSilence, 'f', 3, 64),
				}))
		}
		inputs = append(inputs, ffmpeg.Input(clip.Path))
	}
	normalized := make([]*ffmpeg.Stream, 0, len(inputs))
	for _, in := range inputs {
		normalized = append(normalized, in.Filter("aformat", ffmpeg.Args{}, ffmpeg.KwArgs{
			"sample_rates":    concatSampleRate,
			"channel_layouts": "mono",
		}))
	}
	stream := ffmpeg.Filter(normalized, "concat", ffmpeg.Args{}, ffmpeg.KwArgs{
		"n": strconv.Itoa(len(normalized)),
		"v": "0",
		"a": "1",
	}).Output(output, ffmpeg.KwArgs{
		"c:a": "pcm_s16le",
	}).OverWriteOutput()

	e.logger.Debug("concatenating narration audio",
		logging.Int("clips", len(clips)),
		logging.String("output", output))
	tail := &tailWriter{}
	if err := e.run(ctx, stream, nil, tail); err != nil {
		return wrapRun("concat_audio", "audio concatenation failed", err, tail)
	}
	return nil
}

// MuxAudio muxes the narration track onto the intermediate video, copying
// the video stream untouched.
func (e *Engine) MuxAudio(ctx context.Context, videoPath, audioPath, output string) error {
	if strings.TrimSpace(videoPath) == "" || strings.TrimSpace(audioPath) == "" {
		return services.Wrap(services.ErrValidation, "encoder", "mux_audio",
			"mux requires video and audio paths", nil)
	}
	if strings.TrimSpace(output) == "" {
		return services.Wrap(services.ErrValidation, "encoder", "mux_audio",
			"mux output path is required", nil)
	}

	video := ffmpeg.Input(videoPath)
	audio := ffmpeg.Input(audioPath)
	stream := ffmpeg.Output([]*ffmpeg.Stream{video, audio}, output, ffmpeg.KwArgs{
		"c:v":      "copy",
		"c:a":      "aac",
		"shortest": "",
	}).OverWriteOutput()

	e.logger.Debug("muxing narration audio",
		logging.String("video", videoPath),
		logging.String("audio", audioPath),
		logging.String("output", output))
	tail := &tailWriter{}
	if err := e.run(ctx, stream, nil, tail); err != nil {
		return wrapRun("mux_audio", "audio mux failed", err, tail)
	}
	return nil
}

// ExtractFirstFrame writes the first video frame to output; the extension
// selects the image format.
func (e *Engine) ExtractFirstFrame(ctx context.Context, videoPath, output string) error {
	if strings.TrimSpace(videoPath) == "" || strings.TrimSpace(output) == "" {
		return services.Wrap(services.ErrValidation, "encoder", "thumbnail",
			"thumbnail requires video and output paths", nil)
	}

	stream := ffmpeg.Input(videoPath).Output(output, ffmpeg.KwArgs{
		"vframes": "1",
	}).OverWriteOutput()

	tail := &tailWriter{}
	if err := e.run(ctx, stream, nil, tail); err != nil {
		return wrapRun("thumbnail", "first frame extraction failed", err, tail)
	}
	return nil
}

// Probe inspects a media file with ffprobe.
func (e *Engine) Probe(ctx context.Context, path string) (ffprobe.Result, error) {
	return ffprobe.Inspect(ctx, e.ffprobeBin, path)
}

// runStream compiles the stream and executes it under ctx. ffmpeg-go
// resolves the binary name at compile time, so a configured binary and
// the stdin stream are wired onto the compiled command afterwards.
func (e *Engine) runStream(ctx context.Context, stream *ffmpeg.Stream, stdin io.Reader, stderr io.Writer) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	cmd := stream.Compile()
	if e.ffmpegBin != "" && e.ffmpegBin != "ffmpeg" {
		path := e.ffmpegBin
		if resolved, err := exec.LookPath(path); err == nil {
			path = resolved
		}
		cmd.Path = path
		if len(cmd.Args) > 0 {
			cmd.Args[0] = e.ffmpegBin
		}
	}
	if stdin != nil {
		cmd.Stdin = stdin
	}
	if stderr != nil {
		cmd.Stderr = stderr
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func wrapRun(operation, message string, err error, tail *tailWriter) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if out := tail.String(); out != "" {
		err = fmt.Errorf("%w: %s", err, out)
	}
	return services.Wrap(services.ErrExternalTool, "encoder", operation, message, err)
}

const tailLimit = 2048

// tailWriter keeps the last portion of a stream for error reporting.
type tailWriter struct {
	mu  sync.Mutex
	buf []byte
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	if over := len(w.buf) - tailLimit; over > 0 {
		w.buf = w.buf[over:]
	}
	return len(p), nil
}

func (w *tailWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return strings.TrimSpace(string(w.buf))
}

var encodeTimePattern = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)

// progressWriter scans ffmpeg stderr for time= marks and reports the
// percentage of the known total duration. Reports are monotonic.
type progressWriter struct {
	mu     sync.Mutex
	total  float64
	report func(float64)
	tail   []byte
	last   float64
}

func newProgressWriter(total float64, report func(float64)) *progressWriter {
	return &progressWriter{total: total, report: report}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tail = append(w.tail, p...)
	if matches := encodeTimePattern.FindAllSubmatch(w.tail, -1); len(matches) > 0 {
		last := matches[len(matches)-1]
		hours, _ := strconv.Atoi(string(last[1]))
		minutes, _ := strconv.Atoi(string(last[2]))
		seconds, _ := strconv.ParseFloat(string(last[3]), 64)
		elapsed := float64(hours)*3600 + float64(minutes)*60 + seconds
		percent := min(elapsed/w.total*100, 100)
		if percent > w.last {
			w.last = percent
			w.report(percent)
		}
	}
	if over := len(w.tail) - 256; over > 0 {
		w.tail = w.tail[over:]
	}
	return len(p), nil
}
