package encoder

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"reelsmith/internal/services"
)

type capturedRun struct {
	args  []string
	stdin io.Reader
}

func captureRunner(runs *[]capturedRun, fail error, stderrText string) func(context.Context, *ffmpeg.Stream, io.Reader, io.Writer) error {
	return func(ctx context.Context, stream *ffmpeg.Stream, stdin io.Reader, stderr io.Writer) error {
		*runs = append(*runs, capturedRun{args: stream.Compile().Args, stdin: stdin})
		if stdin != nil {
			io.Copy(io.Discard, stdin)
		}
		if stderrText != "" && stderr != nil {
			io.WriteString(stderr, stderrText)
		}
		return fail
	}
}

func flagValue(args []string, flag string) (string, bool) {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

func flagValues(args []string, flag string) []string {
	var values []string
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			values = append(values, args[i+1])
		}
	}
	return values
}

func hasToken(args []string, token string) bool {
	for _, arg := range args {
		if arg == token {
			return true
		}
	}
	return false
}

func TestEncodeBuildsDeliveryArgs(t *testing.T) {
	var runs []capturedRun
	engine := NewEngine("", "", nil)
	engine.WithRunner(captureRunner(&runs, nil, ""))

	cmd := Command{
		Input:         "/work/intermediate.mkv",
		Output:        "/work/final.mp4",
		VideoCodec:    "libx264",
		AudioCodec:    "aac",
		AudioBitrate:  "192k",
		Width:         1080,
		Height:        1920,
		FrameRate:     30,
		Preset:        "medium",
		CRF:           23,
		SubtitlePath:  "/work/final.srt",
		SubtitleStyle: "FontSize=32",
		AudioPath:     "/work/narration.wav",
	}
	if err := engine.Encode(context.Background(), cmd, nil); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runner invoked %d times, want 1", len(runs))
	}
	args := runs[0].args

	wantFlags := map[string]string{
		"-c:v":      "libx264",
		"-c:a":      "aac",
		"-b:a":      "192k",
		"-preset":   "medium",
		"-crf":      "23",
		"-r":        "30",
		"-s":        "1080x1920",
		"-movflags": "+faststart",
		"-vf":       SubtitleFilter("/work/final.srt", "FontSize=32"),
	}
	for flag, want := range wantFlags {
		got, ok := flagValue(args, flag)
		if !ok {
			t.Fatalf("args missing %s: %v", flag, args)
		}
		if got != want {
			t.Fatalf("%s = %q, want %q", flag, got, want)
		}
	}
	for _, token := range []string{"/work/intermediate.mkv", "/work/narration.wav", "/work/final.mp4", "-shortest", "-y"} {
		if !hasToken(args, token) {
			t.Fatalf("args missing %q: %v", token, args)
		}
	}
	if got := len(flagValues(args, "-i")); got != 2 {
		t.Fatalf("got %d inputs, want 2", got)
	}
}

func TestEncodeWithoutAudioUsesSingleInput(t *testing.T) {
	var runs []capturedRun
	engine := NewEngine("", "", nil)
	engine.WithRunner(captureRunner(&runs, nil, ""))

	cmd := Command{Input: "/work/intermediate.mkv", Output: "/work/final.mp4"}
	if err := engine.Encode(context.Background(), cmd, nil); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	args := runs[0].args
	if got := len(flagValues(args, "-i")); got != 1 {
		t.Fatalf("got %d inputs, want 1", got)
	}
	if hasToken(args, "-shortest") {
		t.Fatalf("unexpected -shortest without audio: %v", args)
	}
}

func TestEncodeRejectsMissingPaths(t *testing.T) {
	var runs []capturedRun
	engine := NewEngine("", "", nil)
	engine.WithRunner(captureRunner(&runs, nil, ""))

	cases := []struct {
		name string
		cmd  Command
	}{
		{"missing input", Command{Output: "/work/final.mp4"}},
		{"missing output", Command{Input: "/work/intermediate.mkv"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := engine.Encode(context.Background(), tc.cmd, nil)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("Encode() error = %v, want validation error", err)
			}
		})
	}
	if len(runs) != 0 {
		t.Fatalf("runner invoked %d times, want 0", len(runs))
	}
}

func TestEncodeWrapsToolFailure(t *testing.T) {
	engine := NewEngine("", "", nil)
	var runs []capturedRun
	engine.WithRunner(captureRunner(&runs, errors.New("exit status 1"), "conversion failed: unsupported codec\n"))

	err := engine.Encode(context.Background(), Command{Input: "/in.mkv", Output: "/out.mp4"}, nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("Encode() error = %v, want external tool error", err)
	}
	if !strings.Contains(err.Error(), "unsupported codec") {
		t.Fatalf("Encode() error %q does not carry tool output", err)
	}
}

func TestEncodeReportsProgress(t *testing.T) {
	engine := NewEngine("", "", nil)
	engine.WithDurationProbe(func(ctx context.Context, path string) (float64, error) {
		return 10, nil
	})
	engine.WithRunner(func(ctx context.Context, stream *ffmpeg.Stream, stdin io.Reader, stderr io.Writer) error {
		io.WriteString(stderr, "frame=  120 fps=30 q=28.0 time=00:00:05.00 bitrate=1000k speed=1x\n")
		return nil
	})

	var reports []float64
	err := engine.Encode(context.Background(), Command{Input: "/in.mkv", Output: "/out.mp4"}, func(percent float64) {
		reports = append(reports, percent)
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(reports) < 2 {
		t.Fatalf("got %d progress reports, want at least 2", len(reports))
	}
	if got := reports[0]; got < 49 || got > 51 {
		t.Fatalf("first report = %v, want about 50", got)
	}
	if got := reports[len(reports)-1]; got != 100 {
		t.Fatalf("final report = %v, want 100", got)
	}
}

func TestCaptureRawVideoArgs(t *testing.T) {
	var runs []capturedRun
	engine := NewEngine("", "", nil)
	engine.WithRunner(captureRunner(&runs, nil, ""))

	spec := CaptureSpec{Width: 1080, Height: 1920, FrameRate: 30, Output: "/work/intermediate.mkv"}
	if err := engine.CaptureRawVideo(context.Background(), spec, strings.NewReader("")); err != nil {
		t.Fatalf("CaptureRawVideo() error = %v", err)
	}
	args := runs[0].args

	if got, _ := flagValue(args, "-f"); got != "rawvideo" {
		t.Fatalf("-f = %q, want rawvideo", got)
	}
	if got, _ := flagValue(args, "-s"); got != "1080x1920" {
		t.Fatalf("-s = %q, want 1080x1920", got)
	}
	if got, _ := flagValue(args, "-framerate"); got != "30" {
		t.Fatalf("-framerate = %q, want 30", got)
	}
	pixFmts := flagValues(args, "-pix_fmt")
	joined := strings.Join(pixFmts, " ")
	if !strings.Contains(joined, "rgba") || !strings.Contains(joined, "yuv420p") {
		t.Fatalf("pix_fmt values = %v, want rgba input and yuv420p output", pixFmts)
	}
	if !hasToken(args, "pipe:") {
		t.Fatalf("args missing stdin input: %v", args)
	}
	if runs[0].stdin == nil {
		t.Fatalf("frame reader was not handed to the runner")
	}
}

func TestCaptureRawVideoRejectsBadSpec(t *testing.T) {
	engine := NewEngine("", "", nil)
	var runs []capturedRun
	engine.WithRunner(captureRunner(&runs, nil, ""))

	cases := []struct {
		name   string
		spec   CaptureSpec
		reader io.Reader
	}{
		{"zero width", CaptureSpec{Height: 10, FrameRate: 30, Output: "/out.mkv"}, strings.NewReader("")},
		{"zero frame rate", CaptureSpec{Width: 10, Height: 10, Output: "/out.mkv"}, strings.NewReader("")},
		{"missing output", CaptureSpec{Width: 10, Height: 10, FrameRate: 30}, strings.NewReader("")},
		{"nil reader", CaptureSpec{Width: 10, Height: 10, FrameRate: 30, Output: "/out.mkv"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := engine.CaptureRawVideo(context.Background(), tc.spec, tc.reader)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("CaptureRawVideo() error = %v, want validation error", err)
			}
		})
	}
}

func TestConcatAudioArgs(t *testing.T) {
	var runs []capturedRun
	engine := NewEngine("", "", nil)
	engine.WithRunner(captureRunner(&runs, nil, ""))

	clips := []AudioClip{
		{Path: "/work/segment-001.wav"},
		{Path: "/work/segment-002.wav", LeadSilence: 0.5},
	}
	if err := engine.ConcatAudio(context.Background(), clips, "/work/narration.wav"); err != nil {
		t.Fatalf("ConcatAudio() error = %v", err)
	}
	args := runs[0].args
	joined := strings.Join(args, " ")

	if got := len(flagValues(args, "-i")); got != 3 {
		t.Fatalf("got %d inputs, want clip, silence, clip", got)
	}
	if !hasToken(args, "anullsrc=channel_layout=mono:sample_rate=24000") {
		t.Fatalf("args missing silence source: %v", args)
	}
	if got, _ := flagValue(args, "-t"); got != "0.500" {
		t.Fatalf("-t = %q, want 0.500", got)
	}
	for _, fragment := range []string{"concat", "aformat", "n=3", "a=1"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("args missing %q: %v", fragment, args)
		}
	}
	if got, _ := flagValue(args, "-c:a"); got != "pcm_s16le" {
		t.Fatalf("-c:a = %q, want pcm_s16le", got)
	}
}

func TestConcatAudioRejectsEmptyInput(t *testing.T) {
	engine := NewEngine("", "", nil)
	var runs []capturedRun
	engine.WithRunner(captureRunner(&runs, nil, ""))

	if err := engine.ConcatAudio(context.Background(), nil, "/out.wav"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("ConcatAudio(nil) error = %v, want validation error", err)
	}
	clips := []AudioClip{{Path: ""}}
	if err := engine.ConcatAudio(context.Background(), clips, "/out.wav"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("ConcatAudio(empty path) error = %v, want validation error", err)
	}
}

func TestMuxAudioArgs(t *testing.T) {
	var runs []capturedRun
	engine := NewEngine("", "", nil)
	engine.WithRunner(captureRunner(&runs, nil, ""))

	if err := engine.MuxAudio(context.Background(), "/work/video.mkv", "/work/narration.wav", "/work/muxed.mkv"); err != nil {
		t.Fatalf("MuxAudio() error = %v", err)
	}
	args := runs[0].args

	if got, _ := flagValue(args, "-c:v"); got != "copy" {
		t.Fatalf("-c:v = %q, want copy", got)
	}
	if got, _ := flagValue(args, "-c:a"); got != "aac" {
		t.Fatalf("-c:a = %q, want aac", got)
	}
	if !hasToken(args, "-shortest") {
		t.Fatalf("args missing -shortest: %v", args)
	}
	if got := len(flagValues(args, "-i")); got != 2 {
		t.Fatalf("got %d inputs, want 2", got)
	}
}

func TestExtractFirstFrameArgs(t *testing.T) {
	var runs []capturedRun
	engine := NewEngine("", "", nil)
	engine.WithRunner(captureRunner(&runs, nil, ""))

	if err := engine.ExtractFirstFrame(context.Background(), "/work/final.mp4", "/work/thumb.png"); err != nil {
		t.Fatalf("ExtractFirstFrame() error = %v", err)
	}
	args := runs[0].args
	if got, _ := flagValue(args, "-vframes"); got != "1" {
		t.Fatalf("-vframes = %q, want 1", got)
	}
	if !hasToken(args, "/work/thumb.png") {
		t.Fatalf("args missing output: %v", args)
	}
}
