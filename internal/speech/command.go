package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelsmith/internal/logging"
	"reelsmith/internal/media/ffprobe"
	"reelsmith/internal/services"
	"reelsmith/internal/textutil"
)

// Template placeholders understood by CommandSynthesizer.
const (
	placeholderText   = "{text}"
	placeholderVoice  = "{voice}"
	placeholderRate   = "{rate}"
	placeholderPitch  = "{pitch}"
	placeholderVolume = "{volume}"
	placeholderOutput = "{output}"
)

// CommandSynthesizer shells out to a configurable TTS command. The command
// template is split on whitespace before placeholder substitution, so a
// substituted value never spawns extra arguments and no shell is involved.
// The produced file's duration is measured with ffprobe rather than trusted
// from the tool.
type CommandSynthesizer struct {
	template      string
	workDir       string
	ffprobeBinary string
	timeout       time.Duration
	logger        *slog.Logger

	commandRunner func(ctx context.Context, name string, args ...string) error
	probe         func(ctx context.Context, path string) (float64, error)
}

// NewCommandSynthesizer builds a synthesizer around a command template such
// as "say -v {voice} -r {rate} -o {output} {text}". Clips are written into
// workDir.
func NewCommandSynthesizer(template, workDir, ffprobeBinary string, logger *slog.Logger) *CommandSynthesizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CommandSynthesizer{
		template:      strings.TrimSpace(template),
		workDir:       workDir,
		ffprobeBinary: ffprobeBinary,
		logger:        logger,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *CommandSynthesizer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// WithTimeout bounds each synthesis invocation. Zero leaves the caller's
// context in charge.
func (s *CommandSynthesizer) WithTimeout(d time.Duration) {
	s.timeout = d
}

// WithProbe sets a custom duration probe (for testing).
func (s *CommandSynthesizer) WithProbe(probe func(ctx context.Context, path string) (float64, error)) {
	s.probe = probe
}

// Synthesize renders text to an audio clip and measures its duration.
func (s *CommandSynthesizer) Synthesize(ctx context.Context, text string, opts VoiceOptions) (Clip, error) {
	if s.template == "" {
		return Clip{}, services.Wrap(services.ErrConfiguration, "speech", "synthesize",
			"no speech command configured", nil)
	}
	if strings.TrimSpace(text) == "" {
		return Clip{}, services.Wrap(services.ErrValidation, "speech", "synthesize",
			"empty text", nil)
	}
	if !strings.Contains(s.template, placeholderText) || !strings.Contains(s.template, placeholderOutput) {
		return Clip{}, services.Wrap(services.ErrConfiguration, "speech", "synthesize",
			"speech command must reference {text} and {output}", nil)
	}

	if opts.Rate <= 0 {
		opts.Rate = 1
	}
	if opts.Volume <= 0 {
		opts.Volume = 1
	}

	clipName := "tts_" + uuid.NewString()
	if opts.Voice != "" {
		clipName = "tts_" + textutil.SanitizeToken(opts.Voice) + "_" + uuid.NewString()
	}
	outputPath := filepath.Join(s.workDir, clipName+".wav")
	name, args := s.buildCommand(text, opts, outputPath)

	s.logger.Debug("synthesizing speech",
		logging.String("voice", opts.Voice),
		logging.Int("text_chars", len([]rune(text))),
		logging.String("output", outputPath))

	if err := s.run(ctx, name, args...); err != nil {
		return Clip{}, services.Wrap(services.ErrExternalTool, "speech", "synthesize",
			"speech command failed", err)
	}
	if info, err := os.Stat(outputPath); err != nil || info.Size() == 0 {
		return Clip{}, services.Wrap(services.ErrExternalTool, "speech", "synthesize",
			fmt.Sprintf("speech command produced no audio at %s", outputPath), err)
	}

	duration, err := s.measure(ctx, outputPath)
	if err != nil {
		return Clip{}, services.Wrap(services.ErrExternalTool, "speech", "probe",
			"measure clip duration", err)
	}
	if duration <= 0 {
		return Clip{}, services.Wrap(services.ErrExternalTool, "speech", "probe",
			fmt.Sprintf("clip %s reports zero duration", outputPath), nil)
	}
	return Clip{AudioPath: outputPath, Duration: duration}, nil
}

// buildCommand splits the template and substitutes placeholders per field.
func (s *CommandSynthesizer) buildCommand(text string, opts VoiceOptions, outputPath string) (string, []string) {
	replacer := strings.NewReplacer(
		placeholderText, text,
		placeholderVoice, opts.Voice,
		placeholderRate, formatFloat(opts.Rate),
		placeholderPitch, formatFloat(opts.Pitch),
		placeholderVolume, formatFloat(opts.Volume),
		placeholderOutput, outputPath,
	)

	fields := strings.Fields(s.template)
	args := make([]string, 0, len(fields))
	for _, field := range fields {
		args = append(args, replacer.Replace(field))
	}
	return args[0], args[1:]
}

func (s *CommandSynthesizer) run(ctx context.Context, name string, args ...string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (s *CommandSynthesizer) measure(ctx context.Context, path string) (float64, error) {
	if s.probe != nil {
		return s.probe(ctx, path)
	}
	result, err := ffprobe.Inspect(ctx, s.ffprobeBinary, path)
	if err != nil {
		return 0, err
	}
	if _, ok := result.FirstAudioStream(); !ok {
		return 0, services.Wrap(services.ErrExternalTool, "speech", "probe",
			"synthesized file has no audio stream", nil)
	}
	return result.DurationSeconds(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
