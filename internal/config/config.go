package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkspaceDir string `toml:"workspace_dir"`
	MaterialsDir string `toml:"materials_dir"`
	OutputDir    string `toml:"output_dir"`
	LogDir       string `toml:"log_dir"`
}

// Video contains canvas defaults applied to new recipes.
type Video struct {
	Width           int    `toml:"width"`
	Height          int    `toml:"height"`
	FrameRate       int    `toml:"frame_rate"`
	Template        string `toml:"template"`
	BackgroundKind  string `toml:"background_kind"`
	BackgroundColor string `toml:"background_color"`
	GradientTop     string `toml:"gradient_top"`
	GradientBottom  string `toml:"gradient_bottom"`
	BackgroundAsset string `toml:"background_asset"`
}

// Subtitles contains line-wrapping and burn-in style configuration.
type Subtitles struct {
	MaxLineWidth float64 `toml:"max_line_width"`
	FontPath     string  `toml:"font_path"`
	FontSize     float64 `toml:"font_size"`
	TextColor    string  `toml:"text_color"`
	StrokeColor  string  `toml:"stroke_color"`
	StrokeWidth  float64 `toml:"stroke_width"`
	PlateEnabled bool    `toml:"plate_enabled"`
	PlateColor   string  `toml:"plate_color"`
	Anchor       string  `toml:"anchor"`
}

// Speech contains configuration for the external speech synthesizer.
type Speech struct {
	Command        string  `toml:"command"`
	Voice          string  `toml:"voice"`
	Language       string  `toml:"language"`
	Rate           float64 `toml:"rate"`
	Pitch          float64 `toml:"pitch"`
	Volume         float64 `toml:"volume"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Encoder contains configuration for the external ffmpeg encode pass.
type Encoder struct {
	FFmpeg         string `toml:"ffmpeg"`
	FFprobe        string `toml:"ffprobe"`
	Container      string `toml:"container"`
	VideoCodec     string `toml:"video_codec"`
	AudioCodec     string `toml:"audio_codec"`
	AudioBitrate   string `toml:"audio_bitrate"`
	Preset         string `toml:"preset"`
	CRF            int    `toml:"crf"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Queue contains worker polling intervals and the retry policy applied to
// failed production jobs.
type Queue struct {
	PollInterval      int     `toml:"poll_interval"`
	HeartbeatInterval int     `toml:"heartbeat_interval"`
	HeartbeatTimeout  int     `toml:"heartbeat_timeout"`
	MaxAttempts       int     `toml:"max_attempts"`
	BackoffMinSeconds int     `toml:"backoff_min_seconds"`
	BackoffMaxSeconds int     `toml:"backoff_max_seconds"`
	BackoffFactor     float64 `toml:"backoff_factor"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Production     bool   `toml:"production"`
	Render         bool   `toml:"render"`
	Errors         bool   `toml:"errors"`
}

// Config encapsulates all configuration values for reelsmith.
//
// Configuration sections by subsystem:
//   - Paths: workspace, source materials, output, and log directories
//   - Video: canvas defaults (resolution, frame rate, template, background)
//   - Subtitles: line width budget and burn-in text styling
//   - Speech: external synthesizer command and voice parameters
//   - Encoder: ffmpeg/ffprobe binaries and delivery encode settings
//   - Queue: worker polling intervals and retry policy
//   - Logging: log format, level, and retention
//   - Notifications: ntfy push notification settings
type Config struct {
	Paths         Paths         `toml:"paths"`
	Video         Video         `toml:"video"`
	Subtitles     Subtitles     `toml:"subtitles"`
	Speech        Speech        `toml:"speech"`
	Encoder       Encoder       `toml:"encoder"`
	Queue         Queue         `toml:"queue"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelsmith/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/reelsmith/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelsmith.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for pipeline operation.
// MaterialsDir is created on a best-effort basis so the worker can run when
// shared storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkspaceDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.MaterialsDir) != "" {
		// Best-effort to avoid failing config load when storage is offline.
		_ = os.MkdirAll(c.Paths.MaterialsDir, 0o755)
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used by the encoder.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Encoder.FFmpeg); bin != "" {
		return bin
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Encoder.FFprobe); bin != "" {
		return bin
	}
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
