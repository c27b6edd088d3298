package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"reelsmith/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("REELSMITH_NTFY_TOPIC", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWorkspace := filepath.Join(tempHome, ".local", "share", "reelsmith", "workspace")
	if cfg.Paths.WorkspaceDir != wantWorkspace {
		t.Fatalf("unexpected workspace dir: got %q want %q", cfg.Paths.WorkspaceDir, wantWorkspace)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "reelsmith", "output") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Video.Width != 1080 || cfg.Video.Height != 1920 {
		t.Fatalf("unexpected canvas defaults: %dx%d", cfg.Video.Width, cfg.Video.Height)
	}
	if cfg.Video.FrameRate != 30 {
		t.Fatalf("unexpected frame rate default: %d", cfg.Video.FrameRate)
	}
	if cfg.Video.BackgroundKind != "solid" {
		t.Fatalf("unexpected background kind: %q", cfg.Video.BackgroundKind)
	}
	if cfg.Subtitles.MaxLineWidth != 13.0 {
		t.Fatalf("unexpected max line width: %v", cfg.Subtitles.MaxLineWidth)
	}
	if cfg.Subtitles.Anchor != "bottom" {
		t.Fatalf("unexpected anchor: %q", cfg.Subtitles.Anchor)
	}
	if cfg.Speech.Language != "ja-JP" {
		t.Fatalf("unexpected speech language: %q", cfg.Speech.Language)
	}
	if cfg.Speech.Rate != 1.0 {
		t.Fatalf("unexpected speech rate: %v", cfg.Speech.Rate)
	}
	if cfg.Encoder.Container != "mp4" {
		t.Fatalf("unexpected container: %q", cfg.Encoder.Container)
	}
	if cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected binaries: %q %q", cfg.FFmpegBinary(), cfg.FFprobeBinary())
	}
	if cfg.Queue.MaxAttempts != 3 {
		t.Fatalf("unexpected max attempts: %d", cfg.Queue.MaxAttempts)
	}
	if cfg.Queue.BackoffFactor != 2.0 {
		t.Fatalf("unexpected backoff factor: %v", cfg.Queue.BackoffFactor)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkspaceDir, cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "reelsmith.toml")

	type payload struct {
		Video struct {
			Width     int `toml:"width"`
			Height    int `toml:"height"`
			FrameRate int `toml:"frame_rate"`
		} `toml:"video"`
		Subtitles struct {
			MaxLineWidth float64 `toml:"max_line_width"`
		} `toml:"subtitles"`
		Queue struct {
			HeartbeatInterval int `toml:"heartbeat_interval"`
			HeartbeatTimeout  int `toml:"heartbeat_timeout"`
		} `toml:"queue"`
	}
	custom := payload{}
	custom.Video.Width = 720
	custom.Video.Height = 1280
	custom.Video.FrameRate = 24
	custom.Subtitles.MaxLineWidth = 10
	custom.Queue.HeartbeatInterval = 20
	custom.Queue.HeartbeatTimeout = 200
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Video.Width != 720 || cfg.Video.Height != 1280 {
		t.Fatalf("expected canvas override, got %dx%d", cfg.Video.Width, cfg.Video.Height)
	}
	if cfg.Video.FrameRate != 24 {
		t.Fatalf("expected frame rate 24, got %d", cfg.Video.FrameRate)
	}
	if cfg.Subtitles.MaxLineWidth != 10 {
		t.Fatalf("expected max line width 10, got %v", cfg.Subtitles.MaxLineWidth)
	}
	if cfg.Queue.HeartbeatInterval != 20 || cfg.Queue.HeartbeatTimeout != 200 {
		t.Fatalf("expected queue overrides, got %d/%d", cfg.Queue.HeartbeatInterval, cfg.Queue.HeartbeatTimeout)
	}
	// Untouched sections keep defaults.
	if cfg.Encoder.VideoCodec != "libx264" {
		t.Fatalf("unexpected video codec: %q", cfg.Encoder.VideoCodec)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantSub string
	}{
		{
			name:    "odd width",
			mutate:  func(c *config.Config) { c.Video.Width = 1081 },
			wantSub: "even",
		},
		{
			name:    "unknown background kind",
			mutate:  func(c *config.Config) { c.Video.BackgroundKind = "plasma" },
			wantSub: "background_kind",
		},
		{
			name:    "image background without asset",
			mutate:  func(c *config.Config) { c.Video.BackgroundKind = "image" },
			wantSub: "background_asset",
		},
		{
			name:    "tiny line width",
			mutate:  func(c *config.Config) { c.Subtitles.MaxLineWidth = 1 },
			wantSub: "max_line_width",
		},
		{
			name:    "bad anchor",
			mutate:  func(c *config.Config) { c.Subtitles.Anchor = "floating" },
			wantSub: "anchor",
		},
		{
			name:    "rate out of range",
			mutate:  func(c *config.Config) { c.Speech.Rate = 9 },
			wantSub: "speech.rate",
		},
		{
			name:    "crf out of range",
			mutate:  func(c *config.Config) { c.Encoder.CRF = 70 },
			wantSub: "crf",
		},
		{
			name:    "unknown container",
			mutate:  func(c *config.Config) { c.Encoder.Container = "avi" },
			wantSub: "container",
		},
		{
			name: "heartbeat timeout below interval",
			mutate: func(c *config.Config) {
				c.Queue.HeartbeatInterval = 30
				c.Queue.HeartbeatTimeout = 20
			},
			wantSub: "heartbeat_timeout",
		},
		{
			name: "backoff max below min",
			mutate: func(c *config.Config) {
				c.Queue.BackoffMinSeconds = 60
				c.Queue.BackoffMaxSeconds = 30
			},
			wantSub: "backoff_max_seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantSub, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	samplePath := filepath.Join(tempHome, "config", "config.toml")
	if err := config.CreateSample(samplePath); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(samplePath)
	if err != nil {
		t.Fatalf("Load sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Video.Width != config.Default().Video.Width {
		t.Fatalf("sample width differs from default: %d", cfg.Video.Width)
	}
	if cfg.Subtitles.MaxLineWidth != config.Default().Subtitles.MaxLineWidth {
		t.Fatalf("sample line width differs from default: %v", cfg.Subtitles.MaxLineWidth)
	}
}

func TestNtfyTopicEnvFallback(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("REELSMITH_NTFY_TOPIC", "reelsmith-alerts")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "reelsmith-alerts" {
		t.Fatalf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}
