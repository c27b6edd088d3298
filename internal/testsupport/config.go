package testsupport

import (
	"path/filepath"
	"testing"

	"reelsmith/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfg.Paths.MaterialsDir = filepath.Join(base, "materials")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Notifications.NtfyTopic = ""

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithQueueRetry overrides the retry policy applied to failed jobs.
func WithQueueRetry(maxAttempts, backoffMinSeconds, backoffMaxSeconds int, factor float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Queue.MaxAttempts = maxAttempts
		cfg.Queue.BackoffMinSeconds = backoffMinSeconds
		cfg.Queue.BackoffMaxSeconds = backoffMaxSeconds
		cfg.Queue.BackoffFactor = factor
	}
}

// WithPollInterval shortens the worker poll interval for tests that wait on
// queue pickup.
func WithPollInterval(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Queue.PollInterval = seconds
	}
}

// WithNtfyTopic points notifications at the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
	}
}
