package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RetentionTarget names a directory and filename pattern to prune. Paths in
// Exclude survive pruning regardless of age.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// CleanupOldLogs removes files matching the targets that are older than
// retentionDays. A value of 0 disables pruning.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) {
	if retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	keep := make(map[string]struct{})
	for _, target := range targets {
		for _, path := range target.Exclude {
			if trimmed := strings.TrimSpace(path); trimmed != "" {
				keep[absOrSelf(trimmed)] = struct{}{}
			}
		}
	}

	for _, target := range targets {
		pruneTarget(logger, target, cutoff, keep)
	}
}

func pruneTarget(logger *slog.Logger, target RetentionTarget, cutoff time.Time, keep map[string]struct{}) {
	dir := strings.TrimSpace(target.Dir)
	if dir == "" {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	pattern := strings.TrimSpace(target.Pattern)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if pattern != "" {
			matched, err := filepath.Match(pattern, entry.Name())
			if err != nil || !matched {
				continue
			}
		}
		path := absOrSelf(filepath.Join(dir, entry.Name()))
		if _, skip := keep[path]; skip {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		if logger != nil {
			logger.Info("log pruned",
				String("path", path),
				String(FieldEventType, "log_pruned"),
			)
		}
	}
}

func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
