package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelsmith/internal/logging"
	"reelsmith/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var events bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display worker logs",
		Long: `Logs tails the most recent worker log. With --events it renders the
structured event archive for the latest run instead of raw log lines.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if lines < 0 {
				lines = 0
			}
			if events {
				return tailEventArchive(cmd, cfg.Paths.LogDir, follow, lines)
			}
			return tailLogFile(cmd, cfg.Paths.LogDir, follow, lines)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show (0 for all)")
	cmd.Flags().BoolVar(&events, "events", false, "Show structured events for the latest run")
	return cmd
}

func tailLogFile(cmd *cobra.Command, logDir string, follow bool, lines int) error {
	offset := int64(-1)
	if lines == 0 {
		offset = 0
	}

	// reelsmith.log points at the most recent worker run.
	path := filepath.Join(logDir, "reelsmith.log")
	cmdCtx := cmd.Context()
	limit := lines
	printed := false

	for {
		result, err := logs.Tail(cmdCtx, path, logs.TailOptions{
			Offset: offset,
			Limit:  limit,
			Follow: follow,
			Wait:   time.Second,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("tail logs: %w", err)
		}
		for _, line := range result.Lines {
			fmt.Fprintln(cmd.OutOrStdout(), line)
			printed = true
		}
		offset = result.Offset
		limit = 0
		if !follow {
			if !printed {
				fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
			}
			return nil
		}
		select {
		case <-cmdCtx.Done():
			return nil
		default:
		}
	}
}

func tailEventArchive(cmd *cobra.Command, logDir string, follow bool, lines int) error {
	path, err := latestEventsFile(logDir)
	if err != nil {
		return fmt.Errorf("locate event archive: %w", err)
	}
	if path == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No event archives available")
		return nil
	}

	all, cursor, err := logging.ReadEventsFile(path, 0, 0)
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	if lines > 0 && len(all) > lines {
		all = all[len(all)-lines:]
	}
	for _, evt := range all {
		fmt.Fprintln(cmd.OutOrStdout(), formatLogEvent(evt))
	}
	if !follow {
		if len(all) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
		}
		return nil
	}

	cmdCtx := cmd.Context()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-cmdCtx.Done():
			return nil
		case <-ticker.C:
		}
		// A new worker run writes a new archive; switch over when one appears.
		if latest, err := latestEventsFile(logDir); err == nil && latest != "" && latest != path {
			path = latest
			cursor = 0
		}
		fresh, next, err := logging.ReadEventsFile(path, cursor, 0)
		if err != nil {
			return fmt.Errorf("read events: %w", err)
		}
		cursor = next
		for _, evt := range fresh {
			fmt.Fprintln(cmd.OutOrStdout(), formatLogEvent(evt))
		}
	}
}

// latestEventsFile returns the newest reelsmith-*.events file in logDir, or
// empty when none exist yet.
func latestEventsFile(logDir string) (string, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	var (
		newest     string
		newestTime time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, _ := filepath.Match("reelsmith-*.events", entry.Name()); !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = filepath.Join(logDir, entry.Name())
			newestTime = info.ModTime()
		}
	}
	return newest, nil
}

func formatLogEvent(evt logging.LogEvent) string {
	var b strings.Builder
	b.WriteString(evt.Timestamp.Format("2006-01-02 15:04:05"))
	level := strings.TrimSpace(evt.Level)
	if level == "" {
		level = "INFO"
	}
	b.WriteString(" " + level)
	if component := strings.TrimSpace(evt.Component); component != "" {
		b.WriteString(" [" + component + "]")
	}
	if subject := eventSubject(evt.JobID, evt.Step, evt.Stage); subject != "" {
		b.WriteString(" " + subject)
	}
	if msg := strings.TrimSpace(evt.Message); msg != "" {
		b.WriteString(" - " + msg)
	}
	for _, detail := range evt.Details {
		if strings.TrimSpace(detail.Label) == "" || strings.TrimSpace(detail.Value) == "" {
			continue
		}
		b.WriteString("\n    - " + detail.Label + ": " + detail.Value)
	}
	return b.String()
}

// eventSubject mirrors the console handler's job/step prefix for archived
// events.
func eventSubject(jobID int64, step, stage string) string {
	scope := strings.TrimSpace(step)
	if scope == "" {
		scope = strings.TrimSpace(stage)
	}
	switch {
	case jobID > 0 && scope != "":
		return fmt.Sprintf("job #%d (%s)", jobID, scope)
	case jobID > 0:
		return fmt.Sprintf("job #%d", jobID)
	default:
		return scope
	}
}
