package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelsmith/internal/deps"
	"reelsmith/internal/jobqueue"
	"reelsmith/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Directories", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, result := range preflight.RunAll(cfg) {
				kind := statusError
				if result.Passed {
					kind = statusOK
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Tools", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, line := range toolStatusLines(preflight.CheckSystemDeps(cfg), colorize) {
				fmt.Fprintln(out, line)
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Queue", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, queueStatusLine(cmd, ctx, colorize))
			return nil
		},
	}
}

func queueStatusLine(cmd *cobra.Command, ctx *commandContext, colorize bool) string {
	var line string
	err := ctx.withStore(func(store *jobqueue.Store) error {
		health, err := store.Health(cmd.Context())
		if err != nil {
			return err
		}
		detail := fmt.Sprintf("%d items (%d queued, %d processing, %d failed, %d completed)",
			health.Total, health.Queued, health.Processing, health.Failed, health.Completed)
		kind := statusOK
		if health.Failed > 0 {
			kind = statusWarn
		}
		line = renderStatusLine("Queue database", kind, detail, colorize)
		return nil
	})
	if err != nil {
		return renderStatusLine("Queue database", statusError, err.Error(), colorize)
	}
	return line
}

// toolStatusLines renders one line per tool plus a trailing summary when
// required tools are missing.
func toolStatusLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	var missing []string
	for _, status := range statuses {
		if status.Available {
			message := "Ready"
			if status.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", status.Command)
			}
			lines = append(lines, renderStatusLine(status.Name, statusOK, message, colorize))
			continue
		}

		detail := strings.TrimSpace(status.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if status.Optional {
			kind = statusWarn
		} else {
			missing = append(missing, status.Name)
		}
		lines = append(lines, renderStatusLine(status.Name, kind, detail, colorize))
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing tools", statusWarn, strings.Join(missing, ", "), colorize))
	}
	return lines
}
