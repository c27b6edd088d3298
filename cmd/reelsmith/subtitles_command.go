package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"reelsmith/internal/config"
	"reelsmith/internal/subtitle"
)

func newSubtitlesCommand(ctx *commandContext) *cobra.Command {
	subtitlesCmd := &cobra.Command{
		Use:   "subtitles",
		Short: "Subtitle formatting tools",
	}

	subtitlesCmd.AddCommand(newSubtitlesFormatCommand(ctx))
	subtitlesCmd.AddCommand(newSubtitlesCheckCommand(ctx))

	return subtitlesCmd
}

func newSubtitlesFormatCommand(ctx *commandContext) *cobra.Command {
	var width float64

	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Wrap text into subtitle lines",
		Long: `Format wraps text into lines no wider than the configured width, keeping
forbidden leading and trailing characters off line boundaries. Text comes
from the file argument, or stdin when absent. Each input line wraps
independently and blank lines pass through.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxWidth := width
			if maxWidth <= 0 {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				maxWidth = cfg.Subtitles.MaxLineWidth
			}

			var raw []byte
			var err error
			if len(args) == 1 {
				source, pathErr := config.ExpandPath(args[0])
				if pathErr != nil {
					return fmt.Errorf("resolve input path: %w", pathErr)
				}
				raw, err = os.ReadFile(source)
			} else {
				raw, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			formatter := subtitle.NewFormatter(maxWidth)
			out := cmd.OutOrStdout()
			text := strings.ReplaceAll(string(raw), "\r\n", "\n")
			for _, block := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
				if strings.TrimSpace(block) == "" {
					fmt.Fprintln(out)
					continue
				}
				for _, line := range formatter.Format(block) {
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}

	cmd.Flags().Float64VarP(&width, "width", "w", 0, "Maximum line width in full-width units (default from config)")
	return cmd
}

func newSubtitlesCheckCommand(ctx *commandContext) *cobra.Command {
	var width float64

	cmd := &cobra.Command{
		Use:   "check <file.srt>",
		Short: "Validate an SRT file and report cue statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxWidth := width
			if maxWidth <= 0 {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				maxWidth = cfg.Subtitles.MaxLineWidth
			}

			source, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve input path: %w", err)
			}
			raw, err := os.ReadFile(source)
			if err != nil {
				return fmt.Errorf("read subtitle file: %w", err)
			}
			entries, err := subtitle.Parse(string(raw))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No cues found")
				return nil
			}

			rules := subtitle.DefaultRules()
			limit := maxWidth + rules.MaxOverflow
			wide := 0
			overlaps := 0
			empty := 0
			for i, entry := range entries {
				for _, line := range strings.Split(entry.Text, "\n") {
					if subtitle.TextWidth(line) > limit {
						wide++
					}
				}
				if entry.End <= entry.Start {
					empty++
				}
				if i > 0 && entry.Start < entries[i-1].End {
					overlaps++
				}
			}

			fmt.Fprintf(out, "Cues: %d\n", len(entries))
			fmt.Fprintf(out, "Runtime: %s\n", subtitle.FormatTimestamp(entries[len(entries)-1].End))
			fmt.Fprintf(out, "Lines wider than %.1f: %d\n", limit, wide)
			fmt.Fprintf(out, "Overlapping cues: %d\n", overlaps)
			fmt.Fprintf(out, "Cues without duration: %d\n", empty)
			return nil
		},
	}

	cmd.Flags().Float64VarP(&width, "width", "w", 0, "Maximum line width in full-width units (default from config)")
	return cmd
}
