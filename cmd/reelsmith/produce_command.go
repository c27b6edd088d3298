package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelsmith/internal/config"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/recipe"
)

func newProduceCommand(ctx *commandContext) *cobra.Command {
	var scriptPath string
	var title string

	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Produce a video from a narration script",
		Long: `Produce runs the full production pipeline for a single script: subtitles,
narration, media preparation, composition, and export. Outputs land in the
configured output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			source := strings.TrimSpace(scriptPath)
			if source == "" {
				return fmt.Errorf("--script is required")
			}
			source, err = config.ExpandPath(source)
			if err != nil {
				return fmt.Errorf("resolve script path: %w", err)
			}
			script, err := os.ReadFile(source)
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			if strings.TrimSpace(string(script)) == "" {
				return fmt.Errorf("script %s is empty", source)
			}

			name := strings.TrimSpace(title)
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
			}

			logger, err := newCommandLogger(cfg)
			if err != nil {
				return err
			}
			deps, err := buildPipelineDeps(cfg, logger)
			if err != nil {
				return err
			}

			rec := recipe.New(name, string(script), recipe.VideoConfigFrom(cfg))
			workDir := filepath.Join(cfg.Paths.WorkspaceDir, "jobs", rec.ID)
			run := pipeline.NewRun(rec, workDir)

			stepNames := make(map[string]string, len(rec.Steps))
			for _, step := range rec.Steps {
				stepNames[step.ID] = step.Name
			}

			out := cmd.OutOrStdout()
			started := time.Now()
			bus := pipeline.NewBus(256)
			executor := &pipeline.Executor{Logger: logger, Observers: pipeline.NewObservers(bus)}

			done := make(chan error, 1)
			go func() {
				done <- executor.Run(cmd.Context(), run, pipeline.ProductionSteps(deps))
			}()

			// Poll the bus instead of observing directly so step lines print
			// from this goroutine, interleaving cleanly with cobra's writer.
			var runErr error
			var seq uint64
			ticker := time.NewTicker(250 * time.Millisecond)
			defer ticker.Stop()
			for running := true; running; {
				select {
				case runErr = <-done:
					running = false
				case <-ticker.C:
				}
				seq = printStepStarts(out, bus, seq, stepNames)
			}
			if runErr != nil {
				return runErr
			}

			outputs := run.Outputs()
			fmt.Fprintf(out, "Produced %q in %s\n", name, time.Since(started).Round(time.Second))
			if len(outputs) > 0 {
				rows := buildOutputRows(outputs)
				rendered := renderTable(
					[]string{"Type", "File", "Size", "Path"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprint(out, rendered)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Path to the narration script")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Production title (defaults to the script filename)")
	return cmd
}

// printStepStarts drains events newer than seq and prints a line for each
// step as it begins, returning the highest sequence seen.
func printStepStarts(out io.Writer, bus *pipeline.Bus, seq uint64, names map[string]string) uint64 {
	for _, event := range bus.Since(seq) {
		seq = event.Seq
		if event.Type != pipeline.EventStepStarted {
			continue
		}
		name := names[event.StepID]
		if name == "" {
			name = event.StepID
		}
		fmt.Fprintf(out, "  %s\n", name)
	}
	return seq
}
