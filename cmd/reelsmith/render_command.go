package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelsmith/internal/assets"
	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/narration"
	"reelsmith/internal/notifications"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/recipe"
	"reelsmith/internal/render"
	"reelsmith/internal/subtitle"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var recipePath string
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a saved recipe document",
		Long: `Render re-runs the rendering stages for a recipe exported by an earlier
production. Mode full renders everything, effects re-rasterizes the visuals
with the saved narration, and resume picks up after the last finished stage.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			source := strings.TrimSpace(recipePath)
			if source == "" {
				return fmt.Errorf("--recipe is required")
			}
			source, err = config.ExpandPath(source)
			if err != nil {
				return fmt.Errorf("resolve recipe path: %w", err)
			}
			raw, err := os.ReadFile(source)
			if err != nil {
				return fmt.Errorf("read recipe: %w", err)
			}
			rec, err := recipe.Parse(string(raw))
			if err != nil {
				return err
			}
			mode, err := render.ParseMode(modeFlag)
			if err != nil {
				return err
			}

			logger, err := newCommandLogger(cfg)
			if err != nil {
				return err
			}
			deps, err := buildPipelineDeps(cfg, logger)
			if err != nil {
				return err
			}

			workDir := filepath.Join(cfg.Paths.WorkspaceDir, "jobs", rec.ID)
			if err := os.MkdirAll(workDir, 0o755); err != nil {
				return fmt.Errorf("create work directory: %w", err)
			}

			result := rec.Narration
			if !narrationReusable(result) {
				result, err = regenerateNarration(cmd.Context(), deps, rec)
				if err != nil {
					return err
				}
			}

			materials, err := resolveMaterials(cmd.Context(), deps.Resolver, rec)
			if err != nil {
				return err
			}

			timeline, err := render.Build(rec, result, materials)
			if err != nil {
				return err
			}

			var entries []subtitle.Entry
			if strings.TrimSpace(rec.SubtitleText) != "" {
				entries, err = subtitle.Parse(rec.SubtitleText)
				if err != nil {
					return err
				}
			}

			job := render.NewJob(rec.ID, workDir)
			if deps.Registry != nil {
				if err := deps.Registry.Add(job); err != nil {
					return err
				}
			}
			spec := render.Spec{
				Recipe:    rec,
				Narration: result,
				Materials: materials,
				Timeline:  timeline,
				Subtitles: entries,
			}

			started := time.Now()
			if err := deps.Renderer.Render(cmd.Context(), job, spec, mode); err != nil {
				return err
			}
			elapsed := time.Since(started)

			if err := notifications.NewService(cfg).RenderCompleted(cmd.Context(), rec.Title, string(mode), elapsed); err != nil {
				logger.Debug("render notification failed", logging.Error(err))
			}

			outputs := job.Outputs()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rendered %q (%s) in %s\n", rec.Title, mode, elapsed.Round(time.Second))
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

	cmd.Flags().StringVarP(&recipePath, "recipe", "r", "", "Path to the recipe document")
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Render mode: full, effects, or resume (defaults to full)")
	return cmd
}

// narrationReusable reports whether a saved narration layout can feed a
// render directly. Clips synthesized by an earlier run must still exist.
func narrationReusable(result *narration.Result) bool {
	if result == nil || len(result.Segments) == 0 {
		return false
	}
	for _, segment := range result.Segments {
		if !segment.Synthesized() {
			continue
		}
		if _, err := os.Stat(segment.AudioPath); err != nil {
			return false
		}
	}
	return true
}

func regenerateNarration(ctx context.Context, deps pipeline.Deps, rec *recipe.Recipe) (*narration.Result, error) {
	if deps.Narrator == nil {
		return nil, fmt.Errorf("narration engine is not configured")
	}
	if text := strings.TrimSpace(rec.SubtitleText); text != "" {
		entries, err := subtitle.Parse(text)
		if err != nil {
			return nil, err
		}
		return deps.Narrator.GenerateFromEntries(ctx, entries, deps.Voice)
	}
	return deps.Narrator.Generate(ctx, rec.Script, deps.Voice)
}

func resolveMaterials(ctx context.Context, resolver assets.Resolver, rec *recipe.Recipe) (map[string]assets.Asset, error) {
	ids := make([]string, 0, len(rec.Materials)+1)
	seen := make(map[string]struct{}, len(rec.Materials)+1)
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range rec.Materials {
		add(id)
	}
	switch rec.Video.Background.Kind {
	case recipe.BackgroundImage, recipe.BackgroundVideo:
		add(rec.Video.Background.AssetID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if resolver == nil {
		return nil, fmt.Errorf("no material resolver configured")
	}
	materials := make(map[string]assets.Asset, len(ids))
	for _, id := range ids {
		asset, err := resolver.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		materials[id] = asset
	}
	return materials, nil
}
