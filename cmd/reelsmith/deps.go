package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelsmith/internal/assets"
	"reelsmith/internal/config"
	"reelsmith/internal/encoder"
	"reelsmith/internal/logging"
	"reelsmith/internal/narration"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/render"
	"reelsmith/internal/speech"
)

// buildPipelineDeps assembles the production collaborators from config.
// Without a configured speech command the narration engine runs in
// estimate-only mode and the render stays silent.
func buildPipelineDeps(cfg *config.Config, logger *slog.Logger) (pipeline.Deps, error) {
	engine := encoder.NewEngine(cfg.FFmpegBinary(), cfg.FFprobeBinary(), logger)
	if cfg.Encoder.TimeoutSeconds > 0 {
		engine.WithTimeout(time.Duration(cfg.Encoder.TimeoutSeconds) * time.Second)
	}

	var synth speech.Synthesizer
	if strings.TrimSpace(cfg.Speech.Command) != "" {
		clipDir := filepath.Join(cfg.Paths.WorkspaceDir, "clips")
		if err := os.MkdirAll(clipDir, 0o755); err != nil {
			return pipeline.Deps{}, fmt.Errorf("create clip directory: %w", err)
		}
		command := speech.NewCommandSynthesizer(cfg.Speech.Command, clipDir, cfg.FFprobeBinary(), logger)
		if cfg.Speech.TimeoutSeconds > 0 {
			command.WithTimeout(time.Duration(cfg.Speech.TimeoutSeconds) * time.Second)
		}
		synth = command
	}

	return pipeline.Deps{
		Narrator:  narration.NewEngine(synth, logger),
		Voice:     voiceOptions(cfg),
		Resolver:  assets.NewDirResolver(cfg.Paths.MaterialsDir),
		Renderer:  render.NewRenderer(engine, renderSettings(cfg), logger),
		Registry:  render.NewRegistry(),
		OutputDir: cfg.Paths.OutputDir,
		LineWidth: cfg.Subtitles.MaxLineWidth,
		Logger:    logger,
	}, nil
}

func renderSettings(cfg *config.Config) render.Settings {
	return render.Settings{
		Container:    cfg.Encoder.Container,
		VideoCodec:   cfg.Encoder.VideoCodec,
		AudioCodec:   cfg.Encoder.AudioCodec,
		AudioBitrate: cfg.Encoder.AudioBitrate,
		Preset:       cfg.Encoder.Preset,
		CRF:          cfg.Encoder.CRF,
		LineWidth:    cfg.Subtitles.MaxLineWidth,
	}
}

func voiceOptions(cfg *config.Config) speech.VoiceOptions {
	return speech.VoiceOptions{
		Voice:    cfg.Speech.Voice,
		Rate:     cfg.Speech.Rate,
		Pitch:    cfg.Speech.Pitch,
		Volume:   cfg.Speech.Volume,
		Language: cfg.Speech.Language,
	}
}

// newCommandLogger builds the stdout logger one-shot commands share.
func newCommandLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.NewFromConfig(cfg)
}
