package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reelsmith/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set speech.command; narration timing is estimated until a synthesizer is configured.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Show the resolved configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var flagPath string
			if ctx.configFlag != nil {
				flagPath = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, path, exists, err := config.Load(flagPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintf(out, "Workspace: %s\n", cfg.Paths.WorkspaceDir)
			fmt.Fprintf(out, "Materials: %s\n", cfg.Paths.MaterialsDir)
			fmt.Fprintf(out, "Output: %s\n", cfg.Paths.OutputDir)
			fmt.Fprintf(out, "Logs: %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "Video: %dx%d @ %d fps\n", cfg.Video.Width, cfg.Video.Height, cfg.Video.FrameRate)
			fmt.Fprintf(out, "Subtitle line width: %.1f\n", cfg.Subtitles.MaxLineWidth)
			if strings.TrimSpace(cfg.Speech.Command) == "" {
				fmt.Fprintln(out, "Speech command: (not set; narration timing is estimated)")
			} else {
				fmt.Fprintf(out, "Speech command: %s\n", cfg.Speech.Command)
			}
			if voice := strings.TrimSpace(cfg.Speech.Voice); voice != "" {
				fmt.Fprintf(out, "Voice: %s\n", voice)
			}
			fmt.Fprintf(out, "Encoder: %s/%s crf %d preset %s\n",
				cfg.Encoder.VideoCodec, cfg.Encoder.AudioCodec, cfg.Encoder.CRF, cfg.Encoder.Preset)
			fmt.Fprintf(out, "Queue poll interval: %ds\n", cfg.Queue.PollInterval)
			if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
				fmt.Fprintln(out, "Notifications: disabled")
			} else {
				fmt.Fprintf(out, "Notifications: ntfy topic %s\n", cfg.Notifications.NtfyTopic)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
