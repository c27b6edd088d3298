package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelsmith/internal/config"
	"reelsmith/internal/speech"
)

func newVoicesCommand(configValue func() *config.Config) *cobra.Command {
	var languageFilter string
	var genderFilter string

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List narration voices",
		RunE: func(cmd *cobra.Command, args []string) error {
			gender, err := parseGenderFlag(genderFilter)
			if err != nil {
				return err
			}
			voices, err := speech.DefaultVoices().Filter(strings.TrimSpace(languageFilter), gender)
			if err != nil {
				return err
			}
			if len(voices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No voices match the filter")
				return nil
			}

			var defaultVoice string
			if cfg := configValue(); cfg != nil {
				defaultVoice = strings.TrimSpace(cfg.Speech.Voice)
			}

			rows := make([][]string, 0, len(voices))
			for _, voice := range voices {
				genderLabel := string(voice.EffectiveGender())
				if genderLabel == "" {
					genderLabel = "-"
				}
				isDefault := defaultVoice != "" && strings.EqualFold(voice.ID, defaultVoice)
				rows = append(rows, []string{
					voice.ID,
					voice.Name,
					voice.Language,
					genderLabel,
					yesNo(isDefault),
				})
			}
			table := renderTable(
				[]string{"ID", "Name", "Language", "Gender", "Default"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprint(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().StringVarP(&languageFilter, "language", "l", "", "Filter by language tag (e.g. ja, en-US)")
	cmd.Flags().StringVarP(&genderFilter, "gender", "g", "", "Filter by voice gender (female or male)")
	return cmd
}

func parseGenderFlag(value string) (speech.Gender, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return speech.GenderUnknown, nil
	case "female", "f":
		return speech.GenderFemale, nil
	case "male", "m":
		return speech.GenderMale, nil
	default:
		return speech.GenderUnknown, fmt.Errorf("unknown gender %q (use female or male)", value)
	}
}
