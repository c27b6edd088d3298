package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped by the release build via -ldflags.
var version = "dev"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the reelsmith version",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "reelsmith %s\n", version)
			return nil
		},
	}
}
