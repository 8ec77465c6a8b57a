package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build information, overridable with -ldflags "-X main.Version=..."
var (
	Version   = "0.1.0-dev"
	GitCommit = ""
	BuildDate = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "wordwise %s\n", Version)
		if GitCommit != "" {
			fmt.Fprintf(out, "commit: %s\n", GitCommit)
		}
		if BuildDate != "" {
			fmt.Fprintf(out, "built:  %s\n", BuildDate)
		}
	},
}
