// Package main provides the cw CLI entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cw",
	Short: "Track publications and citation counts across platforms",
	Long: `cw tracks a researcher's publications and citation counts across
external platforms, stores time-series citation data in a local SQLite
database, and produces heuristic recommendations to increase visibility.

All commands output JSON by default for easy integration with other
tools. Use --human for human-readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
