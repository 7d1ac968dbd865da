package main

import (
	"errors"
	"fmt"

	"github.com/matsen/citewatch/internal/metrics"
	"github.com/matsen/citewatch/internal/store"
	"github.com/spf13/cobra"
)

var statsPaper string

func init() {
	statsCmd.Flags().StringVar(&statsPaper, "paper", "", "Show stats for a specific paper (DOI or arXiv ID)")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show detailed statistics",
	Long: `Show detailed statistics for a specific paper, including citation
growth over the trailing 7-day, 30-day, and 1-year windows.

Example:
  cw stats --paper 10.1234/example`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenStore(cfg)
	defer db.Close()

	if statsPaper == "" {
		exitWithError(ExitError, "specify --paper with a DOI or arXiv ID")
	}

	calc := metrics.New(db)
	detail, err := calc.PaperStats(statsPaper)
	if err != nil {
		if errors.Is(err, store.ErrPaperNotFound) {
			exitWithError(ExitNotFound, "paper not found: %s", statsPaper)
		}
		exitWithError(ExitError, "computing paper stats: %v", err)
	}

	if humanOutput {
		printPaperStatsHuman(detail)
	} else {
		outputJSON(detail)
	}

	return nil
}

func printPaperStatsHuman(d *metrics.PaperDetail) {
	fmt.Printf("%s\n\n", truncateString(d.Title, DetailTitleMaxLen))
	fmt.Printf("  Citations: %d\n", d.Citations)
	if d.Year > 0 {
		fmt.Printf("  Year:      %d\n", d.Year)
	}
	if d.Venue != "" {
		fmt.Printf("  Venue:     %s\n", d.Venue)
	}
	if d.DOI != "" {
		fmt.Printf("  DOI:       %s\n", d.DOI)
	}
	if d.ArXivID != "" {
		fmt.Printf("  arXiv:     %s\n", d.ArXivID)
	}
	fmt.Printf("\nCitation growth:\n")
	fmt.Printf("  Last 7 days:  %+d\n", d.Growth7d)
	fmt.Printf("  Last 30 days: %+d\n", d.Growth30d)
	fmt.Printf("  Last year:    %+d\n", d.Growth365d)
}
