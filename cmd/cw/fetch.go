package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matsen/citewatch/internal/platform"
	"github.com/spf13/cobra"
)

var (
	fetchAll       bool
	fetchPlatforms []string
)

func init() {
	fetchCmd.Flags().BoolVar(&fetchAll, "all", false, "Fetch from all enabled platforms")
	fetchCmd.Flags().StringArrayVar(&fetchPlatforms, "platform", nil, "Specific platform(s) to fetch")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch citation data from platforms",
	Long: `Fetch the latest publication and citation data from external
platforms and record it in the citation database.

A failure on one platform does not abort the others; each platform's
outcome is reported separately and recorded in its sync status.

Examples:
  cw fetch --all
  cw fetch --platform semantic_scholar --platform arxiv`,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenStore(cfg)
	defer db.Close()

	svc := platform.NewService(cfg, db)
	ctx := context.Background()

	var results []platform.Result
	switch {
	case fetchAll:
		var err error
		results, err = svc.FetchAll(ctx)
		if err != nil {
			exitWithError(ExitError, "fetching: %v", err)
		}
	case len(fetchPlatforms) > 0:
		for _, name := range fetchPlatforms {
			result, err := svc.FetchPlatform(ctx, name)
			if err != nil {
				result.Error = err.Error()
			}
			results = append(results, result)
		}
	default:
		exitWithError(ExitError, "specify --all or --platform")
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}

	if humanOutput {
		for _, r := range results {
			if r.Error != "" {
				fmt.Printf("x %s: %s\n", r.Platform, r.Error)
			} else {
				fmt.Printf("* %s: %d papers, %d citations\n", r.Platform, r.Papers, r.Citations)
			}
		}
	} else {
		outputJSON(results)
	}

	// Partial failure is tolerated; total failure is not.
	if len(results) > 0 && failed == len(results) {
		os.Exit(ExitFetchError)
	}

	return nil
}
