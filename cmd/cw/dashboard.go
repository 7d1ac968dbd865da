package main

import (
	"fmt"

	"github.com/matsen/citewatch/internal/metrics"
	"github.com/matsen/citewatch/internal/recommend"
	"github.com/matsen/citewatch/internal/store"
	"github.com/spf13/cobra"
)

var (
	dashboardDetailed bool
	dashboardPeriod   string
)

func init() {
	dashboardCmd.Flags().BoolVar(&dashboardDetailed, "detailed", false, "Include top papers and insights")
	dashboardCmd.Flags().StringVar(&dashboardPeriod, "period", "all", "Time period: week, month, year, all")
	rootCmd.AddCommand(dashboardCmd)
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Display the citation dashboard",
	Long: `Display aggregate citation metrics for a period, with changes
relative to the period start.

Examples:
  cw dashboard
  cw dashboard --detailed --period month`,
	RunE: runDashboard,
}

// dashboardResponse is the JSON dashboard payload.
type dashboardResponse struct {
	Summary   *metrics.Summary           `json:"summary"`
	TopPapers []store.PaperWithCitations `json:"top_papers,omitempty"`
	Insights  *recommend.Insights        `json:"insights,omitempty"`
}

const dashboardTopPapersLimit = 5

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenStore(cfg)
	defer db.Close()

	period, err := metrics.ParsePeriod(dashboardPeriod)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	calc := metrics.New(db)
	summary, err := calc.SummaryStats(period)
	if err != nil {
		exitWithError(ExitError, "computing summary: %v", err)
	}

	resp := dashboardResponse{Summary: summary}

	if dashboardDetailed {
		top, err := calc.TopPapers(dashboardTopPapersLimit)
		if err != nil {
			exitWithError(ExitError, "listing top papers: %v", err)
		}
		resp.TopPapers = top

		engine := recommend.New(cfg, db)
		insights, err := engine.ActionableInsights()
		if err != nil {
			exitWithError(ExitError, "computing insights: %v", err)
		}
		resp.Insights = insights
	}

	if humanOutput {
		printDashboardHuman(cfg.User.Name, cfg.User.ORCID, resp)
	} else {
		outputJSON(resp)
	}

	return nil
}

func printDashboardHuman(name, orcid string, resp dashboardResponse) {
	s := resp.Summary
	fmt.Printf("Citation Dashboard - %s", name)
	if orcid != "" {
		fmt.Printf(" (ORCID: %s)", orcid)
	}
	fmt.Printf("\nPeriod: %s\n\n", s.Period)

	fmt.Printf("  Total papers:       %6d  (%+d)\n", s.TotalPapers, s.PapersChange)
	fmt.Printf("  Total citations:    %6d  (%+d)\n", s.TotalCitations, s.CitationsChange)
	fmt.Printf("  H-index:            %6d  (%+d)\n", s.HIndex, s.HIndexChange)
	fmt.Printf("  Avg citations/paper: %5.1f\n", s.AvgCitations)

	if len(resp.TopPapers) > 0 {
		fmt.Printf("\nTop cited papers:\n")
		for _, p := range resp.TopPapers {
			year := "----"
			if p.Year > 0 {
				year = fmt.Sprintf("%d", p.Year)
			}
			fmt.Printf("  %5d  %s  %s\n", p.Citations, year, truncateString(p.Title, ListTitleMaxLen))
		}
	}

	if resp.Insights != nil {
		ins := resp.Insights
		fmt.Printf("\nInsights:\n")
		if ins.TopPaper != "" {
			fmt.Printf("  Most cited: %s\n", truncateString(ins.TopPaper, DetailTitleMaxLen))
		}
		fmt.Printf("  Low-visibility papers: %d\n", ins.LowVisibilityCount)
	}
}
