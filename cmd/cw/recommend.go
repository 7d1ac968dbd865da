package main

import (
	"fmt"

	"github.com/matsen/citewatch/internal/recommend"
	"github.com/spf13/cobra"
)

var (
	recommendTop      int
	recommendCategory string
	recommendInsights bool
)

func init() {
	recommendCmd.Flags().IntVar(&recommendTop, "top", 5, "Number of recommendations to show")
	recommendCmd.Flags().StringVar(&recommendCategory, "category", "", "Filter by category: visibility, collaboration, trending, profile")
	recommendCmd.Flags().BoolVar(&recommendInsights, "insights", false, "Show actionable insights instead of recommendations")
	rootCmd.AddCommand(recommendCmd)
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Get recommendations to boost citations",
	Long: `Analyze the citation profile and produce ranked heuristic
recommendations. Generated recommendations are appended to the
recommendation log.

Examples:
  cw recommend
  cw recommend --top 3 --category visibility
  cw recommend --insights`,
	RunE: runRecommend,
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenStore(cfg)
	defer db.Close()

	engine := recommend.New(cfg, db)

	if recommendInsights {
		insights, err := engine.ActionableInsights()
		if err != nil {
			exitWithError(ExitError, "computing insights: %v", err)
		}
		if humanOutput {
			printInsightsHuman(insights)
		} else {
			outputJSON(insights)
		}
		return nil
	}

	recs, err := engine.Generate(recommendTop, recommendCategory)
	if err != nil {
		exitWithError(ExitError, "generating recommendations: %v", err)
	}

	// Audit trail only; the engine never reads these back.
	for _, r := range recs {
		if err := db.LogRecommendation(r.Category, r.Title, r.Description, r.Priority); err != nil {
			exitWithError(ExitError, "logging recommendation: %v", err)
		}
	}

	if humanOutput {
		printRecommendationsHuman(recs)
	} else {
		if recs == nil {
			recs = []recommend.Recommendation{}
		}
		outputJSON(recs)
	}

	return nil
}

func printRecommendationsHuman(recs []recommend.Recommendation) {
	if len(recs) == 0 {
		fmt.Println("No recommendations")
		return
	}
	for i, r := range recs {
		fmt.Printf("%d. [%s/%s] %s\n", i+1, r.Priority, r.Category, r.Title)
		fmt.Printf("   %s\n", r.Description)
		fmt.Printf("   Impact: %s\n", r.Impact)
		fmt.Printf("   Effort: %s\n", r.Effort)
		fmt.Printf("   Action: %s\n\n", r.Action)
	}
}

func printInsightsHuman(ins *recommend.Insights) {
	fmt.Printf("  Total papers:          %d\n", ins.TotalPapers)
	fmt.Printf("  Total citations:       %d\n", ins.TotalCitations)
	fmt.Printf("  H-index:               %d\n", ins.HIndex)
	fmt.Printf("  Avg citations/paper:   %.1f\n", ins.AvgCitations)
	if ins.TopPaper != "" {
		fmt.Printf("  Most cited paper:      %s\n", truncateString(ins.TopPaper, ListTitleMaxLen))
	}
	fmt.Printf("  Low-visibility papers: %d\n", ins.LowVisibilityCount)
}
