package main

import (
	"errors"
	"fmt"

	"github.com/matsen/citewatch/internal/pdfid"
	"github.com/matsen/citewatch/internal/store"
	"github.com/spf13/cobra"
)

var (
	trackDOI   string
	trackArXiv string
	trackTitle string
	trackPDF   string
	trackList  bool
)

func init() {
	trackCmd.Flags().StringVar(&trackDOI, "doi", "", "DOI of paper to track")
	trackCmd.Flags().StringVar(&trackArXiv, "arxiv", "", "arXiv ID of paper to track")
	trackCmd.Flags().StringVar(&trackTitle, "title", "", "Title (substring) of paper to track")
	trackCmd.Flags().StringVar(&trackPDF, "pdf", "", "Path to a PDF; its DOI or arXiv ID is extracted and tracked")
	trackCmd.Flags().BoolVar(&trackList, "list", false, "List all tracked papers")
	rootCmd.AddCommand(trackCmd)
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Track specific papers",
	Long: `Add papers to the actively-monitored set, or list papers already
tracked. Papers can be identified by DOI, arXiv ID, a title substring,
or a PDF file whose identifier is extracted from the text.

Examples:
  cw track --doi 10.1234/example
  cw track --pdf ~/papers/example.pdf
  cw track --list`,
	RunE: runTrack,
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenStore(cfg)
	defer db.Close()

	if trackList {
		tracked, err := db.ListTracked()
		if err != nil {
			exitWithError(ExitError, "listing tracked papers: %v", err)
		}
		if humanOutput {
			printTrackedHuman(tracked)
		} else {
			if tracked == nil {
				tracked = []store.PaperWithCitations{}
			}
			outputJSON(tracked)
		}
		return nil
	}

	doi, arxivID := trackDOI, trackArXiv
	if trackPDF != "" {
		var err error
		doi, arxivID, err = identifiersFromPDF(trackPDF)
		if err != nil {
			exitWithError(ExitError, "reading PDF: %v", err)
		}
		if doi == "" && arxivID == "" {
			exitWithError(ExitNotFound, "no DOI or arXiv ID found in %s", trackPDF)
		}
	}

	if doi == "" && arxivID == "" && trackTitle == "" {
		exitWithError(ExitError, "specify --doi, --arxiv, --title, or --pdf")
	}

	paperID, err := db.FindPaper(doi, arxivID, trackTitle)
	if err != nil {
		if errors.Is(err, store.ErrPaperNotFound) {
			exitWithError(ExitNotFound, "no matching paper in database (run 'cw fetch' first)")
		}
		exitWithError(ExitError, "looking up paper: %v", err)
	}

	if err := db.TrackPaper(paperID); err != nil {
		exitWithError(ExitError, "tracking paper: %v", err)
	}

	if humanOutput {
		outputHuman("Paper %d added to tracking\n", paperID)
	} else {
		outputJSON(map[string]interface{}{"status": "tracked", "paper_id": paperID})
	}

	return nil
}

// identifiersFromPDF extracts a DOI and, failing that, an arXiv ID from a
// PDF's text.
func identifiersFromPDF(path string) (doi, arxivID string, err error) {
	doi, err = pdfid.ExtractDOI(path)
	if err != nil {
		return "", "", err
	}
	if doi != "" {
		return doi, "", nil
	}
	arxivID, err = pdfid.ExtractArXivID(path)
	if err != nil {
		return "", "", err
	}
	return "", arxivID, nil
}

func printTrackedHuman(tracked []store.PaperWithCitations) {
	if len(tracked) == 0 {
		fmt.Println("No tracked papers")
		return
	}
	fmt.Printf("%d tracked papers:\n\n", len(tracked))
	for _, p := range tracked {
		fmt.Printf("  %5d  %s  %s\n", p.Citations, formatDate(p.LastUpdated),
			truncateString(p.Title, ListTitleMaxLen))
	}
}
