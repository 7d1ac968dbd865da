package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matsen/citewatch/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", export.FormatCSV,
		"Output format: "+strings.Join(export.ValidFormats, ", "))
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "Output file path (default citations_YYYYMMDD.<format>)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export citation data",
	Long: `Export all papers with their current citation counts.

Examples:
  cw export --format csv
  cw export --format bibtex --output refs.bib`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenStore(cfg)
	defer db.Close()

	papers, err := db.ListPapersWithCitations()
	if err != nil {
		exitWithError(ExitError, "listing papers: %v", err)
	}

	output := exportOutput
	if output == "" {
		ext := exportFormat
		if ext == export.FormatBibTeX {
			ext = "bib"
		}
		output = fmt.Sprintf("citations_%s.%s", time.Now().Format("20060102"), ext)
	}

	f, err := os.Create(output)
	if err != nil {
		exitWithError(ExitError, "creating output file: %v", err)
	}
	defer f.Close()

	if err := export.WriteTo(f, exportFormat, papers); err != nil {
		exitWithError(ExitError, "exporting: %v", err)
	}

	if humanOutput {
		outputHuman("Exported %d papers to %s\n", len(papers), output)
	} else {
		outputJSON(StatusResponse{Status: "exported", Path: output})
	}

	return nil
}
