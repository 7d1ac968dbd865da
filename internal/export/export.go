// Package export writes papers with their citation counts to various
// formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matsen/citewatch/internal/store"
)

// Formats supported by WriteTo.
const (
	FormatCSV    = "csv"
	FormatJSON   = "json"
	FormatBibTeX = "bibtex"
)

// ValidFormats lists the supported export formats.
var ValidFormats = []string{FormatCSV, FormatJSON, FormatBibTeX}

// WriteTo writes the papers in the given format.
func WriteTo(w io.Writer, format string, papers []store.PaperWithCitations) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, papers)
	case FormatJSON:
		return writeJSON(w, papers)
	case FormatBibTeX:
		return writeBibTeX(w, papers)
	}
	return fmt.Errorf("unknown export format %q (valid: %s)",
		format, strings.Join(ValidFormats, ", "))
}

// writeCSV writes one row per paper with the headline columns.
func writeCSV(w io.Writer, papers []store.PaperWithCitations) error {
	cw := csv.NewWriter(w)

	header := []string{"title", "doi", "arxiv_id", "year", "venue", "citations"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, p := range papers {
		year := ""
		if p.Year > 0 {
			year = strconv.Itoa(p.Year)
		}
		row := []string{p.Title, p.DOI, p.ArXivID, year, p.Venue, strconv.Itoa(p.Citations)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// writeJSON writes the papers as an indented JSON array.
func writeJSON(w io.Writer, papers []store.PaperWithCitations) error {
	if papers == nil {
		papers = []store.PaperWithCitations{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(papers)
}
