package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/matsen/citewatch/internal/store"
)

// writeBibTeX writes the papers as BibTeX entries. The citation count is
// carried in a note field so exported bibliographies keep the data.
func writeBibTeX(w io.Writer, papers []store.PaperWithCitations) error {
	var entries []string
	for _, p := range papers {
		entries = append(entries, toBibTeX(p))
	}
	_, err := io.WriteString(w, strings.Join(entries, "\n"))
	return err
}

// toBibTeX converts one paper to a BibTeX entry.
func toBibTeX(p store.PaperWithCitations) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType(p.Paper), citeKey(p.Paper)))

	if len(p.Authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", formatAuthors(p.Authors)))
	}

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(p.Title)))

	if p.Venue != "" {
		fieldName := "journal"
		if entryType(p.Paper) == "inproceedings" {
			fieldName = "booktitle"
		}
		b.WriteString(fmt.Sprintf("  %s = {%s},\n", fieldName, escapeLatex(p.Venue)))
	}

	if p.Year > 0 {
		b.WriteString(fmt.Sprintf("  year = {%d},\n", p.Year))
	}

	if p.DOI != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", p.DOI))
	}
	if p.ArXivID != "" {
		b.WriteString(fmt.Sprintf("  eprint = {%s},\n", p.ArXivID))
		b.WriteString("  archiveprefix = {arXiv},\n")
	}
	if p.URL != "" {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", p.URL))
	}

	b.WriteString(fmt.Sprintf("  note = {%d citations},\n", p.Citations))
	b.WriteString("}\n")

	return b.String()
}

// citeKey derives a stable citation key from the first author's last name
// and year, falling back to the paper id.
func citeKey(p store.Paper) string {
	if len(p.Authors) > 0 && p.Year > 0 {
		parts := strings.Fields(p.Authors[0])
		if len(parts) > 0 {
			last := strings.Map(func(r rune) rune {
				if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
					return r
				}
				return -1
			}, parts[len(parts)-1])
			if last != "" {
				return fmt.Sprintf("%s%d", last, p.Year)
			}
		}
	}
	return fmt.Sprintf("paper%d", p.ID)
}

// entryType returns the BibTeX entry type for a paper.
func entryType(p store.Paper) string {
	venue := strings.ToLower(p.Venue)

	// Conference proceedings
	if strings.Contains(venue, "proceedings") ||
		strings.Contains(venue, "conference") ||
		strings.Contains(venue, "workshop") ||
		strings.Contains(venue, "symposium") {
		return "inproceedings"
	}

	// Preprints and everything else default to article
	return "article"
}

// formatAuthors formats author names in BibTeX style, joined with "and".
func formatAuthors(authors []string) string {
	return strings.Join(authors, " and ")
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// Order matters: & must be first (before other escapes that might produce &)
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
