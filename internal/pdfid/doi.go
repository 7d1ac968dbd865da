// Package pdfid extracts publication identifiers from PDF files, so a
// paper can be tracked by pointing at its PDF.
package pdfid

import (
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DOI pattern: 10.XXXX/... where XXXX is 4+ digits
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// arXiv identifiers as printed on preprints: "arXiv:2403.01234v2"
var arxivPattern = regexp.MustCompile(`arXiv:(\d{4}\.\d{4,5})(v\d+)?`)

// doiSearchPages is how many pages to scan. Identifiers are almost
// always on the first page.
const doiSearchPages = 3

// ExtractDOI extracts a DOI from a PDF file by scanning the text of the
// first few pages. Returns "" (not an error) when no DOI is found.
func ExtractDOI(filePath string) (string, error) {
	return extract(filePath, findDOI)
}

// ExtractArXivID extracts an arXiv identifier from a PDF file. Returns ""
// (not an error) when none is found.
func ExtractArXivID(filePath string) (string, error) {
	return extract(filePath, findArXivID)
}

func extract(filePath string, find func(string) string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	maxPages := doiSearchPages
	if r.NumPage() < maxPages {
		maxPages = r.NumPage()
	}

	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		if id := find(text); id != "" {
			return id, nil
		}
	}

	return "", nil
}

// findDOI finds the first valid DOI in text.
func findDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		// Remove trailing punctuation
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

// findArXivID finds the first arXiv identifier in text, without the
// version suffix.
func findArXivID(text string) string {
	m := arxivPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// isValidDOI performs basic validation on a DOI.
func isValidDOI(doi string) bool {
	if len(doi) < 10 {
		return false
	}
	if !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	if slashIdx == -1 || slashIdx >= len(doi)-1 {
		return false
	}
	return true
}
