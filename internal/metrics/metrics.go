// Package metrics derives citation metrics from the store.
package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/matsen/citewatch/internal/store"
)

const (
	// DefaultLowVisibilityThreshold is the citation count below which an
	// old paper is flagged as under-exposed.
	DefaultLowVisibilityThreshold = 5

	// minLowVisibilityAgeYears is the minimum age before a paper can be
	// considered low-visibility at all. Young papers are expected to have
	// few citations.
	minLowVisibilityAgeYears = 1
)

// Period selects the time window for summary statistics.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// ParsePeriod validates a period string.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return Period(s), nil
	}
	return "", fmt.Errorf("invalid period %q (valid: week, month, year, all)", s)
}

// days returns the window length in days, or 0 for the all-time period.
func (p Period) days() int {
	switch p {
	case PeriodWeek:
		return 7
	case PeriodMonth:
		return 30
	case PeriodYear:
		return 365
	}
	return 0
}

// Calculator computes aggregate metrics from the citation store.
type Calculator struct {
	db *store.DB
}

// New creates a metrics calculator over the given store.
func New(db *store.DB) *Calculator {
	return &Calculator{db: db}
}

// HIndex computes the h-index of a set of citation counts: the largest h
// such that at least h papers have h or more citations each. An empty or
// all-zero input yields 0.
func HIndex(counts []int) int {
	sorted := make([]int, len(counts))
	copy(sorted, counts)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	h := 0
	for i, c := range sorted {
		if c >= i+1 {
			h = i + 1
		} else {
			break
		}
	}
	return h
}

// Summary holds aggregate metrics for a period. The change fields compare
// the aggregate at the period start against now; for the all-time period
// they are zero. When no observation predates the window, the as-of
// aggregate is zero and the change reports the full current value.
type Summary struct {
	Period          Period  `json:"period"`
	TotalPapers     int     `json:"total_papers"`
	TotalCitations  int     `json:"total_citations"`
	HIndex          int     `json:"h_index"`
	AvgCitations    float64 `json:"avg_citations"`
	PapersChange    int     `json:"papers_change"`
	CitationsChange int     `json:"citations_change"`
	HIndexChange    int     `json:"h_index_change"`
}

// SummaryStats computes aggregate metrics and their change over the period.
func (c *Calculator) SummaryStats(period Period) (*Summary, error) {
	papers, err := c.db.ListPapersWithCitations()
	if err != nil {
		return nil, err
	}

	counts := make([]int, len(papers))
	total := 0
	for i, p := range papers {
		counts[i] = p.Citations
		total += p.Citations
	}

	s := &Summary{
		Period:         period,
		TotalPapers:    len(papers),
		TotalCitations: total,
		HIndex:         HIndex(counts),
	}
	if len(papers) > 0 {
		s.AvgCitations = float64(total) / float64(len(papers))
	}

	if days := period.days(); days > 0 {
		start := time.Now().AddDate(0, 0, -days)

		papersThen, err := c.db.CountPapersAsOf(start)
		if err != nil {
			return nil, err
		}
		citationsThen, err := c.db.TotalCitationsAsOf(start)
		if err != nil {
			return nil, err
		}
		countsThen, err := c.db.CitationCountsAsOf(start)
		if err != nil {
			return nil, err
		}

		s.PapersChange = s.TotalPapers - papersThen
		s.CitationsChange = s.TotalCitations - citationsThen
		s.HIndexChange = s.HIndex - HIndex(countsThen)
	}

	return s, nil
}

// TopPapers returns the limit most-cited papers. The store orders by
// citations descending with id ascending on ties, so results are stable.
func (c *Calculator) TopPapers(limit int) ([]store.PaperWithCitations, error) {
	papers, err := c.db.ListPapersWithCitations()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(papers) > limit {
		papers = papers[:limit]
	}
	return papers, nil
}

// LowVisibilityPaper is a paper flagged as old but under-cited.
type LowVisibilityPaper struct {
	store.PaperWithCitations
	AgeYears int `json:"age_years"`
}

// LowVisibilityPapers returns papers whose current citation count is below
// the threshold and whose age is at least one year, most under-cited
// first. Age is measured from the publication year when known, otherwise
// from the first-seen timestamp.
func (c *Calculator) LowVisibilityPapers(threshold int) ([]LowVisibilityPaper, error) {
	papers, err := c.db.ListPapersWithCitations()
	if err != nil {
		return nil, err
	}

	currentYear := time.Now().Year()
	var flagged []LowVisibilityPaper
	for _, p := range papers {
		if p.Citations >= threshold {
			continue
		}
		year := p.Year
		if year == 0 {
			year = p.FirstSeen.Year()
		}
		age := currentYear - year
		if age < minLowVisibilityAgeYears {
			continue
		}
		flagged = append(flagged, LowVisibilityPaper{PaperWithCitations: p, AgeYears: age})
	}

	sort.SliceStable(flagged, func(i, j int) bool {
		if flagged[i].Citations != flagged[j].Citations {
			return flagged[i].Citations < flagged[j].Citations
		}
		return flagged[i].ID < flagged[j].ID
	})

	return flagged, nil
}

// PaperDetail holds per-paper statistics with citation growth over
// trailing windows.
type PaperDetail struct {
	store.Paper
	Citations  int `json:"citations"`
	Growth7d   int `json:"citations_7d"`
	Growth30d  int `json:"citations_30d"`
	Growth365d int `json:"citations_1y"`
}

// PaperStats resolves a DOI or arXiv ID and computes citation growth over
// the trailing 7-day, 30-day, and 1-year windows. Returns
// store.ErrPaperNotFound if the identifier resolves to no paper.
func (c *Calculator) PaperStats(identifier string) (*PaperDetail, error) {
	id, err := c.db.FindPaper(identifier, identifier, "")
	if err != nil {
		return nil, err
	}

	paper, err := c.db.GetPaper(id)
	if err != nil {
		return nil, err
	}

	current, err := c.db.CurrentCitations(id)
	if err != nil {
		return nil, err
	}

	detail := &PaperDetail{Paper: *paper, Citations: current}

	now := time.Now()
	for _, w := range []struct {
		days int
		dst  *int
	}{
		{7, &detail.Growth7d},
		{30, &detail.Growth30d},
		{365, &detail.Growth365d},
	} {
		then, err := c.db.CitationsAsOf(id, now.AddDate(0, 0, -w.days))
		if err != nil {
			return nil, err
		}
		*w.dst = current - then
	}

	return detail, nil
}
