package metrics

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/matsen/citewatch/internal/store"
)

func openTestDB(t *testing.T) *store.DB {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func addPaper(t *testing.T, db *store.DB, p store.NewPaper, citations int) int64 {
	t.Helper()

	id, err := db.UpsertPaper(p)
	if err != nil {
		t.Fatalf("upserting paper: %v", err)
	}
	if citations > 0 {
		if err := db.RecordObservation(id, "semantic_scholar", citations, 0, nil); err != nil {
			t.Fatalf("recording observation: %v", err)
		}
	}
	return id
}

func TestHIndex(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		want   int
	}{
		{"empty", nil, 0},
		{"all zero", []int{0, 0, 0}, 0},
		{"single cited", []int{10}, 1},
		{"classic", []int{10, 8, 5, 4, 3}, 4},
		{"uniform", []int{3, 3, 3}, 3},
		{"skewed", []int{100, 1, 1}, 1},
		{"unsorted input", []int{1, 10, 2, 8, 5}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HIndex(tt.counts); got != tt.want {
				t.Errorf("HIndex(%v) = %d, want %d", tt.counts, got, tt.want)
			}
		})
	}
}

func TestHIndexDoesNotMutateInput(t *testing.T) {
	counts := []int{1, 10, 2}
	HIndex(counts)
	if counts[0] != 1 || counts[1] != 10 || counts[2] != 2 {
		t.Errorf("input mutated: %v", counts)
	}
}

func TestParsePeriod(t *testing.T) {
	for _, valid := range []string{"week", "month", "year", "all"} {
		if _, err := ParsePeriod(valid); err != nil {
			t.Errorf("ParsePeriod(%q) unexpected error: %v", valid, err)
		}
	}
	if _, err := ParsePeriod("fortnight"); err == nil {
		t.Error("ParsePeriod(\"fortnight\") succeeded, want error")
	}
}

func TestSummaryStatsAllTime(t *testing.T) {
	db := openTestDB(t)
	c := New(db)

	addPaper(t, db, store.NewPaper{Title: "A", DOI: "10.1/a"}, 10)
	addPaper(t, db, store.NewPaper{Title: "B", DOI: "10.1/b"}, 5)
	addPaper(t, db, store.NewPaper{Title: "C", DOI: "10.1/c"}, 0)

	s, err := c.SummaryStats(PeriodAll)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if s.TotalPapers != 3 {
		t.Errorf("total papers = %d, want 3", s.TotalPapers)
	}
	if s.TotalCitations != 15 {
		t.Errorf("total citations = %d, want 15", s.TotalCitations)
	}
	if s.HIndex != 2 {
		t.Errorf("h-index = %d, want 2", s.HIndex)
	}
	if s.AvgCitations != 5.0 {
		t.Errorf("avg citations = %f, want 5.0", s.AvgCitations)
	}
	if s.PapersChange != 0 || s.CitationsChange != 0 || s.HIndexChange != 0 {
		t.Errorf("all-time period must report zero changes, got %+v", s)
	}
}

func TestSummaryStatsEmptyStore(t *testing.T) {
	db := openTestDB(t)
	c := New(db)

	s, err := c.SummaryStats(PeriodMonth)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.TotalPapers != 0 || s.TotalCitations != 0 || s.HIndex != 0 || s.AvgCitations != 0 {
		t.Errorf("empty store summary = %+v, want zeros", s)
	}
}

func TestSummaryStatsPeriodDeltas(t *testing.T) {
	db := openTestDB(t)
	c := New(db)

	// One paper observed well before the month window, then again inside it.
	old, err := db.UpsertPaper(store.NewPaper{Title: "Old", DOI: "10.1/old"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	past := time.Now().AddDate(0, 0, -60)
	if err := db.RecordObservationAt(old, "semantic_scholar", 4, 0, nil, past); err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if err := db.RecordObservation(old, "semantic_scholar", 9, 0, nil); err != nil {
		t.Fatalf("record: %v", err)
	}

	// A second paper with no history before the window: its full current
	// count contributes to the change.
	addPaper(t, db, store.NewPaper{Title: "New", DOI: "10.1/new"}, 2)

	s, err := c.SummaryStats(PeriodMonth)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if s.TotalCitations != 11 {
		t.Errorf("total citations = %d, want 11", s.TotalCitations)
	}
	// Total a month ago was 4; change is 11 - 4.
	if s.CitationsChange != 7 {
		t.Errorf("citations change = %d, want 7", s.CitationsChange)
	}
	if s.PapersChange != 2 {
		t.Errorf("papers change = %d, want 2 (both first seen inside window)", s.PapersChange)
	}
}

func TestTopPapers(t *testing.T) {
	db := openTestDB(t)
	c := New(db)

	a := addPaper(t, db, store.NewPaper{Title: "A", DOI: "10.1/a"}, 5)
	b := addPaper(t, db, store.NewPaper{Title: "B", DOI: "10.1/b"}, 12)
	addPaper(t, db, store.NewPaper{Title: "C", DOI: "10.1/c"}, 5)

	top, err := c.TopPapers(2)
	if err != nil {
		t.Fatalf("top papers: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("got %d papers, want 2", len(top))
	}
	if top[0].ID != b {
		t.Errorf("top[0].ID = %d, want %d", top[0].ID, b)
	}
	// Ties break on insertion order (lower id first).
	if top[1].ID != a {
		t.Errorf("top[1].ID = %d, want %d", top[1].ID, a)
	}

	all, err := c.TopPapers(0)
	if err != nil {
		t.Fatalf("top papers unlimited: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unlimited returned %d papers, want 3", len(all))
	}
}

func TestLowVisibilityPapers(t *testing.T) {
	db := openTestDB(t)
	c := New(db)

	lastYear := time.Now().Year() - 2

	// Old and under-cited: flagged.
	flaggedID := addPaper(t, db, store.NewPaper{Title: "Obscure", DOI: "10.1/obscure", Year: lastYear}, 4)
	// Old but at the threshold: not flagged.
	addPaper(t, db, store.NewPaper{Title: "Visible", DOI: "10.1/visible", Year: lastYear}, 6)
	// Under-cited but published this year: too young to flag.
	addPaper(t, db, store.NewPaper{Title: "Fresh", DOI: "10.1/fresh", Year: time.Now().Year()}, 0)
	// No publication year: age falls back to first seen, which is today.
	addPaper(t, db, store.NewPaper{Title: "Undated", DOI: "10.1/undated"}, 0)

	flagged, err := c.LowVisibilityPapers(DefaultLowVisibilityThreshold)
	if err != nil {
		t.Fatalf("low visibility: %v", err)
	}
	if len(flagged) != 1 {
		t.Fatalf("got %d flagged papers, want 1", len(flagged))
	}
	if flagged[0].ID != flaggedID {
		t.Errorf("flagged paper id = %d, want %d", flagged[0].ID, flaggedID)
	}
	if flagged[0].AgeYears != 2 {
		t.Errorf("age = %d years, want 2", flagged[0].AgeYears)
	}
}

func TestLowVisibilityOrdering(t *testing.T) {
	db := openTestDB(t)
	c := New(db)

	year := time.Now().Year() - 3
	a := addPaper(t, db, store.NewPaper{Title: "A", DOI: "10.1/a", Year: year}, 3)
	b := addPaper(t, db, store.NewPaper{Title: "B", DOI: "10.1/b", Year: year}, 1)

	flagged, err := c.LowVisibilityPapers(DefaultLowVisibilityThreshold)
	if err != nil {
		t.Fatalf("low visibility: %v", err)
	}
	if len(flagged) != 2 {
		t.Fatalf("got %d flagged papers, want 2", len(flagged))
	}
	// Most under-cited first.
	if flagged[0].ID != b || flagged[1].ID != a {
		t.Errorf("order = [%d %d], want [%d %d]", flagged[0].ID, flagged[1].ID, b, a)
	}
}

func TestPaperStats(t *testing.T) {
	db := openTestDB(t)
	c := New(db)

	id, err := db.UpsertPaper(store.NewPaper{Title: "Tracked", DOI: "10.1/tracked"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	now := time.Now()
	for _, obs := range []struct {
		daysAgo int
		count   int
	}{
		{400, 2},
		{60, 5},
		{10, 8},
		{2, 9},
	} {
		at := now.AddDate(0, 0, -obs.daysAgo)
		if err := db.RecordObservationAt(id, "semantic_scholar", obs.count, 0, nil, at); err != nil {
			t.Fatalf("backfill: %v", err)
		}
	}

	detail, err := c.PaperStats("10.1/tracked")
	if err != nil {
		t.Fatalf("paper stats: %v", err)
	}

	if detail.Citations != 9 {
		t.Errorf("citations = %d, want 9", detail.Citations)
	}
	if detail.Growth7d != 1 {
		t.Errorf("7-day growth = %d, want 1", detail.Growth7d)
	}
	if detail.Growth30d != 4 {
		t.Errorf("30-day growth = %d, want 4", detail.Growth30d)
	}
	if detail.Growth365d != 7 {
		t.Errorf("1-year growth = %d, want 7", detail.Growth365d)
	}
}

func TestPaperStatsNotFound(t *testing.T) {
	db := openTestDB(t)
	c := New(db)

	if _, err := c.PaperStats("10.9/missing"); !errors.Is(err, store.ErrPaperNotFound) {
		t.Errorf("got %v, want store.ErrPaperNotFound", err)
	}
}
