package recommend

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/matsen/citewatch/internal/config"
	"github.com/matsen/citewatch/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.DB) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(config.Default(), db), db
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

func TestGeneratePrioritySort(t *testing.T) {
	e, db := newTestEngine(t)

	// An old under-cited solo paper triggers both high-priority rules.
	year := time.Now().Year() - 3
	addPaper(t, db, store.NewPaper{Title: "Solo", DOI: "10.1/solo", Year: year, Authors: []string{"One"}}, 2)

	recs, err := e.Generate(0, "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("no recommendations generated")
	}

	for i := 1; i < len(recs); i++ {
		if priorityWeight[recs[i].Priority] > priorityWeight[recs[i-1].Priority] {
			t.Errorf("recommendation %d (%s) outranks %d (%s)",
				i, recs[i].Priority, i-1, recs[i-1].Priority)
		}
	}
}

func TestGenerateLimitKeepsHighestPriority(t *testing.T) {
	e, db := newTestEngine(t)

	year := time.Now().Year() - 3
	addPaper(t, db, store.NewPaper{Title: "Solo", DOI: "10.1/solo", Year: year, Authors: []string{"One"}}, 2)

	recs, err := e.Generate(2, "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}
	for _, r := range recs {
		if r.Priority != PriorityHigh {
			t.Errorf("limit 2 returned %s-priority %q, want only high", r.Priority, r.Title)
		}
	}
}

func TestGenerateCategoryFilter(t *testing.T) {
	e, db := newTestEngine(t)

	year := time.Now().Year() - 3
	addPaper(t, db, store.NewPaper{Title: "Solo", DOI: "10.1/solo", Year: year, Authors: []string{"One"}}, 2)

	recs, err := e.Generate(0, CategoryVisibility)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("no visibility recommendations")
	}
	for _, r := range recs {
		if r.Category != CategoryVisibility {
			t.Errorf("category filter leaked %q recommendation %q", r.Category, r.Title)
		}
	}
}

func TestCollaborationRuleThreshold(t *testing.T) {
	e, db := newTestEngine(t)

	// 1 solo paper out of 4 is 25%, at or below the 30% threshold.
	addPaper(t, db, store.NewPaper{Title: "S1", DOI: "10.1/s1", Authors: []string{"A"}}, 0)
	addPaper(t, db, store.NewPaper{Title: "G1", DOI: "10.1/g1", Authors: []string{"A", "B", "C"}}, 0)
	addPaper(t, db, store.NewPaper{Title: "G2", DOI: "10.1/g2", Authors: []string{"A", "B", "C"}}, 0)
	addPaper(t, db, store.NewPaper{Title: "G3", DOI: "10.1/g3", Authors: []string{"A", "B", "C"}}, 0)

	recs, err := e.collaborationRules()
	if err != nil {
		t.Fatalf("collaboration rules: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("rule fired at 25%% solo ratio, want silent at or below 30%%")
	}

	// A second solo paper brings the ratio to 40%.
	addPaper(t, db, store.NewPaper{Title: "S2", DOI: "10.1/s2", Authors: []string{"A", "B"}}, 0)

	recs, err = e.collaborationRules()
	if err != nil {
		t.Fatalf("collaboration rules: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations at 40%% solo ratio, want 1", len(recs))
	}
	if recs[0].Priority != PriorityHigh || recs[0].Category != CategoryCollaboration {
		t.Errorf("got %s/%s, want %s/%s",
			recs[0].Category, recs[0].Priority, CategoryCollaboration, PriorityHigh)
	}
	if recs[0].Data["solo_count"] != 2 {
		t.Errorf("solo_count = %v, want 2", recs[0].Data["solo_count"])
	}
}

func TestCollaborationRuleDisabled(t *testing.T) {
	e, db := newTestEngine(t)
	e.cfg.Recommendations.SuggestCollaborations = false

	addPaper(t, db, store.NewPaper{Title: "S1", DOI: "10.1/s1", Authors: []string{"A"}}, 0)

	recs, err := e.collaborationRules()
	if err != nil {
		t.Fatalf("collaboration rules: %v", err)
	}
	if len(recs) != 0 {
		t.Error("disabled rule group still produced recommendations")
	}
}

func TestVisibilityRuleNamesMostUnderCited(t *testing.T) {
	e, db := newTestEngine(t)

	year := time.Now().Year() - 2
	addPaper(t, db, store.NewPaper{Title: "Slightly cited", DOI: "10.1/a", Year: year}, 3)
	worst := addPaper(t, db, store.NewPaper{Title: "Barely cited", DOI: "10.1/b", Year: year}, 1)

	recs, err := e.visibilityRules()
	if err != nil {
		t.Fatalf("visibility rules: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("no visibility recommendations")
	}
	if recs[0].Priority != PriorityHigh {
		t.Errorf("first visibility recommendation priority = %s, want high", recs[0].Priority)
	}
	if recs[0].Data["paper_id"] != worst {
		t.Errorf("flagged paper_id = %v, want %d (the most under-cited)", recs[0].Data["paper_id"], worst)
	}
}

func TestVisibilityRuleMissingDOIs(t *testing.T) {
	e, db := newTestEngine(t)

	addPaper(t, db, store.NewPaper{Title: "No DOI", ArXivID: "2401.00001"}, 10)
	addPaper(t, db, store.NewPaper{Title: "Has DOI", DOI: "10.1/a"}, 10)

	recs, err := e.visibilityRules()
	if err != nil {
		t.Fatalf("visibility rules: %v", err)
	}

	found := false
	for _, r := range recs {
		if r.Title == "Add DOIs to papers" {
			found = true
			if r.Data["count"] != 1 {
				t.Errorf("missing-DOI count = %v, want 1", r.Data["count"])
			}
		}
	}
	if !found {
		t.Error("missing-DOI recommendation not generated")
	}
}

func TestProfileRulesRegularUpdates(t *testing.T) {
	e, db := newTestEngine(t)

	recs, err := e.profileRules()
	if err != nil {
		t.Fatalf("profile rules: %v", err)
	}
	for _, r := range recs {
		if r.Title == "Regular updates" {
			t.Error("regular-updates reminder emitted with no sync history")
		}
	}

	if err := db.UpsertSyncStatus("semantic_scholar", store.SyncOK, ""); err != nil {
		t.Fatalf("upserting sync status: %v", err)
	}

	recs, err = e.profileRules()
	if err != nil {
		t.Fatalf("profile rules: %v", err)
	}
	found := false
	for _, r := range recs {
		if r.Title == "Regular updates" {
			found = true
			if r.Priority != PriorityLow {
				t.Errorf("regular-updates priority = %s, want low", r.Priority)
			}
		}
	}
	if !found {
		t.Error("regular-updates reminder not emitted after a sync")
	}
}

func TestActionableInsights(t *testing.T) {
	e, db := newTestEngine(t)

	addPaper(t, db, store.NewPaper{Title: "Big", DOI: "10.1/big"}, 20)
	addPaper(t, db, store.NewPaper{Title: "Mid", DOI: "10.1/mid"}, 10)
	addPaper(t, db, store.NewPaper{Title: "Small", DOI: "10.1/small"}, 5)

	ins, err := e.ActionableInsights()
	if err != nil {
		t.Fatalf("insights: %v", err)
	}

	if ins.TotalPapers != 3 {
		t.Errorf("total papers = %d, want 3", ins.TotalPapers)
	}
	if ins.TotalCitations != 35 {
		t.Errorf("total citations = %d, want 35", ins.TotalCitations)
	}
	if ins.HIndex != 3 {
		t.Errorf("h-index = %d, want 3", ins.HIndex)
	}
	if ins.TopPaper != "Big" {
		t.Errorf("top paper = %q, want Big", ins.TopPaper)
	}
	if ins.AvgCitations < 11.6 || ins.AvgCitations > 11.7 {
		t.Errorf("avg citations = %f, want about 11.67", ins.AvgCitations)
	}
}

func TestActionableInsightsEmpty(t *testing.T) {
	e, _ := newTestEngine(t)

	ins, err := e.ActionableInsights()
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if ins.TotalPapers != 0 || ins.TotalCitations != 0 || ins.HIndex != 0 || ins.TopPaper != "" {
		t.Errorf("empty store insights = %+v, want zeros", ins)
	}
}
