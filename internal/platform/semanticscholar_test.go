package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matsen/citewatch/internal/config"
)

func TestSemanticScholarFetch(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		switch r.URL.Path {
		case "/author/1234":
			fmt.Fprint(w, `{"hIndex": 12}`)
		case "/author/1234/papers":
			if r.URL.Query().Get("offset") == "0" {
				fmt.Fprint(w, `{
					"next": 1,
					"data": [{
						"title": "Graph Methods",
						"venue": "NeurIPS Proceedings",
						"year": 2022,
						"citationCount": 40,
						"externalIds": {"DOI": "10.1/graph", "ArXiv": "2201.00001", "CorpusId": 98765},
						"authors": [{"name": "Ada Lovelace"}, {"name": "Grace Hopper"}],
						"url": "https://example.org/graph"
					}]
				}`)
			} else {
				fmt.Fprint(w, `{"next": 0, "data": [{"title": "", "citationCount": 1}]}`)
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s2 := NewSemanticScholar(WithBaseURL(srv.URL), WithRateLimit(1000))
	pc := &config.PlatformConfig{Enabled: true, AuthorID: "1234", APIKey: "test-key"}

	records, err := s2.Fetch(context.Background(), pc, config.UserConfig{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if gotKey != "test-key" {
		t.Errorf("API key header = %q, want test-key", gotKey)
	}

	// The second page contains only an untitled entry, which is skipped.
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	r := records[0]
	if r.Title != "Graph Methods" || r.CitationCount != 40 || r.Year != 2022 {
		t.Errorf("record = %+v", r)
	}
	if r.DOI != "10.1/graph" || r.ArXivID != "2201.00001" {
		t.Errorf("external ids = %q / %q", r.DOI, r.ArXivID)
	}
	if r.HIndex != 12 {
		t.Errorf("h-index = %d, want 12", r.HIndex)
	}
	if len(r.Authors) != 2 || r.Authors[0] != "Ada Lovelace" {
		t.Errorf("authors = %v", r.Authors)
	}
}

func TestSemanticScholarRequiresAuthorID(t *testing.T) {
	s2 := NewSemanticScholar()

	_, err := s2.Fetch(context.Background(), &config.PlatformConfig{Enabled: true}, config.UserConfig{})
	if err == nil {
		t.Fatal("fetch without author_id succeeded, want error")
	}
}

func TestSemanticScholarHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s2 := NewSemanticScholar(WithBaseURL(srv.URL), WithRateLimit(1000))
	pc := &config.PlatformConfig{Enabled: true, AuthorID: "1234"}

	if _, err := s2.Fetch(context.Background(), pc, config.UserConfig{}); err == nil {
		t.Fatal("fetch against failing server succeeded, want error")
	}
}

func TestS2PaperExternalIDTypes(t *testing.T) {
	p := s2Paper{RawExternalIDs: map[string]interface{}{
		"DOI":      "10.1/x",
		"CorpusId": float64(123456),
	}}

	if got := p.externalID("DOI"); got != "10.1/x" {
		t.Errorf("string id = %q", got)
	}
	if got := p.externalID("CorpusId"); got != "123456" {
		t.Errorf("numeric id = %q", got)
	}
	if got := p.externalID("PubMed"); got != "" {
		t.Errorf("missing id = %q, want empty", got)
	}
}
