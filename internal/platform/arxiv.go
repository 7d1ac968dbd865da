package platform

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/matsen/citewatch/internal/config"
)

// ArxivBaseURL is the arXiv Atom API base URL.
const ArxivBaseURL = "http://export.arxiv.org/api"

// Arxiv fetches an author's preprints from the arXiv Atom API. arXiv does
// not report citation counts, so observations from this platform carry a
// count of zero; the max-per-paper aggregation means they never lower a
// paper's current count from other platforms.
type Arxiv struct {
	client *Client
}

// NewArxiv creates an arXiv fetcher.
func NewArxiv(opts ...ClientOption) *Arxiv {
	// arXiv asks for no more than one request every three seconds.
	defaults := []ClientOption{WithRateLimit(1.0 / 3.0)}
	return &Arxiv{client: newClient(ArxivBaseURL, "", append(defaults, opts...)...)}
}

// Name returns the platform name used in config and sync status.
func (a *Arxiv) Name() string { return "arxiv" }

type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
	DOI       string        `xml:"doi"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// Fetch queries arXiv for papers authored by the configured user.
func (a *Arxiv) Fetch(ctx context.Context, pc *config.PlatformConfig, user config.UserConfig) ([]PaperRecord, error) {
	query := pc.AuthorID
	if query == "" {
		query = user.Name
	}
	if query == "" {
		return nil, fmt.Errorf("arxiv: no author name or author_id configured")
	}

	params := url.Values{
		"search_query": {`au:"` + query + `"`},
		"max_results":  {strconv.Itoa(DefaultPageSize)},
	}

	body, err := a.client.get(ctx, "/query", params)
	if err != nil {
		return nil, err
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decoding arxiv feed: %w", err)
	}

	var records []PaperRecord
	for _, e := range feed.Entries {
		title := strings.Join(strings.Fields(e.Title), " ")
		if title == "" {
			continue
		}
		rec := PaperRecord{
			Title:    title,
			DOI:      e.DOI,
			ArXivID:  arxivIDFromEntryID(e.ID),
			Abstract: strings.TrimSpace(e.Summary),
			URL:      e.ID,
		}
		if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
			rec.Year = t.Year()
		}
		for _, au := range e.Authors {
			rec.Authors = append(rec.Authors, au.Name)
		}
		records = append(records, rec)
	}

	return records, nil
}

// arxivIDFromEntryID extracts the arXiv identifier from an Atom entry id
// like "http://arxiv.org/abs/2403.01234v2". The version suffix is dropped
// so re-fetches of revised preprints dedup onto one paper.
func arxivIDFromEntryID(entryID string) string {
	idx := strings.LastIndex(entryID, "/abs/")
	if idx < 0 {
		return ""
	}
	id := entryID[idx+len("/abs/"):]
	if v := strings.LastIndex(id, "v"); v > 0 {
		if _, err := strconv.Atoi(id[v+1:]); err == nil {
			id = id[:v]
		}
	}
	return id
}
