package platform

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/matsen/citewatch/internal/config"
)

const (
	// S2BaseURL is the Semantic Scholar Academic Graph API base URL.
	S2BaseURL = "https://api.semanticscholar.org/graph/v1"

	s2PaperFields  = "title,abstract,venue,year,externalIds,citationCount,authors,url"
	s2AuthorFields = "hIndex"
)

// SemanticScholar fetches an author's papers with citation counts from the
// Semantic Scholar Academic Graph API.
type SemanticScholar struct {
	client *Client
}

// NewSemanticScholar creates a Semantic Scholar fetcher.
func NewSemanticScholar(opts ...ClientOption) *SemanticScholar {
	return &SemanticScholar{client: newClient(S2BaseURL, "x-api-key", opts...)}
}

// Name returns the platform name used in config and sync status.
func (s *SemanticScholar) Name() string { return "semantic_scholar" }

type s2Author struct {
	Name string `json:"name"`
}

type s2Paper struct {
	Title         string            `json:"title"`
	Abstract      string            `json:"abstract"`
	Venue         string            `json:"venue"`
	Year          int               `json:"year"`
	ExternalIDs   map[string]string `json:"-"`
	CitationCount int               `json:"citationCount"`
	Authors       []s2Author        `json:"authors"`
	URL           string            `json:"url"`

	// externalIds values are not uniformly strings (ArXiv is a string,
	// CorpusId is a number), so decode loosely.
	RawExternalIDs map[string]interface{} `json:"externalIds"`
}

func (p *s2Paper) externalID(key string) string {
	switch v := p.RawExternalIDs[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	return ""
}

type s2PapersResponse struct {
	Data []s2Paper `json:"data"`
	Next int       `json:"next"`
}

type s2AuthorResponse struct {
	HIndex int `json:"hIndex"`
}

// Fetch retrieves the configured author's papers. The platform-reported
// h-index is attached to every record so the ledger can store it alongside
// each observation.
func (s *SemanticScholar) Fetch(ctx context.Context, pc *config.PlatformConfig, user config.UserConfig) ([]PaperRecord, error) {
	if pc.AuthorID == "" {
		return nil, fmt.Errorf("semantic_scholar: author_id not configured")
	}
	if pc.APIKey != "" {
		s.client.apiKey = pc.APIKey
	}

	var author s2AuthorResponse
	params := url.Values{"fields": {s2AuthorFields}}
	if err := s.client.getJSON(ctx, "/author/"+pc.AuthorID, params, &author); err != nil {
		return nil, err
	}

	var records []PaperRecord
	offset := 0
	for {
		params := url.Values{
			"fields": {s2PaperFields},
			"limit":  {strconv.Itoa(DefaultPageSize)},
			"offset": {strconv.Itoa(offset)},
		}

		var resp s2PapersResponse
		if err := s.client.getJSON(ctx, "/author/"+pc.AuthorID+"/papers", params, &resp); err != nil {
			return nil, err
		}

		for _, p := range resp.Data {
			if p.Title == "" {
				continue
			}
			rec := PaperRecord{
				Title:         p.Title,
				DOI:           p.externalID("DOI"),
				ArXivID:       p.externalID("ArXiv"),
				Year:          p.Year,
				Venue:         p.Venue,
				Abstract:      p.Abstract,
				URL:           p.URL,
				CitationCount: p.CitationCount,
				HIndex:        author.HIndex,
			}
			for _, a := range p.Authors {
				rec.Authors = append(rec.Authors, a.Name)
			}
			records = append(records, rec)
		}

		if resp.Next == 0 || len(resp.Data) == 0 {
			break
		}
		offset = resp.Next
	}

	return records, nil
}
