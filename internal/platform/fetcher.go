package platform

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/matsen/citewatch/internal/config"
	"github.com/matsen/citewatch/internal/store"
)

// ErrUnsupportedPlatform is returned when a platform has no fetcher
// implementation (it may still be listed in config for profile
// recommendations).
var ErrUnsupportedPlatform = errors.New("platform has no fetcher")

// ErrPlatformDisabled is returned when fetching a platform disabled in config.
var ErrPlatformDisabled = errors.New("platform is disabled")

// PaperRecord is what a platform reports for one publication.
type PaperRecord struct {
	Title         string
	DOI           string
	ArXivID       string
	Year          int
	Venue         string
	Authors       []string
	Abstract      string
	URL           string
	CitationCount int
	HIndex        int // platform-reported author h-index, 0 if unknown
}

// Fetcher retrieves the publication list for the configured author from
// one platform.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, pc *config.PlatformConfig, user config.UserConfig) ([]PaperRecord, error)
}

// Result summarizes one platform fetch.
type Result struct {
	Platform  string `json:"platform"`
	Papers    int    `json:"papers"`
	Citations int    `json:"citations"`
	Error     string `json:"error,omitempty"`
}

// Service orchestrates platform fetches and writes the results through
// the store.
type Service struct {
	cfg      *config.Config
	db       *store.DB
	fetchers map[string]Fetcher
}

// NewService creates a fetch service with the default fetchers registered.
func NewService(cfg *config.Config, db *store.DB) *Service {
	s := &Service{
		cfg:      cfg,
		db:       db,
		fetchers: make(map[string]Fetcher),
	}
	s.Register(NewSemanticScholar())
	s.Register(NewArxiv())
	return s
}

// Register adds a fetcher. Later registrations replace earlier ones with
// the same name (used by tests to install fakes).
func (s *Service) Register(f Fetcher) {
	s.fetchers[f.Name()] = f
}

// Supported reports whether a fetcher exists for the platform.
func (s *Service) Supported(name string) bool {
	_, ok := s.fetchers[name]
	return ok
}

// FetchPlatform fetches one platform and records papers, observations,
// and sync status. A fetch failure is recorded as an error sync status
// before being returned.
func (s *Service) FetchPlatform(ctx context.Context, name string) (Result, error) {
	fetcher, ok := s.fetchers[name]
	if !ok {
		return Result{Platform: name}, fmt.Errorf("%s: %w", name, ErrUnsupportedPlatform)
	}

	pc, ok := s.cfg.Platforms[name]
	if !ok || !pc.Enabled {
		return Result{Platform: name}, fmt.Errorf("%s: %w", name, ErrPlatformDisabled)
	}

	records, err := fetcher.Fetch(ctx, pc, s.cfg.User)
	if err != nil {
		if statusErr := s.db.UpsertSyncStatus(name, store.SyncError, err.Error()); statusErr != nil {
			return Result{Platform: name}, statusErr
		}
		return Result{Platform: name}, err
	}

	result := Result{Platform: name}
	for _, rec := range records {
		if err := s.ingest(name, rec, &result); err != nil {
			if statusErr := s.db.UpsertSyncStatus(name, store.SyncError, err.Error()); statusErr != nil {
				return result, statusErr
			}
			return result, err
		}
	}

	if err := s.db.UpsertSyncStatus(name, store.SyncOK, ""); err != nil {
		return result, err
	}
	return result, nil
}

// ingest writes one platform record through the paper store and ledger,
// raising an alert when the citation count jumps past the configured
// threshold.
func (s *Service) ingest(platformName string, rec PaperRecord, result *Result) error {
	paperID, err := s.db.UpsertPaper(store.NewPaper{
		Title:    rec.Title,
		DOI:      rec.DOI,
		ArXivID:  rec.ArXivID,
		Year:     rec.Year,
		Venue:    rec.Venue,
		Authors:  rec.Authors,
		Abstract: rec.Abstract,
		URL:      rec.URL,
	})
	if err != nil {
		return fmt.Errorf("upserting %q: %w", rec.Title, err)
	}

	previous, err := s.db.CurrentCitations(paperID)
	if err != nil {
		return err
	}

	if err := s.db.RecordObservation(paperID, platformName, rec.CitationCount, rec.HIndex, nil); err != nil {
		return err
	}

	if s.cfg.Alerts.Enabled {
		delta := rec.CitationCount - previous
		if delta >= s.cfg.Alerts.MinCitationThreshold && delta > 0 {
			msg := fmt.Sprintf("%q gained %d citations on %s (now %d)",
				rec.Title, delta, platformName, rec.CitationCount)
			if err := s.db.AddAlert(paperID, "citation_increase", msg); err != nil {
				return err
			}
		}
	}

	result.Papers++
	result.Citations += rec.CitationCount
	return nil
}

// FetchAll fetches every enabled platform that has a fetcher. A failure
// on one platform does not abort the others; each result carries its own
// error message. Results are ordered by platform name.
func (s *Service) FetchAll(ctx context.Context) ([]Result, error) {
	var names []string
	for name, pc := range s.cfg.Platforms {
		if pc.Enabled && s.Supported(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var results []Result
	for _, name := range names {
		result, err := s.FetchPlatform(ctx, name)
		if err != nil {
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results, nil
}
