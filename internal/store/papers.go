package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// timeFormat is the timestamp representation used in TEXT columns.
// RFC 3339 in UTC sorts lexicographically, so range queries can compare
// timestamps as strings.
const timeFormat = time.RFC3339

// selectPaperFields is the standard field list for paper SELECT queries.
const selectPaperFields = `id, title, doi, arxiv_id, pub_year, venue,
	authors_json, abstract, url, first_seen, last_updated`

// Paper represents one tracked publication.
type Paper struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	DOI      string   `json:"doi,omitempty"`
	ArXivID  string   `json:"arxiv_id,omitempty"`
	Year     int      `json:"year,omitempty"`
	Venue    string   `json:"venue,omitempty"`
	Authors  []string `json:"authors,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
	URL      string   `json:"url,omitempty"`

	// AuthorsMalformed is set when the stored author payload could not be
	// parsed. The paper is still usable; it just has no structured authors.
	AuthorsMalformed bool `json:"authors_malformed,omitempty"`

	FirstSeen   time.Time `json:"first_seen"`
	LastUpdated time.Time `json:"last_updated"`
}

// PaperWithCitations is a paper augmented with its current citation count,
// defined as the maximum count ever observed across all platforms.
type PaperWithCitations struct {
	Paper
	Citations int `json:"citations"`
}

// NewPaper holds the fields accepted when inserting a paper.
type NewPaper struct {
	Title    string
	DOI      string
	ArXivID  string
	Year     int
	Venue    string
	Authors  []string
	Abstract string
	URL      string
}

// UpsertPaper inserts a paper, deduplicating on DOI and arXiv ID.
// If a paper with the same DOI or arXiv ID already exists, its id is
// returned and no row is created. Papers with neither identifier are
// deduplicated only on an exact title match, which is best-effort.
func (d *DB) UpsertPaper(p NewPaper) (int64, error) {
	// Resolve against existing identifiers first so racing fetches for the
	// same paper collapse onto one row.
	if p.DOI != "" {
		if id, err := d.paperIDWhere("doi = ?", p.DOI); err != nil {
			return 0, err
		} else if id != 0 {
			return id, nil
		}
	}
	if p.ArXivID != "" {
		if id, err := d.paperIDWhere("arxiv_id = ?", p.ArXivID); err != nil {
			return 0, err
		} else if id != 0 {
			return id, nil
		}
	}
	if p.DOI == "" && p.ArXivID == "" {
		if id, err := d.paperIDWhere("title = ?", p.Title); err != nil {
			return 0, err
		} else if id != 0 {
			return id, nil
		}
	}

	var authorsJSON sql.NullString
	if len(p.Authors) > 0 {
		data, err := json.Marshal(p.Authors)
		if err != nil {
			return 0, fmt.Errorf("marshaling authors: %w", err)
		}
		authorsJSON = sql.NullString{String: string(data), Valid: true}
	}

	now := time.Now().UTC().Format(timeFormat)
	res, err := d.db.Exec(`
		INSERT INTO papers (title, doi, arxiv_id, pub_year, venue,
			authors_json, abstract, url, first_seen, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Title, nullableString(p.DOI), nullableString(p.ArXivID),
		nullableInt(p.Year), nullableString(p.Venue),
		authorsJSON, nullableString(p.Abstract), nullableString(p.URL),
		now, now)
	if err != nil {
		return 0, fmt.Errorf("inserting paper: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted paper id: %w", err)
	}
	return id, nil
}

// paperIDWhere returns the lowest paper id matching the condition, or 0.
func (d *DB) paperIDWhere(cond string, args ...interface{}) (int64, error) {
	var id int64
	err := d.db.QueryRow(
		"SELECT id FROM papers WHERE "+cond+" ORDER BY id LIMIT 1", args...,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("looking up paper: %w", err)
	}
	return id, nil
}

// FindPaper resolves a paper by external identifier. Lookup precedence is
// DOI, then arXiv ID, then case-sensitive substring match on title (lowest
// id wins). Returns ErrPaperNotFound if nothing matches.
func (d *DB) FindPaper(doi, arxivID, titleSub string) (int64, error) {
	if doi != "" {
		if id, err := d.paperIDWhere("doi = ?", doi); err != nil || id != 0 {
			return id, err
		}
	}
	if arxivID != "" {
		if id, err := d.paperIDWhere("arxiv_id = ?", arxivID); err != nil || id != 0 {
			return id, err
		}
	}
	if titleSub != "" {
		// instr() is case-sensitive, unlike LIKE.
		if id, err := d.paperIDWhere("instr(title, ?) > 0", titleSub); err != nil || id != 0 {
			return id, err
		}
	}
	return 0, ErrPaperNotFound
}

// GetPaper retrieves a paper by id. Returns ErrPaperNotFound if absent.
func (d *DB) GetPaper(id int64) (*Paper, error) {
	row := d.db.QueryRow(`SELECT `+selectPaperFields+` FROM papers WHERE id = ?`, id)
	p, err := scanPaper(row)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPaperNotFound
	}
	return p, nil
}

// CountPapers returns the total number of papers.
func (d *DB) CountPapers() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM papers").Scan(&count)
	return count, err
}

// CountPapersAsOf returns the number of papers first seen at or before the
// given time.
func (d *DB) CountPapersAsOf(at time.Time) (int, error) {
	var count int
	err := d.db.QueryRow(
		"SELECT COUNT(*) FROM papers WHERE first_seen <= ?",
		at.UTC().Format(timeFormat),
	).Scan(&count)
	return count, err
}

// ListPapersWithCitations returns every paper with its current citation
// count (0 if no observations exist), ordered by citations descending with
// id ascending on ties.
func (d *DB) ListPapersWithCitations() ([]PaperWithCitations, error) {
	rows, err := d.db.Query(`
		SELECT ` + selectPaperFields + `,
			COALESCE((SELECT MAX(citation_count) FROM citations c WHERE c.paper_id = papers.id), 0) AS citations
		FROM papers
		ORDER BY citations DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	defer rows.Close()

	return scanPapersWithCitations(rows)
}

// MarkUpdated bumps a paper's last-updated timestamp.
func (d *DB) MarkUpdated(paperID int64) error {
	_, err := d.db.Exec(
		"UPDATE papers SET last_updated = ? WHERE id = ?",
		time.Now().UTC().Format(timeFormat), paperID,
	)
	if err != nil {
		return fmt.Errorf("marking paper updated: %w", err)
	}
	return nil
}

// TrackPaper adds a paper to the actively-monitored set. Idempotent: at
// most one tracking row exists per paper.
func (d *DB) TrackPaper(paperID int64) error {
	_, err := d.db.Exec(`
		INSERT OR IGNORE INTO tracked_papers (paper_id, added, alert_enabled)
		VALUES (?, ?, 1)
	`, paperID, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("tracking paper: %w", err)
	}
	return nil
}

// ListTracked returns the tracked papers with their current citation
// counts, ordered by citations descending.
func (d *DB) ListTracked() ([]PaperWithCitations, error) {
	rows, err := d.db.Query(`
		SELECT ` + selectPaperFields + `,
			COALESCE((SELECT MAX(citation_count) FROM citations c WHERE c.paper_id = papers.id), 0) AS citations
		FROM papers
		WHERE id IN (SELECT paper_id FROM tracked_papers)
		ORDER BY citations DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing tracked papers: %w", err)
	}
	defer rows.Close()

	return scanPapersWithCitations(rows)
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanPaperInto scans the standard paper columns plus any extra columns.
func scanPaperInto(s scanner, p *Paper, extra ...interface{}) (bool, error) {
	var doi, arxivID, venue, authorsJSON, abstract, url sql.NullString
	var pubYear sql.NullInt64
	var firstSeen, lastUpdated string

	dest := []interface{}{
		&p.ID, &p.Title, &doi, &arxivID, &pubYear, &venue,
		&authorsJSON, &abstract, &url, &firstSeen, &lastUpdated,
	}
	dest = append(dest, extra...)

	if err := s.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}

	p.DOI = doi.String
	p.ArXivID = arxivID.String
	p.Venue = venue.String
	p.Abstract = abstract.String
	p.URL = url.String
	if pubYear.Valid {
		p.Year = int(pubYear.Int64)
	}

	// Malformed author payloads are a data anomaly, not a failure: the
	// paper scans as having no structured authors.
	if authorsJSON.Valid && authorsJSON.String != "" {
		if err := json.Unmarshal([]byte(authorsJSON.String), &p.Authors); err != nil {
			p.Authors = nil
			p.AuthorsMalformed = true
		}
	}

	if t, err := time.Parse(timeFormat, firstSeen); err == nil {
		p.FirstSeen = t
	}
	if t, err := time.Parse(timeFormat, lastUpdated); err == nil {
		p.LastUpdated = t
	}

	return true, nil
}

func scanPaper(s scanner) (*Paper, error) {
	var p Paper
	ok, err := scanPaperInto(s, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func scanPapersWithCitations(rows *sql.Rows) ([]PaperWithCitations, error) {
	var papers []PaperWithCitations
	for rows.Next() {
		var p PaperWithCitations
		ok, err := scanPaperInto(rows, &p.Paper, &p.Citations)
		if err != nil {
			return nil, err
		}
		if ok {
			papers = append(papers, p)
		}
	}
	return papers, rows.Err()
}
