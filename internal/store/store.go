// Package store provides the SQLite-backed citation store.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrPaperNotFound is returned by lookups that resolve to no paper.
var ErrPaperNotFound = errors.New("paper not found")

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path.
// The schema is created if needed, so Open is safe to call against
// an already-initialized store.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes; a single connection also
	// makes insert-or-return-existing atomic for paper dedup.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- Tracked publications, deduplicated by external identifier
		CREATE TABLE IF NOT EXISTS papers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			doi TEXT,
			arxiv_id TEXT,
			pub_year INTEGER,
			venue TEXT,
			authors_json TEXT,
			abstract TEXT,
			url TEXT,
			first_seen TEXT NOT NULL,
			last_updated TEXT NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_papers_doi
			ON papers(doi) WHERE doi IS NOT NULL AND doi != '';
		CREATE UNIQUE INDEX IF NOT EXISTS idx_papers_arxiv
			ON papers(arxiv_id) WHERE arxiv_id IS NOT NULL AND arxiv_id != '';

		-- Append-only time-series of citation observations
		CREATE TABLE IF NOT EXISTS citations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id INTEGER NOT NULL,
			platform TEXT NOT NULL,
			citation_count INTEGER NOT NULL DEFAULT 0,
			h_index INTEGER,
			timestamp TEXT NOT NULL,
			metadata TEXT,
			FOREIGN KEY (paper_id) REFERENCES papers(id)
		);

		CREATE INDEX IF NOT EXISTS idx_citations_paper ON citations(paper_id);
		CREATE INDEX IF NOT EXISTS idx_citations_timestamp ON citations(timestamp);

		-- Papers in the actively-monitored set
		CREATE TABLE IF NOT EXISTS tracked_papers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id INTEGER NOT NULL UNIQUE,
			added TEXT NOT NULL,
			alert_enabled INTEGER NOT NULL DEFAULT 1,
			FOREIGN KEY (paper_id) REFERENCES papers(id)
		);

		-- One row per platform, overwritten on every fetch attempt
		CREATE TABLE IF NOT EXISTS sync_status (
			platform TEXT PRIMARY KEY,
			last_sync TEXT,
			status TEXT NOT NULL,
			error_message TEXT
		);

		-- Write-only audit trail of generated recommendations
		CREATE TABLE IF NOT EXISTS recommendations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			category TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			priority TEXT,
			generated TEXT NOT NULL,
			actioned INTEGER NOT NULL DEFAULT 0
		);

		-- Citation alerts
		CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id INTEGER,
			alert_type TEXT NOT NULL,
			message TEXT,
			created TEXT NOT NULL,
			read INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (paper_id) REFERENCES papers(id)
		);
	`

	_, err := db.Exec(schema)
	return err
}

// nullableString converts a string to sql.NullString, treating empty as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullableInt converts an int to sql.NullInt64, treating zero as NULL.
func nullableInt(n int) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}
