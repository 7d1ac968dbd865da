package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Observation is one time-stamped citation-count measurement for a paper
// on one platform.
type Observation struct {
	Platform  string    `json:"platform"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// RecordObservation appends a citation observation timestamped now and
// bumps the owning paper's last-updated timestamp. Counts lower than a
// previous observation are accepted: platforms occasionally revise
// downward, and the ledger stores what it saw.
func (d *DB) RecordObservation(paperID int64, platform string, count int, hIndex int, metadata map[string]string) error {
	return d.RecordObservationAt(paperID, platform, count, hIndex, metadata, time.Now())
}

// RecordObservationAt appends an observation with an explicit timestamp.
// Used for backfilling imported history; normal fetches go through
// RecordObservation.
func (d *DB) RecordObservationAt(paperID int64, platform string, count int, hIndex int, metadata map[string]string, at time.Time) error {
	var metadataJSON sql.NullString
	if len(metadata) > 0 {
		data, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshaling observation metadata: %w", err)
		}
		metadataJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := d.db.Exec(`
		INSERT INTO citations (paper_id, platform, citation_count, h_index, timestamp, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`, paperID, platform, count, nullableInt(hIndex),
		at.UTC().Format(timeFormat), metadataJSON)
	if err != nil {
		return fmt.Errorf("recording observation: %w", err)
	}

	return d.MarkUpdated(paperID)
}

// TotalCitations returns the sum over all papers of each paper's maximum
// observed citation count, optionally filtered to one platform. Summing
// per-paper maxima rather than all rows avoids double-counting repeated
// observations of the same paper.
func (d *DB) TotalCitations(platform string) (int, error) {
	query := `
		SELECT COALESCE(SUM(max_count), 0) FROM (
			SELECT MAX(citation_count) AS max_count
			FROM citations
	`
	var args []interface{}
	if platform != "" {
		query += " WHERE platform = ?"
		args = append(args, platform)
	}
	query += " GROUP BY paper_id)"

	var total int
	if err := d.db.QueryRow(query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("summing citations: %w", err)
	}
	return total, nil
}

// CurrentCitations returns a paper's current citation count: the maximum
// ever observed across all platforms, 0 if no observations exist.
func (d *DB) CurrentCitations(paperID int64) (int, error) {
	var count int
	err := d.db.QueryRow(`
		SELECT COALESCE(MAX(citation_count), 0) FROM citations WHERE paper_id = ?
	`, paperID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("reading current citations: %w", err)
	}
	return count, nil
}

// CitationsAsOf returns the maximum citation count observed for a paper at
// or before the given time, 0 if nothing had been observed yet.
func (d *DB) CitationsAsOf(paperID int64, at time.Time) (int, error) {
	var count int
	err := d.db.QueryRow(`
		SELECT COALESCE(MAX(citation_count), 0)
		FROM citations
		WHERE paper_id = ? AND timestamp <= ?
	`, paperID, at.UTC().Format(timeFormat)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("reading citations as of %s: %w", at.Format(timeFormat), err)
	}
	return count, nil
}

// TotalCitationsAsOf returns the sum of per-paper maxima over observations
// at or before the given time.
func (d *DB) TotalCitationsAsOf(at time.Time) (int, error) {
	var total int
	err := d.db.QueryRow(`
		SELECT COALESCE(SUM(max_count), 0) FROM (
			SELECT MAX(citation_count) AS max_count
			FROM citations
			WHERE timestamp <= ?
			GROUP BY paper_id
		)
	`, at.UTC().Format(timeFormat)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing citations as of %s: %w", at.Format(timeFormat), err)
	}
	return total, nil
}

// CitationCountsAsOf returns each paper's maximum observed count at or
// before the given time, for papers with at least one observation by then.
func (d *DB) CitationCountsAsOf(at time.Time) ([]int, error) {
	rows, err := d.db.Query(`
		SELECT MAX(citation_count)
		FROM citations
		WHERE timestamp <= ?
		GROUP BY paper_id
	`, at.UTC().Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("listing citation counts: %w", err)
	}
	defer rows.Close()

	var counts []int
	for rows.Next() {
		var c int
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// History returns all observations for a paper within the trailing window,
// newest first.
func (d *DB) History(paperID int64, windowDays int) ([]Observation, error) {
	since := time.Now().AddDate(0, 0, -windowDays).UTC().Format(timeFormat)

	rows, err := d.db.Query(`
		SELECT platform, citation_count, timestamp
		FROM citations
		WHERE paper_id = ? AND timestamp >= ?
		ORDER BY timestamp DESC
	`, paperID, since)
	if err != nil {
		return nil, fmt.Errorf("reading citation history: %w", err)
	}
	defer rows.Close()

	var obs []Observation
	for rows.Next() {
		var o Observation
		var ts string
		if err := rows.Scan(&o.Platform, &o.Count, &ts); err != nil {
			return nil, err
		}
		if t, err := time.Parse(timeFormat, ts); err == nil {
			o.Timestamp = t
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}
