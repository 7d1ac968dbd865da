package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Sync status values written by the fetch step.
const (
	SyncOK    = "success"
	SyncError = "error"
)

// SyncStatus is the last fetch outcome for one platform. One row per
// platform; every fetch attempt overwrites it. No history is kept.
type SyncStatus struct {
	Platform string    `json:"platform"`
	LastSync time.Time `json:"last_sync"`
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
}

// UpsertSyncStatus records the outcome of a fetch attempt for a platform.
func (d *DB) UpsertSyncStatus(platform, status, errMsg string) error {
	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO sync_status (platform, last_sync, status, error_message)
		VALUES (?, ?, ?, ?)
	`, platform, time.Now().UTC().Format(timeFormat), status, nullableString(errMsg))
	if err != nil {
		return fmt.Errorf("updating sync status: %w", err)
	}
	return nil
}

// ListSyncStatus returns the sync status of every platform that has been
// fetched at least once, most recently synced first.
func (d *DB) ListSyncStatus() ([]SyncStatus, error) {
	rows, err := d.db.Query(`
		SELECT platform, last_sync, status, error_message
		FROM sync_status
		ORDER BY last_sync DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing sync status: %w", err)
	}
	defer rows.Close()

	var statuses []SyncStatus
	for rows.Next() {
		var s SyncStatus
		var lastSync string
		var errMsg sql.NullString
		if err := rows.Scan(&s.Platform, &lastSync, &s.Status, &errMsg); err != nil {
			return nil, err
		}
		s.Error = errMsg.String
		if t, err := time.Parse(timeFormat, lastSync); err == nil {
			s.LastSync = t
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}
