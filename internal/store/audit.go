package store

import (
	"database/sql"
	"fmt"
	"time"
)

// LogRecommendation appends a generated recommendation to the audit trail.
// The trail is write-only; the engine never reads it back.
func (d *DB) LogRecommendation(category, title, description, priority string) error {
	_, err := d.db.Exec(`
		INSERT INTO recommendations (category, title, description, priority, generated)
		VALUES (?, ?, ?, ?, ?)
	`, category, title, description, priority, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("logging recommendation: %w", err)
	}
	return nil
}

// Alert is a threshold-crossing notification tied to a paper.
type Alert struct {
	ID      int64     `json:"id"`
	PaperID int64     `json:"paper_id,omitempty"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
	Created time.Time `json:"created"`
	Read    bool      `json:"read"`
}

// AddAlert records an alert. paperID may be 0 for alerts not tied to a
// specific paper.
func (d *DB) AddAlert(paperID int64, alertType, message string) error {
	var pid sql.NullInt64
	if paperID != 0 {
		pid = sql.NullInt64{Int64: paperID, Valid: true}
	}
	_, err := d.db.Exec(`
		INSERT INTO alerts (paper_id, alert_type, message, created)
		VALUES (?, ?, ?, ?)
	`, pid, alertType, message, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("adding alert: %w", err)
	}
	return nil
}

// ListAlerts returns alerts, newest first. Set unreadOnly to skip alerts
// already marked read.
func (d *DB) ListAlerts(unreadOnly bool) ([]Alert, error) {
	query := `SELECT id, paper_id, alert_type, message, created, read FROM alerts`
	if unreadOnly {
		query += " WHERE read = 0"
	}
	query += " ORDER BY created DESC, id DESC"

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var a Alert
		var pid sql.NullInt64
		var created string
		var read int
		if err := rows.Scan(&a.ID, &pid, &a.Type, &a.Message, &created, &read); err != nil {
			return nil, err
		}
		a.PaperID = pid.Int64
		a.Read = read != 0
		if t, err := time.Parse(timeFormat, created); err == nil {
			a.Created = t
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkAlertRead marks a single alert as read.
func (d *DB) MarkAlertRead(id int64) error {
	_, err := d.db.Exec("UPDATE alerts SET read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking alert read: %w", err)
	}
	return nil
}
