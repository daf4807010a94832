// Package triggerlog records published trigger events in a local sqlite
// database on the publisher side. The log is diagnostic input history only:
// it captures what was sent, keyed by a per-process session, so dropped or
// delayed triggers can be investigated after the fact.
package triggerlog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
	sessionID string
}

// NewDB opens (or creates) the trigger log at path and starts a new session.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS triggers (
			session_id TEXT,
			trigger_id BIGINT,
			hw_timestamp_ns BIGINT,
			publish_timestamp_ns BIGINT,
			recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE INDEX IF NOT EXISTS idx_triggers_session ON triggers(session_id, trigger_id);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	sessionID := uuid.NewString()
	if _, err := db.Exec("INSERT INTO sessions (session_id) VALUES (?)", sessionID); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	return &DB{DB: db, sessionID: sessionID}, nil
}

// SessionID returns the identifier assigned to this process's session.
func (db *DB) SessionID() string { return db.sessionID }

// RecordTrigger logs one published trigger under the current session.
// Timestamps are stored as signed integers; epoch nanoseconds fit well
// within int64 range.
func (db *DB) RecordTrigger(id, hwTimestampNs, publishTimestampNs uint64) error {
	_, err := db.Exec(
		"INSERT INTO triggers (session_id, trigger_id, hw_timestamp_ns, publish_timestamp_ns) VALUES (?, ?, ?, ?)",
		db.sessionID, int64(id), int64(hwTimestampNs), int64(publishTimestampNs),
	)
	if err != nil {
		return err
	}
	return nil
}

// Record is one logged trigger row.
type Record struct {
	TriggerID          uint64
	HwTimestampNs      uint64
	PublishTimestampNs uint64
}

func (r *Record) String() string {
	return fmt.Sprintf("Trigger: %d, HW: %d, Published: %d", r.TriggerID, r.HwTimestampNs, r.PublishTimestampNs)
}

// SessionTriggers returns the triggers recorded for the given session, in
// publish order.
func (db *DB) SessionTriggers(sessionID string) ([]Record, error) {
	rows, err := db.Query(
		"SELECT trigger_id, hw_timestamp_ns, publish_timestamp_ns FROM triggers WHERE session_id = ? ORDER BY trigger_id",
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var id, hw, pub int64
		if err := rows.Scan(&id, &hw, &pub); err != nil {
			return nil, err
		}
		records = append(records, Record{
			TriggerID:          uint64(id),
			HwTimestampNs:      uint64(hw),
			PublishTimestampNs: uint64(pub),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// Sessions lists known sessions, most recent first.
func (db *DB) Sessions() ([]string, error) {
	rows, err := db.Query("SELECT session_id FROM sessions ORDER BY started_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PruneBefore deletes trigger rows recorded before the cutoff, across all
// sessions.
func (db *DB) PruneBefore(cutoff time.Time) (int64, error) {
	res, err := db.Exec("DELETE FROM triggers WHERE recorded_at < ?", cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
