// Package history persists per-identity sync outcomes in a local
// sqlite database, backing the history command.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	recorded_at TEXT NOT NULL,
	identity TEXT NOT NULL,
	outcome TEXT NOT NULL,
	added INTEGER NOT NULL DEFAULT 0,
	deleted INTEGER NOT NULL DEFAULT 0,
	updated INTEGER NOT NULL DEFAULT 0,
	detail TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sync_history_run ON sync_history(run_id);
`

// Outcome values for an entry.
const (
	OutcomeSynced = "synced"
	OutcomeFailed = "failed"
)

// Entry is one identity's outcome in one run.
type Entry struct {
	RunID      string
	RecordedAt time.Time
	Identity   string
	Outcome    string
	Added      int
	Deleted    int
	Updated    int
	// Detail carries the failure description for failed entries.
	Detail string
}

// Store is a sqlite-backed history store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends one entry.
func (s *Store) Record(e Entry) error {
	_, err := s.db.Exec(
		`INSERT INTO sync_history (run_id, recorded_at, identity, outcome, added, deleted, updated, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.RecordedAt.UTC().Format(time.RFC3339), e.Identity,
		e.Outcome, e.Added, e.Deleted, e.Updated, e.Detail,
	)
	if err != nil {
		return fmt.Errorf("record history entry: %w", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT run_id, recorded_at, identity, outcome, added, deleted, updated, detail
		 FROM sync_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			ts string
		)
		if err := rows.Scan(&e.RunID, &ts, &e.Identity, &e.Outcome,
			&e.Added, &e.Deleted, &e.Updated, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.RecordedAt, _ = time.Parse(time.RFC3339, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
