// Package history records build outcomes in a local sqlite database. The
// store is observability only: builds never read from it, all site state is
// derived fresh from the filesystem.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one completed or failed build.
type Record struct {
	BuildID    string
	Status     string
	Pages      int
	DurationMS int64
	StartedAt  time.Time
}

// Store is a sqlite-backed build history.
type Store struct {
	db *sql.DB
}

// Open opens (and initializes) the history database at path, creating parent
// directories as needed. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		build_id    TEXT PRIMARY KEY,
		status      TEXT NOT NULL,
		pages       INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		started_at  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Append stores one build record.
func (s *Store) Append(r Record) error {
	_, err := s.db.Exec(
		`INSERT INTO builds (build_id, status, pages, duration_ms, started_at) VALUES (?, ?, ?, ?, ?)`,
		r.BuildID, r.Status, r.Pages, r.DurationMS, r.StartedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("append build record: %w", err)
	}
	return nil
}

// Recent returns up to n builds, newest first.
func (s *Store) Recent(n int) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT build_id, status, pages, duration_ms, started_at FROM builds ORDER BY started_at DESC, build_id LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query build history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var started int64
		if err := rows.Scan(&r.BuildID, &r.Status, &r.Pages, &r.DurationMS, &started); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		r.StartedAt = time.Unix(started, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
