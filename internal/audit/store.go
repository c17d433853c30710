// Package audit persists a record of every dispatched command line.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Entry is one dispatched command.
type Entry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Line      string    `json:"line"`
	Verdict   string    `json:"verdict"` // ok | error
	Duration  int64     `json:"duration_us"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a SQLite-backed audit log.
type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the audit database at path and ensures
// the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("audit path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.ExecContext(pctx, `CREATE TABLE IF NOT EXISTS command_log (
  id          TEXT PRIMARY KEY,
  session_id  TEXT NOT NULL,
  line        TEXT NOT NULL,
  verdict     TEXT NOT NULL,
  duration_us INTEGER NOT NULL,
  created_at  TEXT NOT NULL
);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create command_log: %w", err)
	}
	if _, err := db.ExecContext(pctx,
		`CREATE INDEX IF NOT EXISTS idx_command_log_created ON command_log(created_at);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts one entry. ID and CreatedAt are assigned here.
func (s *Store) Record(ctx context.Context, sessionID, line string, ok bool, duration time.Duration) error {
	verdict := "error"
	if ok {
		verdict = "ok"
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO command_log(id, session_id, line, verdict, duration_us, created_at)
VALUES(?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), sessionID, line, verdict,
		duration.Microseconds(), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert command_log: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_id, line, verdict, duration_us, created_at
FROM command_log ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query command_log: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Line, &e.Verdict, &e.Duration, &created); err != nil {
			return nil, fmt.Errorf("scan command_log: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339Nano, created); perr == nil {
			e.CreatedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
