// Package history persists a summary of every pipeline run in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sygic-travel/tkdocs/internal/foundation/errors"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Run is the persisted outcome of one pipeline run.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Version        string
	State          string
	FilesRewritten int
	Error          string
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Sink receives finished runs.
type Sink interface {
	Record(ctx context.Context, run Run) error
}

// Store implements Sink using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens the history database at path, creating parent directories.
// Use MemoryPath for an in-memory database.
func Open(path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryHistory, "create history directory").
				WithContext("path", path).Build()
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "open history database").
			WithContext("path", path).Build()
	}
	// Each :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.WrapError(err, errors.CategoryHistory, "initialize history schema").
			WithContext("path", path).Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		version TEXT NOT NULL,
		state TEXT NOT NULL,
		files_rewritten INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts run. Recording the same id twice replaces the earlier row.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.ValidationError("run id is required").Build()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var errText sql.NullString
	if run.Error != "" {
		errText = sql.NullString{String: run.Error, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, started_at, finished_at, version, state, files_rewritten, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), run.Version, run.State, run.FilesRewritten, errText,
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryHistory, "insert run").
			WithContext("run_id", run.ID).Build()
	}
	return nil
}

// List returns up to limit runs, newest first. A non-positive limit returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, version, state, files_rewritten, error
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "query runs").Build()
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished int64
			errText           sql.NullString
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Version, &r.State, &r.FilesRewritten, &errText); err != nil {
			return nil, errors.WrapError(err, errors.CategoryHistory, "scan run").Build()
		}
		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finished)
		r.Error = errText.String
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "iterate runs").Build()
	}
	return runs, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
