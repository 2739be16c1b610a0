// Package history persists run results to a local SQLite database so past
// runs can be listed and replayed from the CLI.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/abdul-hamid-achik/volley/packages/core/runner"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	duration_ms INTEGER NOT NULL,
	total      INTEGER NOT NULL,
	skipped    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	run_id                  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq                     INTEGER NOT NULL,
	status                  INTEGER NOT NULL,
	status_text             TEXT NOT NULL,
	method                  TEXT NOT NULL,
	url                     TEXT NOT NULL,
	server_response_time_ms INTEGER NOT NULL,
	response_body           TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`

// Run is one stored execution of a request file.
type Run struct {
	ID        string
	Source    string
	StartedAt time.Time
	Duration  time.Duration
	Total     int
	Skipped   int
}

// NewRun stamps a run result with a fresh identity for storage.
func NewRun(source string, startedAt time.Time, result *runner.Result) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Source:    source,
		StartedAt: startedAt,
		Duration:  result.Duration,
		Total:     result.Total(),
		Skipped:   result.Skipped,
	}
}

// Store is a handle to the history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to history database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("preparing history schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun stores a run and its records atomically.
func (s *Store) SaveRun(run *Run, records []*runner.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO runs (id, source, started_at, duration_ms, total, skipped) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.StartedAt, run.Duration.Milliseconds(), run.Total, run.Skipped,
	)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	for seq, rec := range records {
		_, err = tx.Exec(
			`INSERT INTO records (run_id, seq, status, status_text, method, url, server_response_time_ms, response_body)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, seq, rec.Status, rec.StatusText, rec.Method, rec.URL, rec.ServerResponseTimeMS, rec.ResponseBody,
		)
		if err != nil {
			return fmt.Errorf("saving record %d: %w", seq, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns stored runs, newest first. A limit of 0 means all.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `SELECT id, source, started_at, duration_ms, total, skipped FROM runs ORDER BY started_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var durationMs int64
		if err := rows.Scan(&run.ID, &run.Source, &run.StartedAt, &durationMs, &run.Total, &run.Skipped); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// Records returns the stored records of one run in dispatch order.
func (s *Store) Records(runID string) ([]*runner.Record, error) {
	rows, err := s.db.Query(
		`SELECT status, status_text, method, url, server_response_time_ms, response_body
		 FROM records WHERE run_id = ? ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	defer rows.Close()

	var records []*runner.Record
	for rows.Next() {
		var rec runner.Record
		if err := rows.Scan(&rec.Status, &rec.StatusText, &rec.Method, &rec.URL, &rec.ServerResponseTimeMS, &rec.ResponseBody); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
