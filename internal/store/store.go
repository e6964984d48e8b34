// SPDX-License-Identifier: MIT

// Package store persists the daemon's job registry in SQLite. The facade
// itself is stateless; this registry only exists so API clients can poll jobs
// across requests.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/qbridge/qbridge/job"
)

// ErrNotFound is returned for unknown job IDs.
var ErrNotFound = errors.New("store: job not found")

// Record is one job row.
type Record struct {
	ID          string      `json:"id"`
	Kind        job.Kind    `json:"kind"`
	Status      job.Status  `json:"status"`
	SubmittedAt time.Time   `json:"submitted_at"`
	Result      *job.Result `json:"result,omitempty"`
}

// Store wraps the registry database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	status       TEXT NOT NULL,
	submitted_at INTEGER NOT NULL,
	result       TEXT
);
`

// Open creates or opens the registry database under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dataDir, "jobs.db"))
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// The registry is written from HTTP handlers; a single connection keeps
	// SQLite out of locking trouble.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert registers a new job.
func (s *Store) Insert(ctx context.Context, id string, kind job.Kind, submitted time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, kind, status, submitted_at) VALUES (?, ?, ?, ?)`,
		id, string(kind), string(job.StatusQueued), submitted.Unix(),
	)
	if err != nil {
		return fmt.Errorf("store: insert job %s: %w", id, err)
	}
	return nil
}

// SetStatus updates a job's status.
func (s *Store) SetStatus(ctx context.Context, id string, status job.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("store: update job %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetResult stores a terminal result and marks the job done.
func (s *Store) SetResult(ctx context.Context, id string, result *job.Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("store: encode result for %s: %w", id, err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, result = ? WHERE id = ?`,
		string(job.StatusDone), string(raw), id)
	if err != nil {
		return fmt.Errorf("store: store result for %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns one job record.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, status, submitted_at, result FROM jobs WHERE id = ?`, id)

	var rec Record
	var submitted int64
	var rawResult sql.NullString
	var kind, status string
	if err := row.Scan(&rec.ID, &kind, &status, &submitted, &rawResult); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: load job %s: %w", id, err)
	}
	rec.Kind = job.Kind(kind)
	rec.Status = job.Status(status)
	rec.SubmittedAt = time.Unix(submitted, 0).UTC()
	if rawResult.Valid {
		rec.Result = &job.Result{}
		if err := json.Unmarshal([]byte(rawResult.String), rec.Result); err != nil {
			return nil, fmt.Errorf("store: decode result for %s: %w", id, err)
		}
	}
	return &rec, nil
}

// List returns the most recent jobs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, status, submitted_at FROM jobs ORDER BY submitted_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var rec Record
		var submitted int64
		var kind, status string
		if err := rows.Scan(&rec.ID, &kind, &status, &submitted); err != nil {
			return nil, fmt.Errorf("store: scan job row: %w", err)
		}
		rec.Kind = job.Kind(kind)
		rec.Status = job.Status(status)
		rec.SubmittedAt = time.Unix(submitted, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
