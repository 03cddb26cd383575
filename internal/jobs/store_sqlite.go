package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists jobs to a local SQLite file so restarts can
// detect work that was interrupted mid-flight.
type SQLiteStore struct {
	db *sql.DB
}

const jobsSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	status     TEXT NOT NULL,
	payload    BLOB,
	progress   REAL NOT NULL DEFAULT 0,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);`

// OpenSQLiteStore opens (creating if needed) the job database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}
	// The file is accessed from HTTP handlers and job goroutines alike;
	// a single connection sidesteps SQLITE_BUSY under modernc's driver.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(jobsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init job store schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts or replaces a job.
func (s *SQLiteStore) Save(ctx context.Context, job Job) error {
	const query = `
INSERT INTO jobs (id, type, status, payload, progress, error, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	status = excluded.status,
	payload = excluded.payload,
	progress = excluded.progress,
	error = excluded.error,
	updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, query,
		job.ID, job.Type, job.Status, []byte(job.Payload), job.Progress, job.Error,
		job.CreatedAt, job.UpdatedAt)
	return err
}

// Get returns a job by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Job, error) {
	const query = `SELECT id, type, status, payload, progress, error, created_at, updated_at FROM jobs WHERE id = ?`
	return scanJob(s.db.QueryRowContext(ctx, query, id))
}

// List returns all jobs newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Job, error) {
	const query = `SELECT id, type, status, payload, progress, error, created_at, updated_at FROM jobs ORDER BY created_at DESC`
	return s.queryJobs(ctx, query)
}

// ListByStatus returns jobs in the given status, newest first.
func (s *SQLiteStore) ListByStatus(ctx context.Context, status string) ([]Job, error) {
	const query = `SELECT id, type, status, payload, progress, error, created_at, updated_at FROM jobs WHERE status = ? ORDER BY created_at DESC`
	return s.queryJobs(ctx, query, status)
}

func (s *SQLiteStore) queryJobs(ctx context.Context, query string, args ...any) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var job Job
	var payload []byte
	err := row.Scan(&job.ID, &job.Type, &job.Status, &payload, &job.Progress, &job.Error,
		&job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, err
	}
	if len(payload) > 0 {
		job.Payload = payload
	}
	return job, nil
}
