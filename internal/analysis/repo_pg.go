package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"manuscript-backend/internal/llm"
)

// PGRepo implements Repo using Postgres. ArchetypeIDs and the progress
// snapshot are stored as JSONB.
type PGRepo struct {
	DB *sql.DB
}

const runColumns = `id, manuscript_id, job_id, mode, status, archetype_ids, chunk_count, progress, created_at, updated_at`

// Create inserts a new run.
func (r *PGRepo) Create(ctx context.Context, run Run) error {
	archetypeIDs, err := json.Marshal(run.ArchetypeIDs)
	if err != nil {
		return err
	}
	progress, err := json.Marshal(run.Progress)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO analysis_runs (` + runColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.DB.ExecContext(ctx, query,
		run.ID, run.ManuscriptID, run.JobID, string(run.Mode), run.Status,
		archetypeIDs, run.ChunkCount, progress, run.CreatedAt, run.UpdatedAt)
	return err
}

// GetByID returns a run by its ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Run, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+runColumns+` FROM analysis_runs WHERE id = $1`, id)
	return scanRun(row)
}

// ListByManuscript returns a manuscript's runs newest first.
func (r *PGRepo) ListByManuscript(ctx context.Context, manuscriptID string) ([]Run, error) {
	const query = `SELECT ` + runColumns + ` FROM analysis_runs WHERE manuscript_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, manuscriptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// LatestCompleted returns the newest completed run of the given mode.
func (r *PGRepo) LatestCompleted(ctx context.Context, manuscriptID string, mode llm.Mode) (Run, error) {
	const query = `
SELECT ` + runColumns + ` FROM analysis_runs
WHERE manuscript_id = $1 AND mode = $2 AND status = $3
ORDER BY created_at DESC
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, manuscriptID, string(mode), StatusCompleted)
	return scanRun(row)
}

// UpdateProgress replaces the run's status and progress snapshot.
func (r *PGRepo) UpdateProgress(ctx context.Context, id, status string, progress Progress) error {
	payload, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	const query = `UPDATE analysis_runs SET status = $2, progress = $3, updated_at = $4 WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, status, payload, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRunRow(res)
}

// SetJobID links the run to its background job.
func (r *PGRepo) SetJobID(ctx context.Context, id, jobID string) error {
	const query = `UPDATE analysis_runs SET job_id = $2, updated_at = $3 WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, jobID, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRunRow(res)
}

func requireRunRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type runScanner interface {
	Scan(dest ...any) error
}

func scanRun(row runScanner) (Run, error) {
	var run Run
	var mode string
	var archetypeIDs, progress []byte
	err := row.Scan(&run.ID, &run.ManuscriptID, &run.JobID, &mode, &run.Status,
		&archetypeIDs, &run.ChunkCount, &progress, &run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, err
	}
	run.Mode = llm.Mode(mode)
	if len(archetypeIDs) > 0 {
		if err := json.Unmarshal(archetypeIDs, &run.ArchetypeIDs); err != nil {
			return Run{}, err
		}
	}
	if len(progress) > 0 {
		if err := json.Unmarshal(progress, &run.Progress); err != nil {
			return Run{}, err
		}
	}
	return run, nil
}
