package manuscripts

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new manuscript.
func (r *PGRepo) Create(ctx context.Context, manuscript Manuscript) error {
	const query = `
INSERT INTO manuscripts (id, title, body, word_count, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query,
		manuscript.ID, manuscript.Title, manuscript.Text, manuscript.WordCount, manuscript.CreatedAt)
	return err
}

// GetByID returns a manuscript with its full text.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Manuscript, error) {
	const query = `SELECT id, title, body, word_count, created_at FROM manuscripts WHERE id = $1`
	var m Manuscript
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&m.ID, &m.Title, &m.Text, &m.WordCount, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Manuscript{}, ErrNotFound
	}
	if err != nil {
		return Manuscript{}, err
	}
	return m, nil
}

// List returns summaries newest first, body excluded.
func (r *PGRepo) List(ctx context.Context) ([]Summary, error) {
	const query = `SELECT id, title, word_count, created_at FROM manuscripts ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Title, &s.WordCount, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a manuscript.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM manuscripts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
