package archetypes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const archetypeColumns = `id, name, description, demographics, reading_preferences, personality_traits, motivations, pain_points, created_at`

// Create inserts a new archetype.
func (r *PGRepo) Create(ctx context.Context, archetype Archetype) error {
	pains, err := json.Marshal(archetype.PainPoints)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO archetypes (` + archetypeColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.DB.ExecContext(ctx, query,
		archetype.ID, archetype.Name, archetype.Description, archetype.Demographics,
		archetype.ReadingPreferences, archetype.PersonalityTraits, archetype.Motivations,
		pains, archetype.CreatedAt,
	)
	return err
}

// GetByID returns an archetype by its ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Archetype, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+archetypeColumns+` FROM archetypes WHERE id = $1`, id)
	return scanArchetype(row)
}

// ListByIDs returns archetypes in request order.
func (r *PGRepo) ListByIDs(ctx context.Context, ids []string) ([]Archetype, error) {
	out := make([]Archetype, 0, len(ids))
	for _, id := range ids {
		archetype, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, archetype)
	}
	return out, nil
}

// List returns all archetypes ordered by name.
func (r *PGRepo) List(ctx context.Context) ([]Archetype, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+archetypeColumns+` FROM archetypes ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Archetype
	for rows.Next() {
		archetype, err := scanArchetype(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, archetype)
	}
	return out, rows.Err()
}

// Update replaces an existing archetype.
func (r *PGRepo) Update(ctx context.Context, archetype Archetype) error {
	pains, err := json.Marshal(archetype.PainPoints)
	if err != nil {
		return err
	}
	const query = `
UPDATE archetypes
SET name = $2, description = $3, demographics = $4, reading_preferences = $5,
    personality_traits = $6, motivations = $7, pain_points = $8
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		archetype.ID, archetype.Name, archetype.Description, archetype.Demographics,
		archetype.ReadingPreferences, archetype.PersonalityTraits, archetype.Motivations, pains,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// Delete removes an archetype.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM archetypes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArchetype(row rowScanner) (Archetype, error) {
	var archetype Archetype
	var pains []byte
	err := row.Scan(
		&archetype.ID, &archetype.Name, &archetype.Description, &archetype.Demographics,
		&archetype.ReadingPreferences, &archetype.PersonalityTraits, &archetype.Motivations,
		&pains, &archetype.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Archetype{}, ErrNotFound
	}
	if err != nil {
		return Archetype{}, err
	}
	if len(pains) > 0 {
		if err := json.Unmarshal(pains, &archetype.PainPoints); err != nil {
			return Archetype{}, err
		}
	}
	return archetype, nil
}
