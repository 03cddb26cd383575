package archetypes

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("archetype not found")

// Repo defines persistence operations for archetypes.
type Repo interface {
	Create(ctx context.Context, archetype Archetype) error
	GetByID(ctx context.Context, id string) (Archetype, error)
	// ListByIDs returns archetypes in the order requested; a missing id
	// yields ErrNotFound.
	ListByIDs(ctx context.Context, ids []string) ([]Archetype, error)
	List(ctx context.Context) ([]Archetype, error)
	Update(ctx context.Context, archetype Archetype) error
	Delete(ctx context.Context, id string) error
}
