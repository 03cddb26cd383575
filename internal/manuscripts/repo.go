package manuscripts

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("manuscript not found")

// Repo defines persistence operations for manuscripts.
type Repo interface {
	Create(ctx context.Context, manuscript Manuscript) error
	GetByID(ctx context.Context, id string) (Manuscript, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
}
