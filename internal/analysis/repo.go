package analysis

import (
	"context"

	"manuscript-backend/internal/llm"
)

// Repo defines persistence operations for analysis runs.
type Repo interface {
	Create(ctx context.Context, run Run) error
	GetByID(ctx context.Context, id string) (Run, error)
	ListByManuscript(ctx context.Context, manuscriptID string) ([]Run, error)
	// LatestCompleted returns the most recent completed run of the
	// given mode for a manuscript, or ErrNotFound.
	LatestCompleted(ctx context.Context, manuscriptID string, mode llm.Mode) (Run, error)
	UpdateProgress(ctx context.Context, id, status string, progress Progress) error
	SetJobID(ctx context.Context, id, jobID string) error
}
