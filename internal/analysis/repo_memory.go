package analysis

import (
	"context"
	"sort"
	"sync"
	"time"

	"manuscript-backend/internal/llm"
)

// MemoryRepo stores runs in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Run
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Run)}
}

// Create stores the run.
func (r *MemoryRepo) Create(ctx context.Context, run Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[run.ID] = run
	return nil
}

// GetByID returns a run by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Run, error) {
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.byID[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	return run, nil
}

// ListByManuscript returns a manuscript's runs newest first.
func (r *MemoryRepo) ListByManuscript(ctx context.Context, manuscriptID string) ([]Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Run
	for _, run := range r.byID {
		if run.ManuscriptID == manuscriptID {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// LatestCompleted returns the newest completed run of the given mode.
func (r *MemoryRepo) LatestCompleted(ctx context.Context, manuscriptID string, mode llm.Mode) (Run, error) {
	runs, err := r.ListByManuscript(ctx, manuscriptID)
	if err != nil {
		return Run{}, err
	}
	for _, run := range runs {
		if run.Mode == mode && run.Status == StatusCompleted {
			return run, nil
		}
	}
	return Run{}, ErrNotFound
}

// UpdateProgress replaces the run's status and progress snapshot.
func (r *MemoryRepo) UpdateProgress(ctx context.Context, id, status string, progress Progress) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	run.Status = status
	run.Progress = progress
	run.UpdatedAt = time.Now().UTC()
	r.byID[id] = run
	return nil
}

// SetJobID links the run to its background job.
func (r *MemoryRepo) SetJobID(ctx context.Context, id, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	run.JobID = jobID
	run.UpdatedAt = time.Now().UTC()
	r.byID[id] = run
	return nil
}
