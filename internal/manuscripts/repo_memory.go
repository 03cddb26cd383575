package manuscripts

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores manuscripts in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Manuscript
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Manuscript)}
}

// Create stores the manuscript.
func (r *MemoryRepo) Create(ctx context.Context, manuscript Manuscript) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[manuscript.ID] = manuscript
	return nil
}

// GetByID returns a manuscript by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Manuscript, error) {
	if err := ctx.Err(); err != nil {
		return Manuscript{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	manuscript, ok := r.byID[id]
	if !ok {
		return Manuscript{}, ErrNotFound
	}
	return manuscript, nil
}

// List returns summaries newest first.
func (r *MemoryRepo) List(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Summary, 0, len(r.byID))
	for _, manuscript := range r.byID {
		out = append(out, manuscript.Summarize())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Delete removes a manuscript.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
