package archetypes

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores archetypes in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Archetype
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Archetype)}
}

// Create stores the archetype.
func (r *MemoryRepo) Create(ctx context.Context, archetype Archetype) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[archetype.ID] = archetype
	return nil
}

// GetByID returns an archetype by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Archetype, error) {
	if err := ctx.Err(); err != nil {
		return Archetype{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	archetype, ok := r.byID[id]
	if !ok {
		return Archetype{}, ErrNotFound
	}
	return archetype, nil
}

// ListByIDs returns archetypes in request order.
func (r *MemoryRepo) ListByIDs(ctx context.Context, ids []string) ([]Archetype, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Archetype, 0, len(ids))
	for _, id := range ids {
		archetype, ok := r.byID[id]
		if !ok {
			return nil, ErrNotFound
		}
		out = append(out, archetype)
	}
	return out, nil
}

// List returns all archetypes ordered by name.
func (r *MemoryRepo) List(ctx context.Context) ([]Archetype, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Archetype, 0, len(r.byID))
	for _, archetype := range r.byID {
		out = append(out, archetype)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Update replaces an existing archetype.
func (r *MemoryRepo) Update(ctx context.Context, archetype Archetype) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[archetype.ID]; !ok {
		return ErrNotFound
	}
	r.byID[archetype.ID] = archetype
	return nil
}

// Delete removes an archetype.
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
