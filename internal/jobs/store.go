package jobs

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("job not found")

// Store persists jobs across process restarts.
type Store interface {
	Save(ctx context.Context, job Job) error
	Get(ctx context.Context, id string) (Job, error)
	List(ctx context.Context) ([]Job, error)
	ListByStatus(ctx context.Context, status string) ([]Job, error)
}

// MemoryStore keeps jobs in memory. Used in tests and when no durable
// path is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]Job
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Job)}
}

// Save inserts or replaces a job.
func (s *MemoryStore) Save(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[job.ID] = job
	return nil
}

// Get returns a job by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.byID[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

// List returns all jobs newest first.
func (s *MemoryStore) List(ctx context.Context) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Job, 0, len(s.byID))
	for _, job := range s.byID {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListByStatus returns jobs in the given status.
func (s *MemoryStore) ListByStatus(ctx context.Context, status string) ([]Job, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []Job
	for _, job := range all {
		if job.Status == status {
			out = append(out, job)
		}
	}
	return out, nil
}
