package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"manuscript-backend/internal/shared/telemetry"
)

// HandlerFunc executes a job. The context is cancelled when the job is
// stopped; returning context.Canceled marks the job stopped rather
// than failed.
type HandlerFunc func(ctx context.Context, job Job) error

var (
	ErrUnknownType  = errors.New("no handler registered for job type")
	ErrNotStoppable = errors.New("job is not running")
)

// Manager runs registered handlers for persisted jobs. Job execution
// is detached from the request that created the job.
type Manager struct {
	store Store

	mu       sync.Mutex
	handlers map[string]HandlerFunc
	cancels  map[string]context.CancelFunc
	wg       sync.WaitGroup
}

// NewManager constructs a Manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		handlers: make(map[string]HandlerFunc),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Register installs the handler for a job type. Must be called before
// any job of that type is created or requeued.
func (m *Manager) Register(jobType string, fn HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[jobType] = fn
}

// Create persists a new job and starts it in the background.
func (m *Manager) Create(ctx context.Context, jobType string, payload json.RawMessage) (Job, error) {
	m.mu.Lock()
	handler, ok := m.handlers[jobType]
	m.mu.Unlock()
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrUnknownType, jobType)
	}

	now := time.Now().UTC()
	job := Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    StatusPending,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Save(ctx, job); err != nil {
		return Job{}, err
	}
	m.dispatch(job, handler)
	return job, nil
}

// Get returns a job by ID.
func (m *Manager) Get(ctx context.Context, id string) (Job, error) {
	return m.store.Get(ctx, id)
}

// List returns all jobs newest first.
func (m *Manager) List(ctx context.Context) ([]Job, error) {
	return m.store.List(ctx)
}

// Update applies mutate to the stored job and persists the result.
// Calls are serialized so concurrent progress updates are not lost.
func (m *Manager) Update(ctx context.Context, id string, mutate func(*Job)) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, err := m.store.Get(ctx, id)
	if err != nil {
		return Job{}, err
	}
	mutate(&job)
	job.UpdatedAt = time.Now().UTC()
	if err := m.store.Save(ctx, job); err != nil {
		return Job{}, err
	}
	return job, nil
}

// Stop cancels a running job. The handler observes the cancellation
// through its context; the final status is recorded when it returns.
func (m *Manager) Stop(ctx context.Context, id string) error {
	m.mu.Lock()
	cancel, running := m.cancels[id]
	m.mu.Unlock()
	if running {
		cancel()
		return nil
	}

	job, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status == StatusPending {
		_, err := m.Update(ctx, id, func(j *Job) { j.Status = StatusStopped })
		return err
	}
	return ErrNotStoppable
}

// RequeueOrphans recovers jobs left in the running state by a previous
// process. Each is reset to pending and, together with any other
// pending jobs, restarted if a handler for its type is registered.
// Returns the number of jobs restarted.
func (m *Manager) RequeueOrphans(ctx context.Context) (int, error) {
	orphans, err := m.store.ListByStatus(ctx, StatusRunning)
	if err != nil {
		return 0, err
	}
	for _, job := range orphans {
		if _, err := m.Update(ctx, job.ID, func(j *Job) {
			j.Status = StatusPending
			j.Progress = 0
		}); err != nil {
			return 0, err
		}
		telemetry.Info("jobs.orphan_requeued", map[string]any{"job_id": job.ID, "type": job.Type})
	}

	pending, err := m.store.ListByStatus(ctx, StatusPending)
	if err != nil {
		return 0, err
	}
	restarted := 0
	for _, job := range pending {
		m.mu.Lock()
		handler, ok := m.handlers[job.Type]
		m.mu.Unlock()
		if !ok {
			telemetry.Error("jobs.no_handler", map[string]any{"job_id": job.ID, "type": job.Type})
			continue
		}
		m.dispatch(job, handler)
		restarted++
	}
	return restarted, nil
}

// Wait blocks until all in-flight jobs have finished. Used during
// shutdown after Stop has been issued.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) dispatch(job Job, handler HandlerFunc) {
	jobCtx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.cancels[job.ID] = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		defer func() {
			m.mu.Lock()
			delete(m.cancels, job.ID)
			m.mu.Unlock()
		}()

		bg := context.Background()
		if _, err := m.Update(bg, job.ID, func(j *Job) { j.Status = StatusRunning }); err != nil {
			telemetry.Error("jobs.start_failed", map[string]any{"job_id": job.ID, "error": err.Error()})
			return
		}
		telemetry.Info("jobs.started", map[string]any{"job_id": job.ID, "type": job.Type})

		err := handler(jobCtx, job)
		final := func(j *Job) {
			switch {
			case err == nil:
				j.Status = StatusCompleted
				j.Progress = 100
				j.Error = ""
			case errors.Is(err, context.Canceled):
				j.Status = StatusStopped
			default:
				j.Status = StatusFailed
				j.Error = err.Error()
			}
		}
		if _, saveErr := m.Update(bg, job.ID, final); saveErr != nil {
			telemetry.Error("jobs.finish_failed", map[string]any{"job_id": job.ID, "error": saveErr.Error()})
			return
		}
		fields := map[string]any{"job_id": job.ID, "type": job.Type}
		if err != nil {
			fields["error"] = err.Error()
			telemetry.Error("jobs.finished_with_error", fields)
			return
		}
		telemetry.Info("jobs.completed", fields)
	}()
}
