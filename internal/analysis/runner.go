package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"manuscript-backend/internal/llm"
	"manuscript-backend/internal/shared/telemetry"
)

const defaultBatchSize = 3

// RunnerConfig tunes one analysis run.
type RunnerConfig struct {
	Client    llm.Client
	BatchSize int
	// Limiter paces batch starts against upstream rate limits. Nil
	// disables pacing.
	Limiter *rate.Limiter
	Scale   llm.RatingScale
	RunID   string
	// OnProgress receives one snapshot per settled task plus a final
	// one when the run reaches a terminal status. Optional.
	OnProgress func(Progress)
}

// Runner drives one run through Idle -> Running -> {Completed, Failed,
// Stopped}. Tasks execute in fixed-size batches; within a batch calls
// are concurrent, batch boundaries are strict synchronization points,
// and outcomes are folded into the shared snapshot in task-slot order
// so progress is deterministic regardless of network timing.
type Runner struct {
	cfg RunnerConfig

	mu       sync.Mutex
	progress Progress
	running  bool
	stop     context.CancelFunc
}

// NewRunner constructs a Runner in the Idle state.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Scale == "" {
		cfg.Scale = llm.ScaleTen
	}
	return &Runner{cfg: cfg, progress: Progress{Status: StatusIdle}}
}

// Snapshot returns a copy of the current progress.
func (r *Runner) Snapshot() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress.clone()
}

// Stop requests cooperative cancellation. It takes effect at the next
// batch boundary; in-flight requests are allowed to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running && r.stop != nil {
		r.stop()
	}
}

// Run executes the task list and blocks until the run reaches a
// terminal status. A second concurrent Run is rejected with
// ErrAlreadyRunning. Failed tasks never abort the run; an interrupted
// or internally failing run still returns the results gathered so
// far, with the condition reported through the Status field.
func (r *Runner) Run(ctx context.Context, tasks []Task) (final Progress, err error) {
	r.mu.Lock()
	if r.running {
		snapshot := r.progress.clone()
		r.mu.Unlock()
		return snapshot, ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.running = true
	r.stop = cancel
	r.progress = Progress{
		Status:      StatusRunning,
		TotalSteps:  len(tasks),
		TotalChunks: countChunks(tasks),
		Results:     []Result{},
		StartedAt:   time.Now().UTC(),
	}
	r.mu.Unlock()
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("analysis.runner_panic", map[string]any{
				"run_id": r.cfg.RunID,
				"panic":  fmt.Sprint(rec),
			})
			final = r.finish(StatusFailed, fmt.Sprintf("internal: %v", rec))
			err = nil
		}
	}()

	client := newRetryingClient(r.cfg.Client, r.cfg.RunID)
	stopped := false
	for start := 0; start < len(tasks); start += r.cfg.BatchSize {
		if runCtx.Err() != nil {
			stopped = true
			break
		}
		if r.cfg.Limiter != nil && start > 0 {
			if err := r.cfg.Limiter.Wait(runCtx); err != nil {
				stopped = true
				break
			}
		}

		batch := tasks[start:min(start+r.cfg.BatchSize, len(tasks))]
		outcomes := make([]taskOutcome, len(batch))
		// Stop never aborts a request already on the wire.
		taskCtx := context.WithoutCancel(runCtx)
		g := new(errgroup.Group)
		for i := range batch {
			i := i
			g.Go(func() error {
				outcomes[i] = r.executeTask(taskCtx, client, batch[i])
				return nil
			})
		}
		_ = g.Wait()

		for i := range batch {
			r.fold(batch[i], outcomes[i])
		}
	}

	status := StatusCompleted
	switch {
	case stopped:
		status = StatusStopped
	case len(tasks) > 0 && len(r.Snapshot().Results) == 0:
		status = StatusFailed
	}
	return r.finish(status, ""), nil
}

type taskOutcome struct {
	result   Result
	ok       bool
	err      error
	attempts int
	usage    llm.Usage
}

func (r *Runner) executeTask(ctx context.Context, client retryingClient, task Task) taskOutcome {
	input := llm.AnalyzeInput{
		Persona:       task.Archetype.Persona(),
		ChunkText:     task.Chunk.Content,
		ChunkIndex:    task.Chunk.Index,
		Mode:          task.Mode,
		Scale:         r.cfg.Scale,
		PriorReaction: task.PriorReaction,
	}
	completion, attempts, err := client.analyze(ctx, input)
	if err != nil {
		return taskOutcome{err: err, attempts: attempts}
	}
	result, err := decodeResult(task, r.cfg.Scale, completion.Raw)
	if err != nil {
		return taskOutcome{err: err, attempts: attempts, usage: completion.Usage}
	}
	return taskOutcome{result: result, ok: true, attempts: attempts, usage: completion.Usage}
}

// fold merges one settled task into the snapshot and emits it.
func (r *Runner) fold(task Task, outcome taskOutcome) {
	r.mu.Lock()
	r.progress.CurrentStep++
	r.progress.CurrentArchetype = task.Archetype.Name
	r.progress.CurrentChunk = task.Chunk.Index
	r.progress.APICalls += outcome.attempts
	r.progress.TokenUsage.Add(outcome.usage)
	if outcome.ok {
		r.progress.Results = append(r.progress.Results, outcome.result)
	} else {
		code, _ := classifyTaskFailure(outcome.err)
		failure := TaskFailure{
			ArchetypeID:   task.Archetype.ID,
			ArchetypeName: task.Archetype.Name,
			ChunkIndex:    task.Chunk.Index,
			Code:          code,
			Message:       sanitizeError(outcome.err),
			Attempts:      outcome.attempts,
		}
		r.progress.Failures = append(r.progress.Failures, failure)
		r.progress.LastError = failure.Message
	}
	snapshot := r.progress.clone()
	r.mu.Unlock()

	if !outcome.ok {
		telemetry.Error("analysis.task_failed", map[string]any{
			"run_id":       r.cfg.RunID,
			"archetype_id": task.Archetype.ID,
			"chunk_index":  task.Chunk.Index,
			"error":        sanitizeError(outcome.err),
		})
	}
	if r.cfg.OnProgress != nil {
		r.cfg.OnProgress(snapshot)
	}
}

func (r *Runner) finish(status, lastError string) Progress {
	r.mu.Lock()
	r.progress.Status = status
	r.progress.FinishedAt = time.Now().UTC()
	if lastError != "" {
		r.progress.LastError = lastError
	}
	r.running = false
	r.stop = nil
	snapshot := r.progress.clone()
	r.mu.Unlock()

	if r.cfg.OnProgress != nil {
		r.cfg.OnProgress(snapshot)
	}
	return snapshot
}

func (p Progress) clone() Progress {
	out := p
	out.Results = append([]Result(nil), p.Results...)
	out.Failures = append([]TaskFailure(nil), p.Failures...)
	return out
}

func countChunks(tasks []Task) int {
	maxIndex := -1
	for _, task := range tasks {
		if task.Chunk.Index > maxIndex {
			maxIndex = task.Chunk.Index
		}
	}
	return maxIndex + 1
}
