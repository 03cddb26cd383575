package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"manuscript-backend/internal/archetypes"
	"manuscript-backend/internal/chunker"
	"manuscript-backend/internal/jobs"
	"manuscript-backend/internal/llm"
	"manuscript-backend/internal/manuscripts"
	"manuscript-backend/internal/shared/metrics"
	"manuscript-backend/internal/shared/telemetry"
)

// JobType identifies manuscript analysis work in the job manager.
const JobType = "manuscript_analysis"

// Config tunes run execution.
type Config struct {
	BatchSize     int
	BatchInterval time.Duration
	Scale         llm.RatingScale
	ChunkOptions  chunker.Options
}

// Service creates, executes and tracks analysis runs. Execution is
// detached through the job manager so a run survives the request that
// started it.
type Service struct {
	Repo        Repo
	Manuscripts manuscripts.Repo
	Archetypes  archetypes.Repo
	LLM         llm.Client
	Jobs        *jobs.Manager
	Cfg         Config

	mu      sync.Mutex
	runners map[string]*Runner // run ID -> live runner
	active  map[string]string  // manuscript ID -> active run ID
}

// NewService constructs a Service and registers its job handler.
func NewService(repo Repo, msRepo manuscripts.Repo, archRepo archetypes.Repo, client llm.Client, manager *jobs.Manager, cfg Config) *Service {
	s := &Service{
		Repo:        repo,
		Manuscripts: msRepo,
		Archetypes:  archRepo,
		LLM:         client,
		Jobs:        manager,
		Cfg:         cfg,
		runners:     make(map[string]*Runner),
		active:      make(map[string]string),
	}
	if manager != nil {
		manager.Register(JobType, s.runJob)
	}
	return s
}

type jobPayload struct {
	RunID string `json:"runId"`
}

// StartOptions selects what a run analyzes. Empty ArchetypeIDs means
// every archetype in the library.
type StartOptions struct {
	ArchetypeIDs []string
	Mode         llm.Mode
}

// Start creates a run for the manuscript and dispatches it as a
// background job. A manuscript can have one active run at a time.
func (s *Service) Start(ctx context.Context, manuscriptID string, opts StartOptions) (Run, error) {
	if opts.Mode == "" {
		opts.Mode = llm.ModeStandard
	}
	if !opts.Mode.Valid() {
		return Run{}, fmt.Errorf("unknown analysis mode %q", opts.Mode)
	}

	manuscript, err := s.Manuscripts.GetByID(ctx, manuscriptID)
	if err != nil {
		return Run{}, err
	}

	runID := uuid.NewString()
	if !s.claim(manuscriptID, runID) {
		return Run{}, ErrAlreadyRunning
	}
	ok := false
	defer func() {
		if !ok {
			s.release(manuscriptID, runID)
		}
	}()

	if len(opts.ArchetypeIDs) == 0 {
		all, err := s.Archetypes.List(ctx)
		if err != nil {
			return Run{}, err
		}
		for _, archetype := range all {
			opts.ArchetypeIDs = append(opts.ArchetypeIDs, archetype.ID)
		}
	}
	if len(opts.ArchetypeIDs) == 0 {
		return Run{}, ErrNoArchetypes
	}
	// Validate selection up front so the job cannot fail on a typo.
	if _, err := s.Archetypes.ListByIDs(ctx, opts.ArchetypeIDs); err != nil {
		return Run{}, err
	}

	chunks := chunker.CreateChunks(manuscript.Text, s.Cfg.ChunkOptions)
	now := time.Now().UTC()
	run := Run{
		ID:           runID,
		ManuscriptID: manuscriptID,
		Mode:         opts.Mode,
		Status:       StatusIdle,
		ArchetypeIDs: opts.ArchetypeIDs,
		ChunkCount:   len(chunks),
		Progress:     Progress{Status: StatusIdle, TotalSteps: len(opts.ArchetypeIDs) * len(chunks), TotalChunks: len(chunks)},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, run); err != nil {
		return Run{}, err
	}

	payload, err := json.Marshal(jobPayload{RunID: run.ID})
	if err != nil {
		return Run{}, err
	}
	job, err := s.Jobs.Create(ctx, JobType, payload)
	if err != nil {
		return Run{}, err
	}
	if err := s.Repo.SetJobID(ctx, run.ID, job.ID); err != nil {
		telemetry.Error("analysis.link_job_failed", map[string]any{"run_id": run.ID, "error": err.Error()})
	}
	run.JobID = job.ID
	ok = true

	metrics.IncAnalysisStarted()
	telemetry.Info("analysis.run_started", map[string]any{
		"run_id":        run.ID,
		"manuscript_id": manuscriptID,
		"mode":          string(opts.Mode),
		"archetypes":    len(opts.ArchetypeIDs),
		"chunks":        len(chunks),
	})
	return run, nil
}

// Get returns one run.
func (s *Service) Get(ctx context.Context, runID string) (Run, error) {
	run, err := s.Repo.GetByID(ctx, runID)
	if err != nil {
		return Run{}, err
	}
	// A live runner has fresher progress than the last persisted write.
	s.mu.Lock()
	runner, ok := s.runners[run.ID]
	s.mu.Unlock()
	if ok {
		run.Progress = runner.Snapshot()
		run.Status = run.Progress.Status
	}
	return run, nil
}

// List returns a manuscript's runs newest first.
func (s *Service) List(ctx context.Context, manuscriptID string) ([]Run, error) {
	return s.Repo.ListByManuscript(ctx, manuscriptID)
}

// Stop requests cooperative cancellation of a run. In-flight requests
// finish; the run settles at the next batch boundary.
func (s *Service) Stop(ctx context.Context, runID string) error {
	run, err := s.Repo.GetByID(ctx, runID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	runner, ok := s.runners[runID]
	s.mu.Unlock()
	if ok {
		runner.Stop()
		return nil
	}
	if run.JobID != "" {
		err := s.Jobs.Stop(ctx, run.JobID)
		if errors.Is(err, jobs.ErrNotStoppable) {
			return ErrNotStoppable
		}
		return err
	}
	return ErrNotStoppable
}

// runJob executes a persisted run. It is invoked by the job manager,
// both for fresh runs and for orphans requeued after a restart.
func (s *Service) runJob(ctx context.Context, job jobs.Job) error {
	var payload jobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode job payload: %w", err)
	}
	run, err := s.Repo.GetByID(ctx, payload.RunID)
	if err != nil {
		return fmt.Errorf("load run %s: %w", payload.RunID, err)
	}
	// Requeued orphans arrive here without going through Start.
	if !s.claim(run.ManuscriptID, run.ID) {
		return ErrAlreadyRunning
	}
	defer s.release(run.ManuscriptID, run.ID)

	manuscript, err := s.Manuscripts.GetByID(ctx, run.ManuscriptID)
	if err != nil {
		return fmt.Errorf("load manuscript %s: %w", run.ManuscriptID, err)
	}
	archs, err := s.Archetypes.ListByIDs(ctx, run.ArchetypeIDs)
	if err != nil {
		return fmt.Errorf("load archetypes: %w", err)
	}
	chunks := chunker.CreateChunks(manuscript.Text, s.Cfg.ChunkOptions)
	tasks := BuildTasks(archs, chunks, run.Mode)
	if run.Mode == llm.ModeInsight {
		s.attachPriorReactions(ctx, run.ManuscriptID, tasks)
	}

	var limiter *rate.Limiter
	if s.Cfg.BatchInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(s.Cfg.BatchInterval), 1)
	}
	runner := NewRunner(RunnerConfig{
		Client:    s.LLM,
		BatchSize: s.Cfg.BatchSize,
		Limiter:   limiter,
		Scale:     s.Cfg.Scale,
		RunID:     run.ID,
		OnProgress: func(snapshot Progress) {
			s.persistProgress(run.ID, job.ID, snapshot)
		},
	})

	s.mu.Lock()
	s.runners[run.ID] = runner
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.runners, run.ID)
		s.mu.Unlock()
	}()

	if err := s.Repo.UpdateProgress(context.WithoutCancel(ctx), run.ID, StatusRunning, Progress{
		Status:      StatusRunning,
		TotalSteps:  len(tasks),
		TotalChunks: len(chunks),
		Results:     []Result{},
		StartedAt:   time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}

	started := time.Now()
	final, err := runner.Run(ctx, tasks)
	if err != nil {
		return err
	}
	metrics.ObserveAnalysisDurationMs(float64(time.Since(started).Milliseconds()))
	metrics.AddLLMCalls(final.APICalls)
	metrics.AddTokens(final.TokenUsage.PromptTokens, final.TokenUsage.CompletionTokens)
	for range final.Failures {
		metrics.IncTaskFailed()
	}

	switch final.Status {
	case StatusStopped:
		return context.Canceled
	case StatusFailed:
		metrics.IncAnalysisFailed()
		return fmt.Errorf("analysis run failed: %s", final.LastError)
	default:
		metrics.IncAnalysisCompleted()
		return nil
	}
}

// persistProgress writes each snapshot through to the run record and
// the job row so reloads always see the latest state.
func (s *Service) persistProgress(runID, jobID string, snapshot Progress) {
	ctx := context.Background()
	if err := s.Repo.UpdateProgress(ctx, runID, snapshot.Status, snapshot); err != nil {
		telemetry.Error("analysis.persist_progress_failed", map[string]any{"run_id": runID, "error": err.Error()})
	}
	if s.Jobs == nil || jobID == "" {
		return
	}
	if _, err := s.Jobs.Update(ctx, jobID, func(j *jobs.Job) {
		j.Progress = snapshot.Percent()
	}); err != nil {
		telemetry.Error("analysis.persist_job_progress_failed", map[string]any{"job_id": jobID, "error": err.Error()})
	}
}

// attachPriorReactions feeds each insight task the archetype's latest
// raw reaction to the same chunk, when one exists.
func (s *Service) attachPriorReactions(ctx context.Context, manuscriptID string, tasks []Task) {
	prior, err := s.Repo.LatestCompleted(ctx, manuscriptID, llm.ModeReaction)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			telemetry.Error("analysis.load_prior_reactions_failed", map[string]any{"manuscript_id": manuscriptID, "error": err.Error()})
		}
		return
	}
	reactions := make(map[string]string, len(prior.Progress.Results))
	for _, result := range prior.Progress.Results {
		reactions[fmt.Sprintf("%s/%d", result.ArchetypeID, result.ChunkIndex)] = result.Reaction
	}
	for i := range tasks {
		tasks[i].PriorReaction = reactions[tasks[i].Key()]
	}
}

// claim reserves the manuscript for runID. Claiming again with the
// same runID is a no-op so Start and the job handler can share one
// reservation.
func (s *Service) claim(manuscriptID, runID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.active[manuscriptID]; ok && existing != runID {
		return false
	}
	s.active[manuscriptID] = runID
	return true
}

func (s *Service) release(manuscriptID, runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[manuscriptID] == runID {
		delete(s.active, manuscriptID)
	}
}
