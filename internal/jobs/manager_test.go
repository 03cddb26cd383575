package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func waitForStatus(t *testing.T, m *Manager, id, want string) Job {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		job, err := m.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := m.Get(context.Background(), id)
	t.Fatalf("job never reached %q, last seen %q", want, job.Status)
	return Job{}
}

func TestCreateRunsHandlerToCompletion(t *testing.T) {
	m := NewManager(NewMemoryStore())
	done := make(chan json.RawMessage, 1)
	m.Register("echo", func(ctx context.Context, job Job) error {
		done <- job.Payload
		return nil
	})

	created, err := m.Create(context.Background(), "echo", json.RawMessage(`{"k":"v"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != StatusPending {
		t.Fatalf("new job status = %q, want pending", created.Status)
	}

	select {
	case payload := <-done:
		if string(payload) != `{"k":"v"}` {
			t.Fatalf("handler payload = %s", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}

	final := waitForStatus(t, m, created.ID, StatusCompleted)
	if final.Progress != 100 {
		t.Fatalf("completed progress = %v, want 100", final.Progress)
	}
}

func TestCreateUnknownTypeFails(t *testing.T) {
	m := NewManager(NewMemoryStore())
	if _, err := m.Create(context.Background(), "mystery", nil); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestHandlerErrorMarksJobFailed(t *testing.T) {
	m := NewManager(NewMemoryStore())
	m.Register("boom", func(ctx context.Context, job Job) error {
		return errors.New("llm exploded")
	})
	created, err := m.Create(context.Background(), "boom", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	final := waitForStatus(t, m, created.ID, StatusFailed)
	if final.Error != "llm exploded" {
		t.Fatalf("error = %q", final.Error)
	}
}

func TestStopCancelsRunningJob(t *testing.T) {
	m := NewManager(NewMemoryStore())
	started := make(chan struct{})
	m.Register("long", func(ctx context.Context, job Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	created, err := m.Create(context.Background(), "long", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	<-started
	if err := m.Stop(context.Background(), created.ID); err != nil {
		t.Fatalf("stop: %v", err)
	}
	waitForStatus(t, m, created.ID, StatusStopped)
}

func TestUpdateMergesProgress(t *testing.T) {
	m := NewManager(NewMemoryStore())
	block := make(chan struct{})
	m.Register("slow", func(ctx context.Context, job Job) error {
		<-block
		return nil
	})
	created, err := m.Create(context.Background(), "slow", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	waitForStatus(t, m, created.ID, StatusRunning)

	updated, err := m.Update(context.Background(), created.ID, func(j *Job) { j.Progress = 42.5 })
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Progress != 42.5 || updated.Status != StatusRunning {
		t.Fatalf("update lost fields: %+v", updated)
	}
	close(block)
	waitForStatus(t, m, created.ID, StatusCompleted)
}

func TestRequeueOrphansRestartsInterruptedWork(t *testing.T) {
	store := NewMemoryStore()
	orphan := Job{
		ID:        "orphan-1",
		Type:      "analysis",
		Status:    StatusRunning,
		Progress:  60,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := store.Save(context.Background(), orphan); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	m := NewManager(store)
	ran := make(chan string, 1)
	m.Register("analysis", func(ctx context.Context, job Job) error {
		ran <- job.ID
		return nil
	})

	n, err := m.RequeueOrphans(context.Background())
	if err != nil {
		t.Fatalf("RequeueOrphans: %v", err)
	}
	if n != 1 {
		t.Fatalf("restarted = %d, want 1", n)
	}
	select {
	case id := <-ran:
		if id != "orphan-1" {
			t.Fatalf("restarted wrong job: %s", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("orphan never restarted")
	}
	waitForStatus(t, m, "orphan-1", StatusCompleted)
}

func TestRequeueOrphansSkipsUnknownTypes(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Save(context.Background(), Job{
		ID: "orphan-2", Type: "forgotten", Status: StatusRunning,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	m := NewManager(store)
	n, err := m.RequeueOrphans(context.Background())
	if err != nil {
		t.Fatalf("RequeueOrphans: %v", err)
	}
	if n != 0 {
		t.Fatalf("restarted = %d, want 0", n)
	}
	job, err := m.Get(context.Background(), "orphan-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Status != StatusPending {
		t.Fatalf("orphan without handler should stay pending, got %q", job.Status)
	}
}
