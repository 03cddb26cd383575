package analysis

import (
	"fmt"
	"time"

	"manuscript-backend/internal/archetypes"
	"manuscript-backend/internal/chunker"
	"manuscript-backend/internal/llm"
)

const (
	StatusIdle      = "idle"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusStopped   = "stopped"
)

// Ratings holds the five per-dimension scores from a standard pass.
type Ratings struct {
	Engagement float64 `json:"engagement"`
	Style      float64 `json:"style"`
	Clarity    float64 `json:"clarity"`
	Pacing     float64 `json:"pacing"`
	Relevance  float64 `json:"relevance"`
}

// Result is one simulated reader's verdict on one chunk. Which fields
// are populated depends on the analysis mode.
type Result struct {
	ArchetypeID   string   `json:"archetypeId"`
	ArchetypeName string   `json:"archetypeName"`
	ChunkIndex    int      `json:"chunkIndex"`
	ChunkTitle    string   `json:"chunkTitle,omitempty"`
	Mode          llm.Mode `json:"mode"`

	Ratings              *Ratings `json:"ratings,omitempty"`
	OverallRating        float64  `json:"overallRating,omitempty"`
	Feedback             string   `json:"feedback,omitempty"`
	MarketingInsights    []string `json:"marketingInsights,omitempty"`
	BuyingProbability    float64  `json:"buyingProbability,omitempty"`
	RecommendProbability float64  `json:"recommendProbability,omitempty"`

	Reaction       string `json:"reaction,omitempty"`
	StoppedReading bool   `json:"stoppedReading,omitempty"`
	Sentiment      string `json:"sentiment,omitempty"`
}

// TaskFailure records a task that produced no result.
type TaskFailure struct {
	ArchetypeID   string `json:"archetypeId"`
	ArchetypeName string `json:"archetypeName"`
	ChunkIndex    int    `json:"chunkIndex"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	Attempts      int    `json:"attempts"`
}

// Progress is the externally visible snapshot of a run. Results holds
// successes only; failed tasks appear in Failures.
type Progress struct {
	Status           string        `json:"status"`
	CurrentStep      int           `json:"currentStep"`
	TotalSteps       int           `json:"totalSteps"`
	CurrentArchetype string        `json:"currentArchetype,omitempty"`
	CurrentChunk     int           `json:"currentChunk"`
	TotalChunks      int           `json:"totalChunks"`
	Results          []Result      `json:"results"`
	Failures         []TaskFailure `json:"failures,omitempty"`
	APICalls         int           `json:"apiCalls"`
	TokenUsage       llm.Usage     `json:"tokenUsage"`
	LastError        string        `json:"lastError,omitempty"`
	StartedAt        time.Time     `json:"startedAt,omitempty"`
	FinishedAt       time.Time     `json:"finishedAt,omitempty"`
}

// Percent returns completion as 0-100. A zero-task run is 100% done.
func (p Progress) Percent() float64 {
	if p.TotalSteps == 0 {
		return 100
	}
	return float64(p.CurrentStep) / float64(p.TotalSteps) * 100
}

// Task pairs one archetype with one chunk.
type Task struct {
	Archetype     archetypes.Archetype
	Chunk         chunker.Chunk
	Mode          llm.Mode
	PriorReaction string
}

// Key identifies the task within a run.
func (t Task) Key() string {
	return fmt.Sprintf("%s/%d", t.Archetype.ID, t.Chunk.Index)
}

// BuildTasks produces the archetype-major cross product. For N
// archetypes and M chunks the task list has exactly N*M entries and
// generation order is deterministic.
func BuildTasks(archs []archetypes.Archetype, chunks []chunker.Chunk, mode llm.Mode) []Task {
	tasks := make([]Task, 0, len(archs)*len(chunks))
	for _, archetype := range archs {
		for _, chunk := range chunks {
			tasks = append(tasks, Task{Archetype: archetype, Chunk: chunk, Mode: mode})
		}
	}
	return tasks
}

// Run is the persisted record of one analysis run.
type Run struct {
	ID           string    `json:"id"`
	ManuscriptID string    `json:"manuscriptId"`
	JobID        string    `json:"jobId,omitempty"`
	Mode         llm.Mode  `json:"mode"`
	Status       string    `json:"status"`
	ArchetypeIDs []string  `json:"archetypeIds"`
	ChunkCount   int       `json:"chunkCount"`
	Progress     Progress  `json:"progress"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
