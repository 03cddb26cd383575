// Package llm abstracts completion providers for reader-simulation analysis.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Mode selects which prompt template renders a task.
type Mode string

const (
	// ModeStandard asks for the full rating sheet in a single pass.
	ModeStandard Mode = "standard"
	// ModeReaction asks for an unfiltered stream-of-thought first impression.
	ModeReaction Mode = "reaction"
	// ModeInsight derives business/marketing conclusions from a prior
	// raw reaction.
	ModeInsight Mode = "insight"
)

// Valid reports whether m is a known analysis mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeStandard, ModeReaction, ModeInsight:
		return true
	}
	return false
}

// RatingScale selects the numeric range the model rates on.
type RatingScale string

const (
	ScaleTen  RatingScale = "1-10"
	ScaleFive RatingScale = "1-5"
)

// Max returns the upper bound of the scale.
func (s RatingScale) Max() float64 {
	if s == ScaleFive {
		return 5
	}
	return 10
}

// Persona is the read-only view of a reader archetype the prompt renders.
// The core never mutates it.
type Persona struct {
	ID                 string
	Name               string
	Description        string
	Demographics       string
	ReadingPreferences string
	PersonalityTraits  string
	Motivations        string
	PainPoints         []string
}

// AnalyzeInput carries everything one completion call needs.
type AnalyzeInput struct {
	Persona       Persona
	ChunkText     string
	ChunkIndex    int
	Mode          Mode
	Scale         RatingScale
	PriorReaction string // insight mode only
}

// Usage aggregates token accounting reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt"`
	CompletionTokens int `json:"completion"`
}

// Add accumulates another usage sample.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
}

// Completion is one successfully extracted provider response. Raw holds the
// first balanced JSON payload found in the model output; schema validation is
// the caller's concern.
type Completion struct {
	Raw   json.RawMessage
	Usage Usage
}

// Client performs one request/response cycle against a completion provider.
// Implementations must not retry on HTTP failure; retry policy belongs to the
// scheduler.
type Client interface {
	AnalyzeChunk(ctx context.Context, input AnalyzeInput) (Completion, error)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm client not configured")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// AnalyzeChunk returns ErrNotConfigured.
func (PlaceholderClient) AnalyzeChunk(ctx context.Context, input AnalyzeInput) (Completion, error) {
	_ = ctx
	_ = input
	return Completion{}, ErrNotConfigured
}
