package archetypes

import (
	"time"

	"manuscript-backend/internal/llm"
)

// Archetype is a named reader profile used to bias simulated feedback.
// The analysis core treats it as an opaque read-only value.
type Archetype struct {
	ID                 string    `json:"id" yaml:"id"`
	Name               string    `json:"name" yaml:"name" validate:"required,min=2,max=120"`
	Description        string    `json:"description" yaml:"description" validate:"required,max=2000"`
	Demographics       string    `json:"demographics" yaml:"demographics" validate:"max=500"`
	ReadingPreferences string    `json:"readingPreferences" yaml:"reading_preferences" validate:"max=1000"`
	PersonalityTraits  string    `json:"personalityTraits" yaml:"personality_traits" validate:"max=1000"`
	Motivations        string    `json:"motivations" yaml:"motivations" validate:"max=1000"`
	PainPoints         []string  `json:"painPoints" yaml:"pain_points" validate:"dive,max=300"`
	CreatedAt          time.Time `json:"createdAt" yaml:"-"`
}

// Persona returns the prompt-facing view of the archetype.
func (a Archetype) Persona() llm.Persona {
	return llm.Persona{
		ID:                 a.ID,
		Name:               a.Name,
		Description:        a.Description,
		Demographics:       a.Demographics,
		ReadingPreferences: a.ReadingPreferences,
		PersonalityTraits:  a.PersonalityTraits,
		Motivations:        a.Motivations,
		PainPoints:         a.PainPoints,
	}
}
