package manuscripts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"manuscript-backend/internal/shared/telemetry"
)

// minTextChars is the shortest manuscript worth analyzing.
const minTextChars = 100

var (
	ErrTextTooShort = errors.New("manuscript text is too short to analyze")
	ErrTitleMissing = errors.New("manuscript title is required")
)

// Service contains business logic for manuscripts.
type Service struct {
	Repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Create validates and stores a new manuscript.
func (s *Service) Create(ctx context.Context, title, text string) (Manuscript, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Manuscript{}, ErrTitleMissing
	}
	if len(strings.TrimSpace(text)) < minTextChars {
		return Manuscript{}, ErrTextTooShort
	}
	manuscript := Manuscript{
		ID:        uuid.NewString(),
		Title:     title,
		Text:      text,
		WordCount: countWords(text),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, manuscript); err != nil {
		return Manuscript{}, err
	}
	telemetry.Info("manuscripts.created", map[string]any{
		"manuscript_id": manuscript.ID,
		"word_count":    manuscript.WordCount,
	})
	return manuscript, nil
}

// Get returns a manuscript with its full text.
func (s *Service) Get(ctx context.Context, id string) (Manuscript, error) {
	return s.Repo.GetByID(ctx, id)
}

// List returns manuscript summaries.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.Repo.List(ctx)
}

// Delete removes a manuscript.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}
