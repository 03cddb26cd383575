package archetypes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"manuscript-backend/internal/shared/telemetry"
)

// Service contains business logic for archetypes.
type Service struct {
	Repo     Repo
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo, validate: validator.New()}
}

// ErrInvalid wraps a validation failure so handlers can map it to 400.
var ErrInvalid = errors.New("invalid archetype")

// Create validates and stores a new archetype.
func (s *Service) Create(ctx context.Context, archetype Archetype) (Archetype, error) {
	if archetype.ID == "" {
		archetype.ID = uuid.NewString()
	}
	archetype.CreatedAt = time.Now().UTC()
	if err := s.validate.Struct(archetype); err != nil {
		return Archetype{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := s.Repo.Create(ctx, archetype); err != nil {
		return Archetype{}, err
	}
	return archetype, nil
}

// Get returns a single archetype.
func (s *Service) Get(ctx context.Context, id string) (Archetype, error) {
	return s.Repo.GetByID(ctx, id)
}

// List returns all archetypes.
func (s *Service) List(ctx context.Context) ([]Archetype, error) {
	return s.Repo.List(ctx)
}

// Update validates and replaces an existing archetype.
func (s *Service) Update(ctx context.Context, archetype Archetype) (Archetype, error) {
	existing, err := s.Repo.GetByID(ctx, archetype.ID)
	if err != nil {
		return Archetype{}, err
	}
	archetype.CreatedAt = existing.CreatedAt
	if err := s.validate.Struct(archetype); err != nil {
		return Archetype{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := s.Repo.Update(ctx, archetype); err != nil {
		return Archetype{}, err
	}
	return archetype, nil
}

// Delete removes an archetype.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}

// Seed inserts the default library for any archetype not already present.
// Existing rows are left untouched so user edits survive restarts.
func (s *Service) Seed(ctx context.Context, library []Archetype) error {
	seeded := 0
	for _, archetype := range library {
		if _, err := s.Repo.GetByID(ctx, archetype.ID); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if archetype.CreatedAt.IsZero() {
			archetype.CreatedAt = time.Now().UTC()
		}
		if err := s.Repo.Create(ctx, archetype); err != nil {
			return err
		}
		seeded++
	}
	if seeded > 0 {
		telemetry.Info("archetypes.seeded", map[string]any{"count": seeded})
	}
	return nil
}
