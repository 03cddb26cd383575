package archetypes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateMarshalsPainPoints(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	archetype := Archetype{
		ID:          "arch-1",
		Name:        "Casual Commuter",
		Description: "short bursts",
		PainPoints:  []string{"slow openings"},
		CreatedAt:   time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO archetypes").
		WithArgs(
			archetype.ID,
			archetype.Name,
			archetype.Description,
			archetype.Demographics,
			archetype.ReadingPreferences,
			archetype.PersonalityTraits,
			archetype.Motivations,
			[]byte(`["slow openings"]`),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), archetype); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDScansPainPoints(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rows := sqlmock.NewRows([]string{
		"id", "name", "description", "demographics", "reading_preferences",
		"personality_traits", "motivations", "pain_points", "created_at",
	}).AddRow("arch-1", "Casual Commuter", "short bursts", "", "", "", "", []byte(`["slow openings","long chapters"]`), time.Now().UTC())
	mock.ExpectQuery("SELECT (.+) FROM archetypes WHERE id").WithArgs("arch-1").WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	got, err := repo.GetByID(context.Background(), "arch-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.PainPoints) != 2 || got.PainPoints[1] != "long chapters" {
		t.Fatalf("pain points not decoded: %+v", got.PainPoints)
	}
}

func TestPGRepoUpdateMissingRowIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("UPDATE archetypes").WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	err = repo.Update(context.Background(), Archetype{ID: "missing", Name: "X", Description: "d"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
