package archetypes

import (
	"context"
	"errors"
	"testing"
)

func TestDefaultLibraryParses(t *testing.T) {
	library, err := DefaultLibrary()
	if err != nil {
		t.Fatalf("DefaultLibrary: %v", err)
	}
	if len(library) < 3 {
		t.Fatalf("expected at least 3 built-in archetypes, got %d", len(library))
	}
	for _, archetype := range library {
		if archetype.ID == "" || archetype.Name == "" || archetype.Description == "" {
			t.Errorf("incomplete archetype %+v", archetype)
		}
		if len(archetype.PainPoints) == 0 {
			t.Errorf("archetype %s has no pain points", archetype.Name)
		}
	}
}

func TestSeedIsIdempotentAndPreservesEdits(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	library, err := DefaultLibrary()
	if err != nil {
		t.Fatalf("DefaultLibrary: %v", err)
	}
	if err := svc.Seed(context.Background(), library); err != nil {
		t.Fatalf("first seed: %v", err)
	}

	edited := library[0]
	edited.Description = "edited by a user"
	if _, err := svc.Update(context.Background(), edited); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := svc.Seed(context.Background(), library); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	got, err := svc.Get(context.Background(), edited.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "edited by a user" {
		t.Fatalf("seed overwrote a user edit: %q", got.Description)
	}

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != len(library) {
		t.Fatalf("expected %d archetypes after reseeding, got %d", len(library), len(list))
	}
}

func TestCreateRejectsInvalidArchetype(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	_, err := svc.Create(context.Background(), Archetype{Name: "X"})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestCreateAssignsIDAndRoundTrips(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	created, err := svc.Create(context.Background(), Archetype{
		Name:        "Genre Hopper",
		Description: "Reads across genres, follows recommendations",
		PainPoints:  []string{"predictable twists"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	got, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Genre Hopper" || got.PainPoints[0] != "predictable twists" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestListByIDsPreservesOrder(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	var ids []string
	for _, name := range []string{"Alpha Reader", "Beta Reader", "Gamma Reader"} {
		created, err := svc.Create(context.Background(), Archetype{Name: name, Description: "d"})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		ids = append(ids, created.ID)
	}
	want := []string{ids[2], ids[0]}
	got, err := repo.ListByIDs(context.Background(), want)
	if err != nil {
		t.Fatalf("ListByIDs: %v", err)
	}
	if len(got) != 2 || got[0].ID != want[0] || got[1].ID != want[1] {
		t.Fatalf("order not preserved: %+v", got)
	}

	if _, err := repo.ListByIDs(context.Background(), []string{"missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
}

func TestPersonaCopiesEveryField(t *testing.T) {
	archetype := Archetype{
		ID:                 "id-1",
		Name:               "n",
		Description:        "d",
		Demographics:       "dem",
		ReadingPreferences: "rp",
		PersonalityTraits:  "pt",
		Motivations:        "m",
		PainPoints:         []string{"p1", "p2"},
	}
	persona := archetype.Persona()
	if persona.ID != "id-1" || persona.Demographics != "dem" || persona.ReadingPreferences != "rp" ||
		persona.PersonalityTraits != "pt" || persona.Motivations != "m" || len(persona.PainPoints) != 2 {
		t.Fatalf("persona lost fields: %+v", persona)
	}
}
