package manuscripts

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCreateRejectsShortText(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	_, err := svc.Create(context.Background(), "My Novel", "too short")
	if !errors.Is(err, ErrTextTooShort) {
		t.Fatalf("expected ErrTextTooShort, got %v", err)
	}
}

func TestCreateRejectsMissingTitle(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	_, err := svc.Create(context.Background(), "   ", strings.Repeat("word ", 100))
	if !errors.Is(err, ErrTitleMissing) {
		t.Fatalf("expected ErrTitleMissing, got %v", err)
	}
}

func TestCreateCountsWordsAndRoundTrips(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	text := strings.Repeat("alpha beta ", 60)
	created, err := svc.Create(context.Background(), "My Novel", text)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.WordCount != 120 {
		t.Fatalf("word count = %d, want 120", created.WordCount)
	}

	got, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Text != text {
		t.Fatal("text not preserved")
	}

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Title != "My Novel" {
		t.Fatalf("unexpected listing: %+v", list)
	}
}

func TestDeleteMissingManuscript(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if err := svc.Delete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
