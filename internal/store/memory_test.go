package store

import (
	"context"
	"errors"
	"testing"

	"github.com/amishk599/jobrake/internal/model"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	stored, err := s.Append(ctx, []model.Posting{posting("old", "2026-01-01"), posting("new", "2026-03-01")})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if stored[0].ID != 1 || stored[1].ID != 2 {
		t.Errorf("expected ids 1 and 2, got %d and %d", stored[0].ID, stored[1].ID)
	}

	all, _ := s.ListAll(ctx)
	if len(all) != 2 || all[0].Title != "new" {
		t.Errorf("expected newest first, got %+v", all)
	}

	got, err := s.Get(ctx, 1)
	if err != nil || got.Title != "old" {
		t.Errorf("Get(1) = %+v, %v", got, err)
	}
	if _, err := s.Get(ctx, 42); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), DriverMemory, "", "")
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("expected *MemoryStore, got %T", s)
	}

	if _, err := Open(context.Background(), "mysql", "", ""); err == nil {
		t.Error("expected error for unknown driver")
	}
}
