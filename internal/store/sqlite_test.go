package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/amishk599/jobrake/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func posting(title, date string) model.Posting {
	return model.Posting{
		Title:       title,
		Company:     "Acme",
		Location:    "Remote",
		Description: model.Sentinel,
		URL:         "https://example.com/" + title,
		Source:      model.SourceIndeed,
		DatePosted:  date,
	}
}

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Append(ctx, []model.Posting{posting("a", "2026-01-01"), posting("b", "2026-01-01")})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	second, err := s.Append(ctx, []model.Posting{posting("c", "2026-01-01")})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if first[0].ID == 0 || first[1].ID <= first[0].ID || second[0].ID <= first[1].ID {
		t.Errorf("expected strictly increasing ids, got %d, %d, %d", first[0].ID, first[1].ID, second[0].ID)
	}
}

func TestAppendEmptyBatchIsNoop(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Append(context.Background(), nil)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected nothing stored, got %d", len(got))
	}
}

func TestListAllOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Append(ctx, []model.Posting{posting("old", "2026-01-01")}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := s.Append(ctx, []model.Posting{posting("new-1", "2026-02-01"), posting("new-2", "2026-02-01")}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	want := []string{"new-2", "new-1", "old"}
	if len(all) != len(want) {
		t.Fatalf("expected %d postings, got %d", len(want), len(all))
	}
	for i, title := range want {
		if all[i].Title != title {
			t.Errorf("position %d: expected %s, got %s", i, title, all[i].Title)
		}
	}
}

func TestListAllEmpty(t *testing.T) {
	s := newTestStore(t)
	all, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", all)
	}
}

func TestListAllIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Append(ctx, []model.Posting{posting("a", "2026-01-01")}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	first, _ := s.ListAll(ctx)
	second, _ := s.ListAll(ctx)
	if len(first) != len(second) || first[0] != second[0] {
		t.Errorf("expected identical listings, got %v and %v", first, second)
	}
}

func TestGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stored, err := s.Append(ctx, []model.Posting{posting("a", "2026-01-01")})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, err := s.Get(ctx, stored[0].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != stored[0] {
		t.Errorf("expected %+v, got %+v", stored[0], got)
	}
}

func TestGetUnknownReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), 999)
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendCanceledContextRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Append(ctx, []model.Posting{posting("a", "2026-01-01")})
	if !errors.Is(err, model.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}

	all, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected no partial batch, got %d rows", len(all))
	}
}

func TestReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if _, err := s.Append(context.Background(), []model.Posting{posting("a", "2026-01-01")}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	s.Close()

	s2, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	all, err := s2.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 posting after reopen, got %d", len(all))
	}
}
