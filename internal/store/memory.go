package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/amishk599/jobrake/internal/model"
)

// MemoryStore keeps postings in process memory. It backs dry runs, where a
// scrape should show what it found without touching the database.
type MemoryStore struct {
	mu       sync.RWMutex
	postings []model.Posting
	nextID   int64
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{nextID: 1} }

// Append assigns ids and stores a copy of the batch.
func (s *MemoryStore) Append(_ context.Context, postings []model.Posting) ([]model.Posting, error) {
	if len(postings) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]model.Posting, len(postings))
	for i, p := range postings {
		p.ID = s.nextID
		s.nextID++
		stored[i] = p
	}
	s.postings = append(s.postings, stored...)
	return slices.Clone(stored), nil
}

// ListAll returns postings ordered like the SQL stores.
func (s *MemoryStore) ListAll(_ context.Context) ([]model.Posting, error) {
	s.mu.RLock()
	out := slices.Clone(s.postings)
	s.mu.RUnlock()

	if out == nil {
		out = []model.Posting{}
	}
	slices.SortFunc(out, func(a, b model.Posting) int {
		if c := cmp.Compare(b.DatePosted, a.DatePosted); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (model.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.postings {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Posting{}, fmt.Errorf("posting %d: %w", id, model.ErrNotFound)
}

func (s *MemoryStore) Close() error { return nil }
