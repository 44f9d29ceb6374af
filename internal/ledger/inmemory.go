package ledger

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/digishe/digishe/internal/business"
)

type inMemoryStore struct {
	mu         sync.RWMutex
	entries    map[string][]Entry
	savings    map[string][]Saving
	businesses business.Repository
}

// NewInMemory creates a concurrency-safe in-memory store. When businesses is
// non-nil, writes are refused for businesses that are not active.
func NewInMemory(businesses business.Repository) Store {
	return &inMemoryStore{
		entries:    make(map[string][]Entry),
		savings:    make(map[string][]Saving),
		businesses: businesses,
	}
}

func (s *inMemoryStore) checkActive(ctx context.Context, businessID string) error {
	if s.businesses == nil {
		return nil
	}
	b, err := s.businesses.FindByID(ctx, businessID)
	if errors.Is(err, business.ErrNotFound) {
		return ErrBusinessInactive
	}
	if err != nil {
		return err
	}
	if !b.IsActive {
		return ErrBusinessInactive
	}
	return nil
}

func (s *inMemoryStore) InsertEntry(ctx context.Context, e Entry) (Entry, error) {
	if err := s.checkActive(ctx, e.BusinessID); err != nil {
		return Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.NewString()
	e.OccurredOn = Day(e.OccurredOn)
	s.entries[e.BusinessID] = append(s.entries[e.BusinessID], e)
	return e, nil
}

func (s *inMemoryStore) InsertSaving(ctx context.Context, sv Saving) (Saving, error) {
	if err := s.checkActive(ctx, sv.BusinessID); err != nil {
		return Saving{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sv.ID = uuid.NewString()
	sv.OccurredOn = Day(sv.OccurredOn)
	s.savings[sv.BusinessID] = append(s.savings[sv.BusinessID], sv)
	return sv, nil
}

func (s *inMemoryStore) Entries(_ context.Context, businessID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries[businessID]...), nil
}

func (s *inMemoryStore) Savings(_ context.Context, businessID string) ([]Saving, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Saving(nil), s.savings[businessID]...), nil
}
