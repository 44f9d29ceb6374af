package business

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Business
}

// NewMemoryRepository constructs an in-memory repository for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Business)}
}

func (r *memoryRepository) Create(_ context.Context, b Business) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.storage {
		if existing.OwnerID == b.OwnerID {
			return ErrBusinessExists
		}
	}
	r.storage[b.ID] = b
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Business, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.storage[id]
	if !ok {
		return Business{}, ErrNotFound
	}
	return b, nil
}

func (r *memoryRepository) FindByOwner(_ context.Context, ownerID string) (Business, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.storage {
		if b.OwnerID == ownerID {
			return b, nil
		}
	}
	return Business{}, ErrNotFound
}

func (r *memoryRepository) List(_ context.Context) ([]Business, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Business, 0, len(r.storage))
	for _, b := range r.storage {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	b.IsActive = active
	r.storage[id] = b
	return nil
}
