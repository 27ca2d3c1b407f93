package inventory

import (
	"context"
	"sync"

	storeerrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/google/uuid"
)

// MemoryStore implements Store using an in-memory map. Used in tests.
type MemoryStore struct {
	mu    sync.Mutex
	stock map[uuid.UUID]int32
}

// NewMemoryStore creates an in-memory ledger store seeded with the given
// stock levels.
func NewMemoryStore(seed map[uuid.UUID]int32) *MemoryStore {
	stock := make(map[uuid.UUID]int32, len(seed))
	for id, qty := range seed {
		stock[id] = qty
	}
	return &MemoryStore{stock: stock}
}

func (s *MemoryStore) GetStock(_ context.Context, productID uuid.UUID) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	qty, ok := s.stock[productID]
	if !ok {
		return 0, storeerrors.ErrProductNotFound
	}
	return qty, nil
}

func (s *MemoryStore) AdjustStock(_ context.Context, productID uuid.UUID, delta int32) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	qty, ok := s.stock[productID]
	if !ok {
		return 0, storeerrors.ErrProductNotFound
	}
	if qty+delta < 0 {
		return 0, storeerrors.ErrInsufficientStock
	}
	s.stock[productID] = qty + delta
	return qty + delta, nil
}
