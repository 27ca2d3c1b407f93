package catalog

import (
	"context"
	"sync"
	"time"

	storeerrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/google/uuid"
)

// MemoryStore implements Store using an in-memory map. Used in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[uuid.UUID]Product
}

// NewMemoryStore creates a new in-memory product store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[uuid.UUID]Product),
	}
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, storeerrors.ErrProductNotFound
	}
	return &p, nil
}

func (s *MemoryStore) FindByIDs(_ context.Context, ids []uuid.UUID) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			list = append(list, p)
		}
	}
	return list, nil
}

func (s *MemoryStore) FindAll(_ context.Context, offset, limit int32) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		list = append(list, p)
	}
	if int(offset) >= len(list) {
		return []Product{}, nil
	}
	end := min(int(offset)+int(limit), len(list))
	return list[offset:end], nil
}

func (s *MemoryStore) Create(_ context.Context, name string, price int64, stock int32) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Product{
		ID:            uuid.New(),
		Name:          name,
		Price:         price,
		StockQuantity: stock,
		Version:       1,
		CreatedAt:     time.Now(),
	}
	s.products[p.ID] = p
	return &p, nil
}

func (s *MemoryStore) Update(_ context.Context, id uuid.UUID, name string, price int64, version int32) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok || p.Version != version {
		return nil, storeerrors.ErrProductNotFound
	}
	p.Name = name
	p.Price = price
	p.Version++
	s.products[id] = p
	return &p, nil
}

func (s *MemoryStore) DeleteByID(_ context.Context, id uuid.UUID, version int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok || p.Version != version {
		return storeerrors.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}
