package order

import (
	"context"
	"sort"
	"sync"
	"time"

	storeerrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/google/uuid"
)

// MemoryStore implements Store using in-memory maps. Used in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]Order
	items  map[uuid.UUID][]Item
}

// NewMemoryStore creates a new in-memory order store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[uuid.UUID]Order),
		items:  make(map[uuid.UUID][]Item),
	}
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Order, []Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, nil, storeerrors.ErrOrderNotFound
	}
	items := make([]Item, len(s.items[id]))
	copy(items, s.items[id])
	return &o, items, nil
}

func (s *MemoryStore) FindByUserID(_ context.Context, userID uuid.UUID, offset, limit int32) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Order, 0)
	for _, o := range s.orders {
		if o.UserID == userID {
			list = append(list, o)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if int(offset) >= len(list) {
		return []Order{}, nil
	}
	end := min(int(offset)+int(limit), len(list))
	return list[offset:end], nil
}

func (s *MemoryStore) Create(_ context.Context, order *Order, items []Item) (*Order, []Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	o := *order
	o.ID = uuid.New()
	o.Version = 1
	o.CreatedAt = now
	o.UpdatedAt = now

	created := make([]Item, len(items))
	for i, item := range items {
		item.ID = uuid.New()
		item.OrderID = o.ID
		created[i] = item
	}
	s.orders[o.ID] = o
	s.items[o.ID] = created
	return &o, created, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, status Status, version int32) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, storeerrors.ErrOrderNotFound
	}
	if o.Version != version {
		return nil, storeerrors.ErrOptimisticLock
	}
	o.Status = status
	o.Version++
	o.UpdatedAt = time.Now()
	s.orders[id] = o
	return &o, nil
}

func (s *MemoryStore) UpdatePayment(_ context.Context, id uuid.UUID, payment PaymentStatus, method PaymentMethod, version int32) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, storeerrors.ErrOrderNotFound
	}
	if o.Version != version {
		return nil, storeerrors.ErrOptimisticLock
	}
	o.PaymentStatus = payment
	if method != "" {
		o.PaymentMethod = method
	}
	o.Version++
	o.UpdatedAt = time.Now()
	s.orders[id] = o
	return &o, nil
}
