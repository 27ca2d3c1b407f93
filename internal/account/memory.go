package account

import (
	"context"
	"sync"
	"time"

	storeerrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/google/uuid"
)

// MemoryStore implements Store using an in-memory map. Used in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]User
}

// NewMemoryStore creates a new in-memory account store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[uuid.UUID]User)}
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storeerrors.ErrUserNotFound
	}
	return &u, nil
}

func (s *MemoryStore) FindByRole(_ context.Context, role Role) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]User, 0)
	for _, u := range s.users {
		if u.Role == role {
			list = append(list, u)
		}
	}
	return list, nil
}

func (s *MemoryStore) Create(_ context.Context, name, email string, role Role) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now(),
	}
	s.users[u.ID] = u
	return &u, nil
}
