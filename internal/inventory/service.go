package inventory

import (
	"context"
	"fmt"

	storeerrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/google/uuid"
)

// Availability is the result of a non-mutating stock check.
type Availability struct {
	Available    bool  `json:"available"`
	CurrentStock int32 `json:"current_stock"`
}

// Ledger exposes the inventory ledger operations to the rest of the core.
type Ledger interface {
	// CheckAvailability reports whether the requested quantity can currently
	// be satisfied. Non-mutating; the answer may be stale by the time the
	// caller acts on it, so consumers must still go through ApplyDelta.
	CheckAvailability(ctx context.Context, productID uuid.UUID, quantity int32) (*Availability, error)

	// ApplyDelta applies a signed stock adjustment (negative for
	// consumption, positive for restock) and returns the new stock value.
	// Returns ErrProductNotFound for unknown products and
	// ErrInsufficientStock when the adjustment would drive stock negative.
	ApplyDelta(ctx context.Context, productID uuid.UUID, delta int32) (int32, error)
}

// Service implements Ledger on top of a Store.
type Service struct {
	store Store
}

// NewService creates a new ledger service with the provided store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) CheckAvailability(ctx context.Context, productID uuid.UUID, quantity int32) (*Availability, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be positive: %w", storeerrors.ErrValidation)
	}
	stock, err := s.store.GetStock(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &Availability{Available: stock >= quantity, CurrentStock: stock}, nil
}

func (s *Service) ApplyDelta(ctx context.Context, productID uuid.UUID, delta int32) (int32, error) {
	if delta == 0 {
		return s.store.GetStock(ctx, productID)
	}
	return s.store.AdjustStock(ctx, productID, delta)
}
