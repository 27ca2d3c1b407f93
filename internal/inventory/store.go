// Package inventory implements the inventory ledger: per-product available
// stock and atomic signed adjustments against it. The ledger is the only
// component allowed to move stock after a product is created.
package inventory

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract for stock arithmetic.
type Store interface {
	// GetStock returns the current available quantity for a product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	GetStock(ctx context.Context, productID uuid.UUID) (int32, error)

	// AdjustStock applies a signed delta to a product's stock as one atomic
	// step. The adjustment is conditional: a delta that would drive stock
	// below zero fails with ErrInsufficientStock and leaves the value
	// unchanged. Returns the stock value after the adjustment.
	AdjustStock(ctx context.Context, productID uuid.UUID, delta int32) (int32, error)
}
