// Package catalog implements the catalog store: product reads for the order
// flow plus the administrative CRUD surface.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Product is a catalog record. StockQuantity is owned by the inventory
// ledger and is never written through this package after creation.
type Product struct {
	ID            uuid.UUID
	Name          string
	Price         int64 // price in minor currency units
	StockQuantity int32
	Version       int32
	CreatedAt     time.Time
}

// Store is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type Store interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs returns products by IDs.
	// Returns an empty slice if no products exist.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindAll returns all available products.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context, offset, limit int32) ([]Product, error)

	// Create adds a new product to the system.
	// Returns error if the product cannot be created.
	Create(ctx context.Context, name string, price int64, stock int32) (*Product, error)

	// Update modifies an existing product's details.
	// Returns ErrProductNotFound if no product exists with the given ID and version.
	Update(ctx context.Context, id uuid.UUID, name string, price int64, version int32) (*Product, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID and version.
	DeleteByID(ctx context.Context, id uuid.UUID, version int32) error
}
