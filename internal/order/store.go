// Package order implements the order lifecycle manager: creation, payment
// marking, administrator status transitions and cancellation, with the
// inventory ledger and notification events orchestrated around them.
package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Address is a delivery address snapshot copied onto the order at creation.
type Address struct {
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
}

// Order is the order aggregate root. Version is bumped on every mutation
// and guards concurrent updates.
type Order struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Status        Status
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod
	TotalAmount   int64
	Address       *Address
	Version       int32
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Item is a single order line. ProductName and UnitPrice are snapshots taken
// at order creation and never change afterwards.
type Item struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	Quantity    int32
	UnitPrice   int64
	ProductName string
}

// Store is an interface for order storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type Store interface {
	// FindByID retrieves a single order and its line items.
	// Returns ErrOrderNotFound if no order exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Order, []Item, error)

	// FindByUserID returns a page of orders for a specific user, newest first.
	// Returns an empty slice if no orders exist.
	FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int32) ([]Order, error)

	// Create persists a new order together with its line items atomically.
	// The store assigns identifiers, version and timestamps.
	Create(ctx context.Context, order *Order, items []Item) (*Order, []Item, error)

	// UpdateStatus moves an order to the given status if the version still
	// matches. Returns ErrOrderNotFound for unknown orders and
	// ErrOptimisticLock when the version check fails.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, version int32) (*Order, error)

	// UpdatePayment sets the payment status and, when method is non-empty,
	// the payment method, if the version still matches. Error contract as
	// for UpdateStatus.
	UpdatePayment(ctx context.Context, id uuid.UUID, payment PaymentStatus, method PaymentMethod, version int32) (*Order, error)
}
