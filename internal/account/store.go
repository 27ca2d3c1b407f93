// Package account implements the account store: read access to user
// identity and role, and the set of administrator accounts used as
// notification targets. Credential and token handling live elsewhere.
package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is a user's authorization role.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User is an account record.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// Store is an interface for account storage operations.
type Store interface {
	// FindByID retrieves a single user by its unique identifier.
	// Returns ErrUserNotFound if no user exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByRole returns all users holding the given role.
	// Returns an empty slice if there are none.
	FindByRole(ctx context.Context, role Role) ([]User, error)

	// Create adds a new user to the system.
	Create(ctx context.Context, name, email string, role Role) (*User, error)
}
