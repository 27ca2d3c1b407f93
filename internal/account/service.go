package account

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AccountService defines the read surface the order flow depends on plus
// registration of new accounts.
type AccountService interface {
	// FindByID retrieves a single user by its unique identifier.
	// Returns ErrUserNotFound if no user exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*UserDto, error)

	// IsAdmin reports whether the user holds the administrator role.
	// Returns ErrUserNotFound if no user exists with the given ID.
	IsAdmin(ctx context.Context, id uuid.UUID) (bool, error)

	// FindAdmins returns every administrator account.
	FindAdmins(ctx context.Context) ([]UserDto, error)

	// Register adds a new user account.
	Register(ctx context.Context, user RegisterDto) (*UserDto, error)
}

// Service implements AccountService on top of a Store.
type Service struct {
	store Store
}

// NewService creates a new account service with the provided store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// RegisterDto represents the data transfer object for registering a user.
type RegisterDto struct {
	Name  string `json:"name"  validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
	Admin bool   `json:"admin"`
}

// UserDto represents the data transfer object for a user account.
type UserDto struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt string    `json:"created_at"`
}

func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*UserDto, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDto(user), nil
}

func (s *Service) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.Role == RoleAdmin, nil
}

func (s *Service) FindAdmins(ctx context.Context) ([]UserDto, error) {
	admins, err := s.store.FindByRole(ctx, RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch administrators: %w", err)
	}
	dtos := make([]UserDto, len(admins))
	for i, u := range admins {
		dtos[i] = *toDto(&u)
	}
	return dtos, nil
}

func (s *Service) Register(ctx context.Context, user RegisterDto) (*UserDto, error) {
	role := RoleCustomer
	if user.Admin {
		role = RoleAdmin
	}
	created, err := s.store.Create(ctx, user.Name, user.Email, role)
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return toDto(created), nil
}

// toDto converts an account.User to a UserDto.
func toDto(user *User) *UserDto {
	return &UserDto{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}
