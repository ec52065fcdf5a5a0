package repository

import (
	"context"

	"saferide/internal/domain"
)

// UserRepository defines the persistence operations for users.
// It doubles as the identity directory: role checks inside the trip and
// payment services resolve the actor through GetByID.
type UserRepository interface {
	// Create persists a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetAll retrieves all users, newest first.
	GetAll(ctx context.Context) ([]*domain.User, error)

	// Count returns the number of users with the given role.
	Count(ctx context.Context, role domain.Role) (int, error)
}
