package repository

import (
	"context"

	"saferide/internal/domain"
)

// DriverRepository defines the persistence operations for driver profiles.
type DriverRepository interface {
	// Create persists a new driver profile.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByUserID retrieves the driver profile for a user.
	GetByUserID(ctx context.Context, userID string) (*domain.Driver, error)

	// Update updates profile fields (license, vehicle, approval, online).
	Update(ctx context.Context, driver *domain.Driver) error

	// SetOnline flips the driver's availability flag.
	SetOnline(ctx context.Context, userID string, online bool) error

	// IncrementTotalTrips bumps the completed-trip counter by one.
	IncrementTotalTrips(ctx context.Context, userID string) error

	// AddEarnings adds amount to the driver's cumulative earnings.
	AddEarnings(ctx context.Context, userID string, amount float64) error

	// SetRating records the recomputed average rating.
	SetRating(ctx context.Context, userID string, rating float64) error
}
