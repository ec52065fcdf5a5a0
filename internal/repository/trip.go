package repository

import (
	"context"
	"time"

	"saferide/internal/domain"
)

// TripStats summarizes trips for the admin overview.
type TripStats struct {
	ByStatus    map[domain.TripStatus]int
	PaidRevenue float64
}

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetByIDForUpdate retrieves a trip and, inside a transaction, locks
	// its row so that concurrent state transitions serialize.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error)

	// Update updates an existing trip.
	Update(ctx context.Context, trip *domain.Trip) error

	// Accept atomically assigns the driver to a trip that is still in the
	// requested state with no driver. Returns false when the guard fails,
	// which means another driver won the race or the trip has moved on.
	Accept(ctx context.Context, tripID, driverID string, at time.Time) (bool, error)

	// ListByPassenger retrieves a passenger's trips, newest first.
	ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Trip, error)

	// ListByDriver retrieves a driver's assigned trips, newest first.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Trip, error)

	// ListByStatus retrieves up to limit trips in the given status, newest first.
	ListByStatus(ctx context.Context, status domain.TripStatus, limit int) ([]*domain.Trip, error)

	// ListAll retrieves all trips, newest first.
	ListAll(ctx context.Context) ([]*domain.Trip, error)

	// AverageRatingForDriver returns the mean rating over the driver's
	// rated trips, or 0 when none are rated.
	AverageRatingForDriver(ctx context.Context, driverID string) (float64, error)

	// Stats returns counts per status and the revenue from completed,
	// paid trips.
	Stats(ctx context.Context) (*TripStats, error)
}
