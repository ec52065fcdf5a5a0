package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"saferide/internal/domain"
	"saferide/internal/pricing"
	"saferide/internal/repository"
)

// AdminService serves the platform overview and pricing configuration.
// Role enforcement happens in the middleware; the service assumes an
// admin actor.
type AdminService struct {
	store   repository.Store
	pricing *pricing.Service
	log     *logrus.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(store repository.Store, pricing *pricing.Service, log *logrus.Logger) *AdminService {
	return &AdminService{store: store, pricing: pricing, log: log}
}

// PlatformStats is the admin overview.
type PlatformStats struct {
	Passengers    int
	Drivers       int
	TripsByStatus map[domain.TripStatus]int
	TotalTrips    int
	PaidRevenue   float64
}

// Stats aggregates user counts, trip counts by status, and revenue from
// paid completed trips.
func (s *AdminService) Stats(ctx context.Context) (*PlatformStats, error) {
	passengers, err := s.store.Users().Count(ctx, domain.RolePassenger)
	if err != nil {
		return nil, err
	}
	drivers, err := s.store.Users().Count(ctx, domain.RoleDriver)
	if err != nil {
		return nil, err
	}
	tripStats, err := s.store.Trips().Stats(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range tripStats.ByStatus {
		total += n
	}

	return &PlatformStats{
		Passengers:    passengers,
		Drivers:       drivers,
		TripsByStatus: tripStats.ByStatus,
		TotalTrips:    total,
		PaidRevenue:   tripStats.PaidRevenue,
	}, nil
}

// ListUsers returns every account, newest first.
func (s *AdminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.store.Users().GetAll(ctx)
}

// UpdatePricing writes the supplied pricing keys and invalidates the
// cached snapshot so the next quote sees them.
func (s *AdminService) UpdatePricing(ctx context.Context, values map[string]float64) error {
	if err := s.pricing.Update(ctx, values); err != nil {
		return err
	}
	s.log.WithField("keys", len(values)).Info("pricing configuration updated")
	return nil
}
