package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"saferide/internal/domain"
	"saferide/internal/repository"
)

// DriverService manages driver profiles, availability, and the earnings
// summary derived from their trip history.
type DriverService struct {
	store repository.Store
	log   *logrus.Logger
}

// NewDriverService creates a new driver service.
func NewDriverService(store repository.Store, log *logrus.Logger) *DriverService {
	return &DriverService{store: store, log: log}
}

// newDriverRecord returns a blank driver aggregate row. Trip completion
// and rating write through this row, so every driver account carries one
// from the moment it can be assigned a trip.
func newDriverRecord(userID string) *domain.Driver {
	now := time.Now().UTC()
	return &domain.Driver{
		ID:        uuid.New().String(),
		UserID:    userID,
		Approval:  domain.DriverApprovalPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ProfileInput carries the driver's vehicle and license details.
type ProfileInput struct {
	LicenseNumber string
	VehicleMake   string
	VehicleModel  string
	VehicleYear   int
	VehiclePlate  string
}

// CreateProfile registers the driver's vehicle details. New profiles
// start unapproved; an admin flips the approval.
func (s *DriverService) CreateProfile(ctx context.Context, userID string, role domain.Role, in ProfileInput) (*domain.Driver, error) {
	if role != domain.RoleDriver {
		return nil, ErrDriverRequired
	}

	if _, err := s.store.Drivers().GetByUserID(ctx, userID); err == nil {
		return nil, ErrDriverProfileExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	driver := &domain.Driver{
		ID:            uuid.New().String(),
		UserID:        userID,
		LicenseNumber: strings.TrimSpace(in.LicenseNumber),
		VehicleMake:   strings.TrimSpace(in.VehicleMake),
		VehicleModel:  strings.TrimSpace(in.VehicleModel),
		VehicleYear:   in.VehicleYear,
		VehiclePlate:  strings.ToUpper(strings.TrimSpace(in.VehiclePlate)),
		Approval:      domain.DriverApprovalPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Drivers().Create(ctx, driver); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDriverProfileExists
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"driver_id": driver.ID,
		"user_id":   userID,
	}).Info("driver profile created")

	return driver, nil
}

// GetProfile returns the driver's own profile.
func (s *DriverService) GetProfile(ctx context.Context, userID string, role domain.Role) (*domain.Driver, error) {
	if role != domain.RoleDriver {
		return nil, ErrDriverRequired
	}
	driver, err := s.store.Drivers().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return driver, nil
}

// UpsertProfile replaces the driver's vehicle and license details,
// creating the profile on first write.
func (s *DriverService) UpsertProfile(ctx context.Context, userID string, role domain.Role, in ProfileInput) (*domain.Driver, error) {
	driver, err := s.GetProfile(ctx, userID, role)
	if errors.Is(err, ErrNotFound) {
		return s.CreateProfile(ctx, userID, role, in)
	}
	if err != nil {
		return nil, err
	}

	driver.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
	driver.VehicleMake = strings.TrimSpace(in.VehicleMake)
	driver.VehicleModel = strings.TrimSpace(in.VehicleModel)
	driver.VehicleYear = in.VehicleYear
	driver.VehiclePlate = strings.ToUpper(strings.TrimSpace(in.VehiclePlate))
	driver.UpdatedAt = time.Now().UTC()

	if err := s.store.Drivers().Update(ctx, driver); err != nil {
		return nil, err
	}
	return driver, nil
}

// SetOnline flips the driver's availability.
func (s *DriverService) SetOnline(ctx context.Context, userID string, role domain.Role, online bool) error {
	if role != domain.RoleDriver {
		return ErrDriverRequired
	}
	if err := s.store.Drivers().SetOnline(ctx, userID, online); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// EarningsSummary is the driver's income report.
type EarningsSummary struct {
	TotalEarnings  float64
	TodayEarnings  float64
	WeekEarnings   float64
	TotalTrips     int
	AveragePerTrip float64
	Rating         float64
}

// Earnings summarizes the driver's credited income. The lifetime total
// comes from the driver aggregate; the windowed figures are recomputed
// from credited trips so that a mid-window settlement shows up.
func (s *DriverService) Earnings(ctx context.Context, userID string, role domain.Role) (*EarningsSummary, error) {
	if role != domain.RoleDriver {
		return nil, ErrDriverRequired
	}

	driver, err := s.store.Drivers().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	trips, err := s.store.Trips().ListByDriver(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := dayStart.AddDate(0, 0, -6)

	summary := &EarningsSummary{
		TotalEarnings: driver.TotalEarnings,
		TotalTrips:    driver.TotalTrips,
		Rating:        driver.Rating,
	}
	for _, trip := range trips {
		if !trip.EarningsCredited || trip.CompletedAt.IsZero() {
			continue
		}
		if !trip.CompletedAt.Before(dayStart) {
			summary.TodayEarnings += trip.Fare
		}
		if !trip.CompletedAt.Before(weekStart) {
			summary.WeekEarnings += trip.Fare
		}
	}
	if summary.TotalTrips > 0 {
		summary.AveragePerTrip = summary.TotalEarnings / float64(summary.TotalTrips)
	}

	return summary, nil
}
