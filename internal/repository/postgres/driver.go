package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"saferide/internal/domain"
	"saferide/internal/repository"
)

const driverColumns = `
	id, user_id, license_number,
	vehicle_make, vehicle_model, vehicle_year, vehicle_plate,
	approval, is_online, total_trips, total_earnings, rating,
	created_at, updated_at
`

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// Create persists a new driver profile.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (
			id, user_id, license_number,
			vehicle_make, vehicle_model, vehicle_year, vehicle_plate,
			approval, is_online, total_trips, total_earnings, rating,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.UserID,
		driver.LicenseNumber,
		driver.VehicleMake,
		driver.VehicleModel,
		driver.VehicleYear,
		driver.VehiclePlate,
		driver.Approval,
		driver.IsOnline,
		driver.TotalTrips,
		driver.TotalEarnings,
		driver.Rating,
		driver.CreatedAt,
		driver.UpdatedAt,
	)

	return err
}

// GetByUserID retrieves the driver profile for a user.
func (r *DriverRepository) GetByUserID(ctx context.Context, userID string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE user_id = $1`

	var driver domain.Driver
	err := r.q.QueryRowContext(ctx, query, userID).Scan(
		&driver.ID,
		&driver.UserID,
		&driver.LicenseNumber,
		&driver.VehicleMake,
		&driver.VehicleModel,
		&driver.VehicleYear,
		&driver.VehiclePlate,
		&driver.Approval,
		&driver.IsOnline,
		&driver.TotalTrips,
		&driver.TotalEarnings,
		&driver.Rating,
		&driver.CreatedAt,
		&driver.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &driver, nil
}

// Update updates profile fields.
func (r *DriverRepository) Update(ctx context.Context, driver *domain.Driver) error {
	query := `
		UPDATE drivers SET
			license_number = $1, vehicle_make = $2, vehicle_model = $3,
			vehicle_year = $4, vehicle_plate = $5, approval = $6,
			is_online = $7, updated_at = $8
		WHERE user_id = $9
	`

	result, err := r.q.ExecContext(ctx, query,
		driver.LicenseNumber,
		driver.VehicleMake,
		driver.VehicleModel,
		driver.VehicleYear,
		driver.VehiclePlate,
		driver.Approval,
		driver.IsOnline,
		time.Now(),
		driver.UserID,
	)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// SetOnline flips the driver's availability flag.
func (r *DriverRepository) SetOnline(ctx context.Context, userID string, online bool) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE drivers SET is_online = $1, updated_at = $2 WHERE user_id = $3`,
		online, time.Now(), userID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// IncrementTotalTrips bumps the completed-trip counter by one.
func (r *DriverRepository) IncrementTotalTrips(ctx context.Context, userID string) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE drivers SET total_trips = total_trips + 1, updated_at = $1 WHERE user_id = $2`,
		time.Now(), userID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// AddEarnings adds amount to the driver's cumulative earnings.
func (r *DriverRepository) AddEarnings(ctx context.Context, userID string, amount float64) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE drivers SET total_earnings = total_earnings + $1, updated_at = $2 WHERE user_id = $3`,
		amount, time.Now(), userID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// SetRating records the recomputed average rating.
func (r *DriverRepository) SetRating(ctx context.Context, userID string, rating float64) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE drivers SET rating = $1, updated_at = $2 WHERE user_id = $3`,
		rating, time.Now(), userID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ensure DriverRepository implements repository.DriverRepository.
var _ repository.DriverRepository = (*DriverRepository)(nil)
