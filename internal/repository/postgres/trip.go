package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"saferide/internal/domain"
	"saferide/internal/repository"
)

const tripColumns = `
	id, passenger_id, driver_id,
	pickup_lat, pickup_lng, pickup_address,
	dropoff_lat, dropoff_lng, dropoff_address,
	fare, distance_km, status, payment_status,
	rating, feedback, earnings_credited,
	created_at, accepted_at, started_at, completed_at, cancelled_at
`

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (
			id, passenger_id, driver_id,
			pickup_lat, pickup_lng, pickup_address,
			dropoff_lat, dropoff_lng, dropoff_address,
			fare, distance_km, status, payment_status,
			rating, feedback, earnings_credited,
			created_at, accepted_at, started_at, completed_at, cancelled_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.PassengerID,
		nullString(trip.DriverID),
		trip.PickupLat,
		trip.PickupLng,
		trip.PickupAddress,
		trip.DropoffLat,
		trip.DropoffLng,
		trip.DropoffAddress,
		trip.Fare,
		trip.DistanceKm,
		trip.Status,
		trip.PaymentStatus,
		nullInt(trip.Rating),
		nullString(trip.Feedback),
		trip.EarningsCredited,
		trip.CreatedAt,
		nullTime(trip.AcceptedAt),
		nullTime(trip.StartedAt),
		nullTime(trip.CompletedAt),
		nullTime(trip.CancelledAt),
	)

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	return scanTrip(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a trip with a row lock. Meaningful only
// inside a transaction.
func (r *TripRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 FOR UPDATE`
	return scanTrip(r.q.QueryRowContext(ctx, query, id))
}

// Update updates an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips SET
			driver_id = $1, status = $2, payment_status = $3,
			rating = $4, feedback = $5, earnings_credited = $6,
			accepted_at = $7, started_at = $8, completed_at = $9, cancelled_at = $10
		WHERE id = $11
	`

	result, err := r.q.ExecContext(ctx, query,
		nullString(trip.DriverID),
		trip.Status,
		trip.PaymentStatus,
		nullInt(trip.Rating),
		nullString(trip.Feedback),
		trip.EarningsCredited,
		nullTime(trip.AcceptedAt),
		nullTime(trip.StartedAt),
		nullTime(trip.CompletedAt),
		nullTime(trip.CancelledAt),
		trip.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Accept atomically assigns the driver to a still-requested, unassigned
// trip. The WHERE clause is the race arbiter: of two concurrent accepts,
// exactly one matches a row.
func (r *TripRepository) Accept(ctx context.Context, tripID, driverID string, at time.Time) (bool, error) {
	query := `
		UPDATE trips
		SET driver_id = $1, status = $2, accepted_at = $3
		WHERE id = $4 AND status = $5 AND driver_id IS NULL
	`

	result, err := r.q.ExecContext(ctx, query,
		driverID,
		domain.TripStatusAccepted,
		at,
		tripID,
		domain.TripStatusRequested,
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

// ListByPassenger retrieves a passenger's trips, newest first.
func (r *TripRepository) ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE passenger_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, passengerID)
}

// ListByDriver retrieves a driver's assigned trips, newest first.
func (r *TripRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE driver_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, driverID)
}

// ListByStatus retrieves up to limit trips in the given status, newest first.
func (r *TripRepository) ListByStatus(ctx context.Context, status domain.TripStatus, limit int) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE status = $1 ORDER BY created_at DESC LIMIT $2`
	return r.list(ctx, query, status, limit)
}

// ListAll retrieves all trips, newest first.
func (r *TripRepository) ListAll(ctx context.Context) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips ORDER BY created_at DESC`
	return r.list(ctx, query)
}

// AverageRatingForDriver returns the mean over the driver's rated trips.
func (r *TripRepository) AverageRatingForDriver(ctx context.Context, driverID string) (float64, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0)
		FROM trips
		WHERE driver_id = $1 AND rating IS NOT NULL
	`

	var avg float64
	err := r.q.QueryRowContext(ctx, query, driverID).Scan(&avg)
	return avg, err
}

// Stats returns counts per status and the paid revenue.
func (r *TripRepository) Stats(ctx context.Context) (*repository.TripStats, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT status, COUNT(*) FROM trips GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &repository.TripStats{ByStatus: make(map[domain.TripStatus]int)}
	for rows.Next() {
		var status domain.TripStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	revenueQuery := `
		SELECT COALESCE(SUM(fare), 0)
		FROM trips
		WHERE status = $1 AND payment_status = $2
	`
	err = r.q.QueryRowContext(ctx, revenueQuery,
		domain.TripStatusCompleted, domain.TripPaymentPaid,
	).Scan(&stats.PaidRevenue)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *TripRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Trip, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTripRow(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row *sql.Row) (*domain.Trip, error) {
	trip, err := scanTripRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

func scanTripRow(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var driverID, feedback sql.NullString
	var rating sql.NullInt64
	var acceptedAt, startedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&trip.ID,
		&trip.PassengerID,
		&driverID,
		&trip.PickupLat,
		&trip.PickupLng,
		&trip.PickupAddress,
		&trip.DropoffLat,
		&trip.DropoffLng,
		&trip.DropoffAddress,
		&trip.Fare,
		&trip.DistanceKm,
		&trip.Status,
		&trip.PaymentStatus,
		&rating,
		&feedback,
		&trip.EarningsCredited,
		&trip.CreatedAt,
		&acceptedAt,
		&startedAt,
		&completedAt,
		&cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	trip.DriverID = driverID.String
	trip.Feedback = feedback.String
	trip.Rating = int(rating.Int64)
	if acceptedAt.Valid {
		trip.AcceptedAt = acceptedAt.Time
	}
	if startedAt.Valid {
		trip.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		trip.CompletedAt = completedAt.Time
	}
	if cancelledAt.Valid {
		trip.CancelledAt = cancelledAt.Time
	}

	return &trip, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
