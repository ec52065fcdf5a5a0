package postgres

import (
	"context"
	"database/sql"
	"errors"

	"saferide/internal/domain"
	"saferide/internal/repository"
)

const paymentColumns = `
	id, trip_id, amount, phone,
	checkout_request_id, receipt_number, status, simulated, created_at
`

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// Create persists a new payment intent.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, trip_id, amount, phone,
			checkout_request_id, receipt_number, status, simulated, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.TripID,
		payment.Amount,
		payment.Phone,
		payment.CheckoutRequestID,
		nullString(payment.ReceiptNumber),
		payment.Status,
		payment.Simulated,
		payment.CreatedAt,
	)

	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByCheckoutRequestID retrieves a payment by its reconciliation key.
func (r *PaymentRepository) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE checkout_request_id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, checkoutRequestID))
}

// GetActiveByTripID returns the trip's pending or paid intent, or nil.
func (r *PaymentRepository) GetActiveByTripID(ctx context.Context, tripID string) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE trip_id = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1
	`

	payment, err := r.scanOne(r.q.QueryRowContext(ctx, query,
		tripID, domain.PaymentStatusPending, domain.PaymentStatusPaid,
	))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return payment, err
}

// MarkPaid transitions the intent pending -> paid. The status guard in the
// WHERE clause makes the transition idempotent under at-least-once signals.
func (r *PaymentRepository) MarkPaid(ctx context.Context, id, receiptNumber string) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1, receipt_number = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.PaymentStatusPaid,
		receiptNumber,
		id,
		domain.PaymentStatusPending,
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

// MarkFailed transitions the intent pending -> failed.
func (r *PaymentRepository) MarkFailed(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1
		WHERE id = $2 AND status = $3
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.PaymentStatusFailed,
		id,
		domain.PaymentStatusPending,
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

// ListByPassenger retrieves payments on the passenger's trips, newest first.
func (r *PaymentRepository) ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Payment, error) {
	query := `
		SELECT p.id, p.trip_id, p.amount, p.phone,
			p.checkout_request_id, p.receipt_number, p.status, p.simulated, p.created_at
		FROM payments p
		JOIN trips t ON t.id = p.trip_id
		WHERE t.passenger_id = $1
		ORDER BY p.created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, passengerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPaymentRow(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

func (r *PaymentRepository) scanOne(row *sql.Row) (*domain.Payment, error) {
	payment, err := scanPaymentRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return payment, nil
}

func scanPaymentRow(row rowScanner) (*domain.Payment, error) {
	var payment domain.Payment
	var receipt sql.NullString

	err := row.Scan(
		&payment.ID,
		&payment.TripID,
		&payment.Amount,
		&payment.Phone,
		&payment.CheckoutRequestID,
		&receipt,
		&payment.Status,
		&payment.Simulated,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	payment.ReceiptNumber = receipt.String
	return &payment, nil
}

// Ensure PaymentRepository implements repository.PaymentRepository.
var _ repository.PaymentRepository = (*PaymentRepository)(nil)
