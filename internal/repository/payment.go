package repository

import (
	"context"

	"saferide/internal/domain"
)

// PaymentRepository defines the persistence operations for payment intents.
type PaymentRepository interface {
	// Create persists a new payment intent.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByCheckoutRequestID retrieves a payment by its gateway
	// reconciliation key.
	GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.Payment, error)

	// GetActiveByTripID returns the trip's pending or paid intent, or nil
	// when the trip has neither.
	GetActiveByTripID(ctx context.Context, tripID string) (*domain.Payment, error)

	// MarkPaid transitions the intent to paid and records the receipt
	// number, but only from pending. Returns false when the intent was
	// already terminal, in which case nothing changed.
	MarkPaid(ctx context.Context, id, receiptNumber string) (bool, error)

	// MarkFailed transitions the intent to failed, only from pending.
	// Returns false when the intent was already terminal.
	MarkFailed(ctx context.Context, id string) (bool, error)

	// ListByPassenger retrieves payments on the passenger's trips, newest first.
	ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Payment, error)
}
