package domain

import "time"

// PaymentStatus represents the current status of a payment intent.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Terminal reports whether the intent can no longer change state.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}

// Payment represents one attempt to collect a trip's fare via an
// M-Pesa STK push. The checkout request ID is the reconciliation key
// linking the push to its later callback or poll result.
type Payment struct {
	ID     string
	TripID string
	Amount float64
	Phone  string

	CheckoutRequestID string
	ReceiptNumber     string // set only when paid
	Status            PaymentStatus

	// Simulated marks settlements that went through the degraded-mode
	// simulator instead of the live gateway. Such records bypass
	// real-money verification and must stay distinguishable.
	Simulated bool

	CreatedAt time.Time
}
