package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusRequested TripStatus = "requested"
	TripStatusAccepted  TripStatus = "accepted"
	TripStatusDriving   TripStatus = "driving"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

// Terminal reports whether no further status transitions are legal.
func (s TripStatus) Terminal() bool {
	return s == TripStatusCompleted || s == TripStatusCancelled
}

// TripPaymentStatus represents the settlement state recorded on a trip.
type TripPaymentStatus string

const (
	TripPaymentPending TripPaymentStatus = "pending"
	TripPaymentPaid    TripPaymentStatus = "paid"
	TripPaymentFailed  TripPaymentStatus = "failed"
)

// Trip represents one ride from request to settlement.
// Trips are append-only history: they are never deleted, only transitioned.
type Trip struct {
	ID          string
	PassengerID string
	DriverID    string // empty until a driver accepts

	PickupLat     float64
	PickupLng     float64
	PickupAddress string

	DropoffLat     float64
	DropoffLng     float64
	DropoffAddress string

	// Fare and distance are computed once at creation and never recalculated.
	Fare       float64
	DistanceKm float64

	Status        TripStatus
	PaymentStatus TripPaymentStatus

	// Rating is 1-5, 0 while unrated. Set once, after completion.
	Rating   int
	Feedback string

	// EarningsCredited marks that the driver's earnings aggregate has
	// absorbed this trip's fare. Persisted so that the Complete transition
	// and the payment-paid reconciliation credit exactly once between them.
	EarningsCredited bool

	CreatedAt   time.Time
	AcceptedAt  time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	CancelledAt time.Time
}
