package repository

import "context"

// Store bundles the repositories behind a single transactional boundary.
// WithinTx runs fn against repositories scoped to one database transaction:
// a read-then-write transition (Accept, Complete, payment terminal-state
// application) executes entirely inside fn, so two concurrent transitions
// on the same row produce exactly one winner.
type Store interface {
	Users() UserRepository
	Drivers() DriverRepository
	Trips() TripRepository
	Payments() PaymentRepository
	Config() ConfigRepository

	// WithinTx begins a transaction, calls fn with a transaction-scoped
	// Store, and commits if fn returns nil. Any error rolls the whole
	// transaction back; no partial write survives.
	WithinTx(ctx context.Context, fn func(Store) error) error
}
