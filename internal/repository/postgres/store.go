package postgres

import (
	"context"
	"database/sql"

	"saferide/internal/repository"
)

// Store is the PostgreSQL implementation of repository.Store.
type Store struct {
	db *sql.DB
	q  Querier
}

// NewStore creates a Store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Users() repository.UserRepository       { return &UserRepository{q: s.q} }
func (s *Store) Drivers() repository.DriverRepository   { return &DriverRepository{q: s.q} }
func (s *Store) Trips() repository.TripRepository       { return &TripRepository{q: s.q} }
func (s *Store) Payments() repository.PaymentRepository { return &PaymentRepository{q: s.q} }
func (s *Store) Config() repository.ConfigRepository    { return &ConfigRepository{q: s.q} }

// WithinTx runs fn against a transaction-scoped Store. fn returning an
// error rolls the transaction back; otherwise it is committed.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.db == nil {
		// Already inside a transaction; reuse it.
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&Store{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Ensure Store implements repository.Store.
var _ repository.Store = (*Store)(nil)
