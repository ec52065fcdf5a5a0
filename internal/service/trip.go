package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"saferide/internal/domain"
	"saferide/internal/fare"
	"saferide/internal/pricing"
	"saferide/internal/repository"
)

// availableTripsLimit bounds the open-trip feed shown to drivers.
const availableTripsLimit = 20

// TripService drives the trip state machine:
// requested -> accepted -> driving -> completed, with cancelled reachable
// from every non-terminal state. All transitions run inside a transaction
// so that concurrent callers serialize on the trip row.
type TripService struct {
	store      repository.Store
	pricing    *pricing.Service
	autoSettle bool
	log        *logrus.Logger
}

// NewTripService creates a new trip service. When autoSettle is set,
// completing a trip marks its payment as paid without an M-Pesa
// settlement (cash-style operation).
func NewTripService(store repository.Store, pricing *pricing.Service, autoSettle bool, log *logrus.Logger) *TripService {
	return &TripService{store: store, pricing: pricing, autoSettle: autoSettle, log: log}
}

// TripRequest carries the passenger's ride request.
type TripRequest struct {
	PickupLat      float64
	PickupLng      float64
	PickupAddress  string
	DropoffLat     float64
	DropoffLng     float64
	DropoffAddress string
}

// Request creates a trip for the passenger. The fare is quoted once,
// from the pricing snapshot current at request time, and never
// recalculated afterwards.
func (s *TripService) Request(ctx context.Context, passengerID string, role domain.Role, req TripRequest) (*domain.Trip, error) {
	if role != domain.RolePassenger {
		return nil, ErrPassengerRequired
	}
	if strings.TrimSpace(req.PickupAddress) == "" || strings.TrimSpace(req.DropoffAddress) == "" {
		return nil, ErrMissingLocation
	}

	params, err := s.pricing.Params(ctx)
	if err != nil {
		return nil, err
	}

	quote, err := params.Quote(
		fare.Point{Lat: req.PickupLat, Lng: req.PickupLng},
		fare.Point{Lat: req.DropoffLat, Lng: req.DropoffLng},
	)
	if errors.Is(err, fare.ErrInvalidCoordinate) {
		return nil, ErrInvalidCoordinates
	}
	if err != nil {
		return nil, err
	}

	trip := &domain.Trip{
		ID:             uuid.New().String(),
		PassengerID:    passengerID,
		PickupLat:      req.PickupLat,
		PickupLng:      req.PickupLng,
		PickupAddress:  strings.TrimSpace(req.PickupAddress),
		DropoffLat:     req.DropoffLat,
		DropoffLng:     req.DropoffLng,
		DropoffAddress: strings.TrimSpace(req.DropoffAddress),
		Fare:           quote.Fare,
		DistanceKm:     quote.DistanceKm,
		Status:         domain.TripStatusRequested,
		PaymentStatus:  domain.TripPaymentPending,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.store.Trips().Create(ctx, trip); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"trip_id":      trip.ID,
		"passenger_id": passengerID,
		"distance_km":  trip.DistanceKm,
		"fare":         trip.Fare,
	}).Info("trip requested")

	return trip, nil
}

// Available lists open trips a driver can accept.
func (s *TripService) Available(ctx context.Context, role domain.Role) ([]*domain.Trip, error) {
	if role != domain.RoleDriver {
		return nil, ErrDriverRequired
	}
	return s.store.Trips().ListByStatus(ctx, domain.TripStatusRequested, availableTripsLimit)
}

// Accept assigns the trip to the driver. The assignment is a conditional
// write against the requested state, so when two drivers race exactly one
// wins and the loser sees ErrTripNotAcceptable.
func (s *TripService) Accept(ctx context.Context, tripID, driverID string, role domain.Role) (*domain.Trip, error) {
	if role != domain.RoleDriver {
		return nil, ErrDriverRequired
	}

	driver, err := s.store.Drivers().GetByUserID(ctx, driverID)
	if errors.Is(err, repository.ErrNotFound) {
		// Completion updates the driver aggregates, so the row must exist
		// before a trip is assigned. Accounts that predate the row being
		// created at registration get one here.
		driver = newDriverRecord(driverID)
		if createErr := s.store.Drivers().Create(ctx, driver); createErr != nil && !errors.Is(createErr, repository.ErrDuplicate) {
			return nil, createErr
		}
		err = nil
	}
	if err != nil {
		return nil, err
	}
	if driver.Approval == domain.DriverApprovalSuspended {
		return nil, ErrDriverSuspended
	}

	accepted, err := s.store.Trips().Accept(ctx, tripID, driverID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !accepted {
		// Distinguish a missing trip from a lost race.
		if _, err := s.store.Trips().GetByID(ctx, tripID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		return nil, ErrTripNotAcceptable
	}

	trip, err := s.store.Trips().GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"trip_id":   tripID,
		"driver_id": driverID,
	}).Info("trip accepted")

	return trip, nil
}

// Start moves an accepted trip into the driving state. Only the assigned
// driver may start the trip.
func (s *TripService) Start(ctx context.Context, tripID, driverID string, role domain.Role) (*domain.Trip, error) {
	if role != domain.RoleDriver {
		return nil, ErrDriverRequired
	}

	var updated *domain.Trip
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		trip, err := tx.Trips().GetByIDForUpdate(ctx, tripID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if trip.DriverID != driverID {
			return ErrNotAssignedDriver
		}
		if trip.Status != domain.TripStatusAccepted {
			return ErrTripNotStartable
		}

		trip.Status = domain.TripStatusDriving
		trip.StartedAt = time.Now().UTC()
		if err := tx.Trips().Update(ctx, trip); err != nil {
			return err
		}
		updated = trip
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("trip_id", tripID).Info("trip started")
	return updated, nil
}

// Complete finishes the trip. Completing an already-completed trip is a
// no-op success, and the driver's earnings are credited at most once even
// when completion and payment settlement race: whichever transition
// observes the trip both completed and paid performs the single credit.
func (s *TripService) Complete(ctx context.Context, tripID, driverID string, role domain.Role) (*domain.Trip, error) {
	if role != domain.RoleDriver {
		return nil, ErrDriverRequired
	}

	var updated *domain.Trip
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		trip, err := tx.Trips().GetByIDForUpdate(ctx, tripID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if trip.DriverID != driverID {
			return ErrNotAssignedDriver
		}
		if trip.Status == domain.TripStatusCompleted {
			updated = trip
			return nil
		}
		if trip.Status != domain.TripStatusAccepted && trip.Status != domain.TripStatusDriving {
			return ErrTripNotCompletable
		}

		trip.Status = domain.TripStatusCompleted
		trip.CompletedAt = time.Now().UTC()

		if s.autoSettle && trip.PaymentStatus == domain.TripPaymentPending {
			trip.PaymentStatus = domain.TripPaymentPaid
		}

		credit := trip.PaymentStatus == domain.TripPaymentPaid && !trip.EarningsCredited
		if credit {
			trip.EarningsCredited = true
		}

		if err := tx.Trips().Update(ctx, trip); err != nil {
			return err
		}
		if err := tx.Drivers().IncrementTotalTrips(ctx, trip.DriverID); err != nil {
			return err
		}
		if credit {
			if err := tx.Drivers().AddEarnings(ctx, trip.DriverID, trip.Fare); err != nil {
				return err
			}
		}
		updated = trip
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"trip_id":        tripID,
		"payment_status": updated.PaymentStatus,
	}).Info("trip completed")

	return updated, nil
}

// Cancel aborts a non-terminal trip. Either the passenger or the
// assigned driver may cancel.
func (s *TripService) Cancel(ctx context.Context, tripID, actorID string, role domain.Role) (*domain.Trip, error) {
	var updated *domain.Trip
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		trip, err := tx.Trips().GetByIDForUpdate(ctx, tripID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !s.canActOn(trip, actorID, role) {
			return ErrNotFound
		}
		if trip.Status.Terminal() {
			return ErrTripNotCancellable
		}

		trip.Status = domain.TripStatusCancelled
		trip.CancelledAt = time.Now().UTC()
		if err := tx.Trips().Update(ctx, trip); err != nil {
			return err
		}
		updated = trip
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"trip_id":  tripID,
		"actor_id": actorID,
	}).Info("trip cancelled")

	return updated, nil
}

// Rate records the passenger's rating on a completed trip, once, and
// folds it into the driver's average.
func (s *TripService) Rate(ctx context.Context, tripID, passengerID string, role domain.Role, rating int, feedback string) (*domain.Trip, error) {
	if role != domain.RolePassenger {
		return nil, ErrPassengerRequired
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	var updated *domain.Trip
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		trip, err := tx.Trips().GetByIDForUpdate(ctx, tripID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if trip.PassengerID != passengerID {
			return ErrNotTripPassenger
		}
		if trip.Status != domain.TripStatusCompleted {
			return ErrTripNotCompleted
		}
		if trip.Rating != 0 {
			return ErrAlreadyRated
		}

		trip.Rating = rating
		trip.Feedback = strings.TrimSpace(feedback)
		if err := tx.Trips().Update(ctx, trip); err != nil {
			return err
		}

		// Recompute from scratch rather than maintaining a running mean;
		// the rated-trip count per driver stays small.
		average, err := tx.Trips().AverageRatingForDriver(ctx, trip.DriverID)
		if err != nil {
			return err
		}
		if err := tx.Drivers().SetRating(ctx, trip.DriverID, average); err != nil {
			return err
		}
		updated = trip
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"trip_id": tripID,
		"rating":  rating,
	}).Info("trip rated")

	return updated, nil
}

// Get returns the trip if the actor may see it. Admins see every trip;
// passengers and drivers only their own.
func (s *TripService) Get(ctx context.Context, tripID, actorID string, role domain.Role) (*domain.Trip, error) {
	trip, err := s.store.Trips().GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !s.canActOn(trip, actorID, role) {
		return nil, ErrNotFound
	}
	return trip, nil
}

// ListForUser returns the actor's trip history: the passenger's requested
// trips, the driver's assigned trips, or everything for an admin.
func (s *TripService) ListForUser(ctx context.Context, actorID string, role domain.Role) ([]*domain.Trip, error) {
	switch role {
	case domain.RolePassenger:
		return s.store.Trips().ListByPassenger(ctx, actorID)
	case domain.RoleDriver:
		return s.store.Trips().ListByDriver(ctx, actorID)
	case domain.RoleAdmin:
		return s.store.Trips().ListAll(ctx)
	default:
		return nil, ErrNotFound
	}
}

// canActOn reports whether the actor owns or administers the trip.
// Unrelated users are told the trip does not exist rather than that it
// is forbidden, so trip IDs do not leak.
func (s *TripService) canActOn(trip *domain.Trip, actorID string, role domain.Role) bool {
	if role == domain.RoleAdmin {
		return true
	}
	return trip.PassengerID == actorID || (trip.DriverID != "" && trip.DriverID == actorID)
}
