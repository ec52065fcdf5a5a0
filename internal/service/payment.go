package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"saferide/internal/domain"
	"saferide/internal/mpesa"
	"saferide/internal/repository"
)

// amountTolerance absorbs float representation noise when comparing an
// initiated amount against the stored fare.
const amountTolerance = 0.01

// kenyanPhonePattern accepts MSISDNs in the 2547XXXXXXXX / 2541XXXXXXXX
// form Daraja requires, with optional leading 0 or +254 normalized first.
var kenyanPhonePattern = regexp.MustCompile(`^254(7|1)\d{8}$`)

// PaymentService owns the payment intent lifecycle and its
// reconciliation with the trip record. An intent moves
// pending -> paid | failed exactly once; the poll path and the callback
// path share the same idempotent transition, so the two arriving in any
// order settle the trip once.
type PaymentService struct {
	store    repository.Store
	gateway  mpesa.Gateway
	fallback mpesa.Gateway // nil disables degraded mode
	log      *logrus.Logger
}

// NewPaymentService creates a new payment service. fallback, when
// non-nil, handles pushes the primary gateway cannot take; payments
// routed through it are flagged as simulated.
func NewPaymentService(store repository.Store, gateway, fallback mpesa.Gateway, log *logrus.Logger) *PaymentService {
	return &PaymentService{store: store, gateway: gateway, fallback: fallback, log: log}
}

// Initiate pushes an STK payment prompt for the trip's fare. Only the
// trip's passenger may initiate; anyone else is told the trip does not
// exist. No intent record is created unless the push is accepted.
func (s *PaymentService) Initiate(ctx context.Context, tripID, actorID string, role domain.Role, phone string, amount float64) (*domain.Payment, error) {
	trip, err := s.store.Trips().GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if role != domain.RoleAdmin && trip.PassengerID != actorID {
		return nil, ErrNotFound
	}

	if trip.PaymentStatus == domain.TripPaymentPaid {
		return nil, ErrTripAlreadyPaid
	}

	active, err := s.store.Payments().GetActiveByTripID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		if active.Status == domain.PaymentStatusPaid {
			return nil, ErrTripAlreadyPaid
		}
		return nil, ErrPaymentInProgress
	}

	if math.Abs(amount-trip.Fare) > amountTolerance {
		return nil, ErrAmountMismatch
	}

	msisdn, err := normalizePhone(phone)
	if err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("TRIP-%s", shortID(tripID))

	simulated := false
	result, err := s.gateway.PushPayment(ctx, msisdn, trip.Fare, reference)
	if errors.Is(err, mpesa.ErrUnavailable) && s.fallback != nil {
		s.log.WithFields(logrus.Fields{
			"trip_id": tripID,
			"error":   err.Error(),
		}).Warn("payment gateway unreachable, falling back to simulator")
		simulated = true
		result, err = s.fallback.PushPayment(ctx, msisdn, trip.Fare, reference)
	}
	if errors.Is(err, mpesa.ErrUnavailable) {
		return nil, ErrGatewayUnavailable
	}
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		ID:                uuid.New().String(),
		TripID:            tripID,
		Amount:            trip.Fare,
		Phone:             msisdn,
		CheckoutRequestID: result.CheckoutRequestID,
		Status:            domain.PaymentStatusPending,
		Simulated:         simulated,
		CreatedAt:         time.Now().UTC(),
	}

	// Re-check under the trip row lock: a second initiation racing past
	// the early guards must not record a second pending intent. The
	// loser's prompt goes unanswered on the handset.
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		locked, err := tx.Trips().GetByIDForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if locked.PaymentStatus == domain.TripPaymentPaid {
			return ErrTripAlreadyPaid
		}
		active, err := tx.Payments().GetActiveByTripID(ctx, tripID)
		if err != nil {
			return err
		}
		if active != nil {
			if active.Status == domain.PaymentStatusPaid {
				return ErrTripAlreadyPaid
			}
			return ErrPaymentInProgress
		}
		return tx.Payments().Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"payment_id":          payment.ID,
		"trip_id":             tripID,
		"checkout_request_id": payment.CheckoutRequestID,
		"amount":              payment.Amount,
		"simulated":           simulated,
	}).Info("payment initiated")

	return payment, nil
}

// CheckStatus polls the gateway for a pending intent and applies the
// outcome. Terminal intents are returned as-is without touching the
// gateway. The poll and the asynchronous callback apply the same
// transition, so whichever lands second is a no-op.
func (s *PaymentService) CheckStatus(ctx context.Context, paymentID, actorID string, role domain.Role) (*domain.Payment, error) {
	payment, err := s.getVisible(ctx, paymentID, actorID, role)
	if err != nil {
		return nil, err
	}
	if payment.Status.Terminal() {
		return payment, nil
	}

	gateway := s.gateway
	if payment.Simulated && s.fallback != nil {
		gateway = s.fallback
	}

	result, err := gateway.QueryStatus(ctx, payment.CheckoutRequestID)
	if errors.Is(err, mpesa.ErrUnavailable) {
		return nil, ErrGatewayUnavailable
	}
	if err != nil {
		return nil, err
	}

	switch result.Outcome {
	case mpesa.OutcomePaid:
		receipt := result.ReceiptNumber
		if receipt == "" && payment.Simulated {
			receipt = mpesa.SimulatedReceipt(payment.CheckoutRequestID)
		}
		if err := s.applyPaid(ctx, payment, receipt); err != nil {
			return nil, err
		}
	case mpesa.OutcomeFailed:
		if err := s.applyFailed(ctx, payment); err != nil {
			return nil, err
		}
	default:
		// Still in flight; nothing to record.
		return payment, nil
	}

	return s.store.Payments().GetByID(ctx, paymentID)
}

// HandleCallback applies a Daraja callback. Unknown checkout references
// and signals for already-settled intents are logged and swallowed: the
// gateway retries callbacks, and a stale or foreign signal must never
// fail the endpoint.
func (s *PaymentService) HandleCallback(ctx context.Context, notification mpesa.Notification) error {
	payment, err := s.store.Payments().GetByCheckoutRequestID(ctx, notification.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.WithField("checkout_request_id", notification.CheckoutRequestID).
				Warn("callback for unknown checkout reference, ignoring")
			return nil
		}
		return err
	}

	switch notification.Outcome {
	case mpesa.OutcomePaid:
		return s.applyPaid(ctx, payment, notification.ReceiptNumber)
	case mpesa.OutcomeFailed:
		return s.applyFailed(ctx, payment)
	default:
		s.log.WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"outcome":    notification.Outcome,
		}).Warn("non-terminal callback outcome, ignoring")
		return nil
	}
}

// Get returns the payment if the actor may see it.
func (s *PaymentService) Get(ctx context.Context, paymentID, actorID string, role domain.Role) (*domain.Payment, error) {
	return s.getVisible(ctx, paymentID, actorID, role)
}

// ListForPassenger returns the passenger's payment history.
func (s *PaymentService) ListForPassenger(ctx context.Context, passengerID string, role domain.Role) ([]*domain.Payment, error) {
	if role != domain.RolePassenger {
		return nil, ErrPassengerRequired
	}
	return s.store.Payments().ListByPassenger(ctx, passengerID)
}

// applyPaid settles a pending intent as paid and reconciles the trip.
// The intent transition is a conditional write from pending, so if the
// other settlement path got there first this degrades to a logged no-op.
// The driver is credited here only when the trip is already completed;
// otherwise the Complete transition performs the credit.
func (s *PaymentService) applyPaid(ctx context.Context, payment *domain.Payment, receiptNumber string) error {
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		moved, err := tx.Payments().MarkPaid(ctx, payment.ID, receiptNumber)
		if err != nil {
			return err
		}
		if !moved {
			s.log.WithField("payment_id", payment.ID).
				Info("paid signal for settled intent, ignoring")
			return nil
		}

		trip, err := tx.Trips().GetByIDForUpdate(ctx, payment.TripID)
		if err != nil {
			return err
		}

		trip.PaymentStatus = domain.TripPaymentPaid
		credit := trip.Status == domain.TripStatusCompleted && !trip.EarningsCredited
		if credit {
			trip.EarningsCredited = true
		}
		if err := tx.Trips().Update(ctx, trip); err != nil {
			return err
		}
		if credit {
			if err := tx.Drivers().AddEarnings(ctx, trip.DriverID, trip.Fare); err != nil {
				return err
			}
		}

		s.log.WithFields(logrus.Fields{
			"payment_id":     payment.ID,
			"trip_id":        trip.ID,
			"receipt_number": receiptNumber,
			"simulated":      payment.Simulated,
		}).Info("payment settled")

		return nil
	})
}

// applyFailed settles a pending intent as failed. The trip's payment
// status stays pending so the passenger can initiate a fresh attempt.
func (s *PaymentService) applyFailed(ctx context.Context, payment *domain.Payment) error {
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		moved, err := tx.Payments().MarkFailed(ctx, payment.ID)
		if err != nil {
			return err
		}
		if !moved {
			s.log.WithField("payment_id", payment.ID).
				Info("failed signal for settled intent, ignoring")
			return nil
		}

		s.log.WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"trip_id":    payment.TripID,
		}).Info("payment failed")

		return nil
	})
}

func (s *PaymentService) getVisible(ctx context.Context, paymentID, actorID string, role domain.Role) (*domain.Payment, error) {
	payment, err := s.store.Payments().GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if role == domain.RoleAdmin {
		return payment, nil
	}

	trip, err := s.store.Trips().GetByID(ctx, payment.TripID)
	if err != nil {
		return nil, err
	}
	if trip.PassengerID != actorID && (trip.DriverID == "" || trip.DriverID != actorID) {
		return nil, ErrNotFound
	}
	return payment, nil
}

// normalizePhone canonicalizes a Kenyan phone number into the MSISDN
// form the gateway expects.
func normalizePhone(phone string) (string, error) {
	p := strings.TrimSpace(phone)
	p = strings.ReplaceAll(p, " ", "")
	p = strings.ReplaceAll(p, "-", "")
	p = strings.TrimPrefix(p, "+")
	if strings.HasPrefix(p, "0") {
		p = "254" + p[1:]
	}
	if !kenyanPhonePattern.MatchString(p) {
		return "", ErrInvalidPhone
	}
	return p, nil
}

// shortID trims a UUID to the first segment for gateway references,
// which cap the account reference length.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
