package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"saferide/internal/domain"
	"saferide/internal/fare"
	"saferide/internal/pricing"
	"saferide/internal/service"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTripService(store *MockStore) *service.TripService {
	pricingService := pricing.NewService(store.ConfigRepo, nil, time.Minute)
	return service.NewTripService(store, pricingService, false, testLogger())
}

// Nairobi CBD to JKIA, the canonical quoting scenario.
const (
	cbdLat  = -1.2921
	cbdLng  = 36.8219
	jkiaLat = -1.3197
	jkiaLng = 36.9256
)

func cbdToJKIA() service.TripRequest {
	return service.TripRequest{
		PickupLat:      cbdLat,
		PickupLng:      cbdLng,
		PickupAddress:  "Nairobi CBD",
		DropoffLat:     jkiaLat,
		DropoffLng:     jkiaLng,
		DropoffAddress: "JKIA",
	}
}

// ──────────────────────────────────────────────
// TRIP REQUEST
// ──────────────────────────────────────────────

func TestRequest_QuotesFareOnce(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	svc := newTripService(store)

	trip, err := svc.Request(context.Background(), "passenger-1", domain.RolePassenger, cbdToJKIA())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Status != domain.TripStatusRequested {
		t.Errorf("expected status %s, got %s", domain.TripStatusRequested, trip.Status)
	}
	if trip.PaymentStatus != domain.TripPaymentPending {
		t.Errorf("expected payment status %s, got %s", domain.TripPaymentPending, trip.PaymentStatus)
	}
	if trip.DistanceKm < 11 || trip.DistanceKm > 13 {
		t.Errorf("CBD to JKIA distance out of range: %.2f km", trip.DistanceKm)
	}
	if trip.Fare <= 100 {
		t.Errorf("expected fare above minimum for a cross-town trip, got %.2f", trip.Fare)
	}
	if store.TripRepo.CountTrips() != 1 {
		t.Errorf("expected 1 stored trip, got %d", store.TripRepo.CountTrips())
	}
}

func TestRequest_RejectsDriverRole(t *testing.T) {
	t.Parallel()

	svc := newTripService(NewMockStore())

	_, err := svc.Request(context.Background(), "driver-1", domain.RoleDriver, cbdToJKIA())
	if !errors.Is(err, service.ErrPassengerRequired) {
		t.Errorf("expected ErrPassengerRequired, got %v", err)
	}
}

func TestRequest_RejectsMissingAddresses(t *testing.T) {
	t.Parallel()

	svc := newTripService(NewMockStore())

	req := cbdToJKIA()
	req.DropoffAddress = "  "
	_, err := svc.Request(context.Background(), "passenger-1", domain.RolePassenger, req)
	if !errors.Is(err, service.ErrMissingLocation) {
		t.Errorf("expected ErrMissingLocation, got %v", err)
	}
}

func TestRequest_RejectsInvalidCoordinates(t *testing.T) {
	t.Parallel()

	svc := newTripService(NewMockStore())

	req := cbdToJKIA()
	req.DropoffLat = 91
	_, err := svc.Request(context.Background(), "passenger-1", domain.RolePassenger, req)
	if !errors.Is(err, service.ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
}

func TestRequest_UsesConfiguredPricing(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	ctx := context.Background()
	_ = store.ConfigRepo.SetValue(ctx, "base_fare", "100")
	_ = store.ConfigRepo.SetValue(ctx, "per_km_rate", "50")
	svc := newTripService(store)

	trip, err := svc.Request(ctx, "passenger-1", domain.RolePassenger, cbdToJKIA())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The fare prices the exact distance, not the rounded figure the
	// trip record displays.
	params := fare.Params{BaseFare: 100, PerKmRate: 50, MinimumFare: fare.DefaultMinimumFare, EarthRadiusKm: fare.DefaultEarthRadiusKm}
	quote, err := params.Quote(fare.Point{Lat: cbdLat, Lng: cbdLng}, fare.Point{Lat: jkiaLat, Lng: jkiaLng})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Fare != quote.Fare {
		t.Errorf("fare %.2f does not match configured parameters (want %.2f)", trip.Fare, quote.Fare)
	}
}

// ──────────────────────────────────────────────
// ACCEPTANCE
// ──────────────────────────────────────────────

func TestAccept_AssignsDriver(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.TripRepo.AddTrip(&domain.Trip{
		ID:          "trip-1",
		PassengerID: "passenger-1",
		Status:      domain.TripStatusRequested,
		CreatedAt:   time.Now(),
	})
	svc := newTripService(store)

	trip, err := svc.Accept(context.Background(), "trip-1", "driver-1", domain.RoleDriver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusAccepted {
		t.Errorf("expected status %s, got %s", domain.TripStatusAccepted, trip.Status)
	}
	if trip.DriverID != "driver-1" {
		t.Errorf("expected driver-1 assigned, got %q", trip.DriverID)
	}
	if trip.AcceptedAt.IsZero() {
		t.Error("expected AcceptedAt to be set")
	}
}

func TestAccept_TwoDriversRace_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.TripRepo.AddTrip(&domain.Trip{
		ID:          "trip-1",
		PassengerID: "passenger-1",
		Status:      domain.TripStatusRequested,
		CreatedAt:   time.Now(),
	})
	svc := newTripService(store)

	var wins, conflicts int32
	var wg sync.WaitGroup
	for _, driverID := range []string{"driver-1", "driver-2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.Accept(context.Background(), "trip-1", id, domain.RoleDriver)
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case errors.Is(err, service.ErrTripNotAcceptable):
				atomic.AddInt32(&conflicts, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(driverID)
	}
	wg.Wait()

	if wins != 1 || conflicts != 1 {
		t.Errorf("expected exactly one winner and one conflict, got wins=%d conflicts=%d", wins, conflicts)
	}

	stored := store.TripRepo.GetTrip("trip-1")
	if stored.DriverID != "driver-1" && stored.DriverID != "driver-2" {
		t.Errorf("trip assigned to unexpected driver %q", stored.DriverID)
	}
}

func TestAccept_RejectsCancelledTrip(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.TripRepo.AddTrip(&domain.Trip{
		ID:          "trip-1",
		PassengerID: "passenger-1",
		Status:      domain.TripStatusCancelled,
		CreatedAt:   time.Now(),
	})
	svc := newTripService(store)

	_, err := svc.Accept(context.Background(), "trip-1", "driver-1", domain.RoleDriver)
	if !errors.Is(err, service.ErrTripNotAcceptable) {
		t.Errorf("expected ErrTripNotAcceptable, got %v", err)
	}
}

func TestAccept_UnknownTripIsNotFound(t *testing.T) {
	t.Parallel()

	svc := newTripService(NewMockStore())

	_, err := svc.Accept(context.Background(), "missing", "driver-1", domain.RoleDriver)
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAccept_RejectsSuspendedDriver(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.TripRepo.AddTrip(&domain.Trip{
		ID:          "trip-1",
		PassengerID: "passenger-1",
		Status:      domain.TripStatusRequested,
		CreatedAt:   time.Now(),
	})
	store.DriverRepo.AddDriver(&domain.Driver{
		ID:       "profile-1",
		UserID:   "driver-1",
		Approval: domain.DriverApprovalSuspended,
	})
	svc := newTripService(store)

	_, err := svc.Accept(context.Background(), "trip-1", "driver-1", domain.RoleDriver)
	if !errors.Is(err, service.ErrDriverSuspended) {
		t.Errorf("expected ErrDriverSuspended, got %v", err)
	}
}

func TestAccept_CreatesMissingDriverRecord(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.TripRepo.AddTrip(&domain.Trip{
		ID:          "trip-1",
		PassengerID: "passenger-1",
		Status:      domain.TripStatusRequested,
		CreatedAt:   time.Now(),
	})
	svc := newTripService(store)

	if _, err := svc.Accept(context.Background(), "trip-1", "driver-1", domain.RoleDriver); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	driver := store.DriverRepo.GetDriver("driver-1")
	if driver == nil {
		t.Fatal("expected an aggregate row for the accepting driver")
	}
	if driver.Approval != domain.DriverApprovalPending {
		t.Errorf("expected a pending record, got %s", driver.Approval)
	}
}

// A driver whose account was never seeded with an aggregate row must
// still be able to finish a trip: completion writes through that row.
func TestComplete_SucceedsForDriverWithoutSeededRecord(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.TripRepo.AddTrip(&domain.Trip{
		ID:          "trip-1",
		PassengerID: "passenger-1",
		Fare:        350,
		Status:      domain.TripStatusRequested,
		CreatedAt:   time.Now(),
	})
	svc := newTripService(store)
	ctx := context.Background()

	if _, err := svc.Accept(ctx, "trip-1", "driver-1", domain.RoleDriver); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Start(ctx, "trip-1", "driver-1", domain.RoleDriver); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Complete(ctx, "trip-1", "driver-1", domain.RoleDriver); err != nil {
		t.Fatalf("complete by the assigned driver failed: %v", err)
	}

	driver := store.DriverRepo.GetDriver("driver-1")
	if driver == nil || driver.TotalTrips != 1 {
		t.Fatalf("expected the driver's trip counter to reach 1, got %+v", driver)
	}
}

// ──────────────────────────────────────────────
// START / COMPLETE
// ──────────────────────────────────────────────

func acceptedTrip(driverID string) *domain.Trip {
	return &domain.Trip{
		ID:            "trip-1",
		PassengerID:   "passenger-1",
		DriverID:      driverID,
		Fare:          350,
		Status:        domain.TripStatusAccepted,
		PaymentStatus: domain.TripPaymentPending,
		CreatedAt:     time.Now(),
		AcceptedAt:    time.Now(),
	}
}

func TestStart_MovesAcceptedToDriving(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.TripRepo.AddTrip(acceptedTrip("driver-1"))
	svc := newTripService(store)

	trip, err := svc.Start(context.Background(), "trip-1", "driver-1", domain.RoleDriver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusDriving {
		t.Errorf("expected status %s, got %s", domain.TripStatusDriving, trip.Status)
	}
	if trip.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}
}

func TestStart_RejectsOtherDriver(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.TripRepo.AddTrip(acceptedTrip("driver-1"))
	svc := newTripService(store)

	_, err := svc.Start(context.Background(), "trip-1", "driver-2", domain.RoleDriver)
	if !errors.Is(err, service.ErrNotAssignedDriver) {
		t.Errorf("expected ErrNotAssignedDriver, got %v", err)
	}
}

func TestStart_RejectsRequestedTrip(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	trip := acceptedTrip("driver-1")
	trip.Status = domain.TripStatusRequested
	store.TripRepo.AddTrip(trip)
	svc := newTripService(store)

	_, err := svc.Start(context.Background(), "trip-1", "driver-1", domain.RoleDriver)
	if !errors.Is(err, service.ErrTripNotStartable) {
		t.Errorf("expected ErrTripNotStartable, got %v", err)
	}
}

func TestComplete_FromDriving(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	trip := acceptedTrip("driver-1")
	trip.Status = domain.TripStatusDriving
	store.TripRepo.AddTrip(trip)
	store.DriverRepo.AddDriver(&domain.Driver{ID: "profile-1", UserID: "driver-1", Approval: domain.DriverApprovalApproved})
	svc := newTripService(store)

	completed, err := svc.Complete(context.Background(), "trip-1", "driver-1", domain.RoleDriver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completed.Status != domain.TripStatusCompleted {
		t.Errorf("expected status %s, got %s", domain.TripStatusCompleted, completed.Status)
	}
	if completed.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set")
	}

	driver := store.DriverRepo.GetDriver("driver-1")
	if driver.TotalTrips != 1 {
		t.Errorf("expected total trips 1, got %d", driver.TotalTrips)
	}
	// Payment still pending, so no earnings yet.
	if driver.TotalEarnings != 0 {
		t.Errorf("expected no earnings before settlement, got %.2f", driver.TotalEarnings)
	}
}

func TestComplete_SecondCallIsNoOp(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	trip := acceptedTrip("driver-1")
	trip.Status = domain.TripStatusDriving
	trip.PaymentStatus = domain.TripPaymentPaid
	store.TripRepo.AddTrip(trip)
	store.DriverRepo.AddDriver(&domain.Driver{ID: "profile-1", UserID: "driver-1", Approval: domain.DriverApprovalApproved})
	svc := newTripService(store)

	ctx := context.Background()
	if _, err := svc.Complete(ctx, "trip-1", "driver-1", domain.RoleDriver); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Complete(ctx, "trip-1", "driver-1", domain.RoleDriver); err != nil {
		t.Fatalf("second complete should be a no-op success, got %v", err)
	}

	driver := store.DriverRepo.GetDriver("driver-1")
	if driver.TotalTrips != 1 {
		t.Errorf("expected total trips 1 after repeat complete, got %d", driver.TotalTrips)
	}
	if driver.TotalEarnings != 350 {
		t.Errorf("expected earnings credited once (350), got %.2f", driver.TotalEarnings)
	}
	if got := atomic.LoadInt32(&store.DriverRepo.AddEarningsCallCount); got != 1 {
		t.Errorf("expected exactly one earnings credit, got %d", got)
	}
}

func TestComplete_AutoSettleMarksPaidAndCredits(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	trip := acceptedTrip("driver-1")
	trip.Status = domain.TripStatusDriving
	store.TripRepo.AddTrip(trip)
	store.DriverRepo.AddDriver(&domain.Driver{ID: "profile-1", UserID: "driver-1", Approval: domain.DriverApprovalApproved})

	pricingService := pricing.NewService(store.ConfigRepo, nil, time.Minute)
	svc := service.NewTripService(store, pricingService, true, testLogger())

	completed, err := svc.Complete(context.Background(), "trip-1", "driver-1", domain.RoleDriver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completed.PaymentStatus != domain.TripPaymentPaid {
		t.Errorf("expected auto-settled payment, got %s", completed.PaymentStatus)
	}

	driver := store.DriverRepo.GetDriver("driver-1")
	if driver.TotalEarnings != 350 {
		t.Errorf("expected earnings 350, got %.2f", driver.TotalEarnings)
	}
}

func TestComplete_RejectsCancelledTrip(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	trip := acceptedTrip("driver-1")
	trip.Status = domain.TripStatusCancelled
	store.TripRepo.AddTrip(trip)
	svc := newTripService(store)

	_, err := svc.Complete(context.Background(), "trip-1", "driver-1", domain.RoleDriver)
	if !errors.Is(err, service.ErrTripNotCompletable) {
		t.Errorf("expected ErrTripNotCompletable, got %v", err)
	}
}

// ──────────────────────────────────────────────
// CANCELLATION
// ──────────────────────────────────────────────

func TestCancel_PassengerCancelsRequestedTrip(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.TripRepo.AddTrip(&domain.Trip{
		ID:          "trip-1",
		PassengerID: "passenger-1",
		Status:      domain.TripStatusRequested,
		CreatedAt:   time.Now(),
	})
	svc := newTripService(store)

	trip, err := svc.Cancel(context.Background(), "trip-1", "passenger-1", domain.RolePassenger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusCancelled {
		t.Errorf("expected status %s, got %s", domain.TripStatusCancelled, trip.Status)
	}
	if trip.CancelledAt.IsZero() {
		t.Error("expected CancelledAt to be set")
	}
}

func TestCancel_AssignedDriverCanCancel(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.TripRepo.AddTrip(acceptedTrip("driver-1"))
	svc := newTripService(store)

	trip, err := svc.Cancel(context.Background(), "trip-1", "driver-1", domain.RoleDriver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusCancelled {
		t.Errorf("expected status %s, got %s", domain.TripStatusCancelled, trip.Status)
	}
}

func TestCancel_RejectsCompletedTrip(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	trip := acceptedTrip("driver-1")
	trip.Status = domain.TripStatusCompleted
	store.TripRepo.AddTrip(trip)
	svc := newTripService(store)

	_, err := svc.Cancel(context.Background(), "trip-1", "passenger-1", domain.RolePassenger)
	if !errors.Is(err, service.ErrTripNotCancellable) {
		t.Errorf("expected ErrTripNotCancellable, got %v", err)
	}
}

func TestCancel_StrangerSeesNotFound(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.TripRepo.AddTrip(acceptedTrip("driver-1"))
	svc := newTripService(store)

	_, err := svc.Cancel(context.Background(), "trip-1", "passenger-2", domain.RolePassenger)
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unrelated user, got %v", err)
	}
}

// ──────────────────────────────────────────────
// RATING
// ──────────────────────────────────────────────

func completedTrip(id, driverID string, rating int) *domain.Trip {
	return &domain.Trip{
		ID:            id,
		PassengerID:   "passenger-1",
		DriverID:      driverID,
		Fare:          350,
		Status:        domain.TripStatusCompleted,
		PaymentStatus: domain.TripPaymentPaid,
		Rating:        rating,
		CreatedAt:     time.Now(),
		CompletedAt:   time.Now(),
	}
}

func TestRate_RecordsRatingAndRecomputesAverage(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.TripRepo.AddTrip(completedTrip("trip-1", "driver-1", 0))
	store.TripRepo.AddTrip(completedTrip("trip-2", "driver-1", 3))
	store.DriverRepo.AddDriver(&domain.Driver{ID: "profile-1", UserID: "driver-1", Approval: domain.DriverApprovalApproved})
	svc := newTripService(store)

	trip, err := svc.Rate(context.Background(), "trip-1", "passenger-1", domain.RolePassenger, 5, "smooth ride")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Rating != 5 || trip.Feedback != "smooth ride" {
		t.Errorf("rating not recorded: %+v", trip)
	}

	driver := store.DriverRepo.GetDriver("driver-1")
	if driver.Rating != 4 {
		t.Errorf("expected recomputed average 4.0, got %.2f", driver.Rating)
	}
}

func TestRate_RejectsSecondRating(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.TripRepo.AddTrip(completedTrip("trip-1", "driver-1", 4))
	svc := newTripService(store)

	_, err := svc.Rate(context.Background(), "trip-1", "passenger-1", domain.RolePassenger, 5, "")
	if !errors.Is(err, service.ErrAlreadyRated) {
		t.Errorf("expected ErrAlreadyRated, got %v", err)
	}
}

func TestRate_RejectsOutOfRange(t *testing.T) {
	t.Parallel()

	svc := newTripService(NewMockStore())

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Rate(context.Background(), "trip-1", "passenger-1", domain.RolePassenger, rating, "")
		if !errors.Is(err, service.ErrInvalidRating) {
			t.Errorf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}
}

func TestRate_RejectsIncompleteTrip(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.TripRepo.AddTrip(acceptedTrip("driver-1"))
	svc := newTripService(store)

	_, err := svc.Rate(context.Background(), "trip-1", "passenger-1", domain.RolePassenger, 5, "")
	if !errors.Is(err, service.ErrTripNotCompleted) {
		t.Errorf("expected ErrTripNotCompleted, got %v", err)
	}
}

// ──────────────────────────────────────────────
// VISIBILITY
// ──────────────────────────────────────────────

func TestGet_StrangerSeesNotFound(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.TripRepo.AddTrip(acceptedTrip("driver-1"))
	svc := newTripService(store)

	ctx := context.Background()
	if _, err := svc.Get(ctx, "trip-1", "passenger-1", domain.RolePassenger); err != nil {
		t.Errorf("passenger should see own trip: %v", err)
	}
	if _, err := svc.Get(ctx, "trip-1", "driver-1", domain.RoleDriver); err != nil {
		t.Errorf("assigned driver should see trip: %v", err)
	}
	if _, err := svc.Get(ctx, "trip-1", "admin-1", domain.RoleAdmin); err != nil {
		t.Errorf("admin should see trip: %v", err)
	}
	if _, err := svc.Get(ctx, "trip-1", "stranger", domain.RolePassenger); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound for stranger, got %v", err)
	}
}

func TestAvailable_DriversOnly(t *testing.T) {
	t.Parallel()

	store := NewMockStore()
	store.TripRepo.AddTrip(&domain.Trip{ID: "trip-1", PassengerID: "p1", Status: domain.TripStatusRequested, CreatedAt: time.Now()})
	taken := acceptedTrip("driver-1")
	taken.ID = "trip-2"
	store.TripRepo.AddTrip(taken)
	svc := newTripService(store)

	ctx := context.Background()
	trips, err := svc.Available(ctx, domain.RoleDriver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trips) != 1 || trips[0].ID != "trip-1" {
		t.Errorf("expected only the requested trip, got %d trips", len(trips))
	}

	if _, err := svc.Available(ctx, domain.RolePassenger); !errors.Is(err, service.ErrDriverRequired) {
		t.Errorf("expected ErrDriverRequired, got %v", err)
	}
}
