package service

import "errors"

// Sentinel errors returned by the service layer. Handlers map these to
// HTTP status codes and stable error codes.
var (
	// ErrNotFound indicates the requested resource does not exist or is
	// not visible to the caller.
	ErrNotFound = errors.New("resource not found")

	// ErrEmailTaken indicates a registration conflict on email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidRole indicates a registration role outside passenger/driver.
	ErrInvalidRole = errors.New("invalid role")

	// ErrPassengerRequired indicates the operation is restricted to passengers.
	ErrPassengerRequired = errors.New("passenger role required")

	// ErrDriverRequired indicates the operation is restricted to drivers.
	ErrDriverRequired = errors.New("driver role required")

	// ErrNotAssignedDriver indicates the caller is not the trip's driver.
	ErrNotAssignedDriver = errors.New("not the assigned driver")

	// ErrNotTripPassenger indicates the caller is not the trip's passenger.
	ErrNotTripPassenger = errors.New("not the trip passenger")

	// ErrMissingLocation indicates a trip request without both endpoints.
	ErrMissingLocation = errors.New("pickup and dropoff locations are required")

	// ErrInvalidCoordinates indicates latitude or longitude out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrTripNotAcceptable indicates the trip is no longer open for
	// acceptance (already taken, cancelled, or past requested).
	ErrTripNotAcceptable = errors.New("trip is not available for acceptance")

	// ErrTripNotStartable indicates the trip is not in the accepted state.
	ErrTripNotStartable = errors.New("trip cannot be started")

	// ErrTripNotCompletable indicates the trip is not in progress.
	ErrTripNotCompletable = errors.New("trip cannot be completed")

	// ErrTripNotCancellable indicates the trip already reached a terminal state.
	ErrTripNotCancellable = errors.New("trip cannot be cancelled")

	// ErrTripNotCompleted indicates an operation that requires a
	// completed trip, such as rating.
	ErrTripNotCompleted = errors.New("trip is not completed")

	// ErrAlreadyRated indicates the trip has already been rated.
	ErrAlreadyRated = errors.New("trip already rated")

	// ErrInvalidRating indicates a rating outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrTripAlreadyPaid indicates payment initiation on a paid trip.
	ErrTripAlreadyPaid = errors.New("trip is already paid")

	// ErrPaymentInProgress indicates an active payment intent already
	// exists for the trip.
	ErrPaymentInProgress = errors.New("a payment is already in progress for this trip")

	// ErrAmountMismatch indicates the initiated amount does not match the
	// trip fare.
	ErrAmountMismatch = errors.New("payment amount does not match trip fare")

	// ErrInvalidPhone indicates an unusable M-Pesa phone number.
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrGatewayUnavailable indicates the payment gateway could not be
	// reached and no fallback applied.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrDriverProfileExists indicates a duplicate driver profile.
	ErrDriverProfileExists = errors.New("driver profile already exists")

	// ErrDriverSuspended indicates a suspended driver attempting to take
	// trips.
	ErrDriverSuspended = errors.New("driver account is suspended")
)
