package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"saferide/internal/pricing"
	"saferide/internal/repository"
	"saferide/internal/service"
)

// ErrorResponse represents an error response. Code is a stable,
// machine-readable identifier for clients that switch on errors; the
// message never carries internals.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// successEnvelope wraps every successful payload with the success flag.
type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	status, code := mapError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	c.JSON(status, ErrorResponse{Error: message, Code: code})
}

// respondJSON sends an enveloped JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, successEnvelope{Success: true, Data: data})
}

// mapError maps service/repository errors to an HTTP status and a
// stable error code.
func mapError(err error) (int, string) {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrMissingLocation):
		return http.StatusBadRequest, "MISSING_LOCATION"
	case errors.Is(err, service.ErrInvalidCoordinates):
		return http.StatusBadRequest, "INVALID_COORDINATES"
	case errors.Is(err, service.ErrInvalidRating):
		return http.StatusBadRequest, "INVALID_RATING"
	case errors.Is(err, service.ErrInvalidPhone):
		return http.StatusBadRequest, "INVALID_PHONE"
	case errors.Is(err, service.ErrAmountMismatch):
		return http.StatusBadRequest, "AMOUNT_MISMATCH"
	case errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest, "INVALID_ROLE"
	case errors.Is(err, pricing.ErrUnknownKey):
		return http.StatusBadRequest, "UNKNOWN_PRICING_KEY"
	case errors.Is(err, pricing.ErrNegativeValue):
		return http.StatusBadRequest, "NEGATIVE_PRICING_VALUE"

	// Authentication
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS"

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrPassengerRequired),
		errors.Is(err, service.ErrDriverRequired),
		errors.Is(err, service.ErrNotAssignedDriver),
		errors.Is(err, service.ErrNotTripPassenger),
		errors.Is(err, service.ErrDriverSuspended):
		return http.StatusForbidden, "FORBIDDEN"

	// Conflict errors
	case errors.Is(err, service.ErrTripNotAcceptable):
		return http.StatusConflict, "TRIP_NOT_AVAILABLE"
	case errors.Is(err, service.ErrTripNotStartable),
		errors.Is(err, service.ErrTripNotCompletable),
		errors.Is(err, service.ErrTripNotCancellable),
		errors.Is(err, service.ErrTripNotCompleted):
		return http.StatusConflict, "INVALID_TRIP_STATE"
	case errors.Is(err, service.ErrAlreadyRated):
		return http.StatusConflict, "ALREADY_RATED"
	case errors.Is(err, service.ErrTripAlreadyPaid):
		return http.StatusConflict, "TRIP_ALREADY_PAID"
	case errors.Is(err, service.ErrPaymentInProgress):
		return http.StatusConflict, "PAYMENT_IN_PROGRESS"
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "EMAIL_TAKEN"
	case errors.Is(err, service.ErrDriverProfileExists):
		return http.StatusConflict, "PROFILE_EXISTS"

	// Service unavailable
	case errors.Is(err, service.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable, "GATEWAY_UNAVAILABLE"

	// Default to internal server error
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
