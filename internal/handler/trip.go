package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"saferide/internal/domain"
	"saferide/internal/middleware"
	"saferide/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	trips *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(trips *service.TripService) *TripHandler {
	return &TripHandler{trips: trips}
}

// CreateTripRequest is the HTTP request body for requesting a trip.
type CreateTripRequest struct {
	PickupLat      float64 `json:"pickup_lat"`
	PickupLng      float64 `json:"pickup_lng"`
	PickupAddress  string  `json:"pickup_address"`
	DropoffLat     float64 `json:"dropoff_lat"`
	DropoffLng     float64 `json:"dropoff_lng"`
	DropoffAddress string  `json:"dropoff_address"`
}

// RateTripRequest is the HTTP request body for rating a trip.
type RateTripRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback,omitempty"`
}

// TripResponse is the trip shape returned by the API.
type TripResponse struct {
	ID             string  `json:"id"`
	PassengerID    string  `json:"passenger_id"`
	DriverID       string  `json:"driver_id,omitempty"`
	PickupLat      float64 `json:"pickup_lat"`
	PickupLng      float64 `json:"pickup_lng"`
	PickupAddress  string  `json:"pickup_address"`
	DropoffLat     float64 `json:"dropoff_lat"`
	DropoffLng     float64 `json:"dropoff_lng"`
	DropoffAddress string  `json:"dropoff_address"`
	Fare           float64 `json:"fare"`
	DistanceKm     float64 `json:"distance_km"`
	Status         string  `json:"status"`
	PaymentStatus  string  `json:"payment_status"`
	Rating         int     `json:"rating,omitempty"`
	Feedback       string  `json:"feedback,omitempty"`
	CreatedAt      string  `json:"created_at"`
	AcceptedAt     string  `json:"accepted_at,omitempty"`
	StartedAt      string  `json:"started_at,omitempty"`
	CompletedAt    string  `json:"completed_at,omitempty"`
	CancelledAt    string  `json:"cancelled_at,omitempty"`
}

// Create handles POST /api/v1/trips
func (h *TripHandler) Create(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_INPUT"})
		return
	}

	trip, err := h.trips.Request(c.Request.Context(), middleware.ActorID(c), middleware.ActorRole(c), service.TripRequest{
		PickupLat:      req.PickupLat,
		PickupLng:      req.PickupLng,
		PickupAddress:  req.PickupAddress,
		DropoffLat:     req.DropoffLat,
		DropoffLng:     req.DropoffLng,
		DropoffAddress: req.DropoffAddress,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// List handles GET /api/v1/trips
func (h *TripHandler) List(c *gin.Context) {
	trips, err := h.trips.ListForUser(c.Request.Context(), middleware.ActorID(c), middleware.ActorRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponses(trips))
}

// Available handles GET /api/v1/trips/available
func (h *TripHandler) Available(c *gin.Context) {
	trips, err := h.trips.Available(c.Request.Context(), middleware.ActorRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponses(trips))
}

// Get handles GET /api/v1/trips/:id
func (h *TripHandler) Get(c *gin.Context) {
	trip, err := h.trips.Get(c.Request.Context(), c.Param("id"), middleware.ActorID(c), middleware.ActorRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Accept handles PUT /api/v1/trips/:id/accept
func (h *TripHandler) Accept(c *gin.Context) {
	trip, err := h.trips.Accept(c.Request.Context(), c.Param("id"), middleware.ActorID(c), middleware.ActorRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Start handles PUT /api/v1/trips/:id/start
func (h *TripHandler) Start(c *gin.Context) {
	trip, err := h.trips.Start(c.Request.Context(), c.Param("id"), middleware.ActorID(c), middleware.ActorRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Complete handles PUT /api/v1/trips/:id/complete
func (h *TripHandler) Complete(c *gin.Context) {
	trip, err := h.trips.Complete(c.Request.Context(), c.Param("id"), middleware.ActorID(c), middleware.ActorRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Cancel handles PUT /api/v1/trips/:id/cancel
func (h *TripHandler) Cancel(c *gin.Context) {
	trip, err := h.trips.Cancel(c.Request.Context(), c.Param("id"), middleware.ActorID(c), middleware.ActorRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Rate handles POST /api/v1/trips/:id/rate
func (h *TripHandler) Rate(c *gin.Context) {
	var req RateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_INPUT"})
		return
	}

	trip, err := h.trips.Rate(c.Request.Context(), c.Param("id"), middleware.ActorID(c), middleware.ActorRole(c), req.Rating, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

func toTripResponse(trip *domain.Trip) TripResponse {
	return TripResponse{
		ID:             trip.ID,
		PassengerID:    trip.PassengerID,
		DriverID:       trip.DriverID,
		PickupLat:      trip.PickupLat,
		PickupLng:      trip.PickupLng,
		PickupAddress:  trip.PickupAddress,
		DropoffLat:     trip.DropoffLat,
		DropoffLng:     trip.DropoffLng,
		DropoffAddress: trip.DropoffAddress,
		Fare:           trip.Fare,
		DistanceKm:     trip.DistanceKm,
		Status:         string(trip.Status),
		PaymentStatus:  string(trip.PaymentStatus),
		Rating:         trip.Rating,
		Feedback:       trip.Feedback,
		CreatedAt:      trip.CreatedAt.Format(time.RFC3339),
		AcceptedAt:     formatTime(trip.AcceptedAt),
		StartedAt:      formatTime(trip.StartedAt),
		CompletedAt:    formatTime(trip.CompletedAt),
		CancelledAt:    formatTime(trip.CancelledAt),
	}
}

func toTripResponses(trips []*domain.Trip) []TripResponse {
	out := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		out = append(out, toTripResponse(trip))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
