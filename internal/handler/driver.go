package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"saferide/internal/domain"
	"saferide/internal/middleware"
	"saferide/internal/service"
)

// DriverHandler handles HTTP requests for the driver surface.
type DriverHandler struct {
	drivers *service.DriverService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(drivers *service.DriverService) *DriverHandler {
	return &DriverHandler{drivers: drivers}
}

// DriverProfileRequest is the HTTP request body for profile writes.
type DriverProfileRequest struct {
	LicenseNumber string `json:"license_number" binding:"required"`
	VehicleMake   string `json:"vehicle_make" binding:"required"`
	VehicleModel  string `json:"vehicle_model" binding:"required"`
	VehicleYear   int    `json:"vehicle_year"`
	VehiclePlate  string `json:"vehicle_plate" binding:"required"`
}

// DriverStatusRequest is the HTTP request body for the availability toggle.
type DriverStatusRequest struct {
	IsOnline *bool `json:"is_online" binding:"required"`
}

// DriverProfileResponse is the driver profile shape returned by the API.
type DriverProfileResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	LicenseNumber string  `json:"license_number"`
	VehicleMake   string  `json:"vehicle_make"`
	VehicleModel  string  `json:"vehicle_model"`
	VehicleYear   int     `json:"vehicle_year"`
	VehiclePlate  string  `json:"vehicle_plate"`
	Approval      string  `json:"approval"`
	IsOnline      bool    `json:"is_online"`
	TotalTrips    int     `json:"total_trips"`
	TotalEarnings float64 `json:"total_earnings"`
	Rating        float64 `json:"rating"`
	CreatedAt     string  `json:"created_at"`
}

// EarningsResponse is the driver income summary shape.
type EarningsResponse struct {
	TotalEarnings  float64 `json:"total_earnings"`
	TodayEarnings  float64 `json:"today_earnings"`
	WeekEarnings   float64 `json:"week_earnings"`
	TotalTrips     int     `json:"total_trips"`
	AveragePerTrip float64 `json:"average_per_trip"`
	Rating         float64 `json:"rating"`
}

// GetProfile handles GET /api/v1/drivers/profile
func (h *DriverHandler) GetProfile(c *gin.Context) {
	driver, err := h.drivers.GetProfile(c.Request.Context(), middleware.ActorID(c), middleware.ActorRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toDriverProfileResponse(driver))
}

// UpsertProfile handles PUT /api/v1/drivers/profile
func (h *DriverHandler) UpsertProfile(c *gin.Context) {
	var req DriverProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_INPUT"})
		return
	}

	driver, err := h.drivers.UpsertProfile(c.Request.Context(), middleware.ActorID(c), middleware.ActorRole(c), service.ProfileInput{
		LicenseNumber: req.LicenseNumber,
		VehicleMake:   req.VehicleMake,
		VehicleModel:  req.VehicleModel,
		VehicleYear:   req.VehicleYear,
		VehiclePlate:  req.VehiclePlate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toDriverProfileResponse(driver))
}

// SetStatus handles PUT /api/v1/drivers/status
func (h *DriverHandler) SetStatus(c *gin.Context) {
	var req DriverStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsOnline == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_INPUT"})
		return
	}

	if err := h.drivers.SetOnline(c.Request.Context(), middleware.ActorID(c), middleware.ActorRole(c), *req.IsOnline); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"is_online": *req.IsOnline})
}

// Earnings handles GET /api/v1/drivers/earnings
func (h *DriverHandler) Earnings(c *gin.Context) {
	summary, err := h.drivers.Earnings(c.Request.Context(), middleware.ActorID(c), middleware.ActorRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, EarningsResponse{
		TotalEarnings:  summary.TotalEarnings,
		TodayEarnings:  summary.TodayEarnings,
		WeekEarnings:   summary.WeekEarnings,
		TotalTrips:     summary.TotalTrips,
		AveragePerTrip: summary.AveragePerTrip,
		Rating:         summary.Rating,
	})
}

func toDriverProfileResponse(driver *domain.Driver) DriverProfileResponse {
	return DriverProfileResponse{
		ID:            driver.ID,
		UserID:        driver.UserID,
		LicenseNumber: driver.LicenseNumber,
		VehicleMake:   driver.VehicleMake,
		VehicleModel:  driver.VehicleModel,
		VehicleYear:   driver.VehicleYear,
		VehiclePlate:  driver.VehiclePlate,
		Approval:      string(driver.Approval),
		IsOnline:      driver.IsOnline,
		TotalTrips:    driver.TotalTrips,
		TotalEarnings: driver.TotalEarnings,
		Rating:        driver.Rating,
		CreatedAt:     driver.CreatedAt.Format(time.RFC3339),
	}
}
