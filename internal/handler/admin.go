package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"saferide/internal/repository"
	"saferide/internal/service"
)

// AdminHandler handles HTTP requests for the admin surface.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// UpdateConfigRequest is the HTTP request body for pricing updates.
// Absent keys are left untouched.
type UpdateConfigRequest struct {
	BaseFare    *float64 `json:"base_fare"`
	PerKmRate   *float64 `json:"per_km_rate"`
	MinimumFare *float64 `json:"minimum_fare"`
}

// StatsResponse is the platform overview shape.
type StatsResponse struct {
	Passengers    int            `json:"passengers"`
	Drivers       int            `json:"drivers"`
	TripsByStatus map[string]int `json:"trips_by_status"`
	TotalTrips    int            `json:"total_trips"`
	PaidRevenue   float64        `json:"paid_revenue"`
}

// Stats handles GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	byStatus := make(map[string]int, len(stats.TripsByStatus))
	for status, n := range stats.TripsByStatus {
		byStatus[string(status)] = n
	}

	respondJSON(c, http.StatusOK, StatsResponse{
		Passengers:    stats.Passengers,
		Drivers:       stats.Drivers,
		TripsByStatus: byStatus,
		TotalTrips:    stats.TotalTrips,
		PaidRevenue:   stats.PaidRevenue,
	})
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, toUserResponse(user))
	}
	respondJSON(c, http.StatusOK, out)
}

// UpdateConfig handles PUT /api/v1/admin/config
func (h *AdminHandler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_INPUT"})
		return
	}

	values := make(map[string]float64)
	if req.BaseFare != nil {
		values[repository.PricingKeyBaseFare] = *req.BaseFare
	}
	if req.PerKmRate != nil {
		values[repository.PricingKeyPerKmRate] = *req.PerKmRate
	}
	if req.MinimumFare != nil {
		values[repository.PricingKeyMinimumFare] = *req.MinimumFare
	}
	if len(values) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no pricing keys supplied", Code: "INVALID_INPUT"})
		return
	}

	if err := h.admin.UpdatePricing(c.Request.Context(), values); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"updated": len(values)})
}
