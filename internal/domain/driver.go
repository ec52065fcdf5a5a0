package domain

import "time"

// DriverApproval represents a driver profile's verification state.
type DriverApproval string

const (
	DriverApprovalPending   DriverApproval = "pending"
	DriverApprovalApproved  DriverApproval = "approved"
	DriverApprovalSuspended DriverApproval = "suspended"
)

// Driver is the driver profile attached to a user with RoleDriver.
// TotalTrips, TotalEarnings, and Rating are derived aggregates owned by
// the trip state machine; nothing else writes them.
type Driver struct {
	ID     string
	UserID string

	LicenseNumber string
	VehicleMake   string
	VehicleModel  string
	VehicleYear   int
	VehiclePlate  string

	Approval DriverApproval
	IsOnline bool

	TotalTrips    int
	TotalEarnings float64
	Rating        float64 // mean of rated trips, 0 while unrated

	CreatedAt time.Time
	UpdatedAt time.Time
}
