package domain

import "time"

// Role represents a user's role in the system.
type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
	RoleAdmin     Role = "admin"
)

// ValidRegistrationRole reports whether r can be chosen at registration.
// Admin accounts are provisioned out of band.
func ValidRegistrationRole(r Role) bool {
	return r == RolePassenger || r == RoleDriver
}

// User represents a passenger, driver, or admin account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	Phone        string
	Role         Role
	CreatedAt    time.Time
}
