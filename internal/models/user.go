package models

import "time"

// User roles
const (
	RoleTenant   = "tenant"
	RoleLandlord = "landlord"
	RoleAdmin    = "admin"
)

// Account statuses
const (
	StatusActive    = "active"
	StatusDisabled  = "disabled"
	StatusSuspended = "suspended"
)

// User represents a platform account (tenant, landlord, or admin)
type User struct {
	ID                string
	Email             string
	PasswordHash      string
	FirstName         *string
	LastName          *string
	Role              string
	Status            string
	EmailVerified     bool
	MFAEnabled        bool
	TOTPSecretEnc     []byte
	TOTPSecretNonce   []byte
	MFAEnrolledAt     *time.Time
	PasswordChangedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// UserProfile is the read-only identity projection returned with every
// login outcome. It never carries credential or MFA material.
type UserProfile struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      string  `json:"role"`
}

// Profile projects the identity fields surfaced to clients.
func (u *User) Profile() *UserProfile {
	return &UserProfile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}
