package domain

import "time"

// Role enumerates the access levels a profile can hold.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleClient  Role = "client"
	RoleSubuser Role = "subuser"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleSubuser:
		return true
	}
	return false
}

// ProfileStatus represents lifecycle states for a profile.
type ProfileStatus string

const (
	ProfileStatusActive    ProfileStatus = "active"
	ProfileStatusInactive  ProfileStatus = "inactive"
	ProfileStatusSuspended ProfileStatus = "suspended"
)

// Profile is the durable record backing an authenticated principal.
// Role is immutable for the life of a session; changing it requires
// re-authentication.
type Profile struct {
	ID          string
	AccountID   string
	Email       string
	FullName    string
	Role        Role
	Status      ProfileStatus
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
