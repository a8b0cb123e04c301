package domain

import "time"

// Session is the opaque credential identifying an authenticated
// principal. It is owned exclusively by the auth controller; no other
// component mutates it.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	PrincipalID  string    `json:"principal_id"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access token has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Account is the identity provider's credential record. Profiles
// reference accounts by ID; the account itself never reaches the UI
// layer.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Status       ProfileStatus
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
