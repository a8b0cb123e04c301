package events

import (
	"time"

	"github.com/Abhishekkatale/CRM-Musitech/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionSignedIn  EventType = "session_signed_in"
	EventSessionRefreshed EventType = "session_refreshed"
	EventSessionRevoked   EventType = "session_revoked"
	EventSessionSignedOut EventType = "session_signed_out"
	EventProfileResolved  EventType = "profile_resolved"
)

// Event represents a session lifecycle event emitted by the identity
// provider or the auth controller.
type Event struct {
	ID          string          `json:"id"`
	Type        EventType       `json:"type"`
	PrincipalID string          `json:"principal_id"`
	Session     *domain.Session `json:"session,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	Payload     interface{}     `json:"payload,omitempty"`
}

// RefreshedPayload accompanies EventSessionRefreshed.
type RefreshedPayload struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// ProfileResolvedPayload accompanies EventProfileResolved.
type ProfileResolvedPayload struct {
	ProfileID string      `json:"profile_id"`
	Role      domain.Role `json:"role"`
}
