package identity

import (
	"context"

	"github.com/Abhishekkatale/CRM-Musitech/internal/domain"
)

// SessionEventType classifies asynchronous session-change notifications.
type SessionEventType string

const (
	SessionRefreshed SessionEventType = "refreshed"
	SessionRevoked   SessionEventType = "revoked"
)

// SessionEvent is delivered on the provider's event channel when a
// session changes outside a direct controller call, e.g. a background
// token refresh or a revocation from another process.
type SessionEvent struct {
	Type        SessionEventType
	PrincipalID string
	Session     *domain.Session
}

// Provider abstracts the token-issuing identity backend. Implementations
// must return DomainError kinds: InvalidCredentials for rejected
// credentials, Unauthorized for invalid or revoked sessions, Transient
// for backend failures.
type Provider interface {
	// SignInWithPassword authenticates credentials and issues a session.
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error)
	// ValidateSession checks a restored session's access token. An
	// expired but refreshable session returns Unauthorized; callers
	// then attempt RefreshSession.
	ValidateSession(ctx context.Context, session *domain.Session) error
	// RefreshSession rotates the refresh token and issues a new access
	// token. Failure means the session is unrecoverable.
	RefreshSession(ctx context.Context, session *domain.Session) (*domain.Session, error)
	// SignOut revokes the session's refresh token. Best effort; the
	// caller clears local state regardless.
	SignOut(ctx context.Context, session *domain.Session) error
	// Events returns the channel of asynchronous session notifications.
	// The channel is closed when the provider shuts down.
	Events() <-chan SessionEvent
}
