package domain

import "time"

// AuditAction identifies the kind of action recorded in the audit log.
type AuditAction string

const (
	AuditUserLogin        AuditAction = "user_login"
	AuditUserLogout       AuditAction = "user_logout"
	AuditSessionRefreshed AuditAction = "session_refreshed"
	AuditStatusChange     AuditAction = "status_change"
)

// AuditEntry records a single actor action. Writes are fire-and-forget;
// a failed write must never surface as an auth error.
type AuditEntry struct {
	ID              string
	ActionType      AuditAction
	ActorProfileID  *string
	TargetProfileID *string
	TargetClientID  *string
	Details         map[string]any
	CreatedAt       time.Time
}
