// Package guard gates navigation on auth controller state. Evaluation
// is side-effect-free: the guard only reads snapshots, it never mutates
// controller state.
package guard

import (
	"net/url"

	"github.com/Abhishekkatale/CRM-Musitech/internal/config"
	"github.com/Abhishekkatale/CRM-Musitech/internal/domain"
	"github.com/Abhishekkatale/CRM-Musitech/internal/observability"
	"github.com/Abhishekkatale/CRM-Musitech/internal/service"
)

// DecisionKind classifies an authorization outcome.
type DecisionKind int

const (
	// Pending means auth state is still loading; render a neutral
	// state, never redirect or deny on defaults.
	Pending DecisionKind = iota
	Allow
	Redirect
	Deny
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Kind         DecisionKind
	RedirectPath string
}

func (d Decision) String() string {
	switch d.Kind {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case Deny:
		return "deny"
	}
	return "unknown"
}

// PermissionRequirement names a module/action pair a route needs.
type PermissionRequirement struct {
	Module string
	Action string
}

// Requirement describes what a route demands. Zero value means
// "authenticated only".
type Requirement struct {
	Role       *domain.Role
	Permission *PermissionRequirement
}

// StateSource is the read-only slice of the auth controller the guard
// consumes.
type StateSource interface {
	Snapshot() service.AuthState
	HasPermission(module, action string) bool
}

// Guard performs role and permission based route authorization.
type Guard struct {
	source  StateSource
	cfg     config.GuardConfig
	metrics *observability.Metrics
}

// New builds a guard over the given state source.
func New(source StateSource, cfg config.GuardConfig, metrics *observability.Metrics) *Guard {
	return &Guard{source: source, cfg: cfg, metrics: metrics}
}

// Authorize evaluates the requirement against current auth state.
// requestedPath is preserved on the sign-in redirect so the UI can
// return the user after login.
func (g *Guard) Authorize(requestedPath string, req Requirement) Decision {
	decision := g.evaluate(requestedPath, req)
	g.metrics.RecordGuardDecision(decision.String())
	return decision
}

func (g *Guard) evaluate(requestedPath string, req Requirement) Decision {
	state := g.source.Snapshot()

	if state.Loading {
		return Decision{Kind: Pending}
	}

	if state.Session == nil || state.Profile == nil {
		return Decision{Kind: Redirect, RedirectPath: g.signInRedirect(requestedPath)}
	}

	if req.Role != nil && state.Profile.Role != *req.Role {
		return Decision{Kind: Redirect, RedirectPath: g.cfg.HomePath(string(state.Profile.Role))}
	}

	if req.Permission != nil && !g.source.HasPermission(req.Permission.Module, req.Permission.Action) {
		// Authenticated but under-privileged: deny in place, no redirect.
		return Decision{Kind: Deny}
	}

	return Decision{Kind: Allow}
}

func (g *Guard) signInRedirect(requestedPath string) string {
	if requestedPath == "" || requestedPath == g.cfg.SignInPath {
		return g.cfg.SignInPath
	}
	return g.cfg.SignInPath + "?redirect=" + url.QueryEscape(requestedPath)
}
