package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Abhishekkatale/CRM-Musitech/internal/config"
	"github.com/Abhishekkatale/CRM-Musitech/internal/domain"
	"github.com/Abhishekkatale/CRM-Musitech/internal/observability"
	"github.com/Abhishekkatale/CRM-Musitech/internal/repository"
	apperrors "github.com/Abhishekkatale/CRM-Musitech/pkg/util"
)

// ResolvedProfile bundles the profile and its role-conditional tenant
// record. The two are fetched in one resolve so subscribers never see a
// settled state where they disagree.
type ResolvedProfile struct {
	Profile *domain.Profile
	Tenant  domain.Tenant
}

// ProfileResolver maps a session to its durable profile and tenant.
//
// Error kinds returned: NotFound when the authenticated principal has
// no profile (a configuration inconsistency, fatal for the session),
// Unauthorized when the session or profile is no longer usable, and
// Transient for backend failures, which are retried a bounded number of
// times before being surfaced.
type ProfileResolver struct {
	profiles repository.ProfileRepository
	clients  repository.ClientRepository
	subusers repository.SubuserRepository
	attempts int
	backoff  time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// ResolverDependencies encapsulates repo requirements for the resolver.
type ResolverDependencies struct {
	ProfileRepo repository.ProfileRepository
	ClientRepo  repository.ClientRepository
	SubuserRepo repository.SubuserRepository
}

// NewProfileResolver builds the resolver.
func NewProfileResolver(cfg config.AuthConfig, deps ResolverDependencies, logger *zap.Logger, metrics *observability.Metrics) *ProfileResolver {
	attempts := cfg.ResolveRetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &ProfileResolver{
		profiles: deps.ProfileRepo,
		clients:  deps.ClientRepo,
		subusers: deps.SubuserRepo,
		attempts: attempts,
		backoff:  cfg.ResolveRetryBackoff(),
		logger:   logger,
		metrics:  metrics,
	}
}

// Resolve fetches the profile and tenant for the session's principal.
func (r *ProfileResolver) Resolve(ctx context.Context, sess *domain.Session) (*ResolvedProfile, error) {
	if sess == nil {
		return nil, apperrors.NewUnauthorized("no session")
	}

	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		resolved, err := r.resolveOnce(ctx, sess)
		if err == nil {
			r.metrics.RecordResolve("ok")
			return resolved, nil
		}
		if !apperrors.IsTransient(err) {
			r.metrics.RecordResolve(string(apperrors.KindOf(err)))
			return nil, err
		}

		lastErr = err
		r.logger.Warn("transient profile resolve failure",
			zap.String("principal_id", sess.PrincipalID),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < r.attempts && r.backoff > 0 {
			select {
			case <-ctx.Done():
				r.metrics.RecordResolve(string(apperrors.KindTransient))
				return nil, apperrors.NewTransient("resolve cancelled", ctx.Err())
			case <-time.After(r.backoff):
			}
		}
	}

	r.metrics.RecordResolve(string(apperrors.KindTransient))
	return nil, lastErr
}

func (r *ProfileResolver) resolveOnce(ctx context.Context, sess *domain.Session) (*ResolvedProfile, error) {
	if sess.Expired(time.Now()) {
		return nil, apperrors.NewUnauthorized("session expired")
	}

	profile, err := r.profiles.GetByAccountID(ctx, sess.PrincipalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("profile", map[string]any{"principal_id": sess.PrincipalID})
		}
		return nil, apperrors.NewTransient("profile fetch failed", err)
	}

	if profile.Status != domain.ProfileStatusActive {
		return nil, apperrors.NewUnauthorized("profile is " + string(profile.Status))
	}
	if !profile.Role.Valid() {
		return nil, apperrors.NewUnauthorized("unrecognized role " + string(profile.Role))
	}

	tenant, err := r.fetchTenant(ctx, profile)
	if err != nil {
		return nil, err
	}
	return &ResolvedProfile{Profile: profile, Tenant: tenant}, nil
}

func (r *ProfileResolver) fetchTenant(ctx context.Context, profile *domain.Profile) (domain.Tenant, error) {
	switch profile.Role {
	case domain.RoleClient:
		client, err := r.clients.GetByProfileID(ctx, profile.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.Tenant{}, apperrors.NewNotFound("client record", map[string]any{"profile_id": profile.ID})
			}
			return domain.Tenant{}, apperrors.NewTransient("client fetch failed", err)
		}
		return domain.Tenant{Client: client}, nil
	case domain.RoleSubuser:
		subuser, err := r.subusers.GetByProfileID(ctx, profile.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.Tenant{}, apperrors.NewNotFound("subuser record", map[string]any{"profile_id": profile.ID})
			}
			return domain.Tenant{}, apperrors.NewTransient("subuser fetch failed", err)
		}
		return domain.Tenant{Subuser: subuser}, nil
	}
	// Admins carry no tenant record.
	return domain.Tenant{}, nil
}
