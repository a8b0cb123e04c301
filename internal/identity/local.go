package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Abhishekkatale/CRM-Musitech/internal/auth"
	"github.com/Abhishekkatale/CRM-Musitech/internal/config"
	"github.com/Abhishekkatale/CRM-Musitech/internal/domain"
	"github.com/Abhishekkatale/CRM-Musitech/internal/repository"
	apperrors "github.com/Abhishekkatale/CRM-Musitech/pkg/util"
)

// LocalProvider implements Provider against the accounts table, HS256
// access tokens and a rotating refresh token store.
type LocalProvider struct {
	accounts   repository.AccountRepository
	tokens     *auth.TokenManager
	refreshes  RefreshStore
	refreshTTL time.Duration
	logger     *zap.Logger
	events     chan SessionEvent
}

// NewLocalProvider builds the provider.
func NewLocalProvider(cfg config.AuthConfig, accounts repository.AccountRepository, refreshes RefreshStore, logger *zap.Logger) *LocalProvider {
	return &LocalProvider{
		accounts:   accounts,
		tokens:     auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL()),
		refreshes:  refreshes,
		refreshTTL: cfg.RefreshTokenTTL(),
		logger:     logger,
		events:     make(chan SessionEvent, 16),
	}
}

// SignInWithPassword authenticates credentials and issues a session.
func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	account, err := p.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, apperrors.NewTransient("account lookup failed", err)
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, apperrors.NewInvalidCredentials()
	}
	if account.Status != domain.ProfileStatusActive {
		return nil, apperrors.NewUnauthorized("account disabled")
	}

	session, err := p.issueSession(ctx, account)
	if err != nil {
		return nil, err
	}

	if err := p.accounts.TouchLastLogin(ctx, account.ID); err != nil {
		p.logger.Warn("failed to update last login", zap.String("account_id", account.ID), zap.Error(err))
	}
	return session, nil
}

// ValidateSession checks the session's access token.
func (p *LocalProvider) ValidateSession(_ context.Context, session *domain.Session) error {
	if session == nil || session.AccessToken == "" {
		return apperrors.NewUnauthorized("no session")
	}
	claims, err := p.tokens.ParseToken(session.AccessToken)
	if err != nil {
		return apperrors.NewUnauthorized("invalid or expired access token")
	}
	if claims.PrincipalID != session.PrincipalID {
		return apperrors.NewUnauthorized("token principal mismatch")
	}
	return nil
}

// RefreshSession rotates the refresh token and issues a new access token.
func (p *LocalProvider) RefreshSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if session == nil || session.RefreshToken == "" {
		return nil, apperrors.NewUnauthorized("no refresh token")
	}

	accountID, err := p.refreshes.Lookup(ctx, session.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenUnknown) {
			return nil, apperrors.NewUnauthorized("refresh token revoked or expired")
		}
		return nil, apperrors.NewTransient("refresh token lookup failed", err)
	}

	account, err := p.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("account no longer exists")
		}
		return nil, apperrors.NewTransient("account lookup failed", err)
	}
	if account.Status != domain.ProfileStatusActive {
		return nil, apperrors.NewUnauthorized("account disabled")
	}

	// Rotation: the old refresh token dies even if issuing fails below,
	// so a leaked token cannot be replayed.
	if err := p.refreshes.Delete(ctx, session.RefreshToken); err != nil {
		p.logger.Warn("failed to delete rotated refresh token", zap.Error(err))
	}

	refreshed, err := p.issueSession(ctx, account)
	if err != nil {
		return nil, err
	}

	p.emit(SessionEvent{Type: SessionRefreshed, PrincipalID: account.ID, Session: refreshed})
	return refreshed, nil
}

// SignOut revokes the session's refresh token.
func (p *LocalProvider) SignOut(ctx context.Context, session *domain.Session) error {
	if session == nil || session.RefreshToken == "" {
		return nil
	}
	if err := p.refreshes.Delete(ctx, session.RefreshToken); err != nil {
		return apperrors.NewTransient("refresh token revocation failed", err)
	}
	p.emit(SessionEvent{Type: SessionRevoked, PrincipalID: session.PrincipalID})
	return nil
}

// Events returns the session notification channel.
func (p *LocalProvider) Events() <-chan SessionEvent {
	return p.events
}

// Close shuts the event channel down.
func (p *LocalProvider) Close() {
	close(p.events)
}

func (p *LocalProvider) issueSession(ctx context.Context, account *domain.Account) (*domain.Session, error) {
	accessToken, expiresAt, err := p.tokens.GenerateToken(account.ID, account.Email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	refreshToken := uuid.NewString()
	if err := p.refreshes.Put(ctx, refreshToken, account.ID, p.refreshTTL); err != nil {
		return nil, apperrors.NewTransient("refresh token persist failed", err)
	}

	return &domain.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		PrincipalID:  account.ID,
		IssuedAt:     time.Now(),
		ExpiresAt:    expiresAt,
	}, nil
}

func (p *LocalProvider) emit(event SessionEvent) {
	select {
	case p.events <- event:
	default:
		p.logger.Warn("session event dropped, channel full", zap.String("type", string(event.Type)))
	}
}
