package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Abhishekkatale/CRM-Musitech/internal/auth"
	"github.com/Abhishekkatale/CRM-Musitech/internal/config"
	"github.com/Abhishekkatale/CRM-Musitech/internal/domain"
	"github.com/Abhishekkatale/CRM-Musitech/internal/events"
	"github.com/Abhishekkatale/CRM-Musitech/internal/identity"
	"github.com/Abhishekkatale/CRM-Musitech/internal/observability"
	"github.com/Abhishekkatale/CRM-Musitech/internal/session"
	apperrors "github.com/Abhishekkatale/CRM-Musitech/pkg/util"
)

// AuthState is the controller's observable state. Snapshots are values;
// readers never share mutable structure with the controller.
type AuthState struct {
	Session *domain.Session
	Profile *domain.Profile
	Tenant  domain.Tenant
	Loading bool
	Err     error
}

// SignedIn reports whether a session is established.
func (s AuthState) SignedIn() bool {
	return s.Session != nil
}

// Ready reports whether the profile has settled for the current session.
func (s AuthState) Ready() bool {
	return s.Session != nil && s.Profile != nil && !s.Loading
}

// AuthController owns the session lifecycle: sign-in, sign-out, refresh
// and profile resolution. It is the single writer of AuthState; the UI
// layer and the route guard read snapshots or subscribe for changes.
//
// Stale-result discipline: every async operation captures the epoch at
// start and applies its result only if the epoch is unchanged and the
// session still belongs to the same principal. SignOut and SignIn bump
// the epoch, so anything in flight across them is discarded.
type AuthController struct {
	provider   identity.Provider
	store      session.Store
	resolver   *ProfileResolver
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger

	refreshLead time.Duration

	mu           sync.Mutex
	state        AuthState
	epoch        uint64
	resolving    bool
	refreshTimer *time.Timer
	subscribers  map[int]chan AuthState
	nextSubID    int

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// ControllerDependencies bundles collaborators for the controller.
type ControllerDependencies struct {
	Provider   identity.Provider
	Store      session.Store
	Resolver   *ProfileResolver
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewAuthController builds the controller. Call Start to restore any
// persisted session and begin listening for provider events, and Close
// on shutdown.
func NewAuthController(cfg config.AuthConfig, deps ControllerDependencies) *AuthController {
	return &AuthController{
		provider:    deps.Provider,
		store:       deps.Store,
		resolver:    deps.Resolver,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		refreshLead: cfg.RefreshLeadTime(),
		state:       AuthState{Loading: true},
		subscribers: make(map[int]chan AuthState),
		done:        make(chan struct{}),
	}
}

// Start restores a persisted session, resolves its profile and starts
// the provider event loop. Loading stays true until restoration settles.
func (c *AuthController) Start(ctx context.Context) error {
	c.mu.Lock()
	epoch := c.epoch
	c.state.Loading = true
	c.mu.Unlock()
	c.notify()

	c.wg.Add(1)
	go c.eventLoop()

	sess, err := c.store.Restore(ctx)
	if err != nil {
		c.logger.Warn("session restore failed", zap.Error(err))
		sess = nil
	}
	if sess == nil {
		c.settleSignedOut(epoch)
		return nil
	}

	if err := c.provider.ValidateSession(ctx, sess); err != nil {
		refreshed, rerr := c.provider.RefreshSession(ctx, sess)
		if rerr != nil {
			if !apperrors.IsTransient(rerr) {
				if cerr := c.store.Clear(ctx); cerr != nil {
					c.logger.Warn("failed to clear persisted session", zap.Error(cerr))
				}
			}
			c.logger.Info("restored session not usable", zap.Error(rerr))
			c.settleSignedOut(epoch)
			return nil
		}
		sess = refreshed
		c.persistIfCurrent(ctx, epoch, sess)
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return nil
	}
	c.state.Session = sess
	c.state.Loading = true
	c.resolving = true
	c.mu.Unlock()
	c.notify()

	resolved, rerr := c.resolver.Resolve(ctx, sess)
	c.applyResolve(ctx, epoch, sess, resolved, rerr)
	// A fatal resolve bumped the epoch, so this arms nothing.
	c.scheduleRefresh(epoch, sess)
	return nil
}

// Close stops the event loop and releases subscribers.
func (c *AuthController) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	c.wg.Wait()

	c.mu.Lock()
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
	for id, ch := range c.subscribers {
		close(ch)
		delete(c.subscribers, id)
	}
	c.mu.Unlock()
}

// SignIn authenticates credentials, establishes the session and
// resolves the profile. All-or-nothing: a fatal resolve failure tears
// the new session down again and the call errors.
func (c *AuthController) SignIn(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return apperrors.NewInvalidInput("email and password required", nil)
	}

	sess, err := c.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		c.metrics.RecordSignIn("rejected")
		return apperrors.MapError(err)
	}

	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.stopRefreshTimerLocked()
	c.state = AuthState{Session: sess, Loading: true}
	c.resolving = true
	c.mu.Unlock()
	c.notify()

	c.persistIfCurrent(ctx, epoch, sess)

	resolved, rerr := c.resolver.Resolve(ctx, sess)

	c.mu.Lock()
	c.resolving = false
	if c.epoch != epoch {
		// Signed out while the resolve was in flight; the result is
		// discarded and the caller observes the sign-out.
		c.mu.Unlock()
		return nil
	}

	if rerr != nil && apperrors.IsFatal(rerr) {
		c.epoch++
		c.state = AuthState{}
		c.mu.Unlock()
		c.notify()
		if cerr := c.store.Clear(ctx); cerr != nil {
			c.logger.Warn("failed to clear persisted session", zap.Error(cerr))
		}
		if serr := c.provider.SignOut(ctx, sess); serr != nil {
			c.logger.Warn("failed to revoke torn-down session", zap.Error(serr))
		}
		c.metrics.RecordSignIn("profile_unavailable")
		c.logger.Error("sign-in rolled back, profile unavailable",
			zap.String("principal_id", sess.PrincipalID),
			zap.String("kind", string(apperrors.KindOf(rerr))),
			zap.Error(rerr))
		return apperrors.NewProfileUnavailable(rerr)
	}

	if rerr != nil {
		// Transient: the session is valid, the profile is pending. The
		// scheduled refresh re-enters the resolve path, so the profile
		// is retried without user action.
		c.state.Loading = false
		c.state.Err = rerr
		c.mu.Unlock()
		c.notify()
		c.scheduleRefresh(epoch, sess)
		c.metrics.RecordSignIn("profile_pending")
		return nil
	}

	c.state.Profile = resolved.Profile
	c.state.Tenant = resolved.Tenant
	c.state.Loading = false
	c.state.Err = nil
	profileID := resolved.Profile.ID
	role := resolved.Profile.Role
	c.mu.Unlock()
	c.notify()

	c.scheduleRefresh(epoch, sess)
	c.metrics.RecordSignIn("ok")
	c.publish(ctx, events.Event{
		Type:        events.EventSessionSignedIn,
		PrincipalID: sess.PrincipalID,
		Payload:     events.ProfileResolvedPayload{ProfileID: profileID, Role: role},
	})
	return nil
}

// SignOut clears the session locally and best-effort revokes it at the
// provider. Never errors: local state always ends up cleared.
func (c *AuthController) SignOut(ctx context.Context) {
	c.mu.Lock()
	sess := c.state.Session
	var profileID string
	if c.state.Profile != nil {
		profileID = c.state.Profile.ID
	}
	c.epoch++
	c.stopRefreshTimerLocked()
	c.state = AuthState{}
	c.mu.Unlock()
	c.notify()

	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear persisted session", zap.Error(err))
	}
	if sess == nil {
		return
	}
	if err := c.provider.SignOut(ctx, sess); err != nil {
		c.logger.Warn("remote sign-out failed, local state cleared anyway", zap.Error(err))
	}
	c.publish(ctx, events.Event{
		Type:        events.EventSessionSignedOut,
		PrincipalID: sess.PrincipalID,
		Payload:     map[string]any{"profile_id": profileID},
	})
}

// RefreshSession re-derives the session from the provider and re-runs
// profile resolution. A fatal provider failure is equivalent to a
// forced sign-out; a transient one leaves the session untouched.
func (c *AuthController) RefreshSession(ctx context.Context) error {
	c.mu.Lock()
	sess := c.state.Session
	epoch := c.epoch
	c.mu.Unlock()
	if sess == nil {
		return apperrors.NewUnauthorized("not signed in")
	}

	refreshed, err := c.provider.RefreshSession(ctx, sess)
	if err != nil {
		if apperrors.IsTransient(err) {
			c.metrics.RecordRefresh("transient")
			return err
		}
		c.metrics.RecordRefresh("unrecoverable")
		c.logger.Info("session unrecoverable, forcing sign-out", zap.Error(err))
		c.forceSignOutIfCurrent(ctx, epoch)
		return err
	}
	c.metrics.RecordRefresh("ok")

	c.mu.Lock()
	if c.epoch != epoch || c.state.Session == nil || c.state.Session.PrincipalID != refreshed.PrincipalID {
		c.mu.Unlock()
		return nil
	}
	c.state.Session = refreshed
	startResolve := !c.resolving
	if startResolve {
		c.resolving = true
		if c.state.Profile == nil {
			c.state.Loading = true
		}
	}
	c.mu.Unlock()
	c.notify()

	c.persistIfCurrent(ctx, epoch, refreshed)
	c.scheduleRefresh(epoch, refreshed)
	c.publish(ctx, events.Event{
		Type:        events.EventSessionRefreshed,
		PrincipalID: refreshed.PrincipalID,
		Payload:     events.RefreshedPayload{ExpiresAt: refreshed.ExpiresAt},
	})

	if startResolve {
		resolved, rerr := c.resolver.Resolve(ctx, refreshed)
		c.applyResolve(ctx, epoch, refreshed, resolved, rerr)
	}
	return nil
}

// HasPermission evaluates the permission against current state,
// fail-closed: false while loading or before the profile has resolved.
func (c *AuthController) HasPermission(module, action string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Loading || c.state.Profile == nil {
		return false
	}
	if !c.state.Tenant.Matches(c.state.Profile.Role) {
		return false
	}
	var perms domain.PermissionMap
	if c.state.Tenant.Subuser != nil {
		perms = c.state.Tenant.Subuser.Permissions
	}
	return auth.HasPermission(c.state.Profile.Role, perms, module, action)
}

// IsAdmin reports whether the settled profile has the admin role.
func (c *AuthController) IsAdmin() bool { return c.roleIs(domain.RoleAdmin) }

// IsClient reports whether the settled profile has the client role.
func (c *AuthController) IsClient() bool { return c.roleIs(domain.RoleClient) }

// IsSubuser reports whether the settled profile has the subuser role.
func (c *AuthController) IsSubuser() bool { return c.roleIs(domain.RoleSubuser) }

func (c *AuthController) roleIs(role domain.Role) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Profile != nil && c.state.Profile.Role == role
}

// Snapshot returns a copy of current state.
func (c *AuthController) Snapshot() AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers a state change listener. Slow subscribers miss
// intermediate snapshots rather than blocking the controller. The
// returned cancel func releases the subscription.
func (c *AuthController) Subscribe() (<-chan AuthState, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	ch := make(chan AuthState, 1)
	c.subscribers[id] = ch
	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subscribers[id]; ok {
			close(sub)
			delete(c.subscribers, id)
		}
	}
}

// notify delivers the current snapshot to every subscriber. Sends are
// non-blocking and happen under the controller lock, so a concurrent
// cancel or Close can never close a channel mid-send; slow subscribers
// lose intermediate snapshots, never the latest one.
func (c *AuthController) notify() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subscribers {
		select {
		case ch <- c.state:
		default:
			// Drop the stale snapshot so the latest one can land.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- c.state:
			default:
			}
		}
	}
}

// applyResolve applies a resolve result from the refresh/startup/event
// path, honoring the epoch barrier. Fatal errors force sign-out;
// transient ones keep the session with the error surfaced.
func (c *AuthController) applyResolve(ctx context.Context, epoch uint64, sess *domain.Session, resolved *ResolvedProfile, rerr error) {
	c.mu.Lock()
	c.resolving = false
	if c.epoch != epoch || c.state.Session == nil || c.state.Session.PrincipalID != sess.PrincipalID {
		c.mu.Unlock()
		return
	}

	if rerr != nil {
		if apperrors.IsFatal(rerr) {
			c.epoch++
			c.stopRefreshTimerLocked()
			c.state = AuthState{}
			c.mu.Unlock()
			c.notify()
			if cerr := c.store.Clear(ctx); cerr != nil {
				c.logger.Warn("failed to clear persisted session", zap.Error(cerr))
			}
			c.logger.Error("profile resolve fatal, session torn down",
				zap.String("principal_id", sess.PrincipalID),
				zap.String("kind", string(apperrors.KindOf(rerr))),
				zap.Error(rerr))
			return
		}
		c.state.Loading = false
		c.state.Err = rerr
		c.mu.Unlock()
		c.notify()
		return
	}

	c.state.Profile = resolved.Profile
	c.state.Tenant = resolved.Tenant
	c.state.Loading = false
	c.state.Err = nil
	profileID := resolved.Profile.ID
	role := resolved.Profile.Role
	c.mu.Unlock()
	c.notify()
	c.publish(ctx, events.Event{
		Type:        events.EventProfileResolved,
		PrincipalID: sess.PrincipalID,
		Payload:     events.ProfileResolvedPayload{ProfileID: profileID, Role: role},
	})
}

// persistIfCurrent writes the session to the store and then re-checks
// the epoch: a sign-out that interleaved with the write has already
// cleared the store, so the stale write must be undone rather than
// resurrected as a signed-in session on the next startup.
func (c *AuthController) persistIfCurrent(ctx context.Context, epoch uint64, sess *domain.Session) {
	if err := c.store.Persist(ctx, sess); err != nil {
		c.logger.Warn("failed to persist session", zap.Error(err))
		return
	}
	c.mu.Lock()
	stale := c.epoch != epoch
	c.mu.Unlock()
	if stale {
		if err := c.store.Clear(ctx); err != nil {
			c.logger.Warn("failed to clear stale persisted session", zap.Error(err))
		}
	}
}

func (c *AuthController) settleSignedOut(epoch uint64) {
	c.mu.Lock()
	if c.epoch == epoch {
		c.state = AuthState{}
	}
	c.mu.Unlock()
	c.notify()
}

func (c *AuthController) forceSignOutIfCurrent(ctx context.Context, epoch uint64) {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	sess := c.state.Session
	c.epoch++
	c.stopRefreshTimerLocked()
	c.state = AuthState{}
	c.mu.Unlock()
	c.notify()
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear persisted session", zap.Error(err))
	}
	if sess != nil {
		c.publish(ctx, events.Event{
			Type:        events.EventSessionRevoked,
			PrincipalID: sess.PrincipalID,
		})
	}
}

// scheduleRefresh arms a timer to refresh the session shortly before
// the access token expires. The epoch guards against arming a timer for
// a session that a concurrent sign-out or teardown already discarded.
func (c *AuthController) scheduleRefresh(epoch uint64, sess *domain.Session) {
	delay := time.Until(sess.ExpiresAt) - c.refreshLead
	if delay <= 0 {
		delay = time.Second
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	c.stopRefreshTimerLocked()
	c.refreshTimer = time.AfterFunc(delay, func() {
		select {
		case <-c.done:
			return
		default:
		}
		if err := c.RefreshSession(context.Background()); err != nil {
			c.logger.Warn("scheduled session refresh failed", zap.Error(err))
		}
	})
	c.mu.Unlock()
}

func (c *AuthController) stopRefreshTimerLocked() {
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
}

// eventLoop consumes provider session notifications for the process
// lifetime. Each message re-enters the same resolve path as SignIn,
// subject to the epoch barrier.
func (c *AuthController) eventLoop() {
	defer c.wg.Done()
	evs := c.provider.Events()
	for {
		select {
		case <-c.done:
			return
		case ev, ok := <-evs:
			if !ok {
				return
			}
			c.handleProviderEvent(ev)
		}
	}
}

func (c *AuthController) handleProviderEvent(ev identity.SessionEvent) {
	ctx := context.Background()

	switch ev.Type {
	case identity.SessionRevoked:
		c.mu.Lock()
		current := c.state.Session
		epoch := c.epoch
		c.mu.Unlock()
		if current == nil || current.PrincipalID != ev.PrincipalID {
			return
		}
		c.logger.Info("session revoked externally", zap.String("principal_id", ev.PrincipalID))
		c.forceSignOutIfCurrent(ctx, epoch)

	case identity.SessionRefreshed:
		if ev.Session == nil {
			return
		}
		c.mu.Lock()
		if c.state.Session == nil || c.state.Session.PrincipalID != ev.PrincipalID {
			c.mu.Unlock()
			return
		}
		epoch := c.epoch
		c.state.Session = ev.Session
		startResolve := !c.resolving
		if startResolve {
			c.resolving = true
			if c.state.Profile == nil {
				c.state.Loading = true
			}
		}
		sess := ev.Session
		c.mu.Unlock()
		c.notify()

		c.persistIfCurrent(ctx, epoch, sess)
		c.publish(ctx, events.Event{
			Type:        events.EventSessionRefreshed,
			PrincipalID: ev.PrincipalID,
			Payload:     events.RefreshedPayload{ExpiresAt: sess.ExpiresAt},
		})
		if !startResolve {
			// A resolve for this principal is already in flight; this
			// trigger joins its outcome rather than racing it.
			return
		}
		resolved, rerr := c.resolver.Resolve(ctx, sess)
		c.applyResolve(ctx, epoch, sess, resolved, rerr)
	}
}

func (c *AuthController) publish(ctx context.Context, event events.Event) {
	if c.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	if err := c.dispatcher.Publish(ctx, event); err != nil {
		c.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
