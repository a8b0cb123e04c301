package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Abhishekkatale/CRM-Musitech/internal/domain"
	"github.com/Abhishekkatale/CRM-Musitech/internal/identity"
	"github.com/Abhishekkatale/CRM-Musitech/internal/session"
	apperrors "github.com/Abhishekkatale/CRM-Musitech/pkg/util"
)

var errBackendDown = errors.New("connection refused")

// fakeProfileRepo serves profiles keyed by account ID. It can fail a
// configured number of times before succeeding, and optionally block
// until released so tests can interleave operations mid-resolve.
type fakeProfileRepo struct {
	mu        sync.Mutex
	byAccount map[string]*domain.Profile
	failures  int
	block     chan struct{}
	started   chan struct{}
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{byAccount: make(map[string]*domain.Profile)}
}

func (r *fakeProfileRepo) Create(_ context.Context, _ *domain.Profile) error { return nil }

func (r *fakeProfileRepo) GetByAccountID(_ context.Context, accountID string) (*domain.Profile, error) {
	r.mu.Lock()
	block := r.block
	started := r.started
	if r.failures > 0 {
		r.failures--
		r.mu.Unlock()
		return nil, errBackendDown
	}
	r.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if block != nil {
		<-block
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.byAccount[accountID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *profile
	return &copied, nil
}

func (r *fakeProfileRepo) GetByID(_ context.Context, _ string) (*domain.Profile, error) {
	return nil, pgx.ErrNoRows
}

func (r *fakeProfileRepo) UpdateStatus(_ context.Context, _ string, _ domain.ProfileStatus) error {
	return nil
}

func (r *fakeProfileRepo) TouchLastLogin(_ context.Context, _ string) error { return nil }

type fakeClientRepo struct {
	mu        sync.Mutex
	byProfile map[string]*domain.ClientRecord
	failures  int
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{byProfile: make(map[string]*domain.ClientRecord)}
}

func (r *fakeClientRepo) Create(_ context.Context, _ *domain.ClientRecord) error { return nil }

func (r *fakeClientRepo) GetByProfileID(_ context.Context, profileID string) (*domain.ClientRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return nil, errBackendDown
	}
	client, ok := r.byProfile[profileID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *client
	return &copied, nil
}

type fakeSubuserRepo struct {
	mu        sync.Mutex
	byProfile map[string]*domain.SubuserRecord
}

func newFakeSubuserRepo() *fakeSubuserRepo {
	return &fakeSubuserRepo{byProfile: make(map[string]*domain.SubuserRecord)}
}

func (r *fakeSubuserRepo) Create(_ context.Context, _ *domain.SubuserRecord) error { return nil }

func (r *fakeSubuserRepo) GetByProfileID(_ context.Context, profileID string) (*domain.SubuserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subuser, ok := r.byProfile[profileID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *subuser
	return &copied, nil
}

// fakeProvider implements identity.Provider with canned outcomes.
type fakeProvider struct {
	mu           sync.Mutex
	accounts     map[string]string // email -> password
	principals   map[string]string // email -> account id
	signInErr    error
	refreshErr   error
	signOutErr   error
	signOutCalls int
	revoked      []string
	events       chan identity.SessionEvent
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		accounts:   make(map[string]string),
		principals: make(map[string]string),
		events:     make(chan identity.SessionEvent, 8),
	}
}

func (p *fakeProvider) addAccount(email, password, accountID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[email] = password
	p.principals[email] = accountID
}

func (p *fakeProvider) sessionFor(accountID string) *domain.Session {
	return &domain.Session{
		AccessToken:  "access-" + accountID,
		RefreshToken: "refresh-" + accountID,
		PrincipalID:  accountID,
		IssuedAt:     time.Now(),
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func (p *fakeProvider) SignInWithPassword(_ context.Context, email, password string) (*domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	stored, ok := p.accounts[email]
	if !ok || stored != password {
		return nil, apperrors.NewInvalidCredentials()
	}
	return p.sessionFor(p.principals[email]), nil
}

func (p *fakeProvider) ValidateSession(_ context.Context, sess *domain.Session) error {
	if sess == nil || sess.Expired(time.Now()) {
		return apperrors.NewUnauthorized("expired")
	}
	return nil
}

func (p *fakeProvider) RefreshSession(_ context.Context, sess *domain.Session) (*domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	refreshed := p.sessionFor(sess.PrincipalID)
	refreshed.RefreshToken = sess.RefreshToken + "-rotated"
	return refreshed, nil
}

func (p *fakeProvider) SignOut(_ context.Context, sess *domain.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOutCalls++
	if p.signOutErr != nil {
		return p.signOutErr
	}
	if sess != nil {
		p.revoked = append(p.revoked, sess.RefreshToken)
	}
	return nil
}

func (p *fakeProvider) Events() <-chan identity.SessionEvent {
	return p.events
}

func (p *fakeProvider) signOuts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signOutCalls
}

// gatedStore wraps a session store so tests can stall Persist at a
// chosen moment and observe what interleaving operations leave behind.
type gatedStore struct {
	session.Store
	mu             sync.Mutex
	blockPersist   chan struct{}
	persistStarted chan struct{}
}

// gate arms the store: the next Persist signals started and then waits
// for release.
func (s *gatedStore) gate() (started <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockPersist = make(chan struct{})
	s.persistStarted = make(chan struct{}, 1)
	block := s.blockPersist
	return s.persistStarted, func() { close(block) }
}

func (s *gatedStore) Persist(ctx context.Context, sess *domain.Session) error {
	s.mu.Lock()
	started := s.persistStarted
	block := s.blockPersist
	s.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if block != nil {
		<-block
	}
	return s.Store.Persist(ctx, sess)
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) ListRecent(_ context.Context, _ int) ([]domain.AuditEntry, error) {
	return r.recorded(), nil
}

func (r *fakeAuditRepo) recorded() []domain.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEntry(nil), r.entries...)
}
