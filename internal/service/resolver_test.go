package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Abhishekkatale/CRM-Musitech/internal/config"
	"github.com/Abhishekkatale/CRM-Musitech/internal/domain"
	"github.com/Abhishekkatale/CRM-Musitech/internal/observability"
	apperrors "github.com/Abhishekkatale/CRM-Musitech/pkg/util"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:             "test",
		AccessTokenTTLMinutes: 60,
		ResolveRetryAttempts:  3,
		ResolveRetryBackoffMs: 1,
	}
}

type resolverFixture struct {
	profiles *fakeProfileRepo
	clients  *fakeClientRepo
	subusers *fakeSubuserRepo
	resolver *ProfileResolver
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()
	f := &resolverFixture{
		profiles: newFakeProfileRepo(),
		clients:  newFakeClientRepo(),
		subusers: newFakeSubuserRepo(),
	}
	f.resolver = NewProfileResolver(testAuthConfig(), ResolverDependencies{
		ProfileRepo: f.profiles,
		ClientRepo:  f.clients,
		SubuserRepo: f.subusers,
	}, zap.NewNop(), observability.NewMetrics(nil))
	return f
}

func activeProfile(accountID string, role domain.Role) *domain.Profile {
	return &domain.Profile{
		ID:        "profile-" + accountID,
		AccountID: accountID,
		Email:     accountID + "@example.com",
		Role:      role,
		Status:    domain.ProfileStatusActive,
	}
}

func sessionFor(accountID string) *domain.Session {
	return &domain.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		PrincipalID:  accountID,
		IssuedAt:     time.Now(),
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func TestResolveAdminHasNoTenant(t *testing.T) {
	f := newResolverFixture(t)
	f.profiles.byAccount["acct-1"] = activeProfile("acct-1", domain.RoleAdmin)

	resolved, err := f.resolver.Resolve(context.Background(), sessionFor("acct-1"))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, resolved.Profile.Role)
	assert.Nil(t, resolved.Tenant.Client)
	assert.Nil(t, resolved.Tenant.Subuser)
	assert.True(t, resolved.Tenant.Matches(domain.RoleAdmin))
}

func TestResolveClientFetchesClientRecord(t *testing.T) {
	f := newResolverFixture(t)
	profile := activeProfile("acct-1", domain.RoleClient)
	f.profiles.byAccount["acct-1"] = profile
	f.clients.byProfile[profile.ID] = &domain.ClientRecord{ID: "client-1", ProfileID: profile.ID, CompanyName: "Acme"}

	resolved, err := f.resolver.Resolve(context.Background(), sessionFor("acct-1"))
	require.NoError(t, err)
	require.NotNil(t, resolved.Tenant.Client)
	assert.Equal(t, "client-1", resolved.Tenant.Client.ID)
	assert.True(t, resolved.Tenant.Matches(domain.RoleClient))
}

func TestResolveSubuserFetchesPermissions(t *testing.T) {
	f := newResolverFixture(t)
	profile := activeProfile("acct-1", domain.RoleSubuser)
	f.profiles.byAccount["acct-1"] = profile
	f.subusers.byProfile[profile.ID] = &domain.SubuserRecord{
		ID:          "sub-1",
		ProfileID:   profile.ID,
		ClientID:    "client-1",
		Permissions: domain.PermissionMap{"leads": {"read"}},
	}

	resolved, err := f.resolver.Resolve(context.Background(), sessionFor("acct-1"))
	require.NoError(t, err)
	require.NotNil(t, resolved.Tenant.Subuser)
	assert.True(t, resolved.Tenant.Subuser.Permissions.Allows("leads", "read"))
}

func TestResolveMissingProfileIsNotFound(t *testing.T) {
	f := newResolverFixture(t)

	_, err := f.resolver.Resolve(context.Background(), sessionFor("acct-unknown"))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.True(t, apperrors.IsFatal(err))
}

func TestResolveSuspendedProfileIsUnauthorized(t *testing.T) {
	f := newResolverFixture(t)
	profile := activeProfile("acct-1", domain.RoleClient)
	profile.Status = domain.ProfileStatusSuspended
	f.profiles.byAccount["acct-1"] = profile

	_, err := f.resolver.Resolve(context.Background(), sessionFor("acct-1"))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestResolveExpiredSessionIsUnauthorized(t *testing.T) {
	f := newResolverFixture(t)
	f.profiles.byAccount["acct-1"] = activeProfile("acct-1", domain.RoleAdmin)

	sess := sessionFor("acct-1")
	sess.ExpiresAt = time.Now().Add(-time.Minute)

	_, err := f.resolver.Resolve(context.Background(), sess)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestResolveRetriesTransientFailures(t *testing.T) {
	f := newResolverFixture(t)
	f.profiles.byAccount["acct-1"] = activeProfile("acct-1", domain.RoleAdmin)
	f.profiles.failures = 2

	resolved, err := f.resolver.Resolve(context.Background(), sessionFor("acct-1"))
	require.NoError(t, err, "two transient failures fit inside three attempts")
	assert.NotNil(t, resolved.Profile)
}

func TestResolveGivesUpAfterBoundedRetries(t *testing.T) {
	f := newResolverFixture(t)
	f.profiles.byAccount["acct-1"] = activeProfile("acct-1", domain.RoleAdmin)
	f.profiles.failures = 5

	_, err := f.resolver.Resolve(context.Background(), sessionFor("acct-1"))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindTransient, apperrors.KindOf(err))
	assert.False(t, apperrors.IsFatal(err), "transient must not force sign-out")
}

func TestResolveMissingTenantRecordIsFatal(t *testing.T) {
	f := newResolverFixture(t)
	f.profiles.byAccount["acct-1"] = activeProfile("acct-1", domain.RoleClient)
	// No client row seeded for the profile.

	_, err := f.resolver.Resolve(context.Background(), sessionFor("acct-1"))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestResolveTransientTenantFailureRetried(t *testing.T) {
	f := newResolverFixture(t)
	profile := activeProfile("acct-1", domain.RoleClient)
	f.profiles.byAccount["acct-1"] = profile
	f.clients.byProfile[profile.ID] = &domain.ClientRecord{ID: "client-1", ProfileID: profile.ID}
	f.clients.failures = 1

	resolved, err := f.resolver.Resolve(context.Background(), sessionFor("acct-1"))
	require.NoError(t, err)
	assert.NotNil(t, resolved.Tenant.Client)
}
