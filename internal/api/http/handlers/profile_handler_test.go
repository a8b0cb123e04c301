package handlers_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/Abhishekkatale/CRM-Musitech/internal/api/http"
	"github.com/Abhishekkatale/CRM-Musitech/internal/api/http/handlers"
	"github.com/Abhishekkatale/CRM-Musitech/internal/config"
	"github.com/Abhishekkatale/CRM-Musitech/internal/domain"
	"github.com/Abhishekkatale/CRM-Musitech/internal/observability"
	"github.com/Abhishekkatale/CRM-Musitech/internal/service"
)

type fakeProfiles struct {
	mu       sync.Mutex
	statuses map[string]domain.ProfileStatus
}

func (r *fakeProfiles) Create(_ context.Context, _ *domain.Profile) error { return nil }

func (r *fakeProfiles) GetByAccountID(_ context.Context, _ string) (*domain.Profile, error) {
	return nil, pgx.ErrNoRows
}

func (r *fakeProfiles) GetByID(_ context.Context, _ string) (*domain.Profile, error) {
	return nil, pgx.ErrNoRows
}

func (r *fakeProfiles) UpdateStatus(_ context.Context, id string, status domain.ProfileStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.statuses[id]; !ok {
		return pgx.ErrNoRows
	}
	r.statuses[id] = status
	return nil
}

func (r *fakeProfiles) TouchLastLogin(_ context.Context, _ string) error { return nil }

type fakeAudits struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (r *fakeAudits) Create(_ context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAudits) ListRecent(_ context.Context, _ int) ([]domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEntry(nil), r.entries...), nil
}

func newStatusApp(t *testing.T) (*fiber.App, *fakeProfiles, *fakeAudits, *service.AuditService) {
	t.Helper()
	profiles := &fakeProfiles{statuses: map[string]domain.ProfileStatus{
		"profile-1": domain.ProfileStatusActive,
	}}
	audits := &fakeAudits{}
	auditSvc := service.NewAuditService(config.AuditConfig{BufferSize: 8}, audits, nil, zap.NewNop())
	auditSvc.Start()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(nil), 0)
	handler := handlers.NewProfileHandler(profiles, auditSvc)
	app.Patch("/admin/profiles/:id/status", handler.UpdateStatus)
	return app, profiles, audits, auditSvc
}

func TestUpdateStatusSuspendsProfileAndAudits(t *testing.T) {
	app, profiles, audits, auditSvc := newStatusApp(t)

	req := httptest.NewRequest("PATCH", "/admin/profiles/profile-1/status",
		strings.NewReader(`{"status":"suspended"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.ProfileStatusSuspended, profiles.statuses["profile-1"])

	auditSvc.Close()
	entries, err := audits.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditStatusChange, entries[0].ActionType)
	require.NotNil(t, entries[0].TargetProfileID)
	assert.Equal(t, "profile-1", *entries[0].TargetProfileID)
}

func TestUpdateStatusUnknownProfileNotFound(t *testing.T) {
	app, _, _, auditSvc := newStatusApp(t)
	defer auditSvc.Close()

	req := httptest.NewRequest("PATCH", "/admin/profiles/missing/status",
		strings.NewReader(`{"status":"inactive"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	app, profiles, _, auditSvc := newStatusApp(t)
	defer auditSvc.Close()

	req := httptest.NewRequest("PATCH", "/admin/profiles/profile-1/status",
		strings.NewReader(`{"status":"banished"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, domain.ProfileStatusActive, profiles.statuses["profile-1"], "status unchanged on rejection")
}
