package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Abhishekkatale/CRM-Musitech/internal/config"
	"github.com/Abhishekkatale/CRM-Musitech/internal/domain"
	"github.com/Abhishekkatale/CRM-Musitech/internal/events"
	"github.com/Abhishekkatale/CRM-Musitech/internal/repository"
)

// AuditService records actor actions asynchronously. Writes are
// fire-and-forget: a full queue or a failed insert is logged and
// dropped, never surfaced to auth flows.
type AuditService struct {
	repo       repository.AuditRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	queue      chan domain.AuditEntry
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewAuditService creates the service.
func NewAuditService(cfg config.AuditConfig, repo repository.AuditRepository, dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	size := cfg.BufferSize
	if size <= 0 {
		size = 256
	}
	return &AuditService{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
		queue:      make(chan domain.AuditEntry, size),
	}
}

// RegisterHandlers subscribes to session lifecycle events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventSessionSignedIn, a.handleSignedIn)
	a.dispatcher.Subscribe(events.EventSessionSignedOut, a.handleSignedOut)
	a.dispatcher.Subscribe(events.EventSessionRefreshed, a.handleRefreshed)
}

// Start launches the queue drainer.
func (a *AuditService) Start() {
	a.wg.Add(1)
	go a.drain()
}

// Close flushes pending entries and stops the drainer.
func (a *AuditService) Close() {
	a.stopOnce.Do(func() {
		close(a.queue)
	})
	a.wg.Wait()
}

// LogAction enqueues an audit entry without blocking.
func (a *AuditService) LogAction(actionType domain.AuditAction, actorProfileID, targetProfileID, targetClientID *string, details map[string]any) {
	entry := domain.AuditEntry{
		ActionType:      actionType,
		ActorProfileID:  actorProfileID,
		TargetProfileID: targetProfileID,
		TargetClientID:  targetClientID,
		Details:         details,
	}
	select {
	case a.queue <- entry:
	default:
		a.logger.Warn("audit queue full, entry dropped", zap.String("action", string(actionType)))
	}
}

func (a *AuditService) drain() {
	defer a.wg.Done()
	for entry := range a.queue {
		e := entry
		if err := a.repo.Create(context.Background(), &e); err != nil {
			a.logger.Warn("audit write failed",
				zap.String("action", string(e.ActionType)),
				zap.Error(err))
		}
	}
}

func (a *AuditService) handleSignedIn(_ context.Context, event events.Event) error {
	details := map[string]any{"principal_id": event.PrincipalID}
	var actor *string
	if payload, ok := event.Payload.(events.ProfileResolvedPayload); ok {
		actor = &payload.ProfileID
		details["role"] = string(payload.Role)
	}
	a.LogAction(domain.AuditUserLogin, actor, nil, nil, details)
	return nil
}

func (a *AuditService) handleSignedOut(_ context.Context, event events.Event) error {
	details := map[string]any{"principal_id": event.PrincipalID}
	var actor *string
	if payload, ok := event.Payload.(map[string]any); ok {
		if id, ok := payload["profile_id"].(string); ok && id != "" {
			actor = &id
		}
	}
	a.LogAction(domain.AuditUserLogout, actor, nil, nil, details)
	return nil
}

func (a *AuditService) handleRefreshed(_ context.Context, event events.Event) error {
	a.LogAction(domain.AuditSessionRefreshed, nil, nil, nil, map[string]any{"principal_id": event.PrincipalID})
	return nil
}
