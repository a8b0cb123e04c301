package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Abhishekkatale/CRM-Musitech/internal/repository"
	apperrors "github.com/Abhishekkatale/CRM-Musitech/pkg/util"
)

// AuditHandler exposes the audit log to administrators.
type AuditHandler struct {
	audits repository.AuditRepository
}

// NewAuditHandler constructs handler.
func NewAuditHandler(audits repository.AuditRepository) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// List handles GET /admin/audit-log.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	entries, err := h.audits.ListRecent(c.UserContext(), limit)
	if err != nil {
		return apperrors.MapError(err)
	}

	items := make([]fiber.Map, 0, len(entries))
	for _, entry := range entries {
		items = append(items, fiber.Map{
			"id":                entry.ID,
			"action_type":       entry.ActionType,
			"actor_profile_id":  entry.ActorProfileID,
			"target_profile_id": entry.TargetProfileID,
			"target_client_id":  entry.TargetClientID,
			"details":           entry.Details,
			"created_at":        entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
