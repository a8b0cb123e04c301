package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Abhishekkatale/CRM-Musitech/internal/api/dto"
	"github.com/Abhishekkatale/CRM-Musitech/internal/domain"
	"github.com/Abhishekkatale/CRM-Musitech/internal/repository"
	"github.com/Abhishekkatale/CRM-Musitech/internal/service"
	apperrors "github.com/Abhishekkatale/CRM-Musitech/pkg/util"
)

// ProfileHandler exposes profile administration to admins.
type ProfileHandler struct {
	profiles repository.ProfileRepository
	audit    *service.AuditService
}

// NewProfileHandler constructs handler.
func NewProfileHandler(profiles repository.ProfileRepository, audit *service.AuditService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, audit: audit}
}

// UpdateStatus handles PATCH /admin/profiles/:id/status. A suspended or
// inactive profile fails its next resolve, so the session dies on the
// next refresh rather than immediately.
func (h *ProfileHandler) UpdateStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	status := domain.ProfileStatus(req.Status)
	switch status {
	case domain.ProfileStatusActive, domain.ProfileStatusInactive, domain.ProfileStatusSuspended:
	default:
		return apperrors.NewInvalidInput("unknown status", map[string]any{"status": req.Status})
	}

	if err := h.profiles.UpdateStatus(c.UserContext(), id, status); err != nil {
		return apperrors.MapError(err)
	}

	h.audit.LogAction(domain.AuditStatusChange, nil, &id, nil, map[string]any{"status": string(status)})
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "status": string(status)}})
}
