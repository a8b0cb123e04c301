package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Abhishekkatale/CRM-Musitech/internal/api/dto"
	"github.com/Abhishekkatale/CRM-Musitech/internal/service"
)

// AuthHandler exposes the auth controller's operations to the UI layer.
type AuthHandler struct {
	controller *service.AuthController
}

// NewAuthHandler constructs handler.
func NewAuthHandler(controller *service.AuthController) *AuthHandler {
	return &AuthHandler{controller: controller}
}

// SignIn handles POST /auth/login.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.controller.SignIn(c.UserContext(), req.Email, req.Password); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.stateResponse()})
}

// SignOut handles POST /auth/logout. Always succeeds.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	h.controller.SignOut(c.UserContext())
	return c.JSON(fiber.Map{"data": h.stateResponse()})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	if err := h.controller.RefreshSession(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.stateResponse()})
}

// Session handles GET /auth/session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.stateResponse()})
}

// CheckPermission handles GET /auth/permissions?module=...&action=...
func (h *AuthHandler) CheckPermission(c *fiber.Ctx) error {
	module := c.Query("module")
	action := c.Query("action")
	if module == "" || action == "" {
		return fiber.NewError(http.StatusBadRequest, "module and action required")
	}
	return c.JSON(fiber.Map{"data": dto.PermissionCheckResponse{
		Module:  module,
		Action:  action,
		Allowed: h.controller.HasPermission(module, action),
	}})
}

func (h *AuthHandler) stateResponse() dto.SessionStateResponse {
	state := h.controller.Snapshot()

	resp := dto.SessionStateResponse{
		SignedIn: state.SignedIn(),
		Loading:  state.Loading,
	}
	if state.Session != nil {
		expires := state.Session.ExpiresAt
		resp.ExpiresAt = &expires
	}
	if state.Err != nil {
		resp.Error = state.Err.Error()
	}
	if state.Profile != nil {
		resp.Profile = &dto.ProfileResponse{
			ID:        state.Profile.ID,
			Email:     state.Profile.Email,
			FullName:  state.Profile.FullName,
			Role:      string(state.Profile.Role),
			Status:    string(state.Profile.Status),
			LastLogin: state.Profile.LastLoginAt,
		}
		tenant := dto.TenantResponse{}
		if state.Tenant.Client != nil {
			tenant.Client = &dto.ClientResponse{
				ID:          state.Tenant.Client.ID,
				CompanyName: state.Tenant.Client.CompanyName,
			}
		}
		if state.Tenant.Subuser != nil {
			tenant.Subuser = &dto.SubuserResponse{
				ID:          state.Tenant.Subuser.ID,
				ClientID:    state.Tenant.Subuser.ClientID,
				RoleName:    state.Tenant.Subuser.RoleName,
				Permissions: state.Tenant.Subuser.Permissions,
			}
		}
		if tenant.Client != nil || tenant.Subuser != nil {
			resp.Tenant = &tenant
		}
	}
	return resp
}
