package guard

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Abhishekkatale/CRM-Musitech/internal/domain"
)

// Require returns a Fiber handler enforcing the requirement on a route
// group. Redirect decisions become 302s, denials 403s, and pending
// state a 503 so clients retry once auth state settles.
func (g *Guard) Require(req Requirement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision := g.Authorize(c.OriginalURL(), req)
		switch decision.Kind {
		case Allow:
			return c.Next()
		case Pending:
			c.Set("Retry-After", "1")
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "AUTH_PENDING",
					"message": "authorization state is still loading",
				},
			})
		case Redirect:
			return c.Redirect(decision.RedirectPath, http.StatusFound)
		default:
			return c.Status(http.StatusForbidden).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "PERMISSION_DENIED",
					"message": "you don't have permission to access this resource",
				},
			})
		}
	}
}

// RequireRole is shorthand for a role-only requirement.
func (g *Guard) RequireRole(role domain.Role) fiber.Handler {
	return g.Require(Requirement{Role: &role})
}

// RequirePermission is shorthand for a permission-only requirement.
func (g *Guard) RequirePermission(module, action string) fiber.Handler {
	return g.Require(Requirement{Permission: &PermissionRequirement{Module: module, Action: action}})
}
