package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Abhishekkatale/CRM-Musitech/internal/api/http/handlers"
	"github.com/Abhishekkatale/CRM-Musitech/internal/guard"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Audit    *handlers.AuditHandler
	Profiles *handlers.ProfileHandler
	Guard    *guard.Guard
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.SignIn)
	authGroup.Post("/logout", cfg.Auth.SignOut)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Get("/session", cfg.Auth.Session)
	authGroup.Get("/permissions", cfg.Auth.CheckPermission)

	admin := app.Group("/admin", cfg.Guard.RequireRole("admin"))
	admin.Get("/audit-log", cfg.Audit.List)
	admin.Patch("/profiles/:id/status", cfg.Profiles.UpdateStatus)
}
