package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nexusops/sla-service/internal/api/http/handlers"
	"github.com/nexusops/sla-service/internal/auth"
	"github.com/nexusops/sla-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Dashboard      *handlers.DashboardHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Dashboard reads require the reader
// role; target updates and ticket writes require admin.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	read := auth.RequireRole(domain.RoleReader, domain.RoleAdmin)
	admin := auth.RequireRole(domain.RoleAdmin)

	dashboard := app.Group("/dashboard/sla", cfg.AuthMiddleware.Handle)
	dashboard.Get("/metrics", read, cfg.Dashboard.Metrics)
	dashboard.Get("/breached", read, cfg.Dashboard.Breached)
	dashboard.Get("/at-risk", read, cfg.Dashboard.AtRisk)
	dashboard.Get("/targets", read, cfg.Dashboard.GetTargets)
	dashboard.Put("/targets", admin, cfg.Dashboard.UpdateTargets)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Get("", read, cfg.Tickets.ListTickets)
	tickets.Get("/:id", read, cfg.Tickets.GetTicket)
	tickets.Post("", admin, cfg.Tickets.CreateTicket)
	tickets.Post("/:id/respond", admin, cfg.Tickets.MarkResponded)
	tickets.Post("/:id/resolve", admin, cfg.Tickets.MarkResolved)
}
