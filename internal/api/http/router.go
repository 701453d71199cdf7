package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/team-hierarchy-service/internal/api/http/handlers"
	"github.com/spec-kit/team-hierarchy-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Teams          *handlers.TeamsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	teams := app.Group("/teams", cfg.AuthMiddleware.Handle)
	teams.Get("/", cfg.Teams.ListTeams)
	teams.Post("/", cfg.Teams.CreateTeam)
	teams.Post("/name-check", cfg.Teams.CheckName)
	teams.Get("/:id", cfg.Teams.GetTeam)
	teams.Put("/:id", cfg.Teams.UpdateTeam)
	teams.Delete("/:id", cfg.Teams.DeleteTeam)
}
