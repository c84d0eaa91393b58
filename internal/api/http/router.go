package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/escalation-service/internal/api/http/handlers"
	"github.com/spec-kit/escalation-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Ask          *handlers.AskHandler
	HelpRequests *handlers.HelpRequestsHandler
	Knowledge    *handlers.KnowledgeHandler
	Metrics      *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api")
	api.Post("/ask", cfg.Ask.Ask)

	helpRequests := api.Group("/help-requests")
	helpRequests.Get("/", cfg.HelpRequests.List)
	helpRequests.Get("/:id", cfg.HelpRequests.Get)
	helpRequests.Patch("/:id", cfg.HelpRequests.Resolve)

	api.Get("/knowledge", cfg.Knowledge.List)
	api.Put("/knowledge", cfg.Knowledge.Upsert)
}
