package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sentiment-probe/internal/config"
	"github.com/noah-isme/sentiment-probe/internal/handler"
	"github.com/noah-isme/sentiment-probe/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ScoreHandler   *handler.ScoreHandler
	BatchHandler   *handler.BatchHandler
	MetricsHandler *handler.MetricsHandler
	DatasetHandler *handler.DatasetHandler
	// BatchLimiter guards batch evaluation; nil disables rate limiting.
	BatchLimiter fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.ScoreHandler != nil {
		deps.ScoreHandler.Register(api)
	}

	if deps.BatchHandler != nil {
		var guards []fiber.Handler
		if deps.BatchLimiter != nil {
			guards = append(guards, deps.BatchLimiter)
		}
		deps.BatchHandler.Register(api, guards...)
	}

	if deps.MetricsHandler != nil {
		deps.MetricsHandler.Register(api)
	}

	if deps.DatasetHandler != nil {
		deps.DatasetHandler.Register(api)
	}
}
