package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/preparai-api/internal/config"
	"github.com/noah-isme/preparai-api/internal/handler"
	"github.com/noah-isme/preparai-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EssayHandler    *handler.EssayHandler
	ThemeHandler    *handler.ThemeHandler
	HealthChecks    map[string]handler.Pinger
	AuthMiddleware  fiber.Handler
	SubmitRateLimit fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	app.Get("/metrics", observability.MetricsHandler())

	authMiddleware := deps.AuthMiddleware
	if authMiddleware == nil {
		authMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	essays := app.Group("/api/v2/essays", authMiddleware)

	// Theme routes first so "/themes/generate" is never read as an essay id.
	if deps.ThemeHandler != nil {
		deps.ThemeHandler.Register(essays)
	}

	if deps.EssayHandler != nil {
		deps.EssayHandler.Register(essays, deps.SubmitRateLimit)
	}
}
