package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moondev/applicant-portal-api/internal/config"
	"github.com/moondev/applicant-portal-api/internal/handler"
	"github.com/moondev/applicant-portal-api/internal/middleware"
	"github.com/moondev/applicant-portal-api/internal/models"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	SubmissionHandler *handler.SubmissionHandler
	ReviewHandler     *handler.ReviewHandler
	SessionMiddleware fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Public landing used as the redirect target for the role gate.
	app.Get(cfg.LoginPath, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "sign in required"})
	})

	session := deps.SessionMiddleware
	if session == nil {
		session = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"))
	}

	if deps.SubmissionHandler != nil {
		developer := api.Group("/developer/submission", session, middleware.RequireRole(models.RoleDeveloper, cfg.LoginPath))
		deps.SubmissionHandler.Register(developer)
	}

	if deps.ReviewHandler != nil {
		evaluator := api.Group("/evaluator", session, middleware.RequireRole(models.RoleEvaluator, cfg.LoginPath))
		deps.ReviewHandler.Register(evaluator)
	}
}
