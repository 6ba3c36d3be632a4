package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/loopwar-api/internal/config"
	"github.com/noah-isme/loopwar-api/internal/handler"
	"github.com/noah-isme/loopwar-api/internal/middleware"
	"github.com/noah-isme/loopwar-api/internal/models"
	"github.com/noah-isme/loopwar-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler           *handler.AuthHandler
	CatalogHandler        *handler.CatalogHandler
	CodeHandler           *handler.CodeHandler
	CodeSubmissionHandler *handler.CodeSubmissionHandler
	ChatHandler           *handler.ChatHandler
	QuizHandler           *handler.QuizHandler
	NotesHandler          *handler.NotesHandler
	ContactHandler        *handler.ContactHandler
	HealthProbes          []handler.HealthProbe
	JWTMiddleware         fiber.Handler
}

// Register wires the HTTP routes into the fiber application. Public routes are
// registered before the JWT group so the group middleware does not shadow them.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", cfg.AuthRateLimit, time.Minute))
		deps.AuthHandler.RegisterPublic(auth)
		deps.AuthHandler.RegisterUserLookup(api, middleware.RateLimit("user-check", cfg.AuthRateLimit, time.Minute))
	}

	if deps.ContactHandler != nil {
		deps.ContactHandler.Register(api.Group("/contact", middleware.RateLimit("contact", cfg.AuthRateLimit, time.Minute)))
	}

	if deps.CatalogHandler != nil {
		deps.CatalogHandler.Register(api)
	}

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	protected := api.Group("", jwtMiddleware)

	if deps.CatalogHandler != nil {
		admin := protected.Group("/admin", middleware.RequireRole(models.RoleAdmin))
		deps.CatalogHandler.RegisterAdmin(admin)
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(protected)
	}
	if deps.CodeSubmissionHandler != nil {
		deps.CodeSubmissionHandler.Register(protected)
	}
	if deps.CodeHandler != nil {
		deps.CodeHandler.Register(protected)
	}
	if deps.ChatHandler != nil {
		deps.ChatHandler.Register(protected)
	}
	if deps.QuizHandler != nil {
		deps.QuizHandler.Register(protected)
	}
	if deps.NotesHandler != nil {
		deps.NotesHandler.Register(protected)
	}
}
