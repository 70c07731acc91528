package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/orbit-admin-api/internal/config"
	"github.com/noah-isme/orbit-admin-api/internal/handler"
	"github.com/noah-isme/orbit-admin-api/internal/middleware"
	"github.com/noah-isme/orbit-admin-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	JobHandler        *handler.AdminJobHandler
	AssignmentHandler *handler.AdminAssignmentHandler
	GradingHandler    *handler.AdminGradingHandler
	CounsellorHandler *handler.AdminApplicantHandler
	AgentHandler      *handler.AdminApplicantHandler
	ActivityHandler   *handler.AdminActivityHandler
	FeedHandler       *handler.ActivityFeedHandler
	EventHandler      *handler.AdminEventHandler
	HealthProbes      map[string]handler.HealthProbe
	JWTMiddleware     fiber.Handler
	DisableMetrics    bool
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	if !deps.DisableMetrics {
		app.Get("/metrics", observability.MetricsHandler())
	}

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}

	if deps.AuthHandler != nil {
		auth := app.Group("/api/admin/auth", middleware.RateLimit("login", cfg.RateLimitMax, cfg.RateLimitWindow))
		deps.AuthHandler.Register(auth)
	}

	admin := app.Group("/api/admin", jwtMiddleware)

	jobs := admin.Group("/jobs")
	if deps.JobHandler != nil {
		deps.JobHandler.Register(jobs)
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(jobs)
	}

	if deps.GradingHandler != nil {
		applications := admin.Group("/applications", middleware.RateLimit("grading", cfg.RateLimitMax, cfg.RateLimitWindow))
		deps.GradingHandler.Register(applications)
	}

	if deps.CounsellorHandler != nil {
		deps.CounsellorHandler.Register(admin.Group("/counsellors"))
	}
	if deps.AgentHandler != nil {
		deps.AgentHandler.Register(admin.Group("/agents"))
	}

	activity := admin.Group("/activity")
	if deps.FeedHandler != nil {
		deps.FeedHandler.Register(activity)
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(activity)
	}

	if deps.EventHandler != nil {
		deps.EventHandler.Register(admin.Group("/events"))
	}
}
