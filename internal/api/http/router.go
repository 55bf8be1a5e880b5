package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/listing-service/internal/api/http/handlers"
	"github.com/spec-kit/listing-service/internal/auth"
	"github.com/spec-kit/listing-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Homes   *handlers.HomesHandler
	Guard   *auth.Guard
	Limiter AttemptCounter
	// AuthAttempts and AuthWindow bound signin/signup calls per client.
	AuthAttempts int
	AuthWindow   time.Duration
	Logger       *zap.Logger
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
		app.Get("/metrics", cfg.Health.Metrics)
	}

	limit := RateLimit(cfg.Limiter, cfg.AuthAttempts, cfg.AuthWindow, logger)
	anyRole := cfg.Guard.Require(domain.UserTypeBuyer, domain.UserTypeRealtor, domain.UserTypeAdmin)

	authGroup := app.Group("/auth")
	authGroup.Post("/signup/:userType", limit, cfg.Auth.Signup)
	authGroup.Post("/signin", limit, cfg.Auth.Signin)
	authGroup.Post("/key", cfg.Guard.Require(domain.UserTypeAdmin), cfg.Auth.ProductKey)
	authGroup.Get("/me", anyRole, cfg.Auth.Me)

	listingManagers := cfg.Guard.Require(domain.UserTypeRealtor, domain.UserTypeAdmin)

	// Listing reads declare no roles; AUTH_UNDECLARED_ROLES_POLICY decides them.
	undeclared := cfg.Guard.Require()

	homes := app.Group("/home")
	homes.Get("/", undeclared, cfg.Homes.ListHomes)
	homes.Get("/:id", undeclared, cfg.Homes.GetHome)
	homes.Post("/", listingManagers, cfg.Homes.CreateHome)
	homes.Put("/:id", listingManagers, cfg.Homes.UpdateHome)
	homes.Delete("/:id", listingManagers, cfg.Homes.DeleteHome)
	homes.Post("/:id/inquire", cfg.Guard.Require(domain.UserTypeBuyer), cfg.Homes.Inquire)
	homes.Get("/:id/messages", cfg.Guard.Require(domain.UserTypeRealtor), cfg.Homes.ListMessages)
}
