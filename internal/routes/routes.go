// Package routes defines the API routing configuration.
package routes

import (
	"time"

	"featurestore/internal/config"
	"featurestore/internal/handlers"
	"featurestore/internal/metrics"
	"featurestore/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Transactions *handlers.TransactionHandler
	Features     *handlers.FeatureHandler
	Dashboard    *handlers.DashboardHandler
	Aggregation  *handlers.AggregationHandler
	Settings     *handlers.SettingsHandler
	Health       *handlers.HealthHandler
}

type Options struct {
	CORSOrigins string
	RateLimit   config.RateLimitConfig
	// OperatorAuth guards the operator routes; nil leaves them open.
	OperatorAuth fiber.Handler
	Logger       *zap.Logger
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, h Handlers, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: middleware.RequestIDKey,
	}))
	app.Use(middleware.RequestLogger(logger))
	app.Use(metrics.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,HEAD",
	}))

	app.Get("/health", h.Health.HealthCheck)
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	writeLimit := passThrough
	if opts.RateLimit.Max > 0 {
		writeLimit = limiter.New(limiter.Config{
			Max:        opts.RateLimit.Max,
			Expiration: opts.RateLimit.Window,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Too many requests. Please try again later.",
				})
			},
		})
	}

	tx := api.Group("/transactions")
	tx.Post("/submit", writeLimit, h.Transactions.Submit)
	tx.Post("/confirm", writeLimit, h.Transactions.Confirm)
	tx.Get("/recent", h.Transactions.Recent)
	tx.Get("/user/:user_id", h.Transactions.ByUser)

	features := api.Group("/features")
	features.Get("/historical/:user_id", h.Features.Historical)
	features.Get("/:user_id", h.Features.Online)

	api.Get("/stats/global", h.Dashboard.GetGlobalStats)
	api.Get("/analytics", h.Dashboard.GetAnalytics)
	api.Get("/cache/stats", h.Health.CacheStats)

	operatorAuth := opts.OperatorAuth
	if operatorAuth == nil {
		logger.Warn("operator routes are not authenticated")
		operatorAuth = passThrough
	}
	api.Get("/settings/risk", h.Settings.GetRisk)
	api.Put("/settings/risk", operatorAuth, h.Settings.UpdateRisk)
	api.Post("/aggregation/run", operatorAuth, h.Aggregation.Run)
}

func passThrough(c *fiber.Ctx) error { return c.Next() }

// NewApp creates the fiber app with the service's error handler and timeouts.
func NewApp(readTimeout time.Duration) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "featurestore",
		ReadTimeout:  readTimeout,
		WriteTimeout: readTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
}
