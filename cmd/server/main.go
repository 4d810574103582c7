// Package main starts the feature store HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"featurestore/internal/config"
	"featurestore/internal/handlers"
	"featurestore/internal/metrics"
	"featurestore/internal/middleware"
	"featurestore/internal/repositories"
	"featurestore/internal/repositories/cache"
	"featurestore/internal/routes"
	"featurestore/internal/services/aggregation"
	"featurestore/internal/services/dashboard"
	"featurestore/internal/services/pipeline"
	"featurestore/internal/services/risk"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 10 * time.Second
	poolStatsInterval = time.Minute
)

func main() {
	config.LoadEnv()

	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("application terminated with error", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.OpenPostgres(ctx, cfg.DB, logger)
	if err != nil {
		return fmt.Errorf("offline store: %w", err)
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			logger.Warn("failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.DB.Migrate {
		if err := repositories.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate offline store: %w", err)
		}
	}

	redisClient := cache.NewRedisClient(cfg.Redis)
	online := cache.NewRedisStore(redisClient, cfg.Features.StoreTimeout)
	defer func() {
		if err := online.Close(); err != nil {
			logger.Warn("failed to close redis connection", zap.Error(err))
		}
	}()
	if err := online.Ping(ctx); err != nil {
		return fmt.Errorf("online store: %w", err)
	}

	offline := repositories.NewTransactionRepository(db, cfg.DB.QueryTimeout)

	evaluator, err := risk.NewEvaluator(risk.Thresholds{
		Multiplier: cfg.Risk.Multiplier,
		Floor:      cfg.Risk.Floor,
	})
	if err != nil {
		return fmt.Errorf("risk thresholds: %w", err)
	}

	collector := metrics.NewCollector()
	svc := pipeline.NewService(online, offline, evaluator, pipeline.Config{
		DefaultAverage:  cfg.Risk.DefaultAverage,
		Window:          cfg.Features.Window,
		UpdateTimeout:   cfg.Features.StoreTimeout,
		PopulateTimeout: cfg.DB.QueryTimeout + cfg.Features.StoreTimeout,
	}, collector, logger.Named("pipeline"))

	job := aggregation.NewJob(offline, online, cfg.Aggregation.InvalidateCache, collector, logger.Named("aggregation"))

	var operatorAuth fiber.Handler
	if cfg.Operator.JWTSecret != "" {
		operatorAuth = middleware.NewAuthMiddleware(cfg.Operator.JWTSecret, logger.Named("auth")).Handler
	}

	app := routes.NewApp(30 * time.Second)
	routes.SetupRoutes(app, routes.Handlers{
		Transactions: handlers.NewTransactionHandler(svc),
		Features:     handlers.NewFeatureHandler(svc),
		Dashboard:    handlers.NewDashboardHandler(dashboard.NewService(offline)),
		Aggregation:  handlers.NewAggregationHandler(job),
		Settings:     handlers.NewSettingsHandler(evaluator),
		Health:       handlers.NewHealthHandler(offline, online, online),
	}, routes.Options{
		CORSOrigins:  cfg.CORSOrigins,
		RateLimit:    cfg.RateLimit,
		OperatorAuth: operatorAuth,
		Logger:       logger.Named("http"),
	})

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get database instance: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		metrics.StartPoolStatsCollector(ctx, sqlDB, func() *redis.PoolStats { return online.Stats().Pool }, poolStatsInterval)
		return nil
	})

	g.Go(func() error {
		if cfg.Aggregation.Interval > 0 {
			logger.Info("scheduled aggregation enabled", zap.Duration("interval", cfg.Aggregation.Interval))
		}
		job.Start(ctx, cfg.Aggregation.Interval)
		return nil
	})

	g.Go(func() error {
		logger.Info("starting feature store server", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server...")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		logger.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}
