package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"featurestore/internal/config"
	"featurestore/internal/middleware"
	"featurestore/internal/repositories"
	"featurestore/internal/repositories/cache"
	"featurestore/internal/services/aggregation"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func loadConfig() (*config.Config, *zap.Logger, error) {
	config.LoadEnv()
	cfg, err := config.Parse()
	if err != nil {
		return nil, nil, err
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		logger = zap.NewNop()
	}
	return cfg, logger, nil
}

func openDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := repositories.OpenPostgres(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("offline store: %w", err)
	}
	return db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply offline store migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := openDB(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer repositories.Close(db)

			if err := repositories.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		},
	}
}

func aggregateCmd() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Recompute per-user aggregates from the transaction log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := openDB(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer repositories.Close(db)

			var invalidator aggregation.CacheInvalidator
			if cfg.Aggregation.InvalidateCache {
				online := cache.NewRedisStore(cache.NewRedisClient(cfg.Redis), cfg.Features.StoreTimeout)
				defer online.Close()
				invalidator = online
			}

			job := aggregation.NewJob(
				repositories.NewTransactionRepository(db, cfg.DB.QueryTimeout),
				invalidator,
				cfg.Aggregation.InvalidateCache,
				nil,
				logger,
			)

			var out interface{}
			if userID > 0 {
				out, err = job.RunUser(ctx, userID)
			} else {
				out, err = job.RunAll(ctx)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().Int64VarP(&userID, "user", "u", 0, "Recompute a single user")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator token for the settings and aggregation routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if ttl == 0 {
				ttl = cfg.Operator.TokenTTL
			}

			token, err := middleware.IssueToken(cfg.Operator.JWTSecret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "operator", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to OPERATOR_TOKEN_TTL)")
	return cmd
}
