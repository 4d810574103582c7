package handlers

import (
	"context"

	"featurestore/internal/models"
	"featurestore/internal/repositories/cache"
	"featurestore/internal/services/aggregation"
	"featurestore/internal/services/pipeline"
	"featurestore/internal/services/risk"

	"github.com/shopspring/decimal"
)

// FeaturePipeline is the scoring workflow plus its read accessors.
type FeaturePipeline interface {
	Submit(ctx context.Context, userID int64, amount decimal.Decimal) (*pipeline.Result, error)
	Confirm(ctx context.Context, userID int64, amount decimal.Decimal) (*pipeline.Result, error)
	OnlineFeatures(ctx context.Context, userID int64) (*models.OnlineFeatures, error)
	HistoricalFeatures(ctx context.Context, userID int64) (*models.UserAggregate, error)
	RecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error)
	UserTransactions(ctx context.Context, userID int64, limit, offset int) ([]models.Transaction, int64, error)
}

type AggregationRunner interface {
	RunAll(ctx context.Context) (*aggregation.RunResult, error)
	RunUser(ctx context.Context, userID int64) (*models.UserAggregate, error)
}

type RiskSettings interface {
	Thresholds() risk.Thresholds
	SetThresholds(t risk.Thresholds) error
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type CacheStatser interface {
	Stats() cache.Stats
}
