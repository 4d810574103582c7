package aggregation

import (
	"context"
	"time"

	"featurestore/internal/models"
)

// AggregateStore recomputes per-user aggregates from the transaction log.
type AggregateStore interface {
	RecomputeAggregates(ctx context.Context) (int64, error)
	ComputeAggregate(ctx context.Context, userID int64) (*models.UserAggregate, error)
	UpsertAggregate(ctx context.Context, agg *models.UserAggregate) error
}

// CacheInvalidator drops stale cached historical averages.
type CacheInvalidator interface {
	Delete(ctx context.Context, keys ...string) error
	DeleteMatching(ctx context.Context, pattern string) (int, error)
}

// MetricsCollector records aggregation runs.
type MetricsCollector interface {
	RecordRun(result string, duration time.Duration)
}
