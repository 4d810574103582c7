// Package aggregation rebuilds the offline per-user aggregates and keeps the
// cached historical averages consistent with them.
package aggregation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperr "featurestore/internal/errors"
	"featurestore/internal/models"
	cachekeys "featurestore/internal/utils/cache"

	"go.uber.org/zap"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// RunResult summarizes one aggregation run.
type RunResult struct {
	UsersUpdated     int64         `json:"users_updated"`
	CacheInvalidated int           `json:"cache_invalidated"`
	Duration         time.Duration `json:"duration"`
}

// Job recomputes aggregates. Runs are serialized.
type Job struct {
	store      AggregateStore
	cache      CacheInvalidator
	invalidate bool
	metrics    MetricsCollector
	logger     *zap.Logger

	mu sync.Mutex
}

// NewJob creates a new aggregation job. cache may be nil when invalidate is
// false.
func NewJob(store AggregateStore, cache CacheInvalidator, invalidate bool, metrics MetricsCollector, logger *zap.Logger) *Job {
	if store == nil {
		panic("aggregate store is required")
	}
	if invalidate && cache == nil {
		panic("cache is required when invalidation is enabled")
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		store:      store,
		cache:      cache,
		invalidate: invalidate,
		metrics:    metrics,
		logger:     logger,
	}
}

// RunAll recomputes every user's aggregate from the full transaction log.
func (j *Job) RunAll(ctx context.Context) (*RunResult, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	start := time.Now()
	users, err := j.store.RecomputeAggregates(ctx)
	if err != nil {
		j.metrics.RecordRun(ResultFailure, time.Since(start))
		return nil, fmt.Errorf("recompute aggregates: %w", err)
	}

	res := &RunResult{UsersUpdated: users}
	if j.invalidate {
		n, err := j.cache.DeleteMatching(ctx, cachekeys.FeaturePattern(cachekeys.FeatureHistoricalAvg))
		if err != nil {
			// Aggregates are committed; cached averages stay stale until
			// the next successful run.
			j.logger.Warn("failed to invalidate cached historical averages", zap.Error(err))
		}
		res.CacheInvalidated = n
	}
	res.Duration = time.Since(start)

	j.metrics.RecordRun(ResultSuccess, res.Duration)
	j.logger.Info("aggregation run finished",
		zap.Int64("users_updated", res.UsersUpdated),
		zap.Int("cache_invalidated", res.CacheInvalidated),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// RunUser recomputes a single user's aggregate. ErrNotFound is returned when
// the user has no transactions.
func (j *Job) RunUser(ctx context.Context, userID int64) (*models.UserAggregate, error) {
	if userID <= 0 {
		return nil, apperr.Newf(apperr.ErrValidation, "user_id must be a positive integer")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	start := time.Now()
	agg, err := j.store.ComputeAggregate(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			j.metrics.RecordRun(ResultFailure, time.Since(start))
		}
		return nil, err
	}
	agg.LastUpdated = time.Now().UTC()

	if err := j.store.UpsertAggregate(ctx, agg); err != nil {
		j.metrics.RecordRun(ResultFailure, time.Since(start))
		return nil, fmt.Errorf("upsert aggregate: %w", err)
	}

	if j.invalidate {
		if err := j.cache.Delete(ctx, cachekeys.HistoricalAvgKey(userID)); err != nil {
			j.logger.Warn("failed to invalidate cached historical average",
				zap.Int64("user_id", userID),
				zap.Error(err))
		}
	}

	j.metrics.RecordRun(ResultSuccess, time.Since(start))
	return agg, nil
}

// Start runs RunAll every interval until ctx is done. It blocks; a
// non-positive interval returns immediately.
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.RunAll(ctx); err != nil && ctx.Err() == nil {
				j.logger.Error("scheduled aggregation failed", zap.Error(err))
			}
		}
	}
}

type noopMetrics struct{}

func (noopMetrics) RecordRun(string, time.Duration) {}
