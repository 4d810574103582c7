package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperr "featurestore/internal/errors"
	"featurestore/internal/models"
	"featurestore/internal/repositories/cache"
	"featurestore/internal/services/risk"
	cachekeys "featurestore/internal/utils/cache"
	"featurestore/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Service scores and commits transactions.
type Service struct {
	online    OnlineStore
	offline   OfflineStore
	evaluator Classifier
	config    Config
	metrics   MetricsCollector
	logger    *zap.Logger

	// populate dedupes concurrent cold-start lookups of the same user.
	populate singleflight.Group

	now          func() time.Time
	newReference func() string
}

// NewService creates a new pipeline service
func NewService(
	online OnlineStore,
	offline OfflineStore,
	evaluator Classifier,
	config Config,
	metrics MetricsCollector,
	logger *zap.Logger,
) *Service {
	if online == nil {
		panic("online store is required")
	}
	if offline == nil {
		panic("offline store is required")
	}
	if evaluator == nil {
		panic("evaluator is required")
	}

	if config.Window <= 0 {
		config.Window = DefaultWindow
	}
	if config.UpdateTimeout <= 0 {
		config.UpdateTimeout = DefaultUpdateTimeout
	}
	if config.PopulateTimeout <= 0 {
		config.PopulateTimeout = DefaultPopulateTimeout
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		online:       online,
		offline:      offline,
		evaluator:    evaluator,
		config:       config,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
		newReference: uuid.NewString,
	}
}

// Submit scores a transaction. Approved transactions are committed
// unflagged; challenged ones are returned without being persisted.
func (s *Service) Submit(ctx context.Context, userID int64, amount decimal.Decimal) (*Result, error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperationDuration(OpSubmit, time.Since(start)) }()

	if err := validation.Transaction(userID, amount); err != nil {
		s.metrics.RecordError(OpSubmit, apperr.Code(err))
		return nil, err
	}

	avg, err := s.historicalAverage(ctx, userID)
	if err != nil {
		s.metrics.RecordError(OpSubmit, apperr.Code(err))
		s.logger.Error("historical average unavailable",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return nil, apperr.Wrap(apperr.ErrServiceUnavailable, err)
	}

	decision := s.evaluator.Classify(amount, avg)
	switch decision {
	case risk.DecisionChallenge:
		s.metrics.RecordDecision(string(StatusChallenged))
		s.logger.Info("transaction challenged",
			zap.Int64("user_id", userID),
			zap.String("amount", amount.String()),
			zap.String("historical_avg", avg.String()))
		return &Result{
			Status:        StatusChallenged,
			Reason:        fmt.Sprintf("Suspicious: $%s vs Avg $%s", amount.StringFixed(2), avg.StringFixed(2)),
			HistoricalAvg: avg,
		}, nil
	default:
		s.metrics.RecordDecision(string(StatusApproved))
	}

	ref, err := s.commit(ctx, userID, amount, false)
	if err != nil {
		return nil, err
	}

	return &Result{
		Status:        StatusApproved,
		Reason:        ReasonApproved,
		Reference:     ref,
		HistoricalAvg: avg,
	}, nil
}

// Confirm commits a previously challenged transaction with the flagged
// marker set. No rescoring happens.
func (s *Service) Confirm(ctx context.Context, userID int64, amount decimal.Decimal) (*Result, error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperationDuration(OpConfirm, time.Since(start)) }()

	if err := validation.Transaction(userID, amount); err != nil {
		s.metrics.RecordError(OpConfirm, apperr.Code(err))
		return nil, err
	}

	ref, err := s.commit(ctx, userID, amount, true)
	if err != nil {
		return nil, err
	}

	s.logger.Info("challenged transaction confirmed",
		zap.Int64("user_id", userID),
		zap.String("amount", amount.String()),
		zap.String("reference", ref))

	return &Result{
		Status:    StatusApproved,
		Reason:    ReasonConfirmed,
		Reference: ref,
	}, nil
}

// historicalAverage reads the user's average through the online store,
// populating it from the offline aggregate (or the default) on a miss.
func (s *Service) historicalAverage(ctx context.Context, userID int64) (decimal.Decimal, error) {
	key := cachekeys.HistoricalAvgKey(userID)

	val, found, err := s.online.Get(ctx, key)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read cached historical average: %w", err)
	}
	if found {
		avg, perr := decimal.NewFromString(val)
		if perr == nil {
			s.metrics.RecordCacheHit(key)
			return avg, nil
		}
		s.logger.Warn("discarding malformed cached historical average",
			zap.String("key", key),
			zap.String("value", val))
	}
	s.metrics.RecordCacheMiss(key)

	// The flight is shared by every caller waiting on key, so it runs
	// detached from any one caller; each caller still gives up on its own
	// context.
	ch := s.populate.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.PopulateTimeout)
		defer cancel()
		return s.populateHistoricalAverage(fctx, userID, key)
	})

	select {
	case <-ctx.Done():
		return decimal.Zero, fmt.Errorf("wait for historical average: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return decimal.Zero, res.Err
		}
		return res.Val.(decimal.Decimal), nil
	}
}

func (s *Service) populateHistoricalAverage(ctx context.Context, userID int64, key string) (decimal.Decimal, error) {
	avg := s.config.DefaultAverage

	agg, err := s.offline.GetAggregate(ctx, userID)
	switch {
	case err == nil:
		avg = agg.AverageAmount
	case errors.Is(err, apperr.ErrNotFound):
		s.logger.Debug("no historical profile, using default average",
			zap.Int64("user_id", userID),
			zap.String("default", avg.String()))
	default:
		return decimal.Zero, fmt.Errorf("read historical aggregate: %w", err)
	}

	// No TTL: the entry lives until the aggregation job invalidates it.
	if err := s.online.Set(ctx, key, avg.String(), 0); err != nil {
		return decimal.Zero, fmt.Errorf("cache historical average: %w", err)
	}
	return avg, nil
}

// commit writes the transaction to the offline store, then refreshes the
// online features. Only the offline write can fail the call.
func (s *Service) commit(ctx context.Context, userID int64, amount decimal.Decimal, flagged bool) (string, error) {
	tx := &models.Transaction{
		UserID:    userID,
		Amount:    amount,
		Timestamp: s.now().UTC(),
		IsFlagged: flagged,
		Reference: s.newReference(),
	}

	if err := s.offline.InsertTransaction(ctx, tx); err != nil {
		s.metrics.RecordError(OpCommit, apperr.Code(err))
		s.logger.Error("failed to commit transaction",
			zap.Int64("user_id", userID),
			zap.Bool("flagged", flagged),
			zap.Error(err))

		if errors.Is(err, apperr.ErrStoreUnavailable) || errors.Is(err, apperr.ErrStoreTimeout) {
			return "", apperr.Wrap(apperr.ErrServiceUnavailable, err)
		}
		return "", fmt.Errorf("commit transaction: %w", err)
	}
	s.metrics.RecordCommit(flagged)

	s.updateOnlineFeatures(ctx, userID, amount)

	return tx.Reference, nil
}

func (s *Service) updateOnlineFeatures(ctx context.Context, userID int64, amount decimal.Decimal) {
	// The offline write already happened; a cancelled request must not
	// skip the refresh.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.UpdateTimeout)
	defer cancel()

	windowKey := cachekeys.TransactionsWindowKey(userID)
	_, err := s.online.Batch(ctx,
		cache.SetOp(cachekeys.LastTransactionKey(userID), amount.String(), 0),
		cache.IncrOp(windowKey),
		cache.ExpireOp(windowKey, s.config.Window),
	)
	if err != nil {
		s.metrics.RecordOnlineUpdateFailure()
		s.logger.Warn("online feature update failed",
			zap.Int64("user_id", userID),
			zap.String("amount", amount.String()),
			zap.Error(err))
	}
}
