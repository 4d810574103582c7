package pipeline

import (
	"context"
	"strconv"

	apperr "featurestore/internal/errors"
	"featurestore/internal/models"
	"featurestore/internal/repositories/cache"
	cachekeys "featurestore/internal/utils/cache"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OnlineFeatures returns the user's online features. Missing keys read as
// zero; ErrNotFound is returned only when the user has no online data at all.
func (s *Service) OnlineFeatures(ctx context.Context, userID int64) (*models.OnlineFeatures, error) {
	if userID <= 0 {
		return nil, apperr.Newf(apperr.ErrValidation, "user_id must be a positive integer")
	}

	results, err := s.online.Batch(ctx,
		cache.GetOp(cachekeys.LastTransactionKey(userID)),
		cache.GetOp(cachekeys.TransactionsWindowKey(userID)),
	)
	if err != nil {
		s.metrics.RecordError(OpOnlineRead, apperr.Code(err))
		return nil, err
	}

	last, window := results[0], results[1]
	if !last.Found && !window.Found {
		return nil, apperr.Newf(apperr.ErrNotFound, "no online features for user %d", userID)
	}

	features := &models.OnlineFeatures{
		UserID:                userID,
		LastTransactionAmount: decimal.Zero,
		RetrievedAt:           s.now().UTC(),
	}
	if last.Found {
		if amount, perr := decimal.NewFromString(last.Value); perr == nil {
			features.LastTransactionAmount = amount
		} else {
			s.logger.Warn("malformed last transaction amount",
				zap.Int64("user_id", userID),
				zap.String("value", last.Value))
		}
	}
	if window.Found {
		if n, perr := strconv.ParseInt(window.Value, 10, 64); perr == nil {
			features.TransactionsInWindow = n
		}
	}
	return features, nil
}

// HistoricalFeatures returns the user's offline aggregate.
func (s *Service) HistoricalFeatures(ctx context.Context, userID int64) (*models.UserAggregate, error) {
	if userID <= 0 {
		return nil, apperr.Newf(apperr.ErrValidation, "user_id must be a positive integer")
	}
	agg, err := s.offline.GetAggregate(ctx, userID)
	if err != nil {
		s.metrics.RecordError(OpOfflineRead, apperr.Code(err))
		return nil, err
	}
	return agg, nil
}

// RecentTransactions returns the newest transactions across all users.
func (s *Service) RecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	txs, err := s.offline.ListRecent(ctx, clampLimit(limit, DefaultRecentLimit))
	if err != nil {
		s.metrics.RecordError(OpOfflineRead, apperr.Code(err))
		return nil, err
	}
	return txs, nil
}

// UserTransactions returns one page of a user's transactions, newest first,
// along with the user's total transaction count.
func (s *Service) UserTransactions(ctx context.Context, userID int64, limit, offset int) ([]models.Transaction, int64, error) {
	if userID <= 0 {
		return nil, 0, apperr.Newf(apperr.ErrValidation, "user_id must be a positive integer")
	}
	if offset < 0 {
		offset = 0
	}
	txs, total, err := s.offline.ListByUser(ctx, userID, clampLimit(limit, MaxListLimit), offset)
	if err != nil {
		s.metrics.RecordError(OpOfflineRead, apperr.Code(err))
		return nil, 0, err
	}
	return txs, total, nil
}

func clampLimit(limit, def int) int {
	switch {
	case limit <= 0:
		return def
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
