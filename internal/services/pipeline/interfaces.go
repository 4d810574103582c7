package pipeline

import (
	"context"
	"time"

	"featurestore/internal/models"
	"featurestore/internal/repositories/cache"
	"featurestore/internal/services/risk"

	"github.com/shopspring/decimal"
)

// OnlineStore is the low-latency key/value store holding per-user features.
// Get reports a missing key as found=false with a nil error.
type OnlineStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Increment(ctx context.Context, key string) (int64, error)
	SetExpiry(ctx context.Context, key string, ttl time.Duration) error
	Batch(ctx context.Context, ops ...cache.Op) ([]cache.Result, error)
}

// OfflineStore is the durable transaction log and aggregate table.
type OfflineStore interface {
	InsertTransaction(ctx context.Context, tx *models.Transaction) error
	GetAggregate(ctx context.Context, userID int64) (*models.UserAggregate, error)
	ListRecent(ctx context.Context, limit int) ([]models.Transaction, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Transaction, int64, error)
}

// Classifier decides whether an amount is in line with a historical average.
type Classifier interface {
	Classify(amount, avg decimal.Decimal) risk.Decision
}
