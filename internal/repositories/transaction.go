package repositories

import (
	"context"
	"time"

	apperr "featurestore/internal/errors"
	"featurestore/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultTimeout bounds every offline store call when no timeout is
// configured.
const DefaultTimeout = 5 * time.Second

const recomputeAggregatesSQL = `
INSERT INTO user_historical_features (user_id, total_spent, average_transaction_amount, last_updated)
SELECT user_id, SUM(amount), AVG(amount), CURRENT_TIMESTAMP
FROM transactions_log
GROUP BY user_id
ON CONFLICT (user_id) DO UPDATE
SET total_spent = EXCLUDED.total_spent,
    average_transaction_amount = EXCLUDED.average_transaction_amount,
    last_updated = CURRENT_TIMESTAMP`

// TransactionRepository is the offline store: the append-only
// transactions_log plus the derived user_historical_features aggregate.
type TransactionRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewTransactionRepository(db *gorm.DB, timeout time.Duration) *TransactionRepository {
	if db == nil {
		panic("db is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TransactionRepository{db: db, timeout: timeout}
}

func (r *TransactionRepository) withTimeout(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	return r.db.WithContext(ctx), cancel
}

// InsertTransaction durably appends tx. Non-positive amounts are rejected
// before reaching the database; the table CHECK constraint enforces the same
// rule for any other writer.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	if !tx.Amount.IsPositive() {
		return apperr.Newf(apperr.ErrConstraintViolation, "amount must be greater than zero, got %s", tx.Amount)
	}

	db, cancel := r.withTimeout(ctx)
	defer cancel()

	return classify("insert transaction", db.Create(tx).Error)
}

// GetAggregate returns the stored aggregate of a user, or ErrNotFound.
func (r *TransactionRepository) GetAggregate(ctx context.Context, userID int64) (*models.UserAggregate, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var agg models.UserAggregate
	if err := db.Where("user_id = ?", userID).First(&agg).Error; err != nil {
		return nil, classify("get aggregate", err)
	}
	return &agg, nil
}

// UpsertAggregate writes agg, replacing any previous row for the user.
func (r *TransactionRepository) UpsertAggregate(ctx context.Context, agg *models.UserAggregate) error {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_spent", "average_transaction_amount", "last_updated"}),
	}).Create(agg).Error
	return classify("upsert aggregate", err)
}

// ComputeAggregate derives a user's aggregate from the full log without
// storing it. Users without transactions yield ErrNotFound.
func (r *TransactionRepository) ComputeAggregate(ctx context.Context, userID int64) (*models.UserAggregate, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var row struct {
		Total decimal.Decimal
		Count int64
	}
	err := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return nil, classify("compute aggregate", err)
	}
	if row.Count == 0 {
		return nil, apperr.Newf(apperr.ErrNotFound, "no transactions for user %d", userID)
	}

	return &models.UserAggregate{
		UserID:        userID,
		TotalSpent:    row.Total,
		AverageAmount: row.Total.Div(decimal.NewFromInt(row.Count)),
		LastUpdated:   time.Now().UTC(),
	}, nil
}

// RecomputeAggregates rebuilds every user's aggregate from the log in one
// statement and returns the number of aggregate rows written.
func (r *TransactionRepository) RecomputeAggregates(ctx context.Context) (int64, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	res := db.Exec(recomputeAggregatesSQL)
	if res.Error != nil {
		return 0, classify("recompute aggregates", res.Error)
	}
	return res.RowsAffected, nil
}

// ListRecent returns the newest transactions across all users.
func (r *TransactionRepository) ListRecent(ctx context.Context, limit int) ([]models.Transaction, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var txs []models.Transaction
	err := db.Order("timestamp DESC").Limit(limit).Find(&txs).Error
	return txs, classify("list recent transactions", err)
}

// ListByUser returns one page of a user's transactions, newest first, and
// the user's total transaction count.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Transaction, int64, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int64
	if err := db.Model(&models.Transaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, classify("count user transactions", err)
	}

	var txs []models.Transaction
	err := db.Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&txs).Error
	if err != nil {
		return nil, 0, classify("list user transactions", err)
	}
	return txs, total, nil
}

func (r *TransactionRepository) GlobalStats(ctx context.Context) (*models.GlobalStats, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var stats models.GlobalStats
	err := db.Raw(`SELECT
		(SELECT COUNT(*) FROM transactions_log) AS total_transactions,
		(SELECT COALESCE(SUM(amount), 0) FROM transactions_log) AS total_volume,
		(SELECT COUNT(*) FROM user_historical_features) AS total_users`).
		Scan(&stats).Error
	if err != nil {
		return nil, classify("global stats", err)
	}
	return &stats, nil
}

func (r *TransactionRepository) DailySales(ctx context.Context) ([]models.DailySales, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var rows []models.DailySales
	err := db.Raw(`SELECT date_trunc('day', timestamp) AS day, SUM(amount) AS sales, COUNT(*) AS count
		FROM transactions_log
		GROUP BY day
		ORDER BY day`).
		Scan(&rows).Error
	return rows, classify("daily sales", err)
}

func (r *TransactionRepository) TopSpenders(ctx context.Context, limit int) ([]models.TopSpender, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var rows []models.TopSpender
	err := db.Raw(`SELECT user_id, SUM(amount) AS total
		FROM transactions_log
		GROUP BY user_id
		ORDER BY total DESC
		LIMIT ?`, limit).
		Scan(&rows).Error
	return rows, classify("top spenders", err)
}

func (r *TransactionRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return classify("ping", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return classify("ping", sqlDB.PingContext(ctx))
}
