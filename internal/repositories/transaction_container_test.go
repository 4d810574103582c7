package repositories

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"featurestore/internal/config"
	apperr "featurestore/internal/errors"
	"featurestore/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// newContainerRepository starts a throwaway Postgres, applies the
// migrations and returns a repository on it.
func newContainerRepository(t *testing.T) (*TransactionRepository, *gorm.DB) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("feature_store"),
		tcpostgres.WithUsername("featurestore"),
		tcpostgres.WithPassword("featurestore"),
		tcpostgres.BasicWaitStrategies(),
	)
	t.Cleanup(func() {
		if ctr != nil {
			_ = ctr.Terminate(context.Background())
		}
	})
	require.NoError(t, err)

	endpoint, err := ctr.Endpoint(ctx, "")
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(endpoint)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	db, err := OpenPostgres(ctx, config.DBConfig{
		Host:            host,
		Port:            port,
		User:            "featurestore",
		Password:        "featurestore",
		Name:            "feature_store",
		SSLMode:         "disable",
		MaxIdleConns:    2,
		MaxOpenConns:    5,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })

	require.NoError(t, Migrate(ctx, db))
	return NewTransactionRepository(db, 5*time.Second), db
}

func seedTransaction(t *testing.T, repo *TransactionRepository, userID int64, amount string, at time.Time) {
	t.Helper()
	err := repo.InsertTransaction(context.Background(), &models.Transaction{
		UserID:    userID,
		Amount:    decimal.RequireFromString(amount),
		Timestamp: at,
		Reference: uuid.NewString(),
	})
	require.NoError(t, err)
}

func TestTransactionRepository_Postgres(t *testing.T) {
	repo, db := newContainerRepository(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	amounts := []string{"10.00", "20.00", "35.50", "12.25", "7.10"}
	for i, a := range amounts {
		seedTransaction(t, repo, 1, a, base.Add(time.Duration(i)*time.Hour))
	}
	seedTransaction(t, repo, 2, "500.00", base.Add(24*time.Hour))

	t.Run("list by user pages newest first", func(t *testing.T) {
		page, total, err := repo.ListByUser(ctx, 1, 2, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, page, 2)
		assert.True(t, page[0].Amount.Equal(decimal.RequireFromString("7.10")))
		assert.True(t, page[1].Amount.Equal(decimal.RequireFromString("12.25")))

		page, _, err = repo.ListByUser(ctx, 1, 2, 4)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.True(t, page[0].Amount.Equal(decimal.RequireFromString("10.00")))
	})

	t.Run("list recent spans users", func(t *testing.T) {
		recent, err := repo.ListRecent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, int64(2), recent[0].UserID)
	})

	t.Run("missing aggregate", func(t *testing.T) {
		_, err := repo.GetAggregate(ctx, 1)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		_, err = repo.ComputeAggregate(ctx, 99)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("recompute matches total over count", func(t *testing.T) {
		rows, err := repo.RecomputeAggregates(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), rows)

		agg, err := repo.GetAggregate(ctx, 1)
		require.NoError(t, err)
		total := decimal.RequireFromString("84.85")
		assert.True(t, agg.TotalSpent.Equal(total), "total %s", agg.TotalSpent)
		assert.True(t, agg.AverageAmount.Round(6).Equal(total.Div(decimal.NewFromInt(5)).Round(6)),
			"average %s", agg.AverageAmount)

		computed, err := repo.ComputeAggregate(ctx, 1)
		require.NoError(t, err)
		assert.True(t, computed.TotalSpent.Equal(agg.TotalSpent))
		assert.True(t, computed.AverageAmount.Round(6).Equal(agg.AverageAmount.Round(6)))
	})

	t.Run("upsert replaces the aggregate", func(t *testing.T) {
		err := repo.UpsertAggregate(ctx, &models.UserAggregate{
			UserID:        2,
			TotalSpent:    decimal.NewFromInt(900),
			AverageAmount: decimal.NewFromInt(450),
			LastUpdated:   time.Now().UTC(),
		})
		require.NoError(t, err)

		agg, err := repo.GetAggregate(ctx, 2)
		require.NoError(t, err)
		assert.True(t, agg.AverageAmount.Equal(decimal.NewFromInt(450)))
	})

	t.Run("reporting", func(t *testing.T) {
		stats, err := repo.GlobalStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(6), stats.TotalTransactions)
		assert.Equal(t, int64(2), stats.TotalUsers)
		assert.True(t, stats.TotalVolume.Equal(decimal.RequireFromString("584.85")))

		days, err := repo.DailySales(ctx)
		require.NoError(t, err)
		assert.Len(t, days, 2)

		top, err := repo.TopSpenders(ctx, 1)
		require.NoError(t, err)
		require.Len(t, top, 1)
		assert.Equal(t, int64(2), top[0].UserID)
	})

	t.Run("check constraint rejects amounts that round to zero", func(t *testing.T) {
		// Bypasses the repository guard to reach the table constraint.
		err := db.WithContext(ctx).Create(&models.Transaction{
			UserID:    3,
			Amount:    decimal.RequireFromString("0.001"),
			Timestamp: base,
			Reference: uuid.NewString(),
		}).Error
		assert.ErrorIs(t, classify("insert transaction", err), apperr.ErrConstraintViolation)
	})

	require.NoError(t, repo.Ping(ctx))
}
