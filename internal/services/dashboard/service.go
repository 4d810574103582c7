package dashboard

import (
	"context"
	"fmt"

	"featurestore/internal/models"

	"golang.org/x/sync/errgroup"
)

// DefaultTopSpenders is the number of users returned by Analytics.
const DefaultTopSpenders = 10

// Store provides the read-only reporting queries over the transaction log.
type Store interface {
	GlobalStats(ctx context.Context) (*models.GlobalStats, error)
	DailySales(ctx context.Context) ([]models.DailySales, error)
	TopSpenders(ctx context.Context, limit int) ([]models.TopSpender, error)
}

type Service interface {
	GlobalStats(ctx context.Context) (*models.GlobalStats, error)
	Analytics(ctx context.Context) (*models.Analytics, error)
}

type service struct {
	store Store
}

func NewService(store Store) Service {
	if store == nil {
		panic("store is required")
	}
	return &service{store: store}
}

func (s *service) GlobalStats(ctx context.Context) (*models.GlobalStats, error) {
	stats, err := s.store.GlobalStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get global stats: %w", err)
	}
	return stats, nil
}

// Analytics returns sales per day and the top spenders, queried in parallel.
func (s *service) Analytics(ctx context.Context) (*models.Analytics, error) {
	var (
		sales    []models.DailySales
		spenders []models.TopSpender
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sales, err = s.store.DailySales(gctx)
		if err != nil {
			return fmt.Errorf("failed to get daily sales: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		spenders, err = s.store.TopSpenders(gctx, DefaultTopSpenders)
		if err != nil {
			return fmt.Errorf("failed to get top spenders: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if sales == nil {
		sales = []models.DailySales{}
	}
	if spenders == nil {
		spenders = []models.TopSpender{}
	}
	return &models.Analytics{SalesOverTime: sales, TopSpenders: spenders}, nil
}
