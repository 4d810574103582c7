package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperr "featurestore/internal/errors"
	"featurestore/internal/models"
	"featurestore/internal/repositories/cache"
	"featurestore/internal/services/aggregation"
	"featurestore/internal/services/pipeline"
	"featurestore/internal/services/risk"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) Submit(ctx context.Context, userID int64, amount decimal.Decimal) (*pipeline.Result, error) {
	args := m.Called(ctx, userID, amount.String())
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Result), args.Error(1)
}

func (m *MockPipeline) Confirm(ctx context.Context, userID int64, amount decimal.Decimal) (*pipeline.Result, error) {
	args := m.Called(ctx, userID, amount.String())
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Result), args.Error(1)
}

func (m *MockPipeline) OnlineFeatures(ctx context.Context, userID int64) (*models.OnlineFeatures, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OnlineFeatures), args.Error(1)
}

func (m *MockPipeline) HistoricalFeatures(ctx context.Context, userID int64) (*models.UserAggregate, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAggregate), args.Error(1)
}

func (m *MockPipeline) RecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockPipeline) UserTransactions(ctx context.Context, userID int64, limit, offset int) ([]models.Transaction, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Transaction), args.Get(1).(int64), args.Error(2)
}

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) RunAll(ctx context.Context) (*aggregation.RunResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aggregation.RunResult), args.Error(1)
}

func (m *MockRunner) RunUser(ctx context.Context, userID int64) (*models.UserAggregate, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAggregate), args.Error(1)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type staticStats cache.Stats

func (s staticStats) Stats() cache.Stats { return cache.Stats(s) }

func doRequest(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func newTransactionApp(p FeaturePipeline) *fiber.App {
	app := fiber.New()
	h := NewTransactionHandler(p)
	app.Post("/submit", h.Submit)
	app.Post("/confirm", h.Confirm)
	app.Get("/recent", h.Recent)
	app.Get("/user/:user_id", h.ByUser)
	return app
}

func TestTransactionHandler_Submit(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockPipeline)
		wantStatus int
		check      func(*testing.T, map[string]interface{})
	}{
		{
			name: "challenged",
			body: `{"user_id": 42, "amount": 1500.00}`,
			setupMock: func(p *MockPipeline) {
				p.On("Submit", mock.Anything, int64(42), "1500").Return(&pipeline.Result{
					Status:        pipeline.StatusChallenged,
					Reason:        "Suspicious: $1500.00 vs Avg $50.00",
					HistoricalAvg: decimal.NewFromInt(50),
				}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Challenged", body["status"])
				assert.Equal(t, "Suspicious: $1500.00 vs Avg $50.00", body["reason"])
				assert.NotContains(t, body, "reference")
			},
		},
		{
			name:       "malformed body",
			body:       `{"user_id": "abc"`,
			setupMock:  func(*MockPipeline) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "validation error",
			body: `{"user_id": 42, "amount": 0}`,
			setupMock: func(p *MockPipeline) {
				p.On("Submit", mock.Anything, int64(42), "0").
					Return(nil, apperr.Newf(apperr.ErrValidation, "amount must be greater than zero"))
			},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "amount must be greater than zero", body["error"])
			},
		},
		{
			name: "online store down",
			body: `{"user_id": 42, "amount": 10}`,
			setupMock: func(p *MockPipeline) {
				p.On("Submit", mock.Anything, int64(42), "10").
					Return(nil, apperr.Wrap(apperr.ErrServiceUnavailable, errors.New("redis down")))
			},
			wantStatus: http.StatusServiceUnavailable,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "SERVICE_UNAVAILABLE", body["code"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := new(MockPipeline)
			tt.setupMock(p)

			status, body := doRequest(t, newTransactionApp(p), "POST", "/submit", tt.body)
			assert.Equal(t, tt.wantStatus, status)
			if tt.check != nil {
				tt.check(t, body)
			}
			p.AssertExpectations(t)
		})
	}
}

func TestTransactionHandler_Confirm(t *testing.T) {
	p := new(MockPipeline)
	p.On("Confirm", mock.Anything, int64(42), "1500").Return(&pipeline.Result{
		Status:    pipeline.StatusApproved,
		Reason:    pipeline.ReasonConfirmed,
		Reference: "3f1c2a9e-0000-4000-8000-000000000000",
	}, nil)

	status, body := doRequest(t, newTransactionApp(p), "POST", "/confirm", `{"user_id": 42, "amount": "1500.00"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Approved", body["status"])
	assert.Equal(t, "3f1c2a9e-0000-4000-8000-000000000000", body["reference"])
}

func TestTransactionHandler_Lists(t *testing.T) {
	p := new(MockPipeline)
	p.On("RecentTransactions", mock.Anything, 0).Return([]models.Transaction{{ID: 1}}, nil)
	p.On("UserTransactions", mock.Anything, int64(9), 2, 2).
		Return([]models.Transaction{{ID: 3, UserID: 9}}, int64(5), nil)
	app := newTransactionApp(p)

	status, body := doRequest(t, app, "GET", "/recent", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = doRequest(t, app, "GET", "/user/9?page=2&limit=2", "")
	assert.Equal(t, http.StatusOK, status)
	meta := body["meta"].(map[string]interface{})
	assert.EqualValues(t, 5, meta["total_items"])
	assert.EqualValues(t, 3, meta["total_pages"])

	status, _ = doRequest(t, app, "GET", "/user/abc", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFeatureHandler(t *testing.T) {
	p := new(MockPipeline)
	p.On("OnlineFeatures", mock.Anything, int64(42)).Return(&models.OnlineFeatures{
		UserID:                42,
		LastTransactionAmount: decimal.NewFromInt(1500),
		TransactionsInWindow:  1,
	}, nil)
	p.On("OnlineFeatures", mock.Anything, int64(7)).
		Return(nil, apperr.Newf(apperr.ErrNotFound, "no online features for user 7"))
	p.On("HistoricalFeatures", mock.Anything, int64(7)).
		Return(nil, apperr.Wrap(apperr.ErrStoreTimeout, context.DeadlineExceeded))

	app := fiber.New()
	h := NewFeatureHandler(p)
	app.Get("/features/:user_id", h.Online)
	app.Get("/features/historical/:user_id", h.Historical)

	status, body := doRequest(t, app, "GET", "/features/42", "")
	assert.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 1, data["transactions_in_window"])

	status, _ = doRequest(t, app, "GET", "/features/7", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(t, app, "GET", "/features/historical/7", "")
	assert.Equal(t, http.StatusGatewayTimeout, status)

	status, _ = doRequest(t, app, "GET", "/features/0", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAggregationHandler_Run(t *testing.T) {
	r := new(MockRunner)
	r.On("RunAll", mock.Anything).Return(&aggregation.RunResult{UsersUpdated: 4, CacheInvalidated: 3}, nil)
	r.On("RunUser", mock.Anything, int64(8)).
		Return(nil, apperr.Newf(apperr.ErrNotFound, "no transactions for user 8"))

	app := fiber.New()
	app.Post("/run", NewAggregationHandler(r).Run)

	status, body := doRequest(t, app, "POST", "/run", "")
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 4, body["data"].(map[string]interface{})["users_updated"])

	status, _ = doRequest(t, app, "POST", "/run?user_id=8", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(t, app, "POST", "/run?user_id=x", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSettingsHandler(t *testing.T) {
	evaluator, err := risk.NewEvaluator(risk.DefaultThresholds())
	require.NoError(t, err)

	app := fiber.New()
	h := NewSettingsHandler(evaluator)
	app.Get("/risk", h.GetRisk)
	app.Put("/risk", h.UpdateRisk)

	status, body := doRequest(t, app, "GET", "/risk", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "5", body["data"].(map[string]interface{})["multiplier"])

	status, _ = doRequest(t, app, "PUT", "/risk", `{"multiplier": 0, "floor": 300}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, app, "PUT", "/risk", `{"multiplier": 3, "floor": 100}`)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, evaluator.Thresholds().Multiplier.Equal(decimal.NewFromInt(3)))
}

func TestHealthHandler(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })
	stats := staticStats{Hits: 3, Misses: 1, HitRatio: 75}

	app := fiber.New()
	app.Get("/up", NewHealthHandler(ok, ok, stats).HealthCheck)
	app.Get("/down", NewHealthHandler(ok, down, stats).HealthCheck)
	app.Get("/stats", NewHealthHandler(ok, ok, stats).CacheStats)

	status, body := doRequest(t, app, "GET", "/up", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	status, body = doRequest(t, app, "GET", "/down", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unavailable", body["services"].(map[string]interface{})["redis"])

	status, body = doRequest(t, app, "GET", "/stats", "")
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 75, body["cache_stats"].(map[string]interface{})["hit_ratio"])
}
