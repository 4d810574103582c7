package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusBucket(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{422, "4xx"},
		{503, "5xx"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusBucket(tt.code), "code %d", tt.code)
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector()

	before := testutil.ToFloat64(DecisionsTotal.WithLabelValues("Challenged"))
	c.RecordDecision("Challenged")
	assert.Equal(t, before+1, testutil.ToFloat64(DecisionsTotal.WithLabelValues("Challenged")))

	before = testutil.ToFloat64(CommitsTotal.WithLabelValues("true"))
	c.RecordCommit(true)
	assert.Equal(t, before+1, testutil.ToFloat64(CommitsTotal.WithLabelValues("true")))

	before = testutil.ToFloat64(HistoricalAvgLookupsTotal.WithLabelValues("miss"))
	c.RecordCacheMiss("user:1:historical_avg")
	assert.Equal(t, before+1, testutil.ToFloat64(HistoricalAvgLookupsTotal.WithLabelValues("miss")))

	before = testutil.ToFloat64(ErrorsTotal.WithLabelValues("submit", "UNKNOWN"))
	c.RecordError("submit", "")
	assert.Equal(t, before+1, testutil.ToFloat64(ErrorsTotal.WithLabelValues("submit", "UNKNOWN")))

	before = testutil.ToFloat64(AggregationRunsTotal.WithLabelValues("success"))
	c.RecordRun("success", 10*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(AggregationRunsTotal.WithLabelValues("success")))
}

func TestMetricsEndpoint(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/metrics", Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	NewCollector().RecordOnlineUpdateFailure()

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "featurestore_online_update_failures_total")
	assert.Contains(t, string(body), `featurestore_http_requests_total{method="GET",path="/ping",status="2xx"}`)
}
