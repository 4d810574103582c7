// Package metrics provides Prometheus instrumentation for the feature store.
package metrics

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const namespace = "featurestore"

var (
	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route pattern, and status class.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// DecisionsTotal counts scoring outcomes.
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Scored transactions by outcome.",
		},
		[]string{"status"},
	)

	// CommitsTotal counts transactions written to the offline store.
	CommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Committed transactions by flagged marker.",
		},
		[]string{"flagged"},
	)

	OnlineUpdateFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "online_update_failures_total",
			Help:      "Online feature refreshes that failed after a successful commit.",
		},
	)

	// HistoricalAvgLookupsTotal counts read-through lookups by hit or miss.
	HistoricalAvgLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "historical_avg_lookups_total",
			Help:      "Historical average lookups against the online store.",
		},
		[]string{"result"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Pipeline errors by operation and error code.",
		},
		[]string{"operation", "code"},
	)

	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Pipeline operation latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// AggregationRunsTotal counts aggregation runs by result.
	AggregationRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregation_runs_total",
			Help:      "Aggregation job runs by result.",
		},
		[]string{"result"},
	)

	AggregationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Aggregation job run duration in seconds.",
			Buckets:   []float64{.05, .1, .5, 1, 5, 10, 30, 60, 300},
		},
	)

	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "db_open_connections",
		Help:      "Open connections to the offline store.",
	})
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "db_in_use_connections",
		Help:      "Offline store connections currently in use.",
	})
	RedisTotalConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "redis_total_connections",
		Help:      "Connections in the online store pool.",
	})
	RedisIdleConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "redis_idle_connections",
		Help:      "Idle connections in the online store pool.",
	})
	RedisPoolTimeouts = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "redis_pool_timeouts",
		Help:      "Times a connection could not be taken from the online store pool.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		DecisionsTotal,
		CommitsTotal,
		OnlineUpdateFailuresTotal,
		HistoricalAvgLookupsTotal,
		ErrorsTotal,
		OperationDuration,
		AggregationRunsTotal,
		AggregationDuration,
		DBOpenConnections,
		DBInUseConnections,
		RedisTotalConns,
		RedisIdleConns,
		RedisPoolTimeouts,
	)
}

// Collector records pipeline and aggregation events into the package
// collectors.
type Collector struct{}

func NewCollector() *Collector { return &Collector{} }

func (c *Collector) RecordOperationDuration(operation string, d time.Duration) {
	OperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (c *Collector) RecordDecision(status string) {
	DecisionsTotal.WithLabelValues(status).Inc()
}

func (c *Collector) RecordCommit(flagged bool) {
	CommitsTotal.WithLabelValues(strconv.FormatBool(flagged)).Inc()
}

// Keys are not used as labels to keep cardinality bounded.
func (c *Collector) RecordCacheHit(string) {
	HistoricalAvgLookupsTotal.WithLabelValues("hit").Inc()
}

func (c *Collector) RecordCacheMiss(string) {
	HistoricalAvgLookupsTotal.WithLabelValues("miss").Inc()
}

func (c *Collector) RecordOnlineUpdateFailure() {
	OnlineUpdateFailuresTotal.Inc()
}

func (c *Collector) RecordError(operation, code string) {
	if code == "" {
		code = "UNKNOWN"
	}
	ErrorsTotal.WithLabelValues(operation, code).Inc()
}

func (c *Collector) RecordRun(result string, d time.Duration) {
	AggregationRunsTotal.WithLabelValues(result).Inc()
	AggregationDuration.Observe(d.Seconds())
}

// StartPoolStatsCollector samples the offline and online store pools into
// gauges until ctx is done. Either source may be nil.
func StartPoolStatsCollector(ctx context.Context, db *sql.DB, redisStats func() *redis.PoolStats, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if db != nil {
				stats := db.Stats()
				DBOpenConnections.Set(float64(stats.OpenConnections))
				DBInUseConnections.Set(float64(stats.InUse))
			}
			if redisStats != nil {
				if stats := redisStats(); stats != nil {
					RedisTotalConns.Set(float64(stats.TotalConns))
					RedisIdleConns.Set(float64(stats.IdleConns))
					RedisPoolTimeouts.Set(float64(stats.Timeouts))
				}
			}
		}
	}
}

// Middleware returns a fiber middleware that records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		// Route pattern, not the raw path.
		path := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		HTTPRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		HTTPRequestsTotal.WithLabelValues(c.Method(), path, statusBucket(status)).Inc()
		return err
	}
}

// Handler returns the Prometheus metrics handler for the /metrics endpoint.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
