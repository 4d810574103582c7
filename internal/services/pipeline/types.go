package pipeline

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the outcome reported to the client.
type Status string

const (
	StatusApproved   Status = "Approved"
	StatusChallenged Status = "Challenged"
)

// Result is returned by Submit and Confirm.
type Result struct {
	Status        Status          `json:"status"`
	Reason        string          `json:"reason"`
	Reference     string          `json:"reference,omitempty"`
	HistoricalAvg decimal.Decimal `json:"historical_avg"`
}

// Config holds pipeline settings.
type Config struct {
	// DefaultAverage is used for users with no historical profile.
	DefaultAverage decimal.Decimal
	// Window is the lifetime of the rolling transaction counter.
	Window time.Duration
	// UpdateTimeout bounds the best-effort online update after a commit.
	UpdateTimeout time.Duration
	// PopulateTimeout bounds a shared cold-start lookup of the historical
	// average.
	PopulateTimeout time.Duration
}

// MetricsCollector defines the interface for collecting pipeline metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordDecision(status string)
	RecordCommit(flagged bool)

	// Historical average lookups
	RecordCacheHit(key string)
	RecordCacheMiss(key string)

	RecordOnlineUpdateFailure()
	RecordError(operation, code string)
}
