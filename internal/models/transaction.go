package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single committed row of the offline log.
// Rows are append-only: once inserted they are never updated or deleted.
type Transaction struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	UserID    int64           `gorm:"not null;index" json:"user_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Timestamp time.Time       `gorm:"not null;index:,sort:desc" json:"timestamp"`
	IsFlagged bool            `gorm:"not null;default:false" json:"is_flagged"`
	Reference string          `gorm:"type:uuid" json:"reference"`
}

func (Transaction) TableName() string { return "transactions_log" }

// UserAggregate is the derived spending profile of one user. It is
// recomputable from transactions_log at any time and is only written by the
// aggregation job.
type UserAggregate struct {
	UserID        int64           `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	TotalSpent    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_spent"`
	AverageAmount decimal.Decimal `gorm:"column:average_transaction_amount;type:numeric;not null" json:"average_transaction_amount"`
	LastUpdated   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"last_updated"`
}

func (UserAggregate) TableName() string { return "user_historical_features" }

// OnlineFeatures is the low-latency feature set served from the online store.
type OnlineFeatures struct {
	UserID                int64           `json:"user_id"`
	LastTransactionAmount decimal.Decimal `json:"last_transaction_amount"`
	TransactionsInWindow  int64           `json:"transactions_in_window"`
	RetrievedAt           time.Time       `json:"retrieved_at"`
}
