package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GlobalStats summarises the whole offline store.
type GlobalStats struct {
	TotalTransactions int64           `json:"total_transactions"`
	TotalVolume       decimal.Decimal `json:"total_volume"`
	TotalUsers        int64           `json:"total_users"`
}

// DailySales is one bucket of the sales-over-time series.
type DailySales struct {
	Day   time.Time       `json:"day"`
	Sales decimal.Decimal `json:"sales"`
	Count int64           `json:"tx_count"`
}

// TopSpender is one row of the top spenders ranking.
type TopSpender struct {
	UserID int64           `json:"user_id"`
	Total  decimal.Decimal `json:"total"`
}

// Analytics groups the reporting series shown on the dashboard.
type Analytics struct {
	SalesOverTime []DailySales `json:"sales_over_time"`
	TopSpenders   []TopSpender `json:"top_spenders"`
}
