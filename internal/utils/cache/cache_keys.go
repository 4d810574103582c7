package cache

import "fmt"

type FeatureType string

const (
	FeatureHistoricalAvg      FeatureType = "historical_avg"
	FeatureLastTransaction    FeatureType = "last_transaction_amount"
	FeatureTransactionsWindow FeatureType = "transactions_in_window"
)

const userPrefix = "user"

// UserFeatureKey builds the online store key of a per-user feature:
// user:{id}:{feature}.
func UserFeatureKey(userID int64, feature FeatureType) string {
	return fmt.Sprintf("%s:%d:%s", userPrefix, userID, feature)
}

func HistoricalAvgKey(userID int64) string {
	return UserFeatureKey(userID, FeatureHistoricalAvg)
}

func LastTransactionKey(userID int64) string {
	return UserFeatureKey(userID, FeatureLastTransaction)
}

func TransactionsWindowKey(userID int64) string {
	return UserFeatureKey(userID, FeatureTransactionsWindow)
}

// FeaturePattern matches the given feature for every user (SCAN/KEYS syntax).
func FeaturePattern(feature FeatureType) string {
	return fmt.Sprintf("%s:*:%s", userPrefix, feature)
}
