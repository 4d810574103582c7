package pipeline

import "time"

// Operation names used for metrics and logs
const (
	OpSubmit      = "submit"
	OpConfirm     = "confirm"
	OpCommit      = "commit"
	OpOnlineRead  = "online_read"
	OpOfflineRead = "offline_read"
)

const (
	DefaultWindow        = time.Hour
	DefaultUpdateTimeout = 2 * time.Second
	// Covers one offline read plus one online write.
	DefaultPopulateTimeout = 7 * time.Second

	DefaultRecentLimit = 5
	MaxListLimit       = 100

	ReasonApproved  = "Transaction successful."
	ReasonConfirmed = "Transaction confirmed and flagged for review."
)
