/*
Package pipeline implements the real-time transaction scoring workflow.

A submitted transaction is scored against the user's historical average
spend, read through the online store and populated from the offline store on
a miss. Approved transactions are committed straight away. Challenged ones
are not persisted until the client confirms them, at which point they are
committed with the flagged marker.

Committing a transaction always writes the offline store first. The online
features (last amount, rolling window counter) are refreshed afterwards on a
best-effort basis: a failure there is logged and counted, never returned.

Usage:

	svc := pipeline.NewService(online, offline, evaluator, pipeline.Config{
		DefaultAverage: decimal.NewFromInt(50),
		Window:         time.Hour,
	}, metrics, logger)

	res, err := svc.Submit(ctx, 42, decimal.RequireFromString("1500.00"))
	if err == nil && res.Status == pipeline.StatusChallenged {
		res, err = svc.Confirm(ctx, 42, decimal.RequireFromString("1500.00"))
	}

Reads:

OnlineFeatures, HistoricalFeatures, RecentTransactions and UserTransactions
expose the stored features and the transaction log to the HTTP layer.
*/
package pipeline
