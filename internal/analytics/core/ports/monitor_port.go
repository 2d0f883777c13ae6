package ports

import "context"

// QueryTracker follows one tracked query from start to completion.
// Exactly one of Complete or Error must be called.
type QueryTracker interface {
	SetDataMetrics(dataSize, recordCount int)
	Complete(cacheHit bool)
	Error(message string)
}

// MonitorPort starts query tracking for performance measurement.
type MonitorPort interface {
	StartQuery(queryID, queryType, organizationID, userID string) QueryTracker
}

// BreakerPort wraps a database operation with circuit breaking. The wrapped
// function is not invoked while the breaker is open.
type BreakerPort interface {
	Execute(ctx context.Context, operation string, fn func(ctx context.Context) error) error
}
