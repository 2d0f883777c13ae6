package monitor

import "time"

// Tracker follows a single query from start to completion. Exactly one of
// Complete or Error must be called before the tracker is discarded.
type Tracker struct {
	monitor        *Monitor
	queryID        string
	queryType      string
	organizationID string
	userID         string
	started        time.Time

	dataSize    int
	recordCount int
}

// SetDataMetrics records the result size before completion.
func (t *Tracker) SetDataMetrics(dataSize, recordCount int) {
	t.dataSize = dataSize
	t.recordCount = recordCount
}

// Complete finishes tracking successfully.
func (t *Tracker) Complete(cacheHit bool) {
	t.monitor.record(QueryMetrics{
		QueryID:         t.queryID,
		QueryType:       t.queryType,
		ExecutionTimeMs: t.elapsedMs(),
		DataSize:        t.dataSize,
		RecordCount:     t.recordCount,
		CacheHit:        cacheHit,
		Timestamp:       t.monitor.now(),
		OrganizationID:  t.organizationID,
		UserID:          t.userID,
	})
}

// Error finishes tracking with a failure.
func (t *Tracker) Error(message string) {
	t.monitor.record(QueryMetrics{
		QueryID:         t.queryID,
		QueryType:       t.queryType,
		ExecutionTimeMs: t.elapsedMs(),
		DataSize:        t.dataSize,
		RecordCount:     t.recordCount,
		Timestamp:       t.monitor.now(),
		OrganizationID:  t.organizationID,
		UserID:          t.userID,
		ErrorOccurred:   true,
		ErrorMessage:    message,
	})
}

func (t *Tracker) elapsedMs() int64 {
	return t.monitor.now().Sub(t.started).Milliseconds()
}
