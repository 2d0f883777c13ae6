package monitor

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultMaxHistory     = 10000
	snapshotWindow        = 24 * time.Hour
	errorRateWindow       = 5 * time.Minute
	errorRateMinSamples   = 10
	defaultSlowQueryLimit = 10
)

// QueryMetrics is one recorded query execution. The monitor owns the
// history exclusively; entries are never persisted externally.
type QueryMetrics struct {
	QueryID         string    `json:"query_id"`
	QueryType       string    `json:"query_type"`
	ExecutionTimeMs int64     `json:"execution_time_ms"`
	DataSize        int       `json:"data_size"`
	RecordCount     int       `json:"record_count"`
	CacheHit        bool      `json:"cache_hit"`
	Timestamp       time.Time `json:"timestamp"`
	OrganizationID  string    `json:"organization_id,omitempty"`
	UserID          string    `json:"user_id,omitempty"`
	ErrorOccurred   bool      `json:"error_occurred"`
	ErrorMessage    string    `json:"error_message,omitempty"`
}

// Snapshot is recomputed on demand from the metrics buffer.
type Snapshot struct {
	AverageResponseTimeMs int64          `json:"average_response_time_ms"`
	P95ResponseTimeMs     int64          `json:"p95_response_time_ms"`
	P99ResponseTimeMs     int64          `json:"p99_response_time_ms"`
	TotalQueries          int            `json:"total_queries"`
	ErrorRate             float64        `json:"error_rate"`
	CacheHitRate          float64        `json:"cache_hit_rate"`
	SlowestQueries        []QueryMetrics `json:"slowest_queries"`
	PerformanceGrade      string         `json:"performance_grade"`
	Recommendations       []string       `json:"recommendations"`
	Timestamp             time.Time      `json:"timestamp"`
}

// TypeBreakdown aggregates recent metrics per query type.
type TypeBreakdown struct {
	Count     int     `json:"count"`
	AvgTimeMs int64   `json:"avg_time_ms"`
	ErrorRate float64 `json:"error_rate"`
}

// AlertThresholds configure instantaneous and rolling alert checks.
type AlertThresholds struct {
	MaxResponseTimeMs int64   // per query
	MaxErrorRate      float64 // percent over the rolling window
	MinCacheHitRate   float64 // percent, snapshot grading only
}

func DefaultThresholds() AlertThresholds {
	return AlertThresholds{
		MaxResponseTimeMs: 2000,
		MaxErrorRate:      5,
		MinCacheHitRate:   70,
	}
}

// Alert is delivered synchronously to registered callbacks.
type Alert struct {
	Type      string       `json:"type"` // slow_query | query_error | high_error_rate
	Severity  string       `json:"severity"`
	Message   string       `json:"message"`
	Metric    QueryMetrics `json:"metric"`
	Timestamp time.Time    `json:"timestamp"`
}

type AlertFunc func(Alert)

// Monitor records query metrics in a bounded buffer and derives rolling
// snapshots, per-type breakdowns and threshold alerts from it.
type Monitor struct {
	mu         sync.RWMutex
	metrics    []QueryMetrics
	maxHistory int
	callbacks  []AlertFunc

	thresholds AlertThresholds
	now        func() time.Time
	logger     *zap.Logger
}

func New(thresholds AlertThresholds, logger *zap.Logger) *Monitor {
	return &Monitor{
		maxHistory: defaultMaxHistory,
		thresholds: thresholds,
		now:        time.Now,
		logger:     logger,
	}
}

// OnAlert registers a callback invoked synchronously for every alert.
// Panicking callbacks are recovered and logged; they never reach the
// monitored code path.
func (m *Monitor) OnAlert(cb AlertFunc) {
	m.mu.Lock()
	m.callbacks = append(m.callbacks, cb)
	m.mu.Unlock()
}

// StartQuery returns a tracker for one query. The caller must finish it
// with exactly one of Complete or Error before discarding it.
func (m *Monitor) StartQuery(queryID, queryType, organizationID, userID string) *Tracker {
	return &Tracker{
		monitor:        m,
		queryID:        queryID,
		queryType:      queryType,
		organizationID: organizationID,
		userID:         userID,
		started:        m.now(),
	}
}

func (m *Monitor) record(metric QueryMetrics) {
	m.mu.Lock()
	m.metrics = append(m.metrics, metric)
	if len(m.metrics) > m.maxHistory {
		m.metrics = m.metrics[len(m.metrics)-m.maxHistory:]
	}
	callbacks := m.callbacks
	recent := m.recentLocked(errorRateWindow)
	m.mu.Unlock()

	alerts := m.checkThresholds(metric, recent)
	for _, alert := range alerts {
		for _, cb := range callbacks {
			m.fire(cb, alert)
		}
	}
}

func (m *Monitor) fire(cb AlertFunc, alert Alert) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("alert callback panicked", zap.Any("panic", r))
		}
	}()
	cb(alert)
}

func (m *Monitor) checkThresholds(metric QueryMetrics, recent []QueryMetrics) []Alert {
	var alerts []Alert
	now := m.now()

	if metric.ExecutionTimeMs > m.thresholds.MaxResponseTimeMs {
		severity := "warning"
		if metric.ExecutionTimeMs > m.thresholds.MaxResponseTimeMs*2 {
			severity = "critical"
		}
		alerts = append(alerts, Alert{
			Type:     "slow_query",
			Severity: severity,
			Message: fmt.Sprintf("query %s took %dms (threshold %dms)",
				metric.QueryType, metric.ExecutionTimeMs, m.thresholds.MaxResponseTimeMs),
			Metric:    metric,
			Timestamp: now,
		})
	}

	if metric.ErrorOccurred {
		alerts = append(alerts, Alert{
			Type:      "query_error",
			Severity:  "error",
			Message:   fmt.Sprintf("query %s failed: %s", metric.QueryType, metric.ErrorMessage),
			Metric:    metric,
			Timestamp: now,
		})
	}

	if len(recent) >= errorRateMinSamples {
		errored := 0
		for _, r := range recent {
			if r.ErrorOccurred {
				errored++
			}
		}
		rate := float64(errored) / float64(len(recent)) * 100
		if rate > m.thresholds.MaxErrorRate {
			alerts = append(alerts, Alert{
				Type:     "high_error_rate",
				Severity: "critical",
				Message: fmt.Sprintf("error rate is %.2f%% (threshold %.0f%%)",
					rate, m.thresholds.MaxErrorRate),
				Metric:    metric,
				Timestamp: now,
			})
		}
	}

	return alerts
}

// Snapshot computes the rolling performance view over the last 24 hours.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	recent := m.recentLocked(snapshotWindow)
	m.mu.RUnlock()

	return m.snapshotFor(recent)
}

// OrganizationSnapshot restricts the snapshot to one organization's queries.
func (m *Monitor) OrganizationSnapshot(organizationID string) Snapshot {
	m.mu.RLock()
	var scoped []QueryMetrics
	for _, metric := range m.metrics {
		if metric.OrganizationID == organizationID {
			scoped = append(scoped, metric)
		}
	}
	m.mu.RUnlock()

	return m.snapshotFor(scoped)
}

func (m *Monitor) snapshotFor(metrics []QueryMetrics) Snapshot {
	now := m.now()
	if len(metrics) == 0 {
		return Snapshot{
			PerformanceGrade: "A",
			Recommendations:  []string{"no queries recorded yet"},
			SlowestQueries:   []QueryMetrics{},
			Timestamp:        now,
		}
	}

	times := make([]int64, len(metrics))
	var sum int64
	errored, hits := 0, 0
	for i, metric := range metrics {
		times[i] = metric.ExecutionTimeMs
		sum += metric.ExecutionTimeMs
		if metric.ErrorOccurred {
			errored++
		}
		if metric.CacheHit {
			hits++
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	avg := sum / int64(len(times))
	errorRate := round2(float64(errored) / float64(len(metrics)) * 100)
	hitRate := round2(float64(hits) / float64(len(metrics)) * 100)

	slowest := append([]QueryMetrics(nil), metrics...)
	sort.Slice(slowest, func(i, j int) bool {
		return slowest[i].ExecutionTimeMs > slowest[j].ExecutionTimeMs
	})
	if len(slowest) > defaultSlowQueryLimit {
		slowest = slowest[:defaultSlowQueryLimit]
	}

	return Snapshot{
		AverageResponseTimeMs: avg,
		P95ResponseTimeMs:     percentile(times, 0.95),
		P99ResponseTimeMs:     percentile(times, 0.99),
		TotalQueries:          len(metrics),
		ErrorRate:             errorRate,
		CacheHitRate:          hitRate,
		SlowestQueries:        slowest,
		PerformanceGrade:      grade(float64(avg), errorRate, hitRate),
		Recommendations:       recommendations(float64(avg), errorRate, hitRate, slowest),
		Timestamp:             now,
	}
}

// Breakdown aggregates the last 24 hours of metrics per query type.
func (m *Monitor) Breakdown() map[string]TypeBreakdown {
	m.mu.RLock()
	recent := m.recentLocked(snapshotWindow)
	m.mu.RUnlock()

	type acc struct {
		count   int
		totalMs int64
		errored int
	}
	accs := make(map[string]*acc)
	for _, metric := range recent {
		a := accs[metric.QueryType]
		if a == nil {
			a = &acc{}
			accs[metric.QueryType] = a
		}
		a.count++
		a.totalMs += metric.ExecutionTimeMs
		if metric.ErrorOccurred {
			a.errored++
		}
	}

	out := make(map[string]TypeBreakdown, len(accs))
	for qt, a := range accs {
		out[qt] = TypeBreakdown{
			Count:     a.count,
			AvgTimeMs: a.totalMs / int64(a.count),
			ErrorRate: round2(float64(a.errored) / float64(a.count) * 100),
		}
	}
	return out
}

// ClearHistory drops all recorded metrics.
func (m *Monitor) ClearHistory() {
	m.mu.Lock()
	m.metrics = nil
	m.mu.Unlock()
}

// recentLocked requires at least a read lock to be held.
func (m *Monitor) recentLocked(window time.Duration) []QueryMetrics {
	cutoff := m.now().Add(-window)
	var out []QueryMetrics
	for _, metric := range m.metrics {
		if !metric.Timestamp.Before(cutoff) {
			out = append(out, metric)
		}
	}
	return out
}

func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Floor(float64(len(sorted)) * p))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// grade derives the letter grade from a 100-point score: high latency
// deducts up to 40 points, each 1% of error rate deducts 7, low cache-hit
// rate deducts up to 25.
func grade(avgMs, errorRate, hitRate float64) string {
	score := 100.0

	switch {
	case avgMs > 2000:
		score -= 40
	case avgMs > 1000:
		score -= 25
	case avgMs > 500:
		score -= 10
	}

	score -= errorRate * 7

	switch {
	case hitRate < 50:
		score -= 25
	case hitRate < 70:
		score -= 15
	case hitRate < 85:
		score -= 5
	}

	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

func recommendations(avgMs, errorRate, hitRate float64, slowest []QueryMetrics) []string {
	var recs []string

	if avgMs > 1000 {
		recs = append(recs,
			"consider caching results of frequent queries",
			"review database indexes for frequently queried fields")
		if len(slowest) > 0 {
			recs = append(recs, fmt.Sprintf("optimize %s queries, they are the slowest", slowest[0].QueryType))
		}
	}
	if hitRate < 60 {
		recs = append(recs, "increase cache TTL for frequently accessed data")
	}
	if errorRate > 2 {
		recs = append(recs, "investigate error patterns and add retry logic")
	}
	if recs == nil {
		recs = []string{"performance is good"}
	}
	return recs
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
