package usecase_test

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"marketing-analytics-service/internal/analytics/core/domain"
	"marketing-analytics-service/internal/analytics/core/ports"
)

// fakeCache implements ports.CachePort with a plain map so tests can assert
// what got cached and with which TTL override.
type fakeCache struct {
	entries map[string][]byte
	ttls    map[string]time.Duration
	gets    int
	hits    int
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func cacheKey(queryType string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+":"+params[name])
	}
	return queryType + ":" + strings.Join(pairs, "|")
}

func (f *fakeCache) Get(ctx context.Context, queryType string, params map[string]string, dest any) bool {
	f.gets++
	raw, ok := f.entries[cacheKey(queryType, params)]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	f.hits++
	return true
}

func (f *fakeCache) Set(ctx context.Context, queryType string, params map[string]string, value any) {
	f.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	f.entries[cacheKey(queryType, params)] = raw
}

func (f *fakeCache) SetTTL(ctx context.Context, queryType string, params map[string]string, value any, ttl time.Duration) {
	f.Set(ctx, queryType, params, value)
	f.ttls[cacheKey(queryType, params)] = ttl
}

func (f *fakeCache) Delete(ctx context.Context, queryType string, params map[string]string) {
	delete(f.entries, cacheKey(queryType, params))
}

func (f *fakeCache) InvalidatePattern(ctx context.Context, pattern string) {}

// fakeTracker records the tracker lifecycle for assertion.
type fakeTracker struct {
	queryType  string
	dataSize   int
	records    int
	completed  bool
	cacheHit   bool
	failed     bool
	errMessage string
}

func (f *fakeTracker) SetDataMetrics(dataSize, recordCount int) {
	f.dataSize = dataSize
	f.records = recordCount
}

func (f *fakeTracker) Complete(cacheHit bool) {
	f.completed = true
	f.cacheHit = cacheHit
}

func (f *fakeTracker) Error(message string) {
	f.failed = true
	f.errMessage = message
}

type fakeMonitor struct {
	trackers []*fakeTracker
}

func (f *fakeMonitor) StartQuery(queryID, queryType, organizationID, userID string) ports.QueryTracker {
	tr := &fakeTracker{queryType: queryType}
	f.trackers = append(f.trackers, tr)
	return tr
}

func (f *fakeMonitor) last() *fakeTracker {
	if len(f.trackers) == 0 {
		return &fakeTracker{}
	}
	return f.trackers[len(f.trackers)-1]
}

// fakeBreaker passes calls straight through unless failWith is set.
type fakeBreaker struct {
	failWith error
	calls    int
}

func (f *fakeBreaker) Execute(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	f.calls++
	if f.failWith != nil {
		return f.failWith
	}
	return fn(ctx)
}

// fakeMetricsReader fakes ports.MetricsReaderPort with per-method hooks.
type fakeMetricsReader struct {
	OrgsFn           func(userID string) ([]string, error)
	ContentStatusFn  func(userID string, rng ports.DateRange) ([]ports.StatusCount, error)
	CampaignStatusFn func(orgIDs []string, rng ports.DateRange) ([]ports.StatusCount, error)
	ContentDaysFn    func(userID string, rng ports.DateRange) ([]ports.DayCount, error)
	CampaignDaysFn   func(orgIDs []string, rng ports.DateRange) ([]ports.DayCount, error)
	MetricTotalsFn   func(orgIDs []string, metric string, rng ports.DateRange) ([]ports.DayCount, error)
	OverviewFn       func(orgIDs []string, rng ports.DateRange) ([]domain.OverviewRow, error)

	orgCalls      int
	overviewCalls int
	statusCalls   int
}

func (f *fakeMetricsReader) UserOrganizationIDs(ctx context.Context, userID string) ([]string, error) {
	f.orgCalls++
	if f.OrgsFn != nil {
		return f.OrgsFn(userID)
	}
	return []string{"org-1"}, nil
}

func (f *fakeMetricsReader) ContentStatusCounts(ctx context.Context, userID string, rng ports.DateRange) ([]ports.StatusCount, error) {
	f.statusCalls++
	if f.ContentStatusFn != nil {
		return f.ContentStatusFn(userID, rng)
	}
	return nil, nil
}

func (f *fakeMetricsReader) CampaignStatusCounts(ctx context.Context, orgIDs []string, rng ports.DateRange) ([]ports.StatusCount, error) {
	if f.CampaignStatusFn != nil {
		return f.CampaignStatusFn(orgIDs, rng)
	}
	return nil, nil
}

func (f *fakeMetricsReader) ContentCreatedByDay(ctx context.Context, userID string, rng ports.DateRange) ([]ports.DayCount, error) {
	if f.ContentDaysFn != nil {
		return f.ContentDaysFn(userID, rng)
	}
	return nil, nil
}

func (f *fakeMetricsReader) CampaignsCreatedByDay(ctx context.Context, orgIDs []string, rng ports.DateRange) ([]ports.DayCount, error) {
	if f.CampaignDaysFn != nil {
		return f.CampaignDaysFn(orgIDs, rng)
	}
	return nil, nil
}

func (f *fakeMetricsReader) MetricDailyTotals(ctx context.Context, orgIDs []string, metric string, rng ports.DateRange) ([]ports.DayCount, error) {
	if f.MetricTotalsFn != nil {
		return f.MetricTotalsFn(orgIDs, metric, rng)
	}
	return nil, nil
}

func (f *fakeMetricsReader) OverviewRows(ctx context.Context, orgIDs []string, rng ports.DateRange) ([]domain.OverviewRow, error) {
	f.overviewCalls++
	if f.OverviewFn != nil {
		return f.OverviewFn(orgIDs, rng)
	}
	return nil, nil
}

// fakeAggregationReader fakes ports.AggregationReaderPort.
type fakeAggregationReader struct {
	ContentFn  func(scope ports.AggregationScope) ([]domain.ContentMetrics, error)
	CampaignFn func(scope ports.AggregationScope) ([]domain.CampaignMetrics, error)
	OrgFn      func(organizationID string) (domain.OrganizationMetrics, error)
	PreviousFn func(scope ports.AggregationScope) (domain.PeriodTotals, error)

	contentCalls int
}

func (f *fakeAggregationReader) ContentMetrics(ctx context.Context, scope ports.AggregationScope) ([]domain.ContentMetrics, error) {
	f.contentCalls++
	if f.ContentFn != nil {
		return f.ContentFn(scope)
	}
	return nil, nil
}

func (f *fakeAggregationReader) CampaignMetrics(ctx context.Context, scope ports.AggregationScope) ([]domain.CampaignMetrics, error) {
	if f.CampaignFn != nil {
		return f.CampaignFn(scope)
	}
	return nil, nil
}

func (f *fakeAggregationReader) OrganizationMetrics(ctx context.Context, organizationID string) (domain.OrganizationMetrics, error) {
	if f.OrgFn != nil {
		return f.OrgFn(organizationID)
	}
	return domain.OrganizationMetrics{}, nil
}

func (f *fakeAggregationReader) PreviousPeriodTotals(ctx context.Context, scope ports.AggregationScope) (domain.PeriodTotals, error) {
	if f.PreviousFn != nil {
		return f.PreviousFn(scope)
	}
	return domain.PeriodTotals{}, nil
}

type fakeSeriesReader struct {
	SeriesFn func(scope ports.AggregationScope) ([]domain.TimeSeriesPoint, error)
	calls    int
}

func (f *fakeSeriesReader) DailySeries(ctx context.Context, scope ports.AggregationScope) ([]domain.TimeSeriesPoint, error) {
	f.calls++
	if f.SeriesFn != nil {
		return f.SeriesFn(scope)
	}
	return nil, nil
}

// fixedClock pins usecase time so timeframe windows are deterministic.
func fixedClock() func() time.Time {
	at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}
