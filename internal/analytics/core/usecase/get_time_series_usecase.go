package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"marketing-analytics-service/internal/analytics/core/domain"
	"marketing-analytics-service/internal/analytics/core/ports"
)

// trackedMetrics are the analytics columns a time-series query may select.
// The allowlist doubles as injection protection for the SQL adapter.
var trackedMetrics = map[string]bool{
	"views":       true,
	"engagement":  true,
	"conversions": true,
	"clicks":      true,
	"impressions": true,
}

type GetTimeSeriesInput struct {
	UserID    string
	Metric    string
	Timeframe string // "" = 7d
}

// GetTimeSeriesUseCase charts one metric per calendar day over the
// requested window, zero-filled and cache-wrapped with a long TTL.
type GetTimeSeriesUseCase struct {
	reader  ports.MetricsReaderPort
	cache   ports.CachePort
	monitor ports.MonitorPort
	now     func() time.Time
}

func NewGetTimeSeriesUseCase(reader ports.MetricsReaderPort, cache ports.CachePort, monitor ports.MonitorPort, now func() time.Time) *GetTimeSeriesUseCase {
	if now == nil {
		now = time.Now
	}
	return &GetTimeSeriesUseCase{reader: reader, cache: cache, monitor: monitor, now: now}
}

func (uc *GetTimeSeriesUseCase) Execute(ctx context.Context, in GetTimeSeriesInput) (*domain.MetricSeries, error) {
	if in.UserID == "" {
		return nil, ErrInvalidUser
	}
	if !trackedMetrics[in.Metric] {
		return nil, ErrInvalidMetric
	}
	if in.Timeframe == "" {
		in.Timeframe = defaultOverviewTimeframe
	}
	timeframe, rng, err := resolveTimeframe(uc.now(), in.Timeframe)
	if err != nil {
		return nil, err
	}

	params := map[string]string{"user": in.UserID, "metric": in.Metric, "timeframe": timeframe}
	tracker := uc.monitor.StartQuery(uuid.NewString(), "time_series", "", in.UserID)

	var cached domain.MetricSeries
	if uc.cache.Get(ctx, "time_series", params, &cached) {
		tracker.SetDataMetrics(payloadSize(cached), len(cached.Points))
		tracker.Complete(true)
		return &cached, nil
	}

	orgIDs, err := uc.reader.UserOrganizationIDs(ctx, in.UserID)
	if err != nil {
		tracker.Error(err.Error())
		return nil, err
	}

	totals, err := uc.reader.MetricDailyTotals(ctx, orgIDs, in.Metric, rng)
	if err != nil {
		tracker.Error(err.Error())
		return nil, err
	}

	byDay := dayCountMap(totals)
	days := eachDay(rng)
	points := make([]domain.MetricPoint, 0, len(days))
	for _, day := range days {
		points = append(points, domain.MetricPoint{Date: day, Value: byDay[day]})
	}

	series := &domain.MetricSeries{Metric: in.Metric, Points: points}

	uc.cache.Set(ctx, "time_series", params, series)

	tracker.SetDataMetrics(payloadSize(series), len(points))
	tracker.Complete(false)
	return series, nil
}
