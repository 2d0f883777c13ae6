package postgres

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"marketing-analytics-service/internal/analytics/core/domain"
	"marketing-analytics-service/internal/analytics/core/ports"
)

// PrimarySeriesReader derives the whole daily series in one query using a
// generate_series date spine, so gap days come back zero-valued.
type PrimarySeriesReader struct {
	db DB
}

func NewPrimarySeriesReader(db DB) *PrimarySeriesReader {
	return &PrimarySeriesReader{db: db}
}

func (r *PrimarySeriesReader) DailySeries(ctx context.Context, scope ports.AggregationScope) ([]domain.TimeSeriesPoint, error) {
	query := `
WITH date_series AS (
    SELECT generate_series($1::date, $2::date, interval '1 day')::date AS day
),
daily AS (
    SELECT
        DATE(c.published_at) AS day,
        COALESCE(SUM(ca.views), 0) AS views,
        COALESCE(SUM(ca.likes + ca.shares + ca.comments), 0) AS engagement,
        COALESCE(SUM(CASE WHEN ca.conversion_rate > 0 THEN ca.views * ca.conversion_rate ELSE 0 END), 0) AS conversions
    FROM content c
    LEFT JOIN content_analytics ca ON ca.content_id = c.id
    WHERE c.organization_id = $3
      AND ($4 = '' OR c.client_id = $4)
      AND c.published_at BETWEEN $1 AND $2
    GROUP BY DATE(c.published_at)
)
SELECT
    ds.day,
    COALESCE(d.views, 0),
    COALESCE(d.engagement, 0),
    COALESCE(d.conversions, 0)
FROM date_series ds
LEFT JOIN daily d ON ds.day = d.day
ORDER BY ds.day`

	rows, err := r.db.QueryContext(ctx, query, scope.Range.Start, scope.Range.End, scope.OrganizationID, scope.ClientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []domain.TimeSeriesPoint
	for rows.Next() {
		var (
			day         time.Time
			views       int64
			engagement  int64
			conversions float64
		)
		if err := rows.Scan(&day, &views, &engagement, &conversions); err != nil {
			return nil, err
		}
		series = append(series, seriesPoint(day, views, engagement, int64(math.Round(conversions))))
	}
	return series, rows.Err()
}

// FallbackSeriesReader re-derives the identical series shape with one
// aggregate query per calendar day, for stores where the date-spine query
// is unavailable. Slower by a factor of the window length.
type FallbackSeriesReader struct {
	db DB
}

func NewFallbackSeriesReader(db DB) *FallbackSeriesReader {
	return &FallbackSeriesReader{db: db}
}

func (r *FallbackSeriesReader) DailySeries(ctx context.Context, scope ports.AggregationScope) ([]domain.TimeSeriesPoint, error) {
	query := `
SELECT
    COALESCE(SUM(ca.views), 0),
    COALESCE(SUM(ca.likes + ca.shares + ca.comments), 0),
    COALESCE(AVG(ca.conversion_rate), 0)
FROM content c
JOIN content_analytics ca ON ca.content_id = c.id
WHERE c.organization_id = $1
  AND ($2 = '' OR c.client_id = $2)
  AND c.published_at >= $3
  AND c.published_at < $4`

	start := scope.Range.Start.UTC().Truncate(24 * time.Hour)
	end := scope.Range.End.UTC().Truncate(24 * time.Hour)

	var series []domain.TimeSeriesPoint
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		views, engagement, avgConversionRate, err := r.dayTotals(ctx, query, scope, day)
		if err != nil {
			return nil, err
		}
		conversions := int64(math.Round(float64(views) * avgConversionRate))
		series = append(series, seriesPoint(day, views, engagement, conversions))
	}
	return series, nil
}

func (r *FallbackSeriesReader) dayTotals(ctx context.Context, query string, scope ports.AggregationScope, day time.Time) (int64, int64, float64, error) {
	rows, err := r.db.QueryContext(ctx, query, scope.OrganizationID, scope.ClientID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return 0, 0, 0, err
	}
	defer rows.Close()

	var (
		views, engagement int64
		avgConversionRate float64
	)
	if rows.Next() {
		if err := rows.Scan(&views, &engagement, &avgConversionRate); err != nil {
			return 0, 0, 0, err
		}
	}
	return views, engagement, avgConversionRate, rows.Err()
}

func seriesPoint(day time.Time, views, engagement, conversions int64) domain.TimeSeriesPoint {
	return domain.TimeSeriesPoint{
		Date:        day.UTC().Format("2006-01-02"),
		Views:       views,
		Engagement:  engagement,
		Conversions: conversions,
		Reach:       int64(math.Round(float64(views) * domain.ReachRatio)),
		Clicks:      int64(math.Round(float64(views) * domain.ClickRatio)),
	}
}

// SeriesReader probes the primary strategy once and switches permanently to
// the per-day fallback after its first failure. Both strategies produce the
// same series shape, so callers never see the switch.
type SeriesReader struct {
	primary  ports.TimeSeriesReaderPort
	fallback ports.TimeSeriesReaderPort
	degraded atomic.Bool
	logger   *zap.Logger
}

func NewSeriesReader(db DB, logger *zap.Logger) *SeriesReader {
	return &SeriesReader{
		primary:  NewPrimarySeriesReader(db),
		fallback: NewFallbackSeriesReader(db),
		logger:   logger,
	}
}

func (r *SeriesReader) DailySeries(ctx context.Context, scope ports.AggregationScope) ([]domain.TimeSeriesPoint, error) {
	if r.degraded.Load() {
		return r.fallback.DailySeries(ctx, scope)
	}

	series, err := r.primary.DailySeries(ctx, scope)
	if err == nil {
		return series, nil
	}
	if ctx.Err() != nil {
		// cancellation is not a capability signal
		return nil, err
	}

	if r.degraded.CompareAndSwap(false, true) {
		r.logger.Warn("date-spine time series query failed, switching to per-day fallback",
			zap.Error(err))
	}
	return r.fallback.DailySeries(ctx, scope)
}

var _ ports.TimeSeriesReaderPort = (*SeriesReader)(nil)
