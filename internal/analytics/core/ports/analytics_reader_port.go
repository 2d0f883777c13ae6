package ports

import (
	"context"
	"time"

	"marketing-analytics-service/internal/analytics/core/domain"
)

type DateRange struct {
	Start time.Time
	End   time.Time
}

type StatusCount struct {
	Status string
	Count  int64
}

// DayCount is one day bucket of a grouped-count aggregate. Days without
// rows are absent; zero-filling is the usecase's concern.
type DayCount struct {
	Day   time.Time
	Count int64
}

// MetricsReaderPort serves the user-scoped metrics and overview queries
// with minimal-round-trip aggregates.
type MetricsReaderPort interface {
	UserOrganizationIDs(ctx context.Context, userID string) ([]string, error)
	ContentStatusCounts(ctx context.Context, userID string, rng DateRange) ([]StatusCount, error)
	CampaignStatusCounts(ctx context.Context, orgIDs []string, rng DateRange) ([]StatusCount, error)
	ContentCreatedByDay(ctx context.Context, userID string, rng DateRange) ([]DayCount, error)
	CampaignsCreatedByDay(ctx context.Context, orgIDs []string, rng DateRange) ([]DayCount, error)
	MetricDailyTotals(ctx context.Context, orgIDs []string, metric string, rng DateRange) ([]DayCount, error)
	OverviewRows(ctx context.Context, orgIDs []string, rng DateRange) ([]domain.OverviewRow, error)
}

// AggregationScope selects the slice of data one aggregation covers.
type AggregationScope struct {
	OrganizationID string
	ClientID       string // "" = all clients
	Range          DateRange
}

// AggregationReaderPort serves the data aggregator's parallel fetches.
type AggregationReaderPort interface {
	ContentMetrics(ctx context.Context, scope AggregationScope) ([]domain.ContentMetrics, error)
	CampaignMetrics(ctx context.Context, scope AggregationScope) ([]domain.CampaignMetrics, error)
	OrganizationMetrics(ctx context.Context, organizationID string) (domain.OrganizationMetrics, error)
	PreviousPeriodTotals(ctx context.Context, scope AggregationScope) (domain.PeriodTotals, error)
}

// TimeSeriesReaderPort returns exactly one point per calendar day in the
// scope's range, zero-valued where no data exists.
type TimeSeriesReaderPort interface {
	DailySeries(ctx context.Context, scope AggregationScope) ([]domain.TimeSeriesPoint, error)
}
