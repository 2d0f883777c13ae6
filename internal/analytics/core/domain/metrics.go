package domain

import "time"

// Metric is one labeled metric card in a metrics response.
type Metric struct {
	Key         string
	Label       string
	Value       string
	Description string
}

// CreationPoint is one calendar day of content/campaign creation counts.
// A series always carries one point per day in the requested window; days
// without data are zero-valued, never omitted.
type CreationPoint struct {
	Date      string // YYYY-MM-DD
	Content   int64
	Campaigns int64
}

type Summary struct {
	TotalContent     int64
	PublishedContent int64
	PublishRate      float64 // percent, one decimal, 0 when no content
	ActiveCampaigns  int64
	TotalCampaigns   int64
}

// MetricsResult is the composed answer of the metrics query.
type MetricsResult struct {
	Metrics    []Metric
	TimeSeries []CreationPoint
	Summary    Summary
}

// MetricPoint is one calendar day total of a single tracked metric.
type MetricPoint struct {
	Date  string // YYYY-MM-DD
	Value int64
}

// MetricSeries is a per-day series of one metric across a user's
// organizations, one point per calendar day with gaps zero-filled.
type MetricSeries struct {
	Metric string
	Points []MetricPoint
}

// OverviewRow joins one analytics record with its client and campaign names.
type OverviewRow struct {
	AnalyticsID    string
	ClientName     string
	CampaignName   string
	Views          int64
	Likes          int64
	Shares         int64
	Comments       int64
	Reach          int64
	Clicks         int64
	Impressions    int64
	Conversions    int64
	Revenue        float64
	EngagementRate float64
	ConversionRate float64
	RecordedAt     time.Time
}
