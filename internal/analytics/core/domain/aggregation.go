package domain

import "time"

// AggregationConfig is the immutable input of one aggregation call.
type AggregationConfig struct {
	OrganizationID string
	ClientID       string // optional, "" = all clients
	Timeframe      string // 1d, 7d, 30d, 90d, 1y
	Metrics        []string
	UseCache       bool
	RealTime       bool
}

type AggregatedMetrics struct {
	TotalViews        int64
	TotalReach        int64
	TotalConversions  int64
	TotalEngagement   int64
	AvgEngagementRate float64
	AvgConversionRate float64
	ContentCount      int
	CampaignCount     int
	AudienceSize      int64
	PerformanceScore  float64
}

// ContentMetrics joins one content item with its aggregate analytics row.
type ContentMetrics struct {
	ContentID      string
	Title          string
	Type           string
	Status         string
	PublishedAt    *time.Time
	Views          int64
	Likes          int64
	Shares         int64
	Comments       int64
	EngagementRate float64
	ConversionRate float64
}

type CampaignMetrics struct {
	CampaignID        string
	Name              string
	Status            string
	Type              string
	ContentCount      int
	TotalViews        int64
	TotalEngagement   int64
	AvgEngagementRate float64
	PerformanceScore  float64
	Budget            float64 // 0 = no budget set
	ROI               float64
}

// TimeSeriesPoint is one calendar day of aggregate engagement metrics.
type TimeSeriesPoint struct {
	Date        string // YYYY-MM-DD
	Views       int64
	Engagement  int64
	Conversions int64
	Reach       int64
	Clicks      int64
}

// Trends holds percentage deltas against the preceding period of equal length.
type Trends struct {
	ViewsChange       float64
	EngagementChange  float64
	ConversionsChange float64
	ReachChange       float64
}

type TopPerformers struct {
	Content   []ContentMetrics
	Campaigns []CampaignMetrics
}

// OrganizationMetrics are org-level aggregates independent of the date range.
type OrganizationMetrics struct {
	AudienceSize  int64
	ActiveClients int
}

// PeriodTotals summarize one period for trend comparison.
type PeriodTotals struct {
	Views       int64
	Engagement  int64
	Conversions int64
	Reach       int64
}

// AggregatedData is the full composed report, cached as one unit.
type AggregatedData struct {
	Metrics          AggregatedMetrics
	ContentMetrics   []ContentMetrics
	CampaignMetrics  []CampaignMetrics
	TimeSeries       []TimeSeriesPoint
	Trends           Trends
	TopPerformers    TopPerformers
	GeneratedAt      time.Time
	Cached           bool
	ProcessingTimeMs int64
}
