package fiber

import (
	"time"

	"marketing-analytics-service/internal/analytics/core/domain"
	"marketing-analytics-service/internal/monitor"
)

type MetricCardResponse struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

type CreationPointResponse struct {
	Date      string `json:"date"`
	Content   int64  `json:"content"`
	Campaigns int64  `json:"campaigns"`
}

type SummaryResponse struct {
	TotalContent     int64   `json:"total_content"`
	PublishedContent int64   `json:"published_content"`
	PublishRate      float64 `json:"publish_rate"`
	ActiveCampaigns  int64   `json:"active_campaigns"`
	TotalCampaigns   int64   `json:"total_campaigns"`
}

type MetricsResponse struct {
	Metrics    []MetricCardResponse    `json:"metrics"`
	TimeSeries []CreationPointResponse `json:"time_series"`
	Summary    SummaryResponse         `json:"summary"`
}

type OverviewRowResponse struct {
	AnalyticsID    string    `json:"analytics_id"`
	ClientName     string    `json:"client_name"`
	CampaignName   string    `json:"campaign_name"`
	Views          int64     `json:"views"`
	Likes          int64     `json:"likes"`
	Shares         int64     `json:"shares"`
	Comments       int64     `json:"comments"`
	Reach          int64     `json:"reach"`
	Clicks         int64     `json:"clicks"`
	Impressions    int64     `json:"impressions"`
	Conversions    int64     `json:"conversions"`
	Revenue        float64   `json:"revenue"`
	EngagementRate float64   `json:"engagement_rate"`
	ConversionRate float64   `json:"conversion_rate"`
	RecordedAt     time.Time `json:"recorded_at"`
}

type MetricPointResponse struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

type MetricSeriesResponse struct {
	Metric string                `json:"metric"`
	Points []MetricPointResponse `json:"points"`
}

type AggregatedMetricsResponse struct {
	TotalViews        int64   `json:"total_views"`
	TotalReach        int64   `json:"total_reach"`
	TotalConversions  int64   `json:"total_conversions"`
	TotalEngagement   int64   `json:"total_engagement"`
	AvgEngagementRate float64 `json:"avg_engagement_rate"`
	AvgConversionRate float64 `json:"avg_conversion_rate"`
	ContentCount      int     `json:"content_count"`
	CampaignCount     int     `json:"campaign_count"`
	AudienceSize      int64   `json:"audience_size"`
	PerformanceScore  float64 `json:"performance_score"`
}

type ContentMetricsResponse struct {
	ContentID      string     `json:"content_id"`
	Title          string     `json:"title"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	Views          int64      `json:"views"`
	Likes          int64      `json:"likes"`
	Shares         int64      `json:"shares"`
	Comments       int64      `json:"comments"`
	EngagementRate float64    `json:"engagement_rate"`
	ConversionRate float64    `json:"conversion_rate"`
}

type CampaignMetricsResponse struct {
	CampaignID        string  `json:"campaign_id"`
	Name              string  `json:"name"`
	Status            string  `json:"status"`
	Type              string  `json:"type"`
	ContentCount      int     `json:"content_count"`
	TotalViews        int64   `json:"total_views"`
	TotalEngagement   int64   `json:"total_engagement"`
	AvgEngagementRate float64 `json:"avg_engagement_rate"`
	PerformanceScore  float64 `json:"performance_score"`
	Budget            float64 `json:"budget,omitempty"`
	ROI               float64 `json:"roi"`
}

type TimeSeriesPointResponse struct {
	Date        string `json:"date"`
	Views       int64  `json:"views"`
	Engagement  int64  `json:"engagement"`
	Conversions int64  `json:"conversions"`
	Reach       int64  `json:"reach"`
	Clicks      int64  `json:"clicks"`
}

type TrendsResponse struct {
	ViewsChange       float64 `json:"views_change"`
	EngagementChange  float64 `json:"engagement_change"`
	ConversionsChange float64 `json:"conversions_change"`
	ReachChange       float64 `json:"reach_change"`
}

type TopPerformersResponse struct {
	Content   []ContentMetricsResponse  `json:"content"`
	Campaigns []CampaignMetricsResponse `json:"campaigns"`
}

type AggregatedDataResponse struct {
	Metrics          AggregatedMetricsResponse `json:"metrics"`
	ContentMetrics   []ContentMetricsResponse  `json:"content_metrics"`
	CampaignMetrics  []CampaignMetricsResponse `json:"campaign_metrics"`
	TimeSeries       []TimeSeriesPointResponse `json:"time_series"`
	Trends           TrendsResponse            `json:"trends"`
	TopPerformers    TopPerformersResponse     `json:"top_performers"`
	GeneratedAt      time.Time                 `json:"generated_at"`
	Cached           bool                      `json:"cached"`
	ProcessingTimeMs int64                     `json:"processing_time_ms"`
}

type PerformanceResponse struct {
	Snapshot  monitor.Snapshot                 `json:"snapshot"`
	Breakdown map[string]monitor.TypeBreakdown `json:"breakdown"`
}

type InvalidationAcceptedResponse struct {
	Status string `json:"status" example:"invalidated"`
}

type ContentChangeRequest struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id,omitempty"`
	ContentID      string `json:"content_id,omitempty"`
}

type CampaignChangeRequest struct {
	CampaignID     string `json:"campaign_id"`
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id,omitempty"`
}

type AnalyticsIngestedRequest struct {
	OrganizationID string `json:"organization_id"`
	CampaignID     string `json:"campaign_id,omitempty"`
	ClientID       string `json:"client_id,omitempty"`
}

type MembershipChangeRequest struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"invalid_parameters"`
	Message string `json:"message" example:"timeframe must be one of 1d, 7d, 30d, 90d, 1y"`
}

func toMetricsResponse(res *domain.MetricsResult) MetricsResponse {
	out := MetricsResponse{
		Metrics:    make([]MetricCardResponse, 0, len(res.Metrics)),
		TimeSeries: make([]CreationPointResponse, 0, len(res.TimeSeries)),
		Summary: SummaryResponse{
			TotalContent:     res.Summary.TotalContent,
			PublishedContent: res.Summary.PublishedContent,
			PublishRate:      res.Summary.PublishRate,
			ActiveCampaigns:  res.Summary.ActiveCampaigns,
			TotalCampaigns:   res.Summary.TotalCampaigns,
		},
	}
	for _, m := range res.Metrics {
		out.Metrics = append(out.Metrics, MetricCardResponse{
			Key:         m.Key,
			Label:       m.Label,
			Value:       m.Value,
			Description: m.Description,
		})
	}
	for _, p := range res.TimeSeries {
		out.TimeSeries = append(out.TimeSeries, CreationPointResponse{
			Date:      p.Date,
			Content:   p.Content,
			Campaigns: p.Campaigns,
		})
	}
	return out
}

func toOverviewResponse(rows []domain.OverviewRow) []OverviewRowResponse {
	out := make([]OverviewRowResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, OverviewRowResponse{
			AnalyticsID:    r.AnalyticsID,
			ClientName:     r.ClientName,
			CampaignName:   r.CampaignName,
			Views:          r.Views,
			Likes:          r.Likes,
			Shares:         r.Shares,
			Comments:       r.Comments,
			Reach:          r.Reach,
			Clicks:         r.Clicks,
			Impressions:    r.Impressions,
			Conversions:    r.Conversions,
			Revenue:        r.Revenue,
			EngagementRate: r.EngagementRate,
			ConversionRate: r.ConversionRate,
			RecordedAt:     r.RecordedAt,
		})
	}
	return out
}

func toMetricSeriesResponse(series *domain.MetricSeries) MetricSeriesResponse {
	out := MetricSeriesResponse{
		Metric: series.Metric,
		Points: make([]MetricPointResponse, 0, len(series.Points)),
	}
	for _, p := range series.Points {
		out.Points = append(out.Points, MetricPointResponse{Date: p.Date, Value: p.Value})
	}
	return out
}

func toContentMetricsResponse(items []domain.ContentMetrics) []ContentMetricsResponse {
	out := make([]ContentMetricsResponse, 0, len(items))
	for _, c := range items {
		out = append(out, ContentMetricsResponse{
			ContentID:      c.ContentID,
			Title:          c.Title,
			Type:           c.Type,
			Status:         c.Status,
			PublishedAt:    c.PublishedAt,
			Views:          c.Views,
			Likes:          c.Likes,
			Shares:         c.Shares,
			Comments:       c.Comments,
			EngagementRate: c.EngagementRate,
			ConversionRate: c.ConversionRate,
		})
	}
	return out
}

func toCampaignMetricsResponse(items []domain.CampaignMetrics) []CampaignMetricsResponse {
	out := make([]CampaignMetricsResponse, 0, len(items))
	for _, c := range items {
		out = append(out, CampaignMetricsResponse{
			CampaignID:        c.CampaignID,
			Name:              c.Name,
			Status:            c.Status,
			Type:              c.Type,
			ContentCount:      c.ContentCount,
			TotalViews:        c.TotalViews,
			TotalEngagement:   c.TotalEngagement,
			AvgEngagementRate: c.AvgEngagementRate,
			PerformanceScore:  c.PerformanceScore,
			Budget:            c.Budget,
			ROI:               c.ROI,
		})
	}
	return out
}

func toAggregatedResponse(data *domain.AggregatedData) AggregatedDataResponse {
	out := AggregatedDataResponse{
		Metrics: AggregatedMetricsResponse{
			TotalViews:        data.Metrics.TotalViews,
			TotalReach:        data.Metrics.TotalReach,
			TotalConversions:  data.Metrics.TotalConversions,
			TotalEngagement:   data.Metrics.TotalEngagement,
			AvgEngagementRate: data.Metrics.AvgEngagementRate,
			AvgConversionRate: data.Metrics.AvgConversionRate,
			ContentCount:      data.Metrics.ContentCount,
			CampaignCount:     data.Metrics.CampaignCount,
			AudienceSize:      data.Metrics.AudienceSize,
			PerformanceScore:  data.Metrics.PerformanceScore,
		},
		ContentMetrics:  toContentMetricsResponse(data.ContentMetrics),
		CampaignMetrics: toCampaignMetricsResponse(data.CampaignMetrics),
		TimeSeries:      make([]TimeSeriesPointResponse, 0, len(data.TimeSeries)),
		Trends: TrendsResponse{
			ViewsChange:       data.Trends.ViewsChange,
			EngagementChange:  data.Trends.EngagementChange,
			ConversionsChange: data.Trends.ConversionsChange,
			ReachChange:       data.Trends.ReachChange,
		},
		TopPerformers: TopPerformersResponse{
			Content:   toContentMetricsResponse(data.TopPerformers.Content),
			Campaigns: toCampaignMetricsResponse(data.TopPerformers.Campaigns),
		},
		GeneratedAt:      data.GeneratedAt,
		Cached:           data.Cached,
		ProcessingTimeMs: data.ProcessingTimeMs,
	}
	for _, p := range data.TimeSeries {
		out.TimeSeries = append(out.TimeSeries, TimeSeriesPointResponse{
			Date:        p.Date,
			Views:       p.Views,
			Engagement:  p.Engagement,
			Conversions: p.Conversions,
			Reach:       p.Reach,
			Clicks:      p.Clicks,
		})
	}
	return out
}
