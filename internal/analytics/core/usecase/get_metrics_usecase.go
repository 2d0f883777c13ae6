package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"marketing-analytics-service/internal/analytics/core/domain"
	"marketing-analytics-service/internal/analytics/core/ports"
)

type GetMetricsInput struct {
	UserID         string
	OrganizationID string // optional override; "" = all memberships
	Timeframe      string // 1d, 7d, 30d, 90d, 1y; "" = 30d
}

// GetMetricsUseCase answers the dashboard metrics query: status counts,
// publish rate and the content/campaign creation series, cache-wrapped.
type GetMetricsUseCase struct {
	reader  ports.MetricsReaderPort
	cache   ports.CachePort
	monitor ports.MonitorPort
	now     func() time.Time
}

func NewGetMetricsUseCase(reader ports.MetricsReaderPort, cache ports.CachePort, monitor ports.MonitorPort, now func() time.Time) *GetMetricsUseCase {
	if now == nil {
		now = time.Now
	}
	return &GetMetricsUseCase{reader: reader, cache: cache, monitor: monitor, now: now}
}

func (uc *GetMetricsUseCase) Execute(ctx context.Context, in GetMetricsInput) (*domain.MetricsResult, error) {
	if in.UserID == "" {
		return nil, ErrInvalidUser
	}
	timeframe, rng, err := resolveTimeframe(uc.now(), in.Timeframe)
	if err != nil {
		return nil, err
	}

	params := map[string]string{"user": in.UserID, "timeframe": timeframe}
	if in.OrganizationID != "" {
		params["org"] = in.OrganizationID
	}

	tracker := uc.monitor.StartQuery(uuid.NewString(), "metrics", in.OrganizationID, in.UserID)

	var cached domain.MetricsResult
	if uc.cache.Get(ctx, "metrics", params, &cached) {
		tracker.SetDataMetrics(payloadSize(cached), len(cached.TimeSeries))
		tracker.Complete(true)
		return &cached, nil
	}

	orgIDs := []string{in.OrganizationID}
	if in.OrganizationID == "" {
		orgIDs, err = uc.reader.UserOrganizationIDs(ctx, in.UserID)
		if err != nil {
			tracker.Error(err.Error())
			return nil, err
		}
	}

	contentStats, err := uc.reader.ContentStatusCounts(ctx, in.UserID, rng)
	if err != nil {
		tracker.Error(err.Error())
		return nil, err
	}
	campaignStats, err := uc.reader.CampaignStatusCounts(ctx, orgIDs, rng)
	if err != nil {
		tracker.Error(err.Error())
		return nil, err
	}
	contentDays, err := uc.reader.ContentCreatedByDay(ctx, in.UserID, rng)
	if err != nil {
		tracker.Error(err.Error())
		return nil, err
	}
	campaignDays, err := uc.reader.CampaignsCreatedByDay(ctx, orgIDs, rng)
	if err != nil {
		tracker.Error(err.Error())
		return nil, err
	}

	result := composeMetrics(rng, contentStats, campaignStats, contentDays, campaignDays)

	uc.cache.Set(ctx, "metrics", params, result)

	tracker.SetDataMetrics(payloadSize(result), len(result.TimeSeries))
	tracker.Complete(false)
	return result, nil
}

func composeMetrics(rng ports.DateRange, contentStats, campaignStats []ports.StatusCount, contentDays, campaignDays []ports.DayCount) *domain.MetricsResult {
	var totalContent, publishedContent int64
	for _, s := range contentStats {
		totalContent += s.Count
		if s.Status == "PUBLISHED" {
			publishedContent += s.Count
		}
	}

	var totalCampaigns, activeCampaigns int64
	for _, s := range campaignStats {
		totalCampaigns += s.Count
		if s.Status == "ACTIVE" {
			activeCampaigns += s.Count
		}
	}

	publishRate := domain.PublishRate(publishedContent, totalContent)

	contentByDay := dayCountMap(contentDays)
	campaignsByDay := dayCountMap(campaignDays)

	days := eachDay(rng)
	series := make([]domain.CreationPoint, 0, len(days))
	for _, day := range days {
		series = append(series, domain.CreationPoint{
			Date:      day,
			Content:   contentByDay[day],
			Campaigns: campaignsByDay[day],
		})
	}

	return &domain.MetricsResult{
		Metrics: []domain.Metric{
			{Key: "total_content", Label: "Total Content", Value: strconv.FormatInt(totalContent, 10), Description: "All content items"},
			{Key: "published_content", Label: "Published Content", Value: strconv.FormatInt(publishedContent, 10), Description: "Published content items"},
			{Key: "publish_rate", Label: "Publish Rate", Value: fmt.Sprintf("%.1f%%", publishRate), Description: "Content publish success rate"},
			{Key: "active_campaigns", Label: "Active Campaigns", Value: strconv.FormatInt(activeCampaigns, 10), Description: "Currently active campaigns"},
		},
		TimeSeries: series,
		Summary: domain.Summary{
			TotalContent:     totalContent,
			PublishedContent: publishedContent,
			PublishRate:      publishRate,
			ActiveCampaigns:  activeCampaigns,
			TotalCampaigns:   totalCampaigns,
		},
	}
}
