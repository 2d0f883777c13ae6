package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"marketing-analytics-service/internal/analytics/core/domain"
	"marketing-analytics-service/internal/analytics/core/ports"
	"marketing-analytics-service/internal/monitor"
)

const (
	aggregationTimeout = 30 * time.Second
	realTimeTTL        = 60 * time.Second
	topPerformerCount  = 5
)

// aggregationMetrics are the metric names a report may be narrowed to.
var aggregationMetrics = map[string]bool{
	"views":       true,
	"engagement":  true,
	"conversions": true,
	"reach":       true,
	"clicks":      true,
}

// AggregateReportUseCase composes the full analytics report from five
// independent reads executed concurrently. The contract is all-or-nothing:
// if any read fails the whole aggregation fails and nothing is cached.
type AggregateReportUseCase struct {
	reader  ports.AggregationReaderPort
	series  ports.TimeSeriesReaderPort
	cache   ports.CachePort
	monitor ports.MonitorPort
	breaker ports.BreakerPort
	now     func() time.Time
}

func NewAggregateReportUseCase(reader ports.AggregationReaderPort, series ports.TimeSeriesReaderPort, cache ports.CachePort, mon ports.MonitorPort, breaker ports.BreakerPort, now func() time.Time) *AggregateReportUseCase {
	if now == nil {
		now = time.Now
	}
	return &AggregateReportUseCase{reader: reader, series: series, cache: cache, monitor: mon, breaker: breaker, now: now}
}

func (uc *AggregateReportUseCase) Execute(ctx context.Context, cfg domain.AggregationConfig) (*domain.AggregatedData, error) {
	if cfg.OrganizationID == "" {
		return nil, ErrInvalidOrganization
	}
	for _, m := range cfg.Metrics {
		if !aggregationMetrics[m] {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMetric, m)
		}
	}
	timeframe, rng, err := resolveTimeframe(uc.now(), cfg.Timeframe)
	if err != nil {
		return nil, err
	}

	started := uc.now()
	params := uc.cacheParams(cfg, timeframe)
	tracker := uc.monitor.StartQuery(uuid.NewString(), "aggregation", cfg.OrganizationID, "")

	if cfg.UseCache {
		var cached domain.AggregatedData
		if uc.cache.Get(ctx, "aggregation", params, &cached) {
			cached.Cached = true
			cached.ProcessingTimeMs = uc.now().Sub(started).Milliseconds()
			tracker.SetDataMetrics(payloadSize(cached), len(cached.ContentMetrics))
			tracker.Complete(true)
			return &cached, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, aggregationTimeout)
	defer cancel()

	scope := ports.AggregationScope{
		OrganizationID: cfg.OrganizationID,
		ClientID:       cfg.ClientID,
		Range:          rng,
	}

	var (
		content    []domain.ContentMetrics
		campaigns  []domain.CampaignMetrics
		org        domain.OrganizationMetrics
		timeSeries []domain.TimeSeriesPoint
		previous   domain.PeriodTotals
	)

	err = uc.breaker.Execute(ctx, "aggregate_report", func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			content, err = uc.reader.ContentMetrics(gctx, scope)
			return err
		})
		g.Go(func() (err error) {
			campaigns, err = uc.reader.CampaignMetrics(gctx, scope)
			return err
		})
		g.Go(func() (err error) {
			org, err = uc.reader.OrganizationMetrics(gctx, scope.OrganizationID)
			return err
		})
		g.Go(func() (err error) {
			timeSeries, err = uc.series.DailySeries(gctx, scope)
			return err
		})
		g.Go(func() (err error) {
			previous, err = uc.reader.PreviousPeriodTotals(gctx, scope)
			return err
		})
		return g.Wait()
	})
	if err != nil {
		tracker.Error(err.Error())
		switch {
		case errors.Is(err, monitor.ErrCircuitOpen):
			return nil, err
		case errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("%w after %s", ErrQueryTimeout, aggregationTimeout)
		default:
			return nil, fmt.Errorf("%w: %v", ErrAggregationFailed, err)
		}
	}

	scoreCampaigns(campaigns)

	metrics := composeAggregatedMetrics(content, campaigns, org)
	result := &domain.AggregatedData{
		Metrics:         metrics,
		ContentMetrics:  content,
		CampaignMetrics: campaigns,
		TimeSeries:      timeSeries,
		Trends: domain.Trends{
			ViewsChange:       domain.TrendDelta(float64(metrics.TotalViews), float64(previous.Views)),
			EngagementChange:  domain.TrendDelta(float64(metrics.TotalEngagement), float64(previous.Engagement)),
			ConversionsChange: domain.TrendDelta(float64(metrics.TotalConversions), float64(previous.Conversions)),
			ReachChange:       domain.TrendDelta(float64(metrics.TotalReach), float64(previous.Reach)),
		},
		TopPerformers:    topPerformers(content, campaigns),
		GeneratedAt:      uc.now().UTC(),
		Cached:           false,
		ProcessingTimeMs: uc.now().Sub(started).Milliseconds(),
	}

	if cfg.UseCache {
		if cfg.RealTime {
			uc.cache.SetTTL(ctx, "aggregation", params, result, realTimeTTL)
		} else {
			uc.cache.Set(ctx, "aggregation", params, result)
		}
	}

	tracker.SetDataMetrics(payloadSize(result), len(content)+len(campaigns))
	tracker.Complete(false)
	return result, nil
}

// cacheParams keys the report by everything that changes its content.
// RealTime only affects TTL, never the key.
func (uc *AggregateReportUseCase) cacheParams(cfg domain.AggregationConfig, timeframe string) map[string]string {
	params := map[string]string{
		"org":       cfg.OrganizationID,
		"timeframe": timeframe,
	}
	if cfg.ClientID != "" {
		params["client"] = cfg.ClientID
	}
	if len(cfg.Metrics) > 0 {
		sorted := append([]string(nil), cfg.Metrics...)
		sort.Strings(sorted)
		params["metrics"] = strings.Join(sorted, ",")
	}
	return params
}

// scoreCampaigns fills in the derived per-campaign fields the reader leaves
// empty: the performance score and views-per-budget ROI.
func scoreCampaigns(campaigns []domain.CampaignMetrics) {
	for i := range campaigns {
		c := &campaigns[i]
		c.PerformanceScore = domain.Round1(domain.PerformanceScore(c.TotalViews, c.TotalEngagement, c.AvgEngagementRate, c.ContentCount))
		if c.Budget > 0 {
			c.ROI = domain.Round2(float64(c.TotalViews) / c.Budget)
		}
	}
}

func composeAggregatedMetrics(content []domain.ContentMetrics, campaigns []domain.CampaignMetrics, org domain.OrganizationMetrics) domain.AggregatedMetrics {
	var (
		views, engagement       int64
		sumEngRate, sumConvRate float64
	)
	for _, c := range content {
		views += c.Views
		engagement += c.Likes + c.Shares + c.Comments
		sumEngRate += c.EngagementRate
		sumConvRate += c.ConversionRate
	}

	var avgEngRate, avgConvRate float64
	if len(content) > 0 {
		avgEngRate = sumEngRate / float64(len(content))
		avgConvRate = sumConvRate / float64(len(content))
	}

	return domain.AggregatedMetrics{
		TotalViews:        views,
		TotalReach:        int64(math.Round(float64(views) * domain.ReachRatio)),
		TotalConversions:  int64(math.Round(float64(views) * avgConvRate)),
		TotalEngagement:   engagement,
		AvgEngagementRate: domain.Round2(avgEngRate),
		AvgConversionRate: round4(avgConvRate),
		ContentCount:      len(content),
		CampaignCount:     len(campaigns),
		AudienceSize:      org.AudienceSize,
		PerformanceScore:  domain.Round1(domain.PerformanceScore(views, engagement, avgEngRate, len(content))),
	}
}

// topPerformers ranks content by a blend of raw views and engagement rate,
// campaigns by their performance score, keeping the top five of each.
func topPerformers(content []domain.ContentMetrics, campaigns []domain.CampaignMetrics) domain.TopPerformers {
	rankedContent := append([]domain.ContentMetrics(nil), content...)
	sort.SliceStable(rankedContent, func(i, j int) bool {
		return contentRank(rankedContent[i]) > contentRank(rankedContent[j])
	})
	if len(rankedContent) > topPerformerCount {
		rankedContent = rankedContent[:topPerformerCount]
	}

	rankedCampaigns := append([]domain.CampaignMetrics(nil), campaigns...)
	sort.SliceStable(rankedCampaigns, func(i, j int) bool {
		return rankedCampaigns[i].PerformanceScore > rankedCampaigns[j].PerformanceScore
	})
	if len(rankedCampaigns) > topPerformerCount {
		rankedCampaigns = rankedCampaigns[:topPerformerCount]
	}

	return domain.TopPerformers{Content: rankedContent, Campaigns: rankedCampaigns}
}

func contentRank(c domain.ContentMetrics) float64 {
	return float64(c.Views)*0.4 + c.EngagementRate*60
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
