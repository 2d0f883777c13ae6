package fiber

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"marketing-analytics-service/internal/analytics/core/domain"
	"marketing-analytics-service/internal/analytics/core/usecase"
	"marketing-analytics-service/internal/invalidation"
	"marketing-analytics-service/internal/monitor"
)

type GetMetricsUseCase interface {
	Execute(ctx context.Context, in usecase.GetMetricsInput) (*domain.MetricsResult, error)
}

type GetOverviewUseCase interface {
	Execute(ctx context.Context, in usecase.GetOverviewInput) ([]domain.OverviewRow, error)
}

type GetTimeSeriesUseCase interface {
	Execute(ctx context.Context, in usecase.GetTimeSeriesInput) (*domain.MetricSeries, error)
}

type AggregateReportUseCase interface {
	Execute(ctx context.Context, cfg domain.AggregationConfig) (*domain.AggregatedData, error)
}

type PerformanceProvider interface {
	Snapshot() monitor.Snapshot
	Breakdown() map[string]monitor.TypeBreakdown
}

type AnalyticsHandler struct {
	metrics     GetMetricsUseCase
	overview    GetOverviewUseCase
	timeSeries  GetTimeSeriesUseCase
	report      AggregateReportUseCase
	performance PerformanceProvider
}

func NewAnalyticsHandler(metrics GetMetricsUseCase, overview GetOverviewUseCase, timeSeries GetTimeSeriesUseCase, report AggregateReportUseCase, performance PerformanceProvider) *AnalyticsHandler {
	return &AnalyticsHandler{
		metrics:     metrics,
		overview:    overview,
		timeSeries:  timeSeries,
		report:      report,
		performance: performance,
	}
}

// GetMetrics godoc
// @Summary Dashboard metrics
// @Description Status counts, publish rate and the creation time series for a user
// @Tags Analytics
// @Produce json
// @Param user_id query string true "User ID"
// @Param organization_id query string false "Restrict to one organization"
// @Param timeframe query string false "Timeframe: 1d | 7d | 30d | 90d | 1y (default 30d)"
// @Success 200 {object} MetricsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /analytics/metrics [get]
func (h *AnalyticsHandler) GetMetrics(c *fiber.Ctx) error {
	userID := c.Query("user_id", "")
	if userID == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_parameters",
			Message: "user_id is required",
		})
	}

	res, err := h.metrics.Execute(c.Context(), usecase.GetMetricsInput{
		UserID:         userID,
		OrganizationID: c.Query("organization_id", ""),
		Timeframe:      c.Query("timeframe", ""),
	})
	if err != nil {
		return mapUseCaseError(c, err)
	}

	return c.Status(http.StatusOK).JSON(toMetricsResponse(res))
}

// GetOverview godoc
// @Summary Analytics overview rows
// @Description Per-record analytics rows across the user's organizations
// @Tags Analytics
// @Produce json
// @Param user_id query string true "User ID"
// @Param timeframe query string false "Timeframe (default 7d)"
// @Success 200 {array} OverviewRowResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /analytics/overview [get]
func (h *AnalyticsHandler) GetOverview(c *fiber.Ctx) error {
	userID := c.Query("user_id", "")
	if userID == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_parameters",
			Message: "user_id is required",
		})
	}

	rows, err := h.overview.Execute(c.Context(), usecase.GetOverviewInput{
		UserID:    userID,
		Timeframe: c.Query("timeframe", ""),
	})
	if err != nil {
		return mapUseCaseError(c, err)
	}

	return c.Status(http.StatusOK).JSON(toOverviewResponse(rows))
}

// GetTimeSeries godoc
// @Summary Single-metric daily series
// @Description One point per calendar day for a tracked metric, gaps zero-filled
// @Tags Analytics
// @Produce json
// @Param user_id query string true "User ID"
// @Param metric query string true "Metric: views | engagement | conversions | clicks | impressions"
// @Param timeframe query string false "Timeframe (default 7d)"
// @Success 200 {object} MetricSeriesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /analytics/time-series [get]
func (h *AnalyticsHandler) GetTimeSeries(c *fiber.Ctx) error {
	userID := c.Query("user_id", "")
	metric := c.Query("metric", "")
	if userID == "" || metric == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_parameters",
			Message: "user_id and metric are required",
		})
	}

	series, err := h.timeSeries.Execute(c.Context(), usecase.GetTimeSeriesInput{
		UserID:    userID,
		Metric:    metric,
		Timeframe: c.Query("timeframe", ""),
	})
	if err != nil {
		return mapUseCaseError(c, err)
	}

	return c.Status(http.StatusOK).JSON(toMetricSeriesResponse(series))
}

// GetReport godoc
// @Summary Aggregated analytics report
// @Description Full report with derived metrics, trends and top performers
// @Tags Analytics
// @Produce json
// @Param organization_id query string true "Organization ID"
// @Param client_id query string false "Restrict to one client"
// @Param timeframe query string false "Timeframe (default 30d)"
// @Param metrics query string false "Comma-separated metric filter"
// @Param real_time query bool false "Short 60s cache TTL"
// @Param use_cache query bool false "Read/write the cache (default true)"
// @Success 200 {object} AggregatedDataResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /analytics/report [get]
func (h *AnalyticsHandler) GetReport(c *fiber.Ctx) error {
	organizationID := c.Query("organization_id", "")
	if organizationID == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_parameters",
			Message: "organization_id is required",
		})
	}

	var metrics []string
	if raw := c.Query("metrics", ""); raw != "" {
		metrics = strings.Split(raw, ",")
	}

	data, err := h.report.Execute(c.Context(), domain.AggregationConfig{
		OrganizationID: organizationID,
		ClientID:       c.Query("client_id", ""),
		Timeframe:      c.Query("timeframe", ""),
		Metrics:        metrics,
		UseCache:       c.QueryBool("use_cache", true),
		RealTime:       c.QueryBool("real_time", false),
	})
	if err != nil {
		return mapUseCaseError(c, err)
	}

	return c.Status(http.StatusOK).JSON(toAggregatedResponse(data))
}

// GetPerformance godoc
// @Summary Query performance snapshot
// @Description Rolling latency percentiles, error/cache-hit rates, grade and per-type breakdown
// @Tags Performance
// @Produce json
// @Success 200 {object} PerformanceResponse
// @Router /analytics/performance [get]
func (h *AnalyticsHandler) GetPerformance(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(PerformanceResponse{
		Snapshot:  h.performance.Snapshot(),
		Breakdown: h.performance.Breakdown(),
	})
}

func mapUseCaseError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidUser),
		errors.Is(err, usecase.ErrInvalidOrganization),
		errors.Is(err, usecase.ErrInvalidTimeframe),
		errors.Is(err, usecase.ErrInvalidMetric):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_parameters",
			Message: err.Error(),
		})
	case errors.Is(err, monitor.ErrCircuitOpen),
		errors.Is(err, usecase.ErrQueryTimeout):
		return c.Status(http.StatusServiceUnavailable).JSON(ErrorResponse{
			Error:   "service_unavailable",
			Message: err.Error(),
		})
	case errors.Is(err, usecase.ErrAggregationFailed):
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "aggregation_failed",
			Message: err.Error(),
		})
	default:
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "internal_server_error",
		})
	}
}

type InvalidationService interface {
	OnContentChanged(ctx context.Context, ev invalidation.ContentChange)
	OnCampaignChanged(ctx context.Context, ev invalidation.CampaignChange)
	OnAnalyticsIngested(ctx context.Context, ev invalidation.AnalyticsIngested)
	OnMembershipChanged(ctx context.Context, ev invalidation.MembershipChange)
	HealthStatus(ctx context.Context) invalidation.HealthStatus
}

type CacheHandler struct {
	svc InvalidationService
}

func NewCacheHandler(svc InvalidationService) *CacheHandler {
	return &CacheHandler{svc: svc}
}

// GetHealth godoc
// @Summary Cache health
// @Tags Cache
// @Produce json
// @Success 200 {object} invalidation.HealthStatus
// @Router /cache/health [get]
func (h *CacheHandler) GetHealth(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(h.svc.HealthStatus(c.Context()))
}

// InvalidateContent godoc
// @Summary Content change hook
// @Tags Cache
// @Accept json
// @Produce json
// @Param event body ContentChangeRequest true "Content change"
// @Success 200 {object} InvalidationAcceptedResponse
// @Failure 400 {object} ErrorResponse
// @Router /cache/invalidate/content [post]
func (h *CacheHandler) InvalidateContent(c *fiber.Ctx) error {
	var req ContentChangeRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_parameters",
			Message: "user_id is required",
		})
	}

	h.svc.OnContentChanged(c.Context(), invalidation.ContentChange{
		UserID:         req.UserID,
		OrganizationID: req.OrganizationID,
		ContentID:      req.ContentID,
	})
	return c.Status(http.StatusOK).JSON(InvalidationAcceptedResponse{Status: "invalidated"})
}

// InvalidateCampaign godoc
// @Summary Campaign change hook
// @Tags Cache
// @Accept json
// @Produce json
// @Param event body CampaignChangeRequest true "Campaign change"
// @Success 200 {object} InvalidationAcceptedResponse
// @Failure 400 {object} ErrorResponse
// @Router /cache/invalidate/campaign [post]
func (h *CacheHandler) InvalidateCampaign(c *fiber.Ctx) error {
	var req CampaignChangeRequest
	if err := c.BodyParser(&req); err != nil || req.CampaignID == "" || req.OrganizationID == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_parameters",
			Message: "campaign_id and organization_id are required",
		})
	}

	h.svc.OnCampaignChanged(c.Context(), invalidation.CampaignChange{
		CampaignID:     req.CampaignID,
		OrganizationID: req.OrganizationID,
		UserID:         req.UserID,
	})
	return c.Status(http.StatusOK).JSON(InvalidationAcceptedResponse{Status: "invalidated"})
}

// InvalidateAnalytics godoc
// @Summary Analytics ingestion hook
// @Tags Cache
// @Accept json
// @Produce json
// @Param event body AnalyticsIngestedRequest true "Analytics ingestion"
// @Success 200 {object} InvalidationAcceptedResponse
// @Failure 400 {object} ErrorResponse
// @Router /cache/invalidate/analytics [post]
func (h *CacheHandler) InvalidateAnalytics(c *fiber.Ctx) error {
	var req AnalyticsIngestedRequest
	if err := c.BodyParser(&req); err != nil || req.OrganizationID == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_parameters",
			Message: "organization_id is required",
		})
	}

	h.svc.OnAnalyticsIngested(c.Context(), invalidation.AnalyticsIngested{
		OrganizationID: req.OrganizationID,
		CampaignID:     req.CampaignID,
		ClientID:       req.ClientID,
	})
	return c.Status(http.StatusOK).JSON(InvalidationAcceptedResponse{Status: "invalidated"})
}

// InvalidateMembership godoc
// @Summary Membership change hook
// @Tags Cache
// @Accept json
// @Produce json
// @Param event body MembershipChangeRequest true "Membership change"
// @Success 200 {object} InvalidationAcceptedResponse
// @Failure 400 {object} ErrorResponse
// @Router /cache/invalidate/membership [post]
func (h *CacheHandler) InvalidateMembership(c *fiber.Ctx) error {
	var req MembershipChangeRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" || req.OrganizationID == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_parameters",
			Message: "user_id and organization_id are required",
		})
	}

	h.svc.OnMembershipChanged(c.Context(), invalidation.MembershipChange{
		UserID:         req.UserID,
		OrganizationID: req.OrganizationID,
	})
	return c.Status(http.StatusOK).JSON(InvalidationAcceptedResponse{Status: "invalidated"})
}
