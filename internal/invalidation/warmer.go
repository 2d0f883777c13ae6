package invalidation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"marketing-analytics-service/internal/analytics/core/domain"
	"marketing-analytics-service/internal/analytics/core/usecase"
)

// warmTimeframes are the windows users actually look at right after a
// change; warming anything else is wasted work.
var warmTimeframes = []string{"7d", "30d"}

const warmTimeout = 15 * time.Second

type metricsQuery interface {
	Execute(ctx context.Context, in usecase.GetMetricsInput) (*domain.MetricsResult, error)
}

type overviewQuery interface {
	Execute(ctx context.Context, in usecase.GetOverviewInput) ([]domain.OverviewRow, error)
}

type memberLister interface {
	OrganizationUserIDs(ctx context.Context, organizationID string) ([]string, error)
}

// Warmer re-runs the hot queries right after invalidation so the next real
// request lands on a warm cache. Strictly fire-and-forget: failures are
// logged and never propagated or retried.
type Warmer struct {
	metrics  metricsQuery
	overview overviewQuery
	members  memberLister
	logger   *zap.Logger
}

func NewWarmer(metrics metricsQuery, overview overviewQuery, members memberLister, logger *zap.Logger) *Warmer {
	return &Warmer{metrics: metrics, overview: overview, members: members, logger: logger}
}

func (w *Warmer) WarmUser(userID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
		defer cancel()
		w.warmUser(ctx, userID)
	}()
}

func (w *Warmer) WarmOrganization(organizationID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
		defer cancel()
		w.warmOrganization(ctx, organizationID)
	}()
}

func (w *Warmer) warmUser(ctx context.Context, userID string) {
	for _, timeframe := range warmTimeframes {
		if _, err := w.metrics.Execute(ctx, usecase.GetMetricsInput{UserID: userID, Timeframe: timeframe}); err != nil {
			w.logger.Warn("metrics warm-up failed",
				zap.String("user_id", userID),
				zap.String("timeframe", timeframe),
				zap.Error(err))
		}
		if _, err := w.overview.Execute(ctx, usecase.GetOverviewInput{UserID: userID, Timeframe: timeframe}); err != nil {
			w.logger.Warn("overview warm-up failed",
				zap.String("user_id", userID),
				zap.String("timeframe", timeframe),
				zap.Error(err))
		}
	}
	w.logger.Debug("cache warmed", zap.String("user_id", userID))
}

func (w *Warmer) warmOrganization(ctx context.Context, organizationID string) {
	userIDs, err := w.members.OrganizationUserIDs(ctx, organizationID)
	if err != nil {
		w.logger.Warn("organization warm-up skipped",
			zap.String("organization_id", organizationID),
			zap.Error(err))
		return
	}
	for _, userID := range userIDs {
		w.warmUser(ctx, userID)
	}
	w.logger.Debug("cache warmed", zap.String("organization_id", organizationID))
}
