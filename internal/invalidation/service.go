package invalidation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"marketing-analytics-service/internal/cache"
)

// CacheManagerPort is the slice of the cache manager this service drives.
type CacheManagerPort interface {
	InvalidateUserCache(ctx context.Context, userID string)
	InvalidateOrganizationCache(ctx context.Context, organizationID string)
	InvalidateCampaignCache(ctx context.Context, campaignID string)
	InvalidatePattern(ctx context.Context, pattern string)
	Stats(ctx context.Context) (cache.Stats, error)
}

type ContentChange struct {
	UserID         string
	OrganizationID string // optional
	ContentID      string // optional
}

type CampaignChange struct {
	CampaignID     string
	OrganizationID string
	UserID         string // optional
}

type AnalyticsIngested struct {
	OrganizationID string
	CampaignID     string // optional
	ClientID       string // optional
}

type MembershipChange struct {
	UserID         string
	OrganizationID string
}

type HealthStatus struct {
	Healthy   bool        `json:"healthy"`
	Stats     cache.Stats `json:"stats"`
	CheckedAt time.Time   `json:"checked_at"`
}

// Service translates domain events into cache evictions. Eviction is
// over-inclusive on purpose: a broader pattern beats a stale read.
type Service struct {
	cache  CacheManagerPort
	warmer *Warmer // optional
	logger *zap.Logger
}

func NewService(cache CacheManagerPort, warmer *Warmer, logger *zap.Logger) *Service {
	return &Service{cache: cache, warmer: warmer, logger: logger}
}

func (s *Service) OnContentChanged(ctx context.Context, ev ContentChange) {
	s.cache.InvalidateUserCache(ctx, ev.UserID)
	if ev.OrganizationID != "" {
		s.cache.InvalidateOrganizationCache(ctx, ev.OrganizationID)
	}
	if ev.ContentID != "" {
		s.cache.InvalidatePattern(ctx, "*content:"+ev.ContentID+"*")
	}

	s.logger.Debug("cache invalidated for content change",
		zap.String("user_id", ev.UserID),
		zap.String("organization_id", ev.OrganizationID),
		zap.String("content_id", ev.ContentID))

	if s.warmer != nil {
		s.warmer.WarmUser(ev.UserID)
	}
}

func (s *Service) OnCampaignChanged(ctx context.Context, ev CampaignChange) {
	s.cache.InvalidateCampaignCache(ctx, ev.CampaignID)
	s.cache.InvalidateOrganizationCache(ctx, ev.OrganizationID)
	if ev.UserID != "" {
		s.cache.InvalidateUserCache(ctx, ev.UserID)
	}

	s.logger.Debug("cache invalidated for campaign change",
		zap.String("campaign_id", ev.CampaignID),
		zap.String("organization_id", ev.OrganizationID))

	if s.warmer != nil {
		s.warmer.WarmOrganization(ev.OrganizationID)
	}
}

func (s *Service) OnAnalyticsIngested(ctx context.Context, ev AnalyticsIngested) {
	s.cache.InvalidateOrganizationCache(ctx, ev.OrganizationID)
	if ev.CampaignID != "" {
		s.cache.InvalidateCampaignCache(ctx, ev.CampaignID)
	}
	if ev.ClientID != "" {
		s.cache.InvalidatePattern(ctx, "*client:"+ev.ClientID+"*")
	}

	s.logger.Debug("cache invalidated for analytics ingestion",
		zap.String("organization_id", ev.OrganizationID),
		zap.String("campaign_id", ev.CampaignID),
		zap.String("client_id", ev.ClientID))

	if s.warmer != nil {
		s.warmer.WarmOrganization(ev.OrganizationID)
	}
}

func (s *Service) OnMembershipChanged(ctx context.Context, ev MembershipChange) {
	// membership affects which organizations the user's queries fan out
	// over, so both scopes go
	s.cache.InvalidateUserCache(ctx, ev.UserID)
	s.cache.InvalidateOrganizationCache(ctx, ev.OrganizationID)

	s.logger.Debug("cache invalidated for membership change",
		zap.String("user_id", ev.UserID),
		zap.String("organization_id", ev.OrganizationID))

	if s.warmer != nil {
		s.warmer.WarmUser(ev.UserID)
	}
}

// InvalidateTimeRange drops every time-scoped entry, narrowed to one
// organization when given. Meant for bulk backfills and maintenance.
func (s *Service) InvalidateTimeRange(ctx context.Context, organizationID string) {
	if organizationID != "" {
		s.cache.InvalidateOrganizationCache(ctx, organizationID)
		return
	}
	s.cache.InvalidatePattern(ctx, "*timeframe:*")
}

func (s *Service) HealthStatus(ctx context.Context) HealthStatus {
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		s.logger.Warn("cache health check failed", zap.Error(err))
		return HealthStatus{Healthy: false, CheckedAt: time.Now().UTC()}
	}
	return HealthStatus{
		Healthy:   stats.Available,
		Stats:     stats,
		CheckedAt: time.Now().UTC(),
	}
}

// PerformMaintenance reports cache health for operational visibility. TTL
// expiry and the memory-store janitor do the actual cleanup.
func (s *Service) PerformMaintenance(ctx context.Context) {
	status := s.HealthStatus(ctx)
	s.logger.Info("cache maintenance",
		zap.Bool("healthy", status.Healthy),
		zap.String("backend", status.Stats.Backend),
		zap.Int64("key_count", status.Stats.KeyCount))
}

// RunMaintenance blocks, reporting health every interval until the context
// is cancelled.
func (s *Service) RunMaintenance(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.PerformMaintenance(ctx)
		}
	}
}
