package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/lib/pq"

	"marketing-analytics-service/internal/analytics/core/domain"
	"marketing-analytics-service/internal/analytics/core/ports"
)

// batchLimit bounds per-entity result sets so one oversized organization
// cannot blow up a report.
const batchLimit = 1000

// metricColumns maps external metric names onto analytics columns. Doubles
// as an allowlist since the column is interpolated into the query text.
var metricColumns = map[string]string{
	"views":       "views",
	"engagement":  "engagements",
	"conversions": "conversions",
	"clicks":      "clicks",
	"impressions": "impressions",
}

// AnalyticsRepository serves both the dashboard metrics reads and the
// report aggregation reads from the relational store.
type AnalyticsRepository struct {
	db DB
}

func NewAnalyticsRepository(db DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) UserOrganizationIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
SELECT organization_id
FROM organization_members
WHERE user_id = $1`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// OrganizationUserIDs is the reverse membership lookup, used by the cache
// warmer to fan a warm-up out over an organization's members.
func (r *AnalyticsRepository) OrganizationUserIDs(ctx context.Context, organizationID string) ([]string, error) {
	query := `
SELECT user_id
FROM organization_members
WHERE organization_id = $1`

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *AnalyticsRepository) ContentStatusCounts(ctx context.Context, userID string, rng ports.DateRange) ([]ports.StatusCount, error) {
	query := `
SELECT status, COUNT(*) AS total
FROM content
WHERE author_id = $1
  AND created_at BETWEEN $2 AND $3
GROUP BY status`

	return r.statusCounts(ctx, query, userID, rng.Start, rng.End)
}

func (r *AnalyticsRepository) CampaignStatusCounts(ctx context.Context, orgIDs []string, rng ports.DateRange) ([]ports.StatusCount, error) {
	if len(orgIDs) == 0 {
		return nil, nil
	}
	query := `
SELECT status, COUNT(*) AS total
FROM campaigns
WHERE organization_id = ANY($1)
  AND created_at BETWEEN $2 AND $3
GROUP BY status`

	return r.statusCounts(ctx, query, pq.Array(orgIDs), rng.Start, rng.End)
}

func (r *AnalyticsRepository) statusCounts(ctx context.Context, query string, args ...any) ([]ports.StatusCount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []ports.StatusCount
	for rows.Next() {
		var c ports.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *AnalyticsRepository) ContentCreatedByDay(ctx context.Context, userID string, rng ports.DateRange) ([]ports.DayCount, error) {
	query := `
SELECT date_trunc('day', created_at) AS day, COUNT(*) AS total
FROM content
WHERE author_id = $1
  AND created_at BETWEEN $2 AND $3
GROUP BY day
ORDER BY day`

	return r.dayCounts(ctx, query, userID, rng.Start, rng.End)
}

func (r *AnalyticsRepository) CampaignsCreatedByDay(ctx context.Context, orgIDs []string, rng ports.DateRange) ([]ports.DayCount, error) {
	if len(orgIDs) == 0 {
		return nil, nil
	}
	query := `
SELECT date_trunc('day', created_at) AS day, COUNT(*) AS total
FROM campaigns
WHERE organization_id = ANY($1)
  AND created_at BETWEEN $2 AND $3
GROUP BY day
ORDER BY day`

	return r.dayCounts(ctx, query, pq.Array(orgIDs), rng.Start, rng.End)
}

func (r *AnalyticsRepository) MetricDailyTotals(ctx context.Context, orgIDs []string, metric string, rng ports.DateRange) ([]ports.DayCount, error) {
	column, ok := metricColumns[metric]
	if !ok {
		return nil, fmt.Errorf("unsupported metric column: %s", metric)
	}
	if len(orgIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`
SELECT date_trunc('day', a.created_at) AS day, COALESCE(SUM(a.%s), 0) AS total
FROM analytics a
JOIN clients c ON a.client_id = c.id
WHERE c.organization_id = ANY($1)
  AND a.created_at BETWEEN $2 AND $3
GROUP BY day
ORDER BY day`, column)

	return r.dayCounts(ctx, query, pq.Array(orgIDs), rng.Start, rng.End)
}

func (r *AnalyticsRepository) dayCounts(ctx context.Context, query string, args ...any) ([]ports.DayCount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []ports.DayCount
	for rows.Next() {
		var c ports.DayCount
		if err := rows.Scan(&c.Day, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *AnalyticsRepository) OverviewRows(ctx context.Context, orgIDs []string, rng ports.DateRange) ([]domain.OverviewRow, error) {
	if len(orgIDs) == 0 {
		return nil, nil
	}
	query := `
SELECT
    a.id,
    c.name,
    COALESCE(cp.name, 'No Campaign'),
    a.views, a.likes, a.shares, a.comments,
    a.reach_count, a.clicks, a.impressions, a.conversions,
    a.revenue, a.engagement_rate, a.conversion_rate,
    a.created_at
FROM analytics a
JOIN clients c ON a.client_id = c.id
LEFT JOIN campaigns cp ON a.campaign_id = cp.id
WHERE c.organization_id = ANY($1)
  AND a.created_at BETWEEN $2 AND $3
ORDER BY a.created_at DESC
LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(orgIDs), rng.Start, rng.End, batchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OverviewRow
	for rows.Next() {
		var o domain.OverviewRow
		err := rows.Scan(
			&o.AnalyticsID, &o.ClientName, &o.CampaignName,
			&o.Views, &o.Likes, &o.Shares, &o.Comments,
			&o.Reach, &o.Clicks, &o.Impressions, &o.Conversions,
			&o.Revenue, &o.EngagementRate, &o.ConversionRate,
			&o.RecordedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepository) ContentMetrics(ctx context.Context, scope ports.AggregationScope) ([]domain.ContentMetrics, error) {
	where, args := scopeFilter("c", scope)
	query := fmt.Sprintf(`
SELECT
    c.id, c.title, c.type, c.status, c.published_at,
    COALESCE(ca.views, 0), COALESCE(ca.likes, 0),
    COALESCE(ca.shares, 0), COALESCE(ca.comments, 0),
    COALESCE(ca.engagement_rate, 0), COALESCE(ca.conversion_rate, 0)
FROM content c
LEFT JOIN content_analytics ca ON ca.content_id = c.id
WHERE %s
ORDER BY COALESCE(ca.views, 0) DESC, c.created_at DESC
LIMIT %d`, where, batchLimit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ContentMetrics
	for rows.Next() {
		var (
			m         domain.ContentMetrics
			published sql.NullTime
		)
		err := rows.Scan(
			&m.ContentID, &m.Title, &m.Type, &m.Status, &published,
			&m.Views, &m.Likes, &m.Shares, &m.Comments,
			&m.EngagementRate, &m.ConversionRate,
		)
		if err != nil {
			return nil, err
		}
		if published.Valid {
			t := published.Time
			m.PublishedAt = &t
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepository) CampaignMetrics(ctx context.Context, scope ports.AggregationScope) ([]domain.CampaignMetrics, error) {
	where, args := scopeFilter("cp", scope)
	query := fmt.Sprintf(`
SELECT
    cp.id, cp.name, cp.status, COALESCE(cp.goal_type, 'AWARENESS'),
    COUNT(c.id) AS content_count,
    COALESCE(SUM(ca.views), 0),
    COALESCE(SUM(ca.likes + ca.shares + ca.comments), 0),
    COALESCE(AVG(ca.engagement_rate), 0),
    COALESCE(cp.budget, 0)
FROM campaigns cp
LEFT JOIN content c ON c.campaign_id = cp.id
LEFT JOIN content_analytics ca ON ca.content_id = c.id
WHERE %s
GROUP BY cp.id, cp.name, cp.status, cp.goal_type, cp.budget, cp.created_at
ORDER BY cp.created_at DESC
LIMIT %d`, where, batchLimit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CampaignMetrics
	for rows.Next() {
		var m domain.CampaignMetrics
		err := rows.Scan(
			&m.CampaignID, &m.Name, &m.Status, &m.Type,
			&m.ContentCount, &m.TotalViews, &m.TotalEngagement,
			&m.AvgEngagementRate, &m.Budget,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepository) OrganizationMetrics(ctx context.Context, organizationID string) (domain.OrganizationMetrics, error) {
	query := `
SELECT
    COALESCE((SELECT SUM(size) FROM audiences WHERE organization_id = $1), 0),
    (SELECT COUNT(*) FROM clients WHERE organization_id = $1 AND status = 'ACTIVE')`

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return domain.OrganizationMetrics{}, err
	}
	defer rows.Close()

	var m domain.OrganizationMetrics
	if rows.Next() {
		if err := rows.Scan(&m.AudienceSize, &m.ActiveClients); err != nil {
			return domain.OrganizationMetrics{}, err
		}
	}
	return m, rows.Err()
}

// PreviousPeriodTotals sums the period of equal length immediately before
// the scope's range, for trend comparison.
func (r *AnalyticsRepository) PreviousPeriodTotals(ctx context.Context, scope ports.AggregationScope) (domain.PeriodTotals, error) {
	length := scope.Range.End.Sub(scope.Range.Start)
	prev := scope
	prev.Range = ports.DateRange{
		Start: scope.Range.Start.Add(-length),
		End:   scope.Range.Start,
	}

	where, args := publishedFilter("c", prev)
	query := `
SELECT
    COALESCE(SUM(ca.views), 0),
    COALESCE(SUM(ca.likes + ca.shares + ca.comments), 0),
    COALESCE(AVG(ca.conversion_rate), 0)
FROM content c
JOIN content_analytics ca ON ca.content_id = c.id
WHERE ` + where

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.PeriodTotals{}, err
	}
	defer rows.Close()

	var (
		views, engagement int64
		avgConversionRate float64
	)
	if rows.Next() {
		if err := rows.Scan(&views, &engagement, &avgConversionRate); err != nil {
			return domain.PeriodTotals{}, err
		}
	}
	if err := rows.Err(); err != nil {
		return domain.PeriodTotals{}, err
	}

	return domain.PeriodTotals{
		Views:       views,
		Engagement:  engagement,
		Conversions: int64(math.Round(float64(views) * avgConversionRate)),
		Reach:       int64(math.Round(float64(views) * domain.ReachRatio)),
	}, nil
}

// scopeFilter builds the shared organization/client/created_at predicate for
// a table alias, numbering placeholders from $1.
func scopeFilter(alias string, scope ports.AggregationScope) (string, []any) {
	where := fmt.Sprintf("%s.organization_id = $1 AND %s.created_at BETWEEN $2 AND $3", alias, alias)
	args := []any{scope.OrganizationID, scope.Range.Start, scope.Range.End}
	if scope.ClientID != "" {
		where += fmt.Sprintf(" AND %s.client_id = $4", alias)
		args = append(args, scope.ClientID)
	}
	return where, args
}

// publishedFilter is scopeFilter over published_at instead of created_at.
func publishedFilter(alias string, scope ports.AggregationScope) (string, []any) {
	where := fmt.Sprintf("%s.organization_id = $1 AND %s.published_at BETWEEN $2 AND $3", alias, alias)
	args := []any{scope.OrganizationID, scope.Range.Start, scope.Range.End}
	if scope.ClientID != "" {
		where += fmt.Sprintf(" AND %s.client_id = $4", alias)
		args = append(args, scope.ClientID)
	}
	return where, args
}

var (
	_ ports.MetricsReaderPort     = (*AnalyticsRepository)(nil)
	_ ports.AggregationReaderPort = (*AnalyticsRepository)(nil)
)
