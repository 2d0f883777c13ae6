package cache

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// QueryType selects the key prefix and default TTL for a cached query.
type QueryType string

const (
	TypeMetrics     QueryType = "metrics"
	TypeTimeSeries  QueryType = "time_series"
	TypeOverview    QueryType = "overview"
	TypeAudience    QueryType = "audience"
	TypeAggregation QueryType = "aggregation"
	TypePerformance QueryType = "performance"
)

var keyPrefixes = map[QueryType]string{
	TypeMetrics:     "analytics:metrics:",
	TypeTimeSeries:  "analytics:time-series:",
	TypeOverview:    "analytics:overview:",
	TypeAudience:    "analytics:audience:",
	TypeAggregation: "analytics:aggregation:",
	TypePerformance: "analytics:performance:",
}

// Default TTLs per query type. Overview data changes with user interaction
// and stays short; audience size is expensive and slow-moving.
var defaultTTLs = map[QueryType]time.Duration{
	TypeMetrics:     300 * time.Second,
	TypeTimeSeries:  600 * time.Second,
	TypeOverview:    180 * time.Second,
	TypeAudience:    900 * time.Second,
	TypeAggregation: 300 * time.Second,
	TypePerformance: 60 * time.Second,
}

// Manager builds deterministic cache keys and reads/writes JSON payloads
// through the Store. Every store failure is absorbed here: a failed Get is
// a miss, a failed Set or invalidation is a logged no-op. Callers always
// fall through to the source of truth.
type Manager struct {
	store  Store
	logger *zap.Logger
}

func NewManager(store Store, logger *zap.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// BuildKey concatenates the type prefix with parameters sorted
// lexicographically by name and joined as name:value pairs, so two
// logically identical requests always map to the same key regardless of
// call-site parameter order.
func BuildKey(t QueryType, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+":"+params[name])
	}
	return keyPrefixes[t] + strings.Join(pairs, "|")
}

// Get unmarshals a cached value into dest and reports whether it was a hit.
func (m *Manager) Get(ctx context.Context, t QueryType, params map[string]string, dest any) bool {
	key := BuildKey(t, params)

	data, err := m.store.Get(ctx, key)
	if err == ErrMiss {
		return false
	}
	if err != nil {
		m.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		m.logger.Error("cache payload corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Set stores a value under the type's default TTL.
func (m *Manager) Set(ctx context.Context, t QueryType, params map[string]string, value any) {
	m.SetTTL(ctx, t, params, value, defaultTTLs[t])
}

// SetTTL stores a value with an explicit TTL override.
func (m *Manager) SetTTL(ctx context.Context, t QueryType, params map[string]string, value any, ttl time.Duration) {
	key := BuildKey(t, params)

	data, err := json.Marshal(value)
	if err != nil {
		m.logger.Error("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := m.store.Set(ctx, key, data, ttl); err != nil {
		m.logger.Error("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (m *Manager) Delete(ctx context.Context, t QueryType, params map[string]string) {
	key := BuildKey(t, params)
	if err := m.store.Delete(ctx, key); err != nil {
		m.logger.Error("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidatePattern evicts every key matching the glob pattern.
func (m *Manager) InvalidatePattern(ctx context.Context, pattern string) {
	if err := m.store.DeletePattern(ctx, pattern); err != nil {
		m.logger.Error("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

func (m *Manager) InvalidateUserCache(ctx context.Context, userID string) {
	m.InvalidatePattern(ctx, "*user:"+userID+"*")
}

func (m *Manager) InvalidateOrganizationCache(ctx context.Context, orgID string) {
	m.InvalidatePattern(ctx, "*org:"+orgID+"*")
}

func (m *Manager) InvalidateCampaignCache(ctx context.Context, campaignID string) {
	m.InvalidatePattern(ctx, "*campaign:"+campaignID+"*")
}

// ClearAll evicts the whole analytics key space.
func (m *Manager) ClearAll(ctx context.Context) {
	m.InvalidatePattern(ctx, "analytics:*")
}

func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	return m.store.Stats(ctx)
}

func (m *Manager) Close() error {
	return m.store.Close()
}
