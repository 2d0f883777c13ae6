package cache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestBuildKey_Deterministic(t *testing.T) {
	p1 := map[string]string{"user": "u1", "org": "o1", "timeframe": "7d"}
	p2 := map[string]string{"timeframe": "7d", "user": "u1", "org": "o1"}

	k1 := BuildKey(TypeMetrics, p1)
	k2 := BuildKey(TypeMetrics, p2)

	if k1 != k2 {
		t.Fatalf("expected identical keys for permuted params: %q vs %q", k1, k2)
	}
	if k1 != "analytics:metrics:org:o1|timeframe:7d|user:u1" {
		t.Fatalf("unexpected key: %q", k1)
	}
}

func TestBuildKey_TypePrefixes(t *testing.T) {
	params := map[string]string{"org": "o1"}

	cases := map[QueryType]string{
		TypeMetrics:     "analytics:metrics:org:o1",
		TypeTimeSeries:  "analytics:time-series:org:o1",
		TypeOverview:    "analytics:overview:org:o1",
		TypeAudience:    "analytics:audience:org:o1",
		TypeAggregation: "analytics:aggregation:org:o1",
	}

	for qt, want := range cases {
		if got := BuildKey(qt, params); got != want {
			t.Errorf("type %s: expected %q, got %q", qt, want, got)
		}
	}
}

func TestManager_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, zap.NewNop())
	defer func() { _ = m.Close() }()
	ctx := context.Background()

	type payload struct {
		Views int64  `json:"views"`
		Name  string `json:"name"`
	}

	params := map[string]string{"org": "o1", "timeframe": "7d"}
	m.Set(ctx, TypeMetrics, params, payload{Views: 42, Name: "x"})

	var got payload
	if !m.Get(ctx, TypeMetrics, params, &got) {
		t.Fatalf("expected cache hit")
	}
	if got.Views != 42 || got.Name != "x" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestManager_GetMissOnUnsetKey(t *testing.T) {
	m := NewManager(NewMemoryStore(), zap.NewNop())
	defer func() { _ = m.Close() }()

	var dest map[string]any
	if m.Get(context.Background(), TypeMetrics, map[string]string{"org": "o1"}, &dest) {
		t.Fatalf("expected miss")
	}
}

func TestManager_AbsorbsStoreFailures(t *testing.T) {
	broken := &brokenStore{}
	m := NewManager(broken, zap.NewNop())
	ctx := context.Background()
	params := map[string]string{"org": "o1"}

	// no panics, no errors surfaced; gets behave as misses
	m.Set(ctx, TypeMetrics, params, map[string]string{"a": "b"})
	m.Delete(ctx, TypeMetrics, params)
	m.InvalidatePattern(ctx, "*org:o1*")

	var dest map[string]string
	if m.Get(ctx, TypeMetrics, params, &dest) {
		t.Fatalf("expected miss from failing store")
	}
}

func TestManager_InvalidateOrganizationScope(t *testing.T) {
	m := NewManager(NewMemoryStore(), zap.NewNop())
	defer func() { _ = m.Close() }()
	ctx := context.Background()

	orgA := map[string]string{"org": "A", "timeframe": "7d"}
	orgB := map[string]string{"org": "B", "timeframe": "7d"}
	m.Set(ctx, TypeMetrics, orgA, 1)
	m.Set(ctx, TypeOverview, orgA, 2)
	m.Set(ctx, TypeMetrics, orgB, 3)

	m.InvalidateOrganizationCache(ctx, "A")

	var v int
	if m.Get(ctx, TypeMetrics, orgA, &v) {
		t.Errorf("expected org A metrics evicted")
	}
	if m.Get(ctx, TypeOverview, orgA, &v) {
		t.Errorf("expected org A overview evicted")
	}
	if !m.Get(ctx, TypeMetrics, orgB, &v) {
		t.Errorf("expected org B untouched")
	}
}

func TestManager_SetTTLOverride(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := newTestMemoryStore(&now)
	m := NewManager(store, zap.NewNop())
	ctx := context.Background()
	params := map[string]string{"org": "o1"}

	m.SetTTL(ctx, TypeAggregation, params, "rt", 60*time.Second)

	var v string
	now = now.Add(59 * time.Second)
	if !m.Get(ctx, TypeAggregation, params, &v) {
		t.Fatalf("expected hit before override TTL")
	}
	now = now.Add(2 * time.Second)
	if m.Get(ctx, TypeAggregation, params, &v) {
		t.Fatalf("expected miss after override TTL")
	}
}
