package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

func newTestMemoryStore(now *time.Time) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     func() time.Time { return *now },
		done:    make(chan struct{}),
	}
	// no janitor goroutine in tests; sweep is called directly
	return s
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := newTestMemoryStore(&now)
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), 10*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("expected hit before expiry, got %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("expected payload %q, got %q", "v", string(got))
	}

	now = now.Add(11 * time.Second)

	if _, err := s.Get(ctx, "k"); err != ErrMiss {
		t.Fatalf("expected ErrMiss after expiry, got %v", err)
	}
}

func TestMemoryStore_GetMissingKey(t *testing.T) {
	now := time.Now()
	s := newTestMemoryStore(&now)

	if _, err := s.Get(context.Background(), "absent"); err != ErrMiss {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	now := time.Now()
	s := newTestMemoryStore(&now)
	ctx := context.Background()

	_ = s.Set(ctx, "k", []byte("v"), time.Minute)
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Get(ctx, "k"); err != ErrMiss {
		t.Fatalf("expected ErrMiss after delete, got %v", err)
	}
}

func TestMemoryStore_DeletePattern_ScopedToOrganization(t *testing.T) {
	now := time.Now()
	s := newTestMemoryStore(&now)
	ctx := context.Background()

	keys := []string{
		"analytics:metrics:org:A|timeframe:7d",
		"analytics:overview:org:A|user:u1",
		"analytics:metrics:org:B|timeframe:7d",
	}
	for _, k := range keys {
		_ = s.Set(ctx, k, []byte("v"), time.Minute)
	}

	if err := s.DeletePattern(ctx, "*org:A*"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.Get(ctx, keys[0]); err != ErrMiss {
		t.Errorf("expected org A metrics key evicted")
	}
	if _, err := s.Get(ctx, keys[1]); err != ErrMiss {
		t.Errorf("expected org A overview key evicted")
	}
	if _, err := s.Get(ctx, keys[2]); err != nil {
		t.Errorf("expected org B key untouched, got %v", err)
	}
}

func TestMemoryStore_DeletePattern_LiteralSpecialChars(t *testing.T) {
	now := time.Now()
	s := newTestMemoryStore(&now)
	ctx := context.Background()

	_ = s.Set(ctx, "analytics:metrics:org:A.B", []byte("v"), time.Minute)
	_ = s.Set(ctx, "analytics:metrics:org:AxB", []byte("v"), time.Minute)

	// the dot must match literally, not as a regexp wildcard
	if err := s.DeletePattern(ctx, "*org:A.B*"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.Get(ctx, "analytics:metrics:org:A.B"); err != ErrMiss {
		t.Errorf("expected literal match evicted")
	}
	if _, err := s.Get(ctx, "analytics:metrics:org:AxB"); err != nil {
		t.Errorf("expected non-matching key untouched, got %v", err)
	}
}

func TestMemoryStore_SweepRemovesExpired(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := newTestMemoryStore(&now)
	ctx := context.Background()

	_ = s.Set(ctx, "short", []byte("v"), time.Second)
	_ = s.Set(ctx, "long", []byte("v"), time.Hour)

	now = now.Add(time.Minute)
	s.sweep()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.entries["short"]; ok {
		t.Errorf("expected expired entry swept")
	}
	if _, ok := s.entries["long"]; !ok {
		t.Errorf("expected live entry kept")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := "k" + string(rune('a'+n%4))
			for j := 0; j < 100; j++ {
				_ = s.Set(ctx, key, []byte("v"), time.Minute)
				_, _ = s.Get(ctx, key)
				_ = s.DeletePattern(ctx, "k*")
			}
		}(i)
	}
	wg.Wait()
}
