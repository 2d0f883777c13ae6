package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// brokenStore fails every operation, standing in for a redis backend that
// went away after startup.
type brokenStore struct {
	calls int
}

var errBackendDown = errors.New("backend down")

func (b *brokenStore) Get(context.Context, string) ([]byte, error) {
	b.calls++
	return nil, errBackendDown
}

func (b *brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	b.calls++
	return errBackendDown
}

func (b *brokenStore) Delete(context.Context, string) error {
	b.calls++
	return errBackendDown
}

func (b *brokenStore) DeletePattern(context.Context, string) error {
	b.calls++
	return errBackendDown
}

func (b *brokenStore) Stats(context.Context) (Stats, error) {
	return Stats{Backend: "redis"}, errBackendDown
}

func (b *brokenStore) Close() error { return nil }

func newBrokenTieredStore() (*TieredStore, *brokenStore) {
	broken := &brokenStore{}
	s := &TieredStore{
		primary:  broken,
		fallback: NewMemoryStore(),
		logger:   zap.NewNop(),
	}
	return s, broken
}

func TestTieredStore_DegradesPermanentlyOnFailure(t *testing.T) {
	s, broken := newBrokenTieredStore()
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("expected fallback set to succeed, got %v", err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("expected fallback hit, got %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("unexpected payload: %s", got)
	}

	// the primary must not be retried after degradation
	callsAfterDegrade := broken.calls
	_ = s.Set(ctx, "k2", []byte("v"), time.Minute)
	_, _ = s.Get(ctx, "k2")
	if broken.calls != callsAfterDegrade {
		t.Fatalf("expected no further primary calls, got %d extra", broken.calls-callsAfterDegrade)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Backend != "memory" {
		t.Fatalf("expected memory backend after degradation, got %s", stats.Backend)
	}
}

func TestTieredStore_MissDoesNotDegrade(t *testing.T) {
	mem := NewMemoryStore()
	s := &TieredStore{primary: mem, fallback: NewMemoryStore(), logger: zap.NewNop()}
	defer func() { _ = s.Close() }()

	if _, err := s.Get(context.Background(), "absent"); err != ErrMiss {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
	if s.degraded.Load() {
		t.Fatalf("a miss must not trigger degradation")
	}
}

func TestNewTieredStore_NoRedisURL(t *testing.T) {
	s := NewTieredStore("", zap.NewNop())
	defer func() { _ = s.Close() }()

	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Backend != "memory" {
		t.Fatalf("expected memory backend, got %s", stats.Backend)
	}
}
