package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

var errDownstream = errors.New("downstream failed")

func failing(context.Context) error    { return errDownstream }
func succeeding(context.Context) error { return nil }

func newTestBreaker(now *time.Time) *CircuitBreaker {
	cb := NewCircuitBreaker(5, 60*time.Second, zap.NewNop())
	cb.now = func() time.Time { return *now }
	return cb
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := cb.Execute(ctx, "agg", failing); !errors.Is(err, errDownstream) {
			t.Fatalf("call %d: expected downstream error, got %v", i, err)
		}
	}

	if !cb.IsOpen() {
		t.Fatalf("expected breaker open after 5 consecutive failures")
	}

	calls := 0
	err := cb.Execute(ctx, "agg", func(context.Context) error {
		calls++
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("open breaker must not invoke the function")
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	now := time.Now()
	cb := newTestBreaker(&now)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_ = cb.Execute(ctx, "agg", failing)
	}
	if err := cb.Execute(ctx, "agg", succeeding); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// four more failures must not open the breaker after the reset
	for i := 0; i < 4; i++ {
		_ = cb.Execute(ctx, "agg", failing)
	}
	if cb.IsOpen() {
		t.Fatalf("expected breaker still closed")
	}
}

func TestCircuitBreaker_ClosesAfterCooldown(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = cb.Execute(ctx, "agg", failing)
	}
	if !cb.IsOpen() {
		t.Fatalf("expected breaker open")
	}

	now = now.Add(61 * time.Second)

	// trial call goes through and, on success, fully closes the breaker
	if err := cb.Execute(ctx, "agg", succeeding); err != nil {
		t.Fatalf("expected trial call to pass, got %v", err)
	}
	if cb.IsOpen() {
		t.Fatalf("expected breaker closed after successful trial")
	}

	// a single failure afterwards must not reopen it
	_ = cb.Execute(ctx, "agg", failing)
	if cb.IsOpen() {
		t.Fatalf("failure count should have reset on success")
	}
}

func TestCircuitBreaker_ReopensOnFailedTrial(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = cb.Execute(ctx, "agg", failing)
	}
	now = now.Add(61 * time.Second)

	if err := cb.Execute(ctx, "agg", failing); !errors.Is(err, errDownstream) {
		t.Fatalf("expected trial call attempted, got %v", err)
	}
	if !cb.IsOpen() {
		t.Fatalf("expected breaker reopened after failed trial")
	}
}
