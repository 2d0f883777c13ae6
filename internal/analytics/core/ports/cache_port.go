package ports

import (
	"context"
	"time"
)

// CachePort reads and writes typed query results. Get reports whether the
// destination was populated; cache failures never surface as errors here,
// a failed lookup is simply a miss.
type CachePort interface {
	Get(ctx context.Context, queryType string, params map[string]string, dest any) bool
	Set(ctx context.Context, queryType string, params map[string]string, value any)
	SetTTL(ctx context.Context, queryType string, params map[string]string, value any, ttl time.Duration)
	Delete(ctx context.Context, queryType string, params map[string]string)
	InvalidatePattern(ctx context.Context, pattern string)
}
