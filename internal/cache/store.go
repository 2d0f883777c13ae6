package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by a Store when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Stats describes the health of the active cache backend.
type Stats struct {
	Backend     string `json:"backend"` // "redis" or "memory"
	Available   bool   `json:"available"`
	KeyCount    int64  `json:"key_count"`
	MemoryUsage int64  `json:"memory_usage,omitempty"` // bytes, redis only
}

// Store is a key/value store with TTL expiry and glob pattern eviction.
// Values are opaque byte payloads; serialization is the caller's concern.
//
// Pattern semantics are glob with `*` as the only wildcard, consistent
// across backends.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}
