package cache

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// TieredStore prefers the shared redis backend and degrades to the
// in-process memory store when redis fails. Degradation is permanent for
// the process lifetime; no reconnection is attempted mid-flight, which
// avoids flapping between backends under a partially healthy redis.
type TieredStore struct {
	primary  Store
	fallback Store
	degraded atomic.Bool
	logger   *zap.Logger
}

// NewTieredStore builds the process-wide cache store. When redisURL is
// empty, or the initial ping fails, only the memory store is used.
func NewTieredStore(redisURL string, logger *zap.Logger) *TieredStore {
	s := &TieredStore{fallback: NewMemoryStore(), logger: logger}

	if redisURL == "" {
		logger.Info("redis url not configured, using memory cache")
		s.degraded.Store(true)
		return s
	}

	primary, err := NewRedisStore(redisURL)
	if err != nil {
		logger.Warn("redis unavailable, falling back to memory cache", zap.Error(err))
		s.degraded.Store(true)
		return s
	}

	logger.Info("redis cache initialized")
	s.primary = primary
	return s
}

func (s *TieredStore) active() Store {
	if s.degraded.Load() {
		return s.fallback
	}
	return s.primary
}

// degrade switches to the memory store after a redis failure.
func (s *TieredStore) degrade(op string, err error) {
	if s.degraded.CompareAndSwap(false, true) {
		s.logger.Warn("redis operation failed, degrading to memory cache for process lifetime",
			zap.String("op", op), zap.Error(err))
	}
}

func (s *TieredStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.active().Get(ctx, key)
	if err != nil && err != ErrMiss && !s.degraded.Load() {
		s.degrade("get", err)
		return s.fallback.Get(ctx, key)
	}
	return data, err
}

func (s *TieredStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.active().Set(ctx, key, value, ttl)
	if err != nil && !s.degraded.Load() {
		s.degrade("set", err)
		return s.fallback.Set(ctx, key, value, ttl)
	}
	return err
}

func (s *TieredStore) Delete(ctx context.Context, key string) error {
	err := s.active().Delete(ctx, key)
	if err != nil && !s.degraded.Load() {
		s.degrade("delete", err)
		return s.fallback.Delete(ctx, key)
	}
	return err
}

func (s *TieredStore) DeletePattern(ctx context.Context, pattern string) error {
	err := s.active().DeletePattern(ctx, pattern)
	if err != nil && !s.degraded.Load() {
		s.degrade("delete_pattern", err)
		return s.fallback.DeletePattern(ctx, pattern)
	}
	return err
}

func (s *TieredStore) Stats(ctx context.Context) (Stats, error) {
	return s.active().Stats(ctx)
}

func (s *TieredStore) Close() error {
	var err error
	if s.primary != nil {
		err = s.primary.Close()
	}
	if ferr := s.fallback.Close(); err == nil {
		err = ferr
	}
	return err
}
