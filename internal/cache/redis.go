package cache

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

var usedMemoryRe = regexp.MustCompile(`used_memory:(\d+)`)

// RedisStore is the networked shared backend.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redis and verifies the connection with a ping.
// A failed ping is returned as an error so the caller can fall back to the
// in-process store.
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) DeletePattern(ctx context.Context, pattern string) error {
	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	keyCount, err := s.client.DBSize(ctx).Result()
	if err != nil {
		return Stats{Backend: "redis"}, err
	}

	stats := Stats{Backend: "redis", Available: true, KeyCount: keyCount}

	info, err := s.client.Info(ctx, "memory").Result()
	if err != nil {
		return stats, nil
	}
	if m := usedMemoryRe.FindStringSubmatch(info); m != nil {
		if used, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			stats.MemoryUsage = used
		}
	}
	return stats, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
