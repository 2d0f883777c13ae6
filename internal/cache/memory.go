package cache

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"
)

const janitorInterval = 5 * time.Minute

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore is the in-process fallback backend. It keeps entries in a
// mutex-guarded map and sweeps expired entries on a fixed interval.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	now  func() time.Time
	done chan struct{}
	once sync.Once
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go s.janitor(janitorInterval)
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if s.now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, ErrMiss
	}
	return e.payload, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[key] = memoryEntry{payload: value, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// DeletePattern evicts every key matching the glob pattern. The pattern is
// translated to a regular expression with `*` mapped to `.*`; all other
// characters match literally.
func (s *MemoryStore) DeletePattern(_ context.Context, pattern string) error {
	re, err := compileGlob(pattern)
	if err != nil {
		return err
	}

	s.mu.Lock()
	for key := range s.entries {
		if re.MatchString(key) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	n := int64(len(s.entries))
	s.mu.RUnlock()

	return Stats{Backend: "memory", Available: true, KeyCount: n}, nil
}

func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	now := s.now()
	s.mu.Lock()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
}

func compileGlob(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.Compile("^" + strings.Join(parts, ".*") + "$")
}
