// Package cache provides the key/value cache used for prompt, permission,
// and quota-usage caching. A cache is an optimization only: callers must be
// able to recompute every value when Get misses or fails.
package cache

import (
	"context"
	"fmt"
	"path"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is the contract the generation pipeline depends on.
type Cache interface {
	Get(ctx context.Context, key string) (any, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// InvalidatePattern deletes every key matching the glob pattern
	// (path.Match syntax) and returns how many were removed.
	InvalidatePattern(ctx context.Context, pattern string) (int, error)
}

// Memory is an in-process Cache backed by go-cache.
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates a Memory cache. Entries stored with a zero ttl use
// defaultTTL; expired entries are purged every cleanup interval.
func NewMemory(defaultTTL, cleanup time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultTTL, cleanup)}
}

func (m *Memory) Get(_ context.Context, key string) (any, bool, error) {
	v, ok := m.c.Get(key)
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.c.Set(key, value, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *Memory) InvalidatePattern(_ context.Context, pattern string) (int, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, fmt.Errorf("invalid cache pattern %q: %w", pattern, err)
	}

	removed := 0
	for key := range m.c.Items() {
		if ok, _ := path.Match(pattern, key); ok {
			m.c.Delete(key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of unexpired entries.
func (m *Memory) Len() int {
	return m.c.ItemCount()
}
