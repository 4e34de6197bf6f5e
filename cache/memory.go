package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const defaultMemoryCleanupInterval = 10 * time.Minute

// Memory is an in-process Client backed by go-cache. It suits tests and
// single-instance deployments; entries are not shared across processes.
type Memory struct {
	cache *gocache.Cache
}

var _ Client = (*Memory)(nil)

// NewMemory creates an in-process cache. ttl <= 0 on Set falls back to defaultTTL.
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	if cleanupInterval <= 0 {
		cleanupInterval = defaultMemoryCleanupInterval
	}
	return &Memory{cache: gocache.New(defaultTTL, cleanupInterval)}
}

func (m *Memory) Get(_ context.Context, cacheName, key string) ([]byte, bool, error) {
	v, ok := m.cache.Get(namespaced(cacheName, key))
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(b), true, nil
}

func (m *Memory) Set(_ context.Context, cacheName, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.cache.Set(namespaced(cacheName, key), cloneBytes(value), ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, cacheName, key string) error {
	m.cache.Delete(namespaced(cacheName, key))
	return nil
}

func (m *Memory) Close() error {
	m.cache.Flush()
	return nil
}
