package cache

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"
)

// RistrettoConfig sizes a Ristretto cache. Cost is the value length in bytes.
type RistrettoConfig struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
}

// DefaultRistrettoConfig holds roughly 64 MiB of values.
func DefaultRistrettoConfig() RistrettoConfig {
	return RistrettoConfig{
		NumCounters: 1e6,
		MaxCost:     64 << 20,
		BufferItems: 64,
	}
}

// Ristretto is a bounded in-process Client. Under memory pressure writes may be
// dropped, which readers observe as a miss.
type Ristretto struct {
	c *rc.Cache
}

var _ Client = (*Ristretto)(nil)

// NewRistretto creates a bounded local cache.
func NewRistretto(cfg RistrettoConfig) (*Ristretto, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("cache: invalid ristretto config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &Ristretto{c: c}, nil
}

func (r *Ristretto) Get(_ context.Context, cacheName, key string) ([]byte, bool, error) {
	v, ok := r.c.Get(namespaced(cacheName, key))
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		r.c.Del(namespaced(cacheName, key))
		return nil, false, nil
	}
	return cloneBytes(b), true, nil
}

func (r *Ristretto) Set(_ context.Context, cacheName, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	r.c.SetWithTTL(namespaced(cacheName, key), cloneBytes(value), int64(len(value)), ttl)
	// Sets are buffered; wait so a following Get observes the write.
	r.c.Wait()
	return nil
}

func (r *Ristretto) Delete(_ context.Context, cacheName, key string) error {
	r.c.Del(namespaced(cacheName, key))
	return nil
}

func (r *Ristretto) Close() error {
	r.c.Close()
	return nil
}
