// Package cache provides the cache client used by the read-through interceptor and
// the change-stream synchronizer.
//
// A Client addresses entries by (cacheName, key). Get distinguishes three outcomes:
//
//   - hit:  (value, true, nil)
//   - miss: (nil, false, nil)
//   - failure: (nil, false, err) where errors.Is(err, ErrUnavailable)
//
// Callers must never treat a failure as a miss. The process owns the Client for its
// lifetime; components that receive it only borrow it and never call Close.
package cache

import (
	"context"
	"time"
)

// Client is a namespaced byte store with per-entry TTLs.
type Client interface {
	// Get returns the value stored under key in the named cache.
	Get(ctx context.Context, cacheName, key string) ([]byte, bool, error)

	// Set stores value under key. The entry expires after ttl.
	Set(ctx context.Context, cacheName, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, cacheName, key string) error

	// Close releases connections owned by the client.
	Close() error
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func namespaced(cacheName, key string) string {
	return cacheName + ":" + key
}
