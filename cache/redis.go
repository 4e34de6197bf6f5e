package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var errNilRedisClient = errors.New("redis client is nil")

// RedisClient captures the subset of redis.UniversalClient used by Redis.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Redis stores entries as "<cacheName>:<key>" with native expiry.
type Redis struct {
	client     RedisClient
	ownsClient bool
}

var _ Client = (*Redis)(nil)

// NewRedis wraps client. Close closes client only when ownsClient is true.
func NewRedis(client RedisClient, ownsClient bool) *Redis {
	return &Redis{client: client, ownsClient: ownsClient}
}

func (r *Redis) Get(ctx context.Context, cacheName, key string) ([]byte, bool, error) {
	if r.client == nil {
		return nil, false, unavailable("redis get", errNilRedisClient)
	}
	value, err := r.client.Get(ctx, namespaced(cacheName, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, unavailable("redis get", err)
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, cacheName, key string, value []byte, ttl time.Duration) error {
	if r.client == nil {
		return unavailable("redis set", errNilRedisClient)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, namespaced(cacheName, key), value, ttl).Err(); err != nil {
		return unavailable("redis set", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, cacheName, key string) error {
	if r.client == nil {
		return unavailable("redis delete", errNilRedisClient)
	}
	if err := r.client.Del(ctx, namespaced(cacheName, key)).Err(); err != nil {
		return unavailable("redis delete", err)
	}
	return nil
}

func (r *Redis) Close() error {
	if !r.ownsClient || r.client == nil {
		return nil
	}
	if err := r.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}
