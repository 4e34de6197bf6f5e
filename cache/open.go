package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
)

// Driver names a cache backend.
type Driver string

const (
	DriverRedis     Driver = "redis"
	DriverNATS      Driver = "nats"
	DriverMemory    Driver = "memory"
	DriverRistretto Driver = "ristretto"
)

const defaultNATSBucket = "itemcache"

// Options selects and configures a backend for Open.
type Options struct {
	Driver Driver

	// Endpoint is the redis address (host:port) or the NATS server URL.
	Endpoint string

	// AuthToken is the redis password or the NATS token.
	AuthToken string

	// Bucket is the JetStream key-value bucket. Default: "itemcache"
	Bucket string

	// DefaultTTL applies to in-process backends when Set is given ttl <= 0.
	DefaultTTL time.Duration

	// Ristretto sizes the ristretto backend. Zero value uses DefaultRistrettoConfig.
	Ristretto RistrettoConfig
}

// Open connects to the configured backend. The returned Client owns its
// connection; the caller closes it on shutdown.
func Open(ctx context.Context, opts Options) (Client, error) {
	switch opts.Driver {
	case DriverRedis:
		if opts.Endpoint == "" {
			return nil, errors.New("cache: redis endpoint is required")
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     opts.Endpoint,
			Password: opts.AuthToken,
		})
		return NewRedis(rdb, true), nil
	case DriverNATS:
		return openNATS(ctx, opts)
	case DriverMemory:
		return NewMemory(opts.DefaultTTL, 0), nil
	case DriverRistretto:
		cfg := opts.Ristretto
		if cfg == (RistrettoConfig{}) {
			cfg = DefaultRistrettoConfig()
		}
		return NewRistretto(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

func openNATS(ctx context.Context, opts Options) (Client, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("cache: nats endpoint is required")
	}
	natsOpts := []nats.Option{nats.Name("itemcache")}
	if opts.AuthToken != "" {
		natsOpts = append(natsOpts, nats.Token(opts.AuthToken))
	}
	nc, err := nats.Connect(opts.Endpoint, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("cache: connect nats: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("cache: jetstream: %w", err)
	}
	bucket := opts.Bucket
	if bucket == "" {
		bucket = defaultNATSBucket
	}
	kv, err := js.KeyValue(ctx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: bucket})
	}
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("cache: key-value bucket %q: %w", bucket, err)
	}
	return NewNATS(kv, nc.Close), nil
}
