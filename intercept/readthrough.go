package intercept

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go/middleware"

	"github.com/jacentio/itemcache/cache"
	"github.com/jacentio/itemcache/internal/cachekey"
	"github.com/jacentio/itemcache/internal/itemcodec"
	"github.com/jacentio/itemcache/internal/metrics"
)

// cacheable lists the commands served read-through. Everything else passes
// straight to the store.
var cacheable = map[Command]bool{
	CommandGetItem: true,
}

// Cacheable reports whether c is served read-through.
func Cacheable(c Command) bool {
	return cacheable[c]
}

// Config holds read-through settings.
type Config struct {
	// CacheName is the logical cache entries are stored in.
	CacheName string

	// TTL is applied to every entry written back after a miss.
	TTL time.Duration

	// LookupTimeout bounds a single cache lookup. On expiry the call falls
	// through to the store.
	LookupTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheName:     "default",
		TTL:           24 * time.Hour,
		LookupTimeout: 50 * time.Millisecond,
	}
}

func (c *Config) validate() {
	defaults := DefaultConfig()
	if c.CacheName == "" {
		c.CacheName = defaults.CacheName
	}
	if c.TTL <= 0 {
		c.TTL = defaults.TTL
	}
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = defaults.LookupTimeout
	}
}

// ReadThrough answers cacheable reads from the cache and writes store results
// back on a miss. Cache failures never fail the call.
type ReadThrough struct {
	cache   cache.Client
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// NewReadThrough creates a read-through interceptor over c. A nil logger uses
// slog.Default(); a nil recorder disables metrics.
func NewReadThrough(c cache.Client, cfg Config, logger *slog.Logger, rec *metrics.Recorder) *ReadThrough {
	cfg.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadThrough{
		cache:   c,
		cfg:     cfg,
		logger:  logger,
		metrics: rec,
	}
}

// Handle implements Interceptor.
func (r *ReadThrough) Handle(ctx context.Context, call *Call, next Next) (*Result, error) {
	if !Cacheable(call.Command) || call.Projected {
		return next(ctx, call)
	}

	key := cachekey.Build(call.TableName, cachekey.FromAttributes(call.Key))

	if call.ConsistentRead {
		r.metrics.Bypass()
	} else if item, ok := r.lookup(ctx, key); ok {
		r.metrics.Hit()
		return &Result{
			Output:   &dynamodb.GetItemOutput{Item: item},
			Metadata: middleware.Metadata{},
		}, nil
	}

	res, err := next(ctx, call)
	if err != nil {
		return res, err
	}

	if item := itemOf(res); item != nil {
		r.populate(ctx, key, item)
	}
	return res, nil
}

func (r *ReadThrough) lookup(ctx context.Context, key string) (map[string]types.AttributeValue, bool) {
	lookupCtx, cancel := context.WithTimeout(ctx, r.cfg.LookupTimeout)
	defer cancel()

	value, found, err := r.cache.Get(lookupCtx, r.cfg.CacheName, key)
	if err != nil {
		r.metrics.LookupError()
		r.logger.Warn("cache lookup failed, reading from store",
			"key", key,
			"error", err,
		)
		return nil, false
	}
	if !found {
		r.metrics.Miss()
		r.logger.Debug("cache miss", "key", key)
		return nil, false
	}

	item, err := itemcodec.DecodeItem(value)
	if err != nil {
		r.metrics.LookupError()
		r.logger.Warn("cached value undecodable, reading from store",
			"key", key,
			"error", err,
		)
		return nil, false
	}
	return item, true
}

func (r *ReadThrough) populate(ctx context.Context, key string, item map[string]types.AttributeValue) {
	value, err := itemcodec.EncodeItem(item)
	if err == nil {
		err = r.cache.Set(ctx, r.cfg.CacheName, key, value, r.cfg.TTL)
	}
	if err != nil {
		r.metrics.PopulateFailure()
		r.logger.Warn("failed to populate cache",
			"key", key,
			"error", err,
		)
	}
}

func itemOf(res *Result) map[string]types.AttributeValue {
	if res == nil {
		return nil
	}
	out, ok := res.Output.(*dynamodb.GetItemOutput)
	if !ok || out == nil {
		return nil
	}
	return out.Item
}
