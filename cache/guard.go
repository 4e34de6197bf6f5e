package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// GuardConfig bounds calls to a cache backend.
type GuardConfig struct {
	// Name identifies the breaker in logs.
	Name string

	// LookupTimeout bounds Get.
	// Default: 50ms
	LookupTimeout time.Duration

	// MaxFailures is the number of consecutive failures that opens the breaker.
	// Default: 5
	MaxFailures uint32

	// Cooldown is how long the breaker stays open before probing again.
	// Default: 30s
	Cooldown time.Duration
}

// DefaultGuardConfig returns the defaults used by the Lambda entrypoints.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Name:          "cache",
		LookupTimeout: 50 * time.Millisecond,
		MaxFailures:   5,
		Cooldown:      30 * time.Second,
	}
}

func (c *GuardConfig) validate() {
	if c.Name == "" {
		c.Name = "cache"
	}
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = 50 * time.Millisecond
	}
	if c.MaxFailures == 0 {
		c.MaxFailures = 5
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
}

// Guard wraps a Client with a lookup timeout and a circuit breaker on Get.
// While the breaker is open Get fails fast with ErrUnavailable. Set and Delete
// always reach the backend and do not count toward the breaker.
type Guard struct {
	next    Client
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
}

var _ Client = (*Guard)(nil)

type getResult struct {
	value []byte
	hit   bool
}

// NewGuard wraps next.
func NewGuard(next Client, cfg GuardConfig, logger *slog.Logger) *Guard {
	cfg.validate()
	if logger == nil {
		logger = slog.Default()
	}
	maxFailures := cfg.MaxFailures
	return &Guard{
		next:    next,
		timeout: cfg.LookupTimeout,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    cfg.Name,
			Timeout: cfg.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("cache breaker state changed",
					"breaker", name,
					"from", from.String(),
					"to", to.String(),
				)
			},
		}),
	}
}

func (g *Guard) Get(ctx context.Context, cacheName, key string) ([]byte, bool, error) {
	res, err := g.cb.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		value, hit, err := g.next.Get(ctx, cacheName, key)
		if err != nil {
			return nil, err
		}
		return getResult{value: value, hit: hit}, nil
	})
	if err != nil {
		return nil, false, unavailable("get", err)
	}
	r := res.(getResult)
	return r.value, r.hit, nil
}

func (g *Guard) Set(ctx context.Context, cacheName, key string, value []byte, ttl time.Duration) error {
	if err := g.next.Set(ctx, cacheName, key, value, ttl); err != nil {
		return unavailable("set", err)
	}
	return nil
}

func (g *Guard) Delete(ctx context.Context, cacheName, key string) error {
	if err := g.next.Delete(ctx, cacheName, key); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

// State reports the breaker state.
func (g *Guard) State() gobreaker.State {
	return g.cb.State()
}

func (g *Guard) Close() error {
	return g.next.Close()
}
