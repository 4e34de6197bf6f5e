// Package app assembles the cache, DynamoDB client and handlers shared by the
// Lambda entrypoints.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/itemcache/api"
	"github.com/jacentio/itemcache/cache"
	"github.com/jacentio/itemcache/config"
	"github.com/jacentio/itemcache/intercept"
	"github.com/jacentio/itemcache/internal/metrics"
	"github.com/jacentio/itemcache/store"
	"github.com/jacentio/itemcache/stream"
)

// App holds the process-wide clients. It owns the cache connection.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Cache    cache.Client
	Metrics  *metrics.Recorder
	DynamoDB *dynamodb.Client
}

// New opens the cache and builds a DynamoDB client with the read-through stage
// installed.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backend, err := cache.Open(ctx, CacheOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	guarded := cache.NewGuard(backend, GuardConfig(cfg), logger)
	rec := metrics.New("itemcache")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		_ = guarded.Close()
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	readThrough := intercept.NewReadThrough(guarded, ReadThroughConfig(cfg), logger, rec)
	client := dynamodb.NewFromConfig(awsCfg, intercept.WithInterceptors(readThrough))

	logger.Info("initialized",
		"table", cfg.TableName,
		"cacheDriver", cfg.Driver,
		"cacheName", cfg.CacheName,
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Cache:    guarded,
		Metrics:  rec,
		DynamoDB: client,
	}, nil
}

// Items returns a reader over the configured table.
func (a *App) Items() *store.Items {
	return store.New(a.DynamoDB, a.Cache, StoreConfig(a.Config))
}

// StreamHandler returns the cache synchronizer.
func (a *App) StreamHandler() *stream.Handler {
	return stream.NewHandler(a.Cache, StreamConfig(a.Config), a.Logger, a.Metrics)
}

// APIHandlers returns the item read handlers.
func (a *App) APIHandlers() *api.Handlers {
	return api.NewHandlers(a.Items(), a.Logger)
}

// Close releases the cache connection.
func (a *App) Close() error {
	return a.Cache.Close()
}

// EmitMetrics logs the current cache counters.
func (a *App) EmitMetrics(ctx context.Context) {
	if err := a.Metrics.Emit(ctx, a.Logger); err != nil {
		a.Logger.Warn("failed to emit metrics", "error", err)
	}
}

// Handler adapts a Lambda handler function so the cache counters are logged
// after every invocation.
func (a *App) Handler(handlerFunc any) lambda.Handler {
	return invocationHandler{next: lambda.NewHandler(handlerFunc), app: a}
}

type invocationHandler struct {
	next lambda.Handler
	app  *App
}

func (h invocationHandler) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	out, err := h.next.Invoke(ctx, payload)
	h.app.EmitMetrics(ctx)
	return out, err
}

// NewLogger returns a JSON logger at INFO.
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// Run loads configuration, builds the App and starts the Lambda runtime with
// the handler selected by handler. Counters are logged after each invocation
// and at shutdown. Configuration errors exit the process.
func Run(name string, handler func(*App) any) {
	logger := NewLogger(os.Stdout).With("function", name)
	slog.SetDefault(logger)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	a, err := New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	lambda.StartWithOptions(a.Handler(handler(a)), lambda.WithEnableSIGTERM(func() {
		a.EmitMetrics(context.Background())
		if err := a.Close(); err != nil {
			logger.Warn("failed to close cache", "error", err)
		}
	}))
}

// CacheOptions maps configuration onto cache.Open options.
func CacheOptions(cfg *config.Config) cache.Options {
	return cache.Options{
		Driver:     cache.Driver(cfg.Driver),
		Endpoint:   cfg.Endpoint,
		AuthToken:  cfg.AuthToken,
		Bucket:     cfg.Bucket,
		DefaultTTL: cfg.DefaultTTL,
	}
}

// GuardConfig maps configuration onto the cache guard.
func GuardConfig(cfg *config.Config) cache.GuardConfig {
	return cache.GuardConfig{
		Name:          cfg.Driver + ":" + cfg.CacheName,
		LookupTimeout: cfg.LookupTimeout,
		MaxFailures:   cfg.BreakerFailures,
		Cooldown:      cfg.BreakerCooldown,
	}
}

// ReadThroughConfig maps configuration onto the interceptor.
func ReadThroughConfig(cfg *config.Config) intercept.Config {
	return intercept.Config{
		CacheName:     cfg.CacheName,
		TTL:           cfg.DefaultTTL,
		LookupTimeout: cfg.LookupTimeout,
	}
}

// StreamConfig maps configuration onto the synchronizer.
func StreamConfig(cfg *config.Config) stream.Config {
	return stream.Config{
		TableName: cfg.TableName,
		CacheName: cfg.CacheName,
		TTL:       cfg.DefaultTTL,
	}
}

// StoreConfig maps configuration onto the items reader.
func StoreConfig(cfg *config.Config) store.Config {
	c := store.DefaultConfig()
	c.TableName = cfg.TableName
	c.PrimaryKey = cfg.PrimaryKey
	c.CacheName = cfg.CacheName
	return c
}
