// Package stream mirrors DynamoDB stream records into the cache.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/itemcache/cache"
	"github.com/jacentio/itemcache/internal/cachekey"
	"github.com/jacentio/itemcache/internal/itemcodec"
	"github.com/jacentio/itemcache/internal/metrics"
)

// Config holds synchronizer settings.
type Config struct {
	// TableName prefixes every cache key. When empty it is taken from each
	// record's event source ARN.
	TableName string

	// CacheName is the logical cache entries are written to.
	CacheName string

	// TTL is applied to every entry written from an INSERT or MODIFY.
	TTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheName: "default",
		TTL:       24 * time.Hour,
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
}

// Handler processes DynamoDB stream events for cache synchronization.
type Handler struct {
	cache   cache.Client
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// NewHandler creates a new stream handler. The handler shares c and never
// closes it.
func NewHandler(c cache.Client, cfg Config, logger *slog.Logger, rec *metrics.Recorder) *Handler {
	cfg.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cache:   c,
		cfg:     cfg,
		logger:  logger,
		metrics: rec,
	}
}

// HandleSync applies every record in the batch to the cache, in delivery order.
// Failed records are logged and skipped; the batch is always reported as
// processed. This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleSync(ctx context.Context, event events.DynamoDBEvent) error {
	var failed int
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			failed++
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"eventName", record.EventName,
				"error", err,
			)
		}
	}

	h.logger.Info("successfully processed event records",
		"records", len(event.Records),
		"failed", failed,
	)
	return nil
}

func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	op := events.DynamoDBOperationType(record.EventName)
	switch op {
	case events.DynamoDBOperationTypeInsert, events.DynamoDBOperationTypeModify, events.DynamoDBOperationTypeRemove:
	default:
		h.logger.Debug("ignoring stream record", "eventID", record.EventID, "eventName", record.EventName)
		h.metrics.Sync("skip", nil)
		return nil
	}

	if len(record.Change.Keys) == 0 {
		err := fmt.Errorf("%w: no keys", ErrMalformedRecord)
		h.metrics.Sync("skip", err)
		return err
	}

	table := h.cfg.TableName
	if table == "" {
		table = tableFromARN(record.EventSourceArn)
	}
	if table == "" {
		err := fmt.Errorf("%w: no table name", ErrMalformedRecord)
		h.metrics.Sync("skip", err)
		return err
	}
	key := cachekey.Build(table, cachekey.FromStream(record.Change.Keys))

	if op == events.DynamoDBOperationTypeRemove || record.Change.NewImage == nil {
		err := h.cache.Delete(ctx, h.cfg.CacheName, key)
		h.metrics.Sync("delete", err)
		if err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		h.logger.Debug("cache entry deleted", "key", key, "eventName", record.EventName)
		return nil
	}

	value, err := itemcodec.EncodeImage(record.Change.NewImage)
	if err != nil {
		h.metrics.Sync("set", err)
		return fmt.Errorf("encode %s: %w", key, err)
	}

	err = h.cache.Set(ctx, h.cfg.CacheName, key, value, h.cfg.TTL)
	h.metrics.Sync("set", err)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	h.logger.Debug("cache entry set", "key", key, "eventName", record.EventName)
	return nil
}

// tableFromARN extracts the table name from a stream ARN of the form
// arn:aws:dynamodb:region:account:table/<name>/stream/<label>.
func tableFromARN(arn string) string {
	_, rest, ok := strings.Cut(arn, ":table/")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, "/")
	return name
}
