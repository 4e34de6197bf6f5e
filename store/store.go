package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/itemcache/cache"
	"github.com/jacentio/itemcache/internal/cachekey"
)

// API is the subset of the DynamoDB client Items uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	dynamodb.ScanAPIClient
}

// GetOptions controls a single-item read.
type GetOptions struct {
	// ConsistentRead requests a strongly consistent read. The cache lookup is
	// skipped for such reads.
	ConsistentRead bool
}

// Items reads items from one table.
type Items struct {
	client API
	cache  cache.Client
	config Config
	now    func() time.Time
}

// New creates an Items reader. c may be nil, in which case Invalidate is a
// no-op.
func New(client API, c cache.Client, config Config) *Items {
	config.validate()
	return &Items{
		client: client,
		cache:  c,
		config: config,
		now:    time.Now,
	}
}

// Get retrieves an item by id.
func (s *Items) Get(ctx context.Context, id string, opts GetOptions) (*Item, error) {
	if id == "" {
		return nil, ErrMissingID
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.config.TableName),
		Key:            s.key(id),
		ConsistentRead: aws.Bool(opts.ConsistentRead),
	})
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	// Expired but not yet swept by DynamoDB
	if IsExpired(result.Item, s.config.TTLAttribute, s.now()) {
		return nil, ErrNotFound
	}

	return newItem(result.Item, s.config.PrimaryKey), nil
}

// List scans the whole table, excluding expired items.
func (s *Items) List(ctx context.Context) ([]*Item, error) {
	now := s.now()
	filter, names, values := ttlFilter(s.config.TTLAttribute, now)

	var items []*Item
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(s.config.TableName),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.config.TableName, err)
		}
		for _, raw := range page.Items {
			if IsExpired(raw, s.config.TTLAttribute, now) {
				continue
			}
			items = append(items, newItem(raw, s.config.PrimaryKey))
		}
	}

	return items, nil
}

// Invalidate removes the cached copy of an item, forcing the next Get to read
// the table.
func (s *Items) Invalidate(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, s.config.CacheName, s.CacheKey(id))
}

// CacheKey returns the cache key the item with id is stored under.
func (s *Items) CacheKey(id string) string {
	return cachekey.Build(s.config.TableName, cachekey.FromPlain(map[string]any{s.config.PrimaryKey: id}))
}

func (s *Items) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		s.config.PrimaryKey: &types.AttributeValueMemberS{Value: id},
	}
}
