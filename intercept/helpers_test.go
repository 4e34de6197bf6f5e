package intercept_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/itemcache/cache"
	"github.com/jacentio/itemcache/intercept"
)

// --- Cache Doubles ---

type setCall struct {
	cacheName string
	key       string
	value     string
	ttl       time.Duration
}

// recordingCache wraps an in-memory cache and records every call.
type recordingCache struct {
	mu     sync.Mutex
	mem    *cache.Memory
	gets   []string
	sets   []setCall
	getErr error
	setErr error
	delay  time.Duration
}

func newRecordingCache() *recordingCache {
	return &recordingCache{mem: cache.NewMemory(time.Hour, 0)}
}

func (c *recordingCache) Get(ctx context.Context, cacheName, key string) ([]byte, bool, error) {
	c.mu.Lock()
	c.gets = append(c.gets, key)
	getErr, delay := c.getErr, c.delay
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
	if getErr != nil {
		return nil, false, getErr
	}
	return c.mem.Get(ctx, cacheName, key)
}

func (c *recordingCache) Set(ctx context.Context, cacheName, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.sets = append(c.sets, setCall{cacheName: cacheName, key: key, value: string(value), ttl: ttl})
	setErr := c.setErr
	c.mu.Unlock()

	if setErr != nil {
		return setErr
	}
	return c.mem.Set(ctx, cacheName, key, value, ttl)
}

func (c *recordingCache) Delete(ctx context.Context, cacheName, key string) error {
	return c.mem.Delete(ctx, cacheName, key)
}

func (c *recordingCache) Close() error { return nil }

func (c *recordingCache) seed(cacheName, key, value string) {
	_ = c.mem.Set(context.Background(), cacheName, key, []byte(value), time.Hour)
}

func (c *recordingCache) setCalls() []setCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]setCall(nil), c.sets...)
}

func (c *recordingCache) getCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.gets...)
}

// --- Store Doubles ---

// fakeStore stands in for the rest of the pipeline.
type fakeStore struct {
	calls  int
	item   map[string]types.AttributeValue
	output any
	err    error
}

func (s *fakeStore) next(_ context.Context, call *intercept.Call) (*intercept.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.output != nil {
		return &intercept.Result{Output: s.output}, nil
	}
	return &intercept.Result{Output: &dynamodb.GetItemOutput{Item: s.item}}, nil
}

var errStore = errors.New("store unavailable")

// --- Fixtures ---

func widget() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"itemId": &types.AttributeValueMemberS{Value: "42"},
		"name":   &types.AttributeValueMemberS{Value: "widget"},
	}
}

func getItemCall(id string) *intercept.Call {
	return intercept.CallFor(&dynamodb.GetItemInput{
		TableName: aws.String("items"),
		Key: map[string]types.AttributeValue{
			"itemId": &types.AttributeValueMemberS{Value: id},
		},
	})
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	s, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return s.Value
}
