package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const natsEnvelopeMarker = "itemcache-v1"

var errNilNATSKeyValue = errors.New("nats key-value is nil")

// NATSKeyValue captures the subset of jetstream.KeyValue used by NATS.
type NATSKeyValue interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
	Purge(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
}

// NATS stores entries in a JetStream key-value bucket. Buckets have no per-key
// TTL, so each value carries its own expiry and expired entries read as misses.
type NATS struct {
	kv    NATSKeyValue
	close func()
}

var _ Client = (*NATS)(nil)

type natsEnvelope struct {
	Marker    string `json:"m"`
	Value     []byte `json:"v"`
	ExpiresAt int64  `json:"ea,omitempty"`
}

// NewNATS wraps kv. closeFn, when non-nil, is called by Close.
func NewNATS(kv NATSKeyValue, closeFn func()) *NATS {
	return &NATS{kv: kv, close: closeFn}
}

func (n *NATS) Get(ctx context.Context, cacheName, key string) ([]byte, bool, error) {
	if n.kv == nil {
		return nil, false, unavailable("nats get", errNilNATSKeyValue)
	}
	k := natsKey(cacheName, key)
	entry, err := n.kv.Get(ctx, k)
	if isNATSMiss(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("nats get", err)
	}
	if op := entry.Operation(); op == jetstream.KeyValueDelete || op == jetstream.KeyValuePurge {
		return nil, false, nil
	}

	var env natsEnvelope
	if err := json.Unmarshal(entry.Value(), &env); err != nil || env.Marker != natsEnvelopeMarker {
		// Foreign value under our keyspace; drop it.
		_ = n.kv.Purge(ctx, k)
		return nil, false, nil
	}
	if env.ExpiresAt > 0 && time.Now().UnixMilli() > env.ExpiresAt {
		_ = n.kv.Purge(ctx, k)
		return nil, false, nil
	}
	return cloneBytes(env.Value), true, nil
}

func (n *NATS) Set(ctx context.Context, cacheName, key string, value []byte, ttl time.Duration) error {
	if n.kv == nil {
		return unavailable("nats set", errNilNATSKeyValue)
	}
	env := natsEnvelope{Marker: natsEnvelopeMarker, Value: cloneBytes(value)}
	if ttl > 0 {
		env.ExpiresAt = time.Now().Add(ttl).UnixMilli()
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("cache: encode nats envelope: %w", err)
	}
	if _, err := n.kv.Put(ctx, natsKey(cacheName, key), body); err != nil {
		return unavailable("nats set", err)
	}
	return nil
}

func (n *NATS) Delete(ctx context.Context, cacheName, key string) error {
	if n.kv == nil {
		return unavailable("nats delete", errNilNATSKeyValue)
	}
	err := n.kv.Delete(ctx, natsKey(cacheName, key))
	if err != nil && !isNATSMiss(err) {
		return unavailable("nats delete", err)
	}
	return nil
}

func (n *NATS) Close() error {
	if n.close != nil {
		n.close()
	}
	return nil
}

// natsKey encodes both parts since NATS keys only allow [-/_=.a-zA-Z0-9].
func natsKey(cacheName, key string) string {
	return "c." + encodeNATSKeyPart(cacheName) + ".k." + encodeNATSKeyPart(key)
}

func encodeNATSKeyPart(part string) string {
	if part == "" {
		return "_"
	}
	return base64.RawURLEncoding.EncodeToString([]byte(part))
}

func isNATSMiss(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted)
}
