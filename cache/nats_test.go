package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type stubNATSKeyValue struct {
	entries map[string]*stubNATSEntry
	rev     uint64
	getErr  error
	putErr  error
	block   bool
}

func newStubNATSKeyValue() *stubNATSKeyValue {
	return &stubNATSKeyValue{entries: map[string]*stubNATSEntry{}}
}

func (s *stubNATSKeyValue) Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.getErr != nil {
		return nil, s.getErr
	}
	e, ok := s.entries[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	if e.op != jetstream.KeyValuePut {
		return nil, jetstream.ErrKeyDeleted
	}
	return e, nil
}

func (s *stubNATSKeyValue) Put(_ context.Context, key string, value []byte) (uint64, error) {
	if s.putErr != nil {
		return 0, s.putErr
	}
	s.rev++
	s.entries[key] = &stubNATSEntry{key: key, value: cloneBytes(value), revision: s.rev, op: jetstream.KeyValuePut}
	return s.rev, nil
}

func (s *stubNATSKeyValue) Delete(_ context.Context, key string, _ ...jetstream.KVDeleteOpt) error {
	s.rev++
	s.entries[key] = &stubNATSEntry{key: key, revision: s.rev, op: jetstream.KeyValueDelete}
	return nil
}

func (s *stubNATSKeyValue) Purge(_ context.Context, key string, _ ...jetstream.KVDeleteOpt) error {
	delete(s.entries, key)
	return nil
}

type stubNATSEntry struct {
	key      string
	value    []byte
	revision uint64
	op       jetstream.KeyValueOp
}

func (e *stubNATSEntry) Bucket() string                  { return "itemcache" }
func (e *stubNATSEntry) Key() string                     { return e.key }
func (e *stubNATSEntry) Value() []byte                   { return cloneBytes(e.value) }
func (e *stubNATSEntry) Revision() uint64                { return e.revision }
func (e *stubNATSEntry) Created() time.Time              { return time.Time{} }
func (e *stubNATSEntry) Delta() uint64                   { return 0 }
func (e *stubNATSEntry) Operation() jetstream.KeyValueOp { return e.op }

func TestNATS_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	n := NewNATS(newStubNATSKeyValue(), nil)

	if err := n.Set(ctx, "default", "items itemId#42", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := n.Get(ctx, "default", "items itemId#42")
	if err != nil || !ok || string(v) != "payload" {
		t.Fatalf("unexpected get: ok=%v err=%v value=%s", ok, err, v)
	}
	if err := n.Delete(ctx, "default", "items itemId#42"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := n.Get(ctx, "default", "items itemId#42"); ok || err != nil {
		t.Fatalf("expected miss after delete, ok=%v err=%v", ok, err)
	}
}

func TestNATS_ExpiredEntryIsMissAndPurged(t *testing.T) {
	kv := newStubNATSKeyValue()
	n := NewNATS(kv, nil)
	k := natsKey("default", "k")

	body, _ := json.Marshal(natsEnvelope{
		Marker:    natsEnvelopeMarker,
		Value:     []byte("old"),
		ExpiresAt: time.Now().Add(-time.Second).UnixMilli(),
	})
	if _, err := kv.Put(context.Background(), k, body); err != nil {
		t.Fatalf("put: %v", err)
	}

	if _, ok, err := n.Get(context.Background(), "default", "k"); ok || err != nil {
		t.Fatalf("expected miss for expired entry, ok=%v err=%v", ok, err)
	}
	if _, exists := kv.entries[k]; exists {
		t.Error("expected expired entry to be purged")
	}
}

func TestNATS_ForeignValueIsMiss(t *testing.T) {
	kv := newStubNATSKeyValue()
	n := NewNATS(kv, nil)
	if _, err := kv.Put(context.Background(), natsKey("default", "k"), []byte("raw")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok, err := n.Get(context.Background(), "default", "k"); ok || err != nil {
		t.Fatalf("expected miss for foreign value, ok=%v err=%v", ok, err)
	}
}

func TestNATS_TransportErrorIsUnavailable(t *testing.T) {
	kv := newStubNATSKeyValue()
	kv.getErr = nats.ErrConnectionClosed
	kv.putErr = nats.ErrConnectionClosed
	n := NewNATS(kv, nil)

	if _, _, err := n.Get(context.Background(), "default", "k"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from get, got %v", err)
	}
	if err := n.Set(context.Background(), "default", "k", []byte("v"), time.Minute); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from set, got %v", err)
	}
}

func TestNATS_GetHonorsContext(t *testing.T) {
	kv := newStubNATSKeyValue()
	kv.block = true
	n := NewNATS(kv, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, ok, err := n.Get(ctx, "default", "k")
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected unavailable deadline error, got %v", err)
	}
	if ok {
		t.Error("timeout must not report a hit")
	}
}

func TestNATS_GuardBoundsLookup(t *testing.T) {
	kv := newStubNATSKeyValue()
	kv.block = true
	cfg := DefaultGuardConfig()
	cfg.LookupTimeout = 10 * time.Millisecond
	g := NewGuard(NewNATS(kv, nil), cfg, nil)

	start := time.Now()
	if _, _, err := g.Get(context.Background(), "default", "k"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("lookup was not bounded: took %v", elapsed)
	}
}

func TestNATS_KeyEncoding(t *testing.T) {
	k := natsKey("default", "items itemId/42")
	for _, r := range k {
		valid := r == '-' || r == '_' || r == '=' || r == '.' || r == '/' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !valid {
			t.Fatalf("invalid NATS key character %q in %q", r, k)
		}
	}
	if natsKey("", "") != "c._.k._" {
		t.Errorf("unexpected empty key encoding %q", natsKey("", ""))
	}
}

func TestNATS_CloseCallsCloser(t *testing.T) {
	called := false
	n := NewNATS(newStubNATSKeyValue(), func() { called = true })
	if err := n.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !called {
		t.Error("expected close func to be called")
	}
}
