package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counts(t *testing.T) {
	r := New("itemcache")
	r.Hit()
	r.Hit()
	r.Miss()
	r.Bypass()
	r.LookupError()
	r.PopulateFailure()
	r.Sync("set", nil)
	r.Sync("delete", errors.New("boom"))

	if got := testutil.ToFloat64(r.CacheHits); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.CacheMisses); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.SyncOperations.WithLabelValues("set", "ok")); got != 1 {
		t.Errorf("sync set ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.SyncOperations.WithLabelValues("delete", "error")); got != 1 {
		t.Errorf("sync delete error = %v, want 1", got)
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.Hit()
	r.Miss()
	r.Bypass()
	r.LookupError()
	r.PopulateFailure()
	r.Sync("set", nil)
	if r.Registry() != nil {
		t.Error("expected nil registry for nil recorder")
	}
}

func TestRecorder_SeparateRegistries(t *testing.T) {
	// Each recorder owns its registry, so constructing two must not panic.
	a := New("a")
	b := New("a")
	if a.Registry() == b.Registry() {
		t.Error("expected distinct registries")
	}
}

func TestRecorder_Snapshot(t *testing.T) {
	r := New("itemcache")
	r.Hit()
	r.Sync("set", nil)
	r.Sync("set", nil)

	snap, err := r.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if got := snap["itemcache_cache_hits_total"]; got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}
	if got := snap[`itemcache_sync_operations_total{op="set",result="ok"}`]; got != 2 {
		t.Errorf("sync set ok = %v, want 2", got)
	}
	if got, ok := snap["itemcache_cache_misses_total"]; !ok || got != 0 {
		t.Errorf("expected zero misses series, got %v (present=%v)", got, ok)
	}
}

func TestRecorder_EmitLogsCounters(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	r := New("itemcache")
	r.Hit()
	r.Sync("delete", errors.New("boom"))

	if err := r.Emit(context.Background(), logger); err != nil {
		t.Fatalf("emit: %v", err)
	}

	var record struct {
		Msg      string             `json:"msg"`
		Counters map[string]float64 `json:"counters"`
	}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if record.Msg != "metrics" {
		t.Errorf("msg = %q, want metrics", record.Msg)
	}
	if got := record.Counters["itemcache_cache_hits_total"]; got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}
	if got := record.Counters[`itemcache_sync_operations_total{op="delete",result="error"}`]; got != 1 {
		t.Errorf("sync delete error = %v, want 1", got)
	}
}

func TestRecorder_NilEmitIsNoop(t *testing.T) {
	var buf bytes.Buffer
	var r *Recorder
	if err := r.Emit(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil))); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
