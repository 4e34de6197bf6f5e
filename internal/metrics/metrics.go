// Package metrics holds the Prometheus counters for the cache layer.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder counts cache-aside and synchronization outcomes. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	CacheBypasses      prometheus.Counter
	CacheLookupErrors  prometheus.Counter
	CachePopulateFails prometheus.Counter

	SyncOperations *prometheus.CounterVec
}

// New creates a Recorder registered on its own registry.
func New(namespace string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Reads served from the cache without contacting the store",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Reads that fell through to the store because the key was absent",
		}),
		CacheBypasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_bypasses_total",
			Help:      "Reads that skipped the cache lookup (consistent reads)",
		}),
		CacheLookupErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookup_errors_total",
			Help:      "Cache lookups that failed and fell back to the store",
		}),
		CachePopulateFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_populate_failures_total",
			Help:      "Store results that could not be written back to the cache",
		}),
		SyncOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_operations_total",
			Help:      "Change-stream records mirrored into the cache",
		}, []string{"op", "result"}),
	}
	r.registry.MustRegister(
		r.CacheHits,
		r.CacheMisses,
		r.CacheBypasses,
		r.CacheLookupErrors,
		r.CachePopulateFails,
		r.SyncOperations,
	)
	return r
}

// Registry exposes the registry for a scrape handler or a flush at shutdown.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) Hit() {
	if r != nil {
		r.CacheHits.Inc()
	}
}

func (r *Recorder) Miss() {
	if r != nil {
		r.CacheMisses.Inc()
	}
}

func (r *Recorder) Bypass() {
	if r != nil {
		r.CacheBypasses.Inc()
	}
}

func (r *Recorder) LookupError() {
	if r != nil {
		r.CacheLookupErrors.Inc()
	}
}

func (r *Recorder) PopulateFailure() {
	if r != nil {
		r.CachePopulateFails.Inc()
	}
}

// Sync records one mirrored record. op is "set", "delete" or "skip".
func (r *Recorder) Sync(op string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.SyncOperations.WithLabelValues(op, result).Inc()
}

// Snapshot gathers the current counter values keyed by series, for example
// itemcache_sync_operations_total{op="set",result="ok"}.
func (r *Recorder) Snapshot() (map[string]float64, error) {
	if r == nil {
		return nil, nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("metrics: gather: %w", err)
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			if labels := m.GetLabel(); len(labels) > 0 {
				pairs := make([]string, 0, len(labels))
				for _, l := range labels {
					pairs = append(pairs, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
				}
				name += "{" + strings.Join(pairs, ",") + "}"
			}
			out[name] = m.GetCounter().GetValue()
		}
	}
	return out, nil
}

// Emit writes the current counter values to logger as one "metrics" record.
func (r *Recorder) Emit(ctx context.Context, logger *slog.Logger) error {
	snap, err := r.Snapshot()
	if err != nil || len(snap) == 0 {
		return err
	}
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)
	attrs := make([]slog.Attr, 0, len(names))
	for _, name := range names {
		attrs = append(attrs, slog.Float64(name, snap[name]))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "metrics", slog.Attr{Key: "counters", Value: slog.GroupValue(attrs...)})
	return nil
}
