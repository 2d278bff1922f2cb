package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/avatarctic/extraction-cache/internal/core/domain/extraction"
)

// CacheMetrics implements ports.CacheObserver. Counters are exported to
// Prometheus and mirrored in memory, with latency sketches, for the stats
// endpoint.
type CacheMetrics struct {
	lookups  *prometheus.CounterVec
	saves    prometheus.Counter
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	latency  *LatencyTracker

	hits, misses, saved, failed atomic.Int64
}

// NewCacheMetrics creates the cache collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extraction_cache_lookups_total",
				Help: "Cache lookups by result",
			},
			[]string{"result"},
		),
		saves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "extraction_cache_saves_total",
			Help: "Extraction results written to the cache",
		}),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extraction_cache_errors_total",
				Help: "Failed cache operations by operation",
			},
			[]string{"op"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "extraction_cache_operation_duration_seconds",
				Help: "Cache operation latencies in seconds",
			},
			[]string{"op"},
		),
		latency: NewLatencyTracker(0.01),
	}
	if reg != nil {
		reg.MustRegister(m.lookups, m.saves, m.errors, m.duration)
	}
	return m
}

func (m *CacheMetrics) ObserveLookup(hit bool) {
	if hit {
		m.hits.Add(1)
		m.lookups.WithLabelValues("hit").Inc()
		return
	}
	m.misses.Add(1)
	m.lookups.WithLabelValues("miss").Inc()
}

func (m *CacheMetrics) ObserveSave() {
	m.saved.Add(1)
	m.saves.Inc()
}

func (m *CacheMetrics) ObserveError(op string) {
	m.failed.Add(1)
	m.errors.WithLabelValues(op).Inc()
}

func (m *CacheMetrics) ObserveDuration(op string, d time.Duration) {
	m.duration.WithLabelValues(op).Observe(d.Seconds())
	m.latency.Record(op, d)
}

// Stats snapshots counters and latency quantiles.
func (m *CacheMetrics) Stats() *extraction.Stats {
	hits, misses, saves, errs := m.Counts()
	return &extraction.Stats{
		Hits:      hits,
		Misses:    misses,
		Saves:     saves,
		Errors:    errs,
		Latencies: m.latency.Summaries(),
	}
}

// Counts returns hits, misses, saves and errors since creation.
func (m *CacheMetrics) Counts() (hits, misses, saves, errors int64) {
	return m.hits.Load(), m.misses.Load(), m.saved.Load(), m.failed.Load()
}
