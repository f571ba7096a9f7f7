// Package observability holds the Prometheus metrics collector and the
// OpenTelemetry tracing bootstrap.
package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Mutation metrics
	MutationsApplied  prometheus.Counter
	MutationsRejected *prometheus.CounterVec
	ApplyDuration     prometheus.Histogram

	// Change notifier metrics
	EventsPublished  prometheus.Counter
	EventsDelivered  prometheus.Counter
	ObserversDropped prometheus.Counter
	ActiveObservers  prometheus.Gauge

	// Semantic cache metrics
	CacheHits      *prometheus.CounterVec
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter

	// Episodic store metrics
	EpisodesRecorded  prometheus.Counter
	PatternsRecorded  prometheus.Counter
	RetrievalDuration prometheus.Histogram
}

// NewCollector creates the metrics collector with the given namespace.
// A process-wide singleton avoids duplicate registration in tests.
func NewCollector(namespace string) *Collector {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		MutationsApplied: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_applied_total",
				Help:      "Total number of mutation batches applied",
			},
		),
		MutationsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_rejected_total",
				Help:      "Total number of mutation batches rejected",
			},
			[]string{"reason"},
		),
		ApplyDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mutation_apply_duration_seconds",
				Help:      "Time spent applying a mutation batch",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),

		EventsPublished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "change_events_published_total",
				Help:      "Total number of change events published",
			},
		),
		EventsDelivered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "change_events_delivered_total",
				Help:      "Total number of per-observer event deliveries",
			},
		),
		ObserversDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "observers_dropped_total",
				Help:      "Observers dropped after a delivery queue overflow",
			},
		),
		ActiveObservers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_observers",
				Help:      "Number of currently attached observers",
			},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "semantic_cache_hits_total",
				Help:      "Semantic cache hits by match kind",
			},
			[]string{"kind"},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "semantic_cache_misses_total",
				Help:      "Total number of semantic cache misses",
			},
		),
		CacheEvictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "semantic_cache_evictions_total",
				Help:      "Entries evicted from the semantic cache",
			},
		),

		EpisodesRecorded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "episodes_recorded_total",
				Help:      "Total number of episodes recorded",
			},
		),
		PatternsRecorded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "patterns_recorded_total",
				Help:      "Total number of generalized patterns recorded",
			},
		),
		RetrievalDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "episode_retrieval_duration_seconds",
				Help:      "Time spent ranking episodes for retrieval",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.MutationsApplied,
		c.MutationsRejected,
		c.ApplyDuration,
		c.EventsPublished,
		c.EventsDelivered,
		c.ObserversDropped,
		c.ActiveObservers,
		c.CacheHits,
		c.CacheMisses,
		c.CacheEvictions,
		c.EpisodesRecorded,
		c.PatternsRecorded,
		c.RetrievalDuration,
	)

	globalCollector = c
	return c
}

// Handler returns the HTTP handler serving this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (c *Collector) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
