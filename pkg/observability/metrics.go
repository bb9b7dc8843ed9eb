package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the moderation backend
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Operation lifecycle metrics
	OperationsStaged    *prometheus.CounterVec
	OperationsCommitted *prometheus.CounterVec
	OperationsCancelled *prometheus.CounterVec
	TransitionConflicts *prometheus.CounterVec

	// Effect execution metrics
	EffectRetries  *prometheus.CounterVec
	EffectFailures *prometheus.CounterVec

	// Sweeper metrics
	SweepDuration prometheus.Histogram
	SweepBacklog  prometheus.Gauge
}

// NewCollector creates a new metrics collector with the given namespace.
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
		OperationsStaged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_staged_total",
				Help:      "Total number of reversible operations staged",
			},
			[]string{"operation_type"},
		),
		OperationsCommitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_committed_total",
				Help:      "Total number of operations finalized after window expiry",
			},
			[]string{"operation_type"},
		),
		OperationsCancelled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_cancelled_total",
				Help:      "Total number of operations cancelled within their window",
			},
			[]string{"operation_type"},
		),
		TransitionConflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transition_conflicts_total",
				Help:      "Total number of lost compare-and-swap transition races",
			},
			[]string{"requested_by"},
		),
		EffectRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "effect_retries_total",
				Help:      "Total number of compensate/finalize retry attempts",
			},
			[]string{"operation_type", "effect"},
		),
		EffectFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "effect_failures_total",
				Help:      "Total number of compensate/finalize failures flagged for operator review",
			},
			[]string{"operation_type", "effect"},
		),
		SweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sweep_duration_seconds",
				Help:      "Duration of expiry sweeper ticks",
				Buckets:   prometheus.DefBuckets,
			},
		),
		SweepBacklog: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sweep_backlog",
				Help:      "Number of pending operations observed on the last sweep",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.OperationsStaged,
		c.OperationsCommitted,
		c.OperationsCancelled,
		c.TransitionConflicts,
		c.EffectRetries,
		c.EffectFailures,
		c.SweepDuration,
		c.SweepBacklog,
	)

	globalCollector = c
	return c
}

// Registry exposes the collector's registry for the /metrics handler
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
