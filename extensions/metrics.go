package extensions

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	jotai "github.com/dakom/jotai"
)

// MetricsExtension exports store operation counts and latencies as
// Prometheus metrics. All collectors are registered on construction.
type MetricsExtension struct {
	jotai.BaseExtension

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	cleanupErrors     prometheus.Counter
	storesDisposed    prometheus.Counter
}

// NewMetricsExtension creates a metrics extension and registers its
// collectors with reg. Pass prometheus.DefaultRegisterer for the global
// registry, or a private prometheus.NewRegistry() in tests.
func NewMetricsExtension(reg prometheus.Registerer) (*MetricsExtension, error) {
	e := &MetricsExtension{
		BaseExtension: jotai.NewBaseExtension("metrics"),
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jotai",
				Name:      "operations_total",
				Help:      "Store operations by kind and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "jotai",
				Name:      "operation_duration_seconds",
				Help:      "Store operation latency by kind.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cleanupErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "jotai",
				Name:      "cleanup_errors_total",
				Help:      "Cleanup functions that returned an error.",
			},
		),
		storesDisposed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "jotai",
				Name:      "stores_disposed_total",
				Help:      "Stores that have been disposed.",
			},
		),
	}

	collectors := []prometheus.Collector{
		e.operationsTotal,
		e.operationDuration,
		e.cleanupErrors,
		e.storesDisposed,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func (e *MetricsExtension) Order() int {
	// Metrics wrap closest to the operation so timings exclude other
	// extensions.
	return 1000
}

func (e *MetricsExtension) Wrap(ctx context.Context, next func() (any, error), op *jotai.Operation) (any, error) {
	start := time.Now()
	result, err := next()
	duration := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	e.operationsTotal.WithLabelValues(string(op.Kind), outcome).Inc()
	e.operationDuration.WithLabelValues(string(op.Kind)).Observe(duration.Seconds())

	return result, err
}

func (e *MetricsExtension) OnCleanupError(*jotai.CleanupError) bool {
	e.cleanupErrors.Inc()
	return false
}

func (e *MetricsExtension) Dispose(*jotai.Store) error {
	e.storesDisposed.Inc()
	return nil
}
