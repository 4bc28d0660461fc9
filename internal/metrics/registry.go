// Package metrics defines Prometheus collectors for the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registryOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coretime_market",
		Subsystem: "registry",
		Name:      "operations_total",
		Help:      "Count of metadata registry operations.",
	}, []string{"operation", "status"})
	registryOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coretime_market",
		Subsystem: "registry",
		Name:      "operation_duration_seconds",
		Help:      "Duration of metadata registry operations.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation", "status"})
)

// Registry tracks metrics for metadata registry operations.
type Registry struct{}

// NewRegistry creates a Registry metrics collector.
func NewRegistry() *Registry {
	return &Registry{}
}

// Observe records duration and status of a registry operation.
func (m Registry) Observe(operation string, err error, started time.Time) {
	status := statusLabel(err)
	registryOperationsTotal.WithLabelValues(operation, status).Inc()
	registryOperationDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
