package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	marketOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coretime_market",
		Subsystem: "market",
		Name:      "operations_total",
		Help:      "Count of marketplace operations.",
	}, []string{"operation", "status"})
	marketOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coretime_market",
		Subsystem: "market",
		Name:      "operation_duration_seconds",
		Help:      "Duration of marketplace operations.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation", "status"})
)

// Market tracks metrics for marketplace operations.
type Market struct{}

// NewMarket creates a Market metrics collector.
func NewMarket() *Market {
	return &Market{}
}

// Observe records duration and status of a marketplace operation.
func (m Market) Observe(operation string, err error, started time.Time) {
	status := statusLabel(err)
	marketOperationsTotal.WithLabelValues(operation, status).Inc()
	marketOperationDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
}
