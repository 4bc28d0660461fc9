package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	archiveRepositoryOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coretime_market",
		Subsystem: "archive_repository",
		Name:      "operations_total",
		Help:      "Count of archive repository operations.",
	}, []string{"operation", "status"})
	archiveRepositoryOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coretime_market",
		Subsystem: "archive_repository",
		Name:      "operation_duration_seconds",
		Help:      "Duration of archive repository operations.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30},
	}, []string{"operation", "status"})
)

// ArchiveRepository tracks metrics for ClickHouse archive operations.
type ArchiveRepository struct{}

// NewArchiveRepository creates an ArchiveRepository metrics collector.
func NewArchiveRepository() *ArchiveRepository {
	return &ArchiveRepository{}
}

// Observe records duration and status of an archive repository operation.
func (m ArchiveRepository) Observe(operation string, err error, started time.Time) {
	status := statusLabel(err)
	archiveRepositoryOperationsTotal.WithLabelValues(operation, status).Inc()
	archiveRepositoryOperationDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
}
