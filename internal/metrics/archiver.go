package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	archiverFlushTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coretime_market",
		Subsystem: "archiver",
		Name:      "flushes_total",
		Help:      "Count of event batch flushes to the archive.",
	}, []string{"status"})
	archiverFlushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coretime_market",
		Subsystem: "archiver",
		Name:      "flush_duration_seconds",
		Help:      "Duration of event batch flushes to the archive.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"status"})
	archiverEventsFlushed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coretime_market",
		Subsystem: "archiver",
		Name:      "events_flushed_total",
		Help:      "Count of events written to the archive.",
	})
	archiverEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coretime_market",
		Subsystem: "archiver",
		Name:      "events_dropped_total",
		Help:      "Count of events lost to failed flushes.",
	})
)

// Archiver tracks metrics for the event archiver service.
type Archiver struct{}

// NewArchiver creates an Archiver metrics collector.
func NewArchiver() *Archiver {
	return &Archiver{}
}

// ObserveFlush records the outcome of one batch flush.
func (m Archiver) ObserveFlush(err error, events int, started time.Time) {
	status := statusLabel(err)
	archiverFlushTotal.WithLabelValues(status).Inc()
	archiverFlushDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
	if err != nil {
		archiverEventsDropped.Add(float64(events))
		return
	}
	archiverEventsFlushed.Add(float64(events))
}
