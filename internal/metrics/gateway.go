package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coretime_market",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Count of HTTP requests.",
	}, []string{"route", "method", "code"})
	gatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coretime_market",
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"route", "method", "code"})
)

// Gateway tracks metrics for the HTTP gateway.
type Gateway struct{}

// NewGateway creates a Gateway metrics collector.
func NewGateway() *Gateway {
	return &Gateway{}
}

// ObserveRequest records one handled HTTP request.
func (m Gateway) ObserveRequest(route, method string, code int, started time.Time) {
	gatewayRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	gatewayRequestDuration.WithLabelValues(route, method, strconv.Itoa(code)).Observe(time.Since(started).Seconds())
}
