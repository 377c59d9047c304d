package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scan outcomes
const (
	OutcomeSuccess      = "success"
	OutcomeValidation   = "validation"
	OutcomeNotFound     = "not_found"
	OutcomeConflict     = "conflict"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
)

var (
	// ScansTotal counts scan requests by mode and outcome
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vms_scans_total",
			Help: "Total number of QR scans processed, by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	// HTTPRequestsTotal counts HTTP requests by method, path and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vms_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes HTTP request latency by method and path
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vms_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// RecordScan increments the scan counter for a mode/outcome pair
func RecordScan(mode, outcome string) {
	ScansTotal.WithLabelValues(mode, outcome).Inc()
}

// Handler exposes the Prometheus scrape endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
