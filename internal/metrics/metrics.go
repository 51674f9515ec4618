// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billingdash_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billingdash_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	importRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billingdash_import_rows_total",
			Help: "Workbook rows processed by imports",
		},
		[]string{"outcome"}, // imported, rejected
	)

	importsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billingdash_imports_total",
			Help: "Import runs by final status",
		},
		[]string{"status"}, // completed, failed
	)

	importDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "billingdash_import_duration_seconds",
			Help:    "Wall time of import runs",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)
)

// ObserveRequest records one served HTTP request.
func ObserveRequest(method, route string, status int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveImport records the outcome of one import run.
func ObserveImport(status string, imported, rejected int64, d time.Duration) {
	importsTotal.WithLabelValues(status).Inc()
	importRowsTotal.WithLabelValues("imported").Add(float64(imported))
	importRowsTotal.WithLabelValues("rejected").Add(float64(rejected))
	importDuration.Observe(d.Seconds())
}
