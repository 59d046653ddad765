// Package metrics defines the Prometheus collectors of the media API.
package metrics

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Store metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of store queries in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of failed store queries",
		},
		[]string{"operation", "table"},
	)

	DBUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_up",
			Help: "Whether the last connection probe succeeded (1) or failed (0)",
		},
	)
)

// RecordAPIRequest records one served request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest moves the in-flight gauge up or down.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDBQuery records one store statement. err is counted as a failure
// unless it is one of the expected outcomes passed in ignore.
func RecordDBQuery(operation, table string, duration time.Duration, err error, ignore ...error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err == nil {
		return
	}
	for _, target := range ignore {
		if errors.Is(err, target) {
			return
		}
	}
	DBQueryErrors.WithLabelValues(operation, table).Inc()
}

// SetDBUp records the outcome of a connection probe.
func SetDBUp(up bool) {
	if up {
		DBUp.Set(1)
	} else {
		DBUp.Set(0)
	}
}

// RegisterDBStats exports the pool statistics of db under the given name.
func RegisterDBStats(db *sql.DB, name string) error {
	return prometheus.Register(collectors.NewDBStatsCollector(db, name))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
