// Package metrics provides Prometheus metrics for the report server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testreports_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "testreports_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Virtual file store metrics
	storeFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testreports_store_fallbacks_total",
			Help: "Operations retried against the filesystem after the document store was unavailable or empty",
		},
		[]string{"operation"},
	)

	searchResultsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "testreports_search_results_returned",
			Help:    "Number of results returned per search request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)

	// Content transfer metrics
	contentBytesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "testreports_content_bytes_downloaded_total",
			Help: "Total bytes served by the content and download endpoints",
		},
	)

	archiveBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testreports_archive_builds_total",
			Help: "Total archive downloads built",
		},
		[]string{"status"},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "testreports_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	dbConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "testreports_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	storeConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "testreports_store_connected",
			Help: "Whether the document store is currently reachable (1/0)",
		},
	)

	mirroredEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "testreports_mirrored_entries",
			Help: "Number of entries mirrored into the document store at startup",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordStoreFallback records one orchestrator fallback to the filesystem.
func RecordStoreFallback(operation string) {
	storeFallbacksTotal.WithLabelValues(operation).Inc()
}

// RecordSearchResults records the size of one search result set.
func RecordSearchResults(count int) {
	searchResultsReturned.Observe(float64(count))
}

// RecordContentDownloaded records bytes served to a client.
func RecordContentDownloaded(bytes int64) {
	contentBytesDownloaded.Add(float64(bytes))
}

// RecordArchiveBuild records one archive download.
func RecordArchiveBuild(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	archiveBuildsTotal.WithLabelValues(status).Inc()
}

// RecordDBQuery records a database query duration.
func RecordDBQuery(query string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// SetDBConnectionsOpen sets the number of open database connections.
func SetDBConnectionsOpen(count int) {
	dbConnectionsOpen.Set(float64(count))
}

// SetStoreConnected publishes the store reachability flag.
func SetStoreConnected(connected bool) {
	if connected {
		storeConnected.Set(1)
	} else {
		storeConnected.Set(0)
	}
}

// SetMirroredEntries sets the mirrored entry count gauge.
func SetMirroredEntries(count int) {
	mirroredEntries.Set(float64(count))
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware returns HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}
