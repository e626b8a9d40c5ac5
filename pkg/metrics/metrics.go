// Package metrics provides Prometheus metrics for the webdesk server.
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
			Name: "webdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Filesystem metrics
	fsActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webdesk_fs_actions_total",
			Help: "Total filesystem actions dispatched, by kind",
		},
		[]string{"kind"},
	)

	fsNoopsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webdesk_fs_noop_batches_total",
			Help: "Total dispatched batches that left the tree unchanged",
		},
	)

	fsNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webdesk_fs_nodes",
			Help: "Number of nodes in the filesystem tree",
		},
	)

	archiveOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webdesk_archive_operation_duration_seconds",
			Help:    "Archive compress and decompress duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	// Window metrics
	windowsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webdesk_windows_open",
			Help: "Number of open windows",
		},
	)

	windowEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webdesk_window_events_total",
			Help: "Total window manager events, by type",
		},
		[]string{"type"},
	)

	// Notification and persistence metrics
	notificationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webdesk_notifications_total",
			Help: "Total notifications sent",
		},
	)

	persistenceWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webdesk_persistence_writes_total",
			Help: "Total persistence writes, by key and status",
		},
		[]string{"key", "status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric. path should be the route
// pattern, not the raw URL, to keep label cardinality bounded.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordFSAction counts one dispatched filesystem action.
func RecordFSAction(kind string) {
	fsActionsTotal.WithLabelValues(kind).Inc()
}

// RecordFSNoop counts a batch that did not change the tree.
func RecordFSNoop() {
	fsNoopsTotal.Inc()
}

// SetFSNodes sets the current node count.
func SetFSNodes(count int) {
	fsNodes.Set(float64(count))
}

// RecordArchiveOperation records a compress or decompress run.
func RecordArchiveOperation(operation string, duration time.Duration, success bool) {
	archiveOperationDuration.WithLabelValues(operation, status(success)).Observe(duration.Seconds())
}

// SetWindowsOpen sets the number of open windows.
func SetWindowsOpen(count int) {
	windowsOpen.Set(float64(count))
}

// RecordWindowEvent counts a window manager event.
func RecordWindowEvent(eventType string) {
	windowEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordNotification counts a sent notification.
func RecordNotification() {
	notificationsTotal.Inc()
}

// RecordPersistenceWrite records a write to the key-value store.
func RecordPersistenceWrite(key string, success bool) {
	persistenceWritesTotal.WithLabelValues(key, status(success)).Inc()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
