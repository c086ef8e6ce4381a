// Package metrics exposes Prometheus metrics for the todo list service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the service's collectors.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer
	gatherer         prometheus.Gatherer

	entryOperations *prometheus.CounterVec
	entriesPurged   prometheus.Counter
	purgeRuns       *prometheus.CounterVec

	updateClients prometheus.Gauge
	notifications *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry served on /metrics

var globalManager *Manager //nolint:gochecknoglobals // package-level recorders below write here

func init() { //nolint:gochecknoinits
	customRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager builds a Manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "todolist",
		subsystem: "api",
		// milliseconds
		histogramBuckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
		gatherer:         prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.entryOperations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entry_operations_total",
		Help:      "Entry writes by action (create, update, delete)",
	}, []string{"action"})

	m.entriesPurged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entries_purged_total",
		Help:      "Soft-deleted entries physically removed after the retention window",
	})

	m.purgeRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "purge_runs_total",
		Help:      "Purge sweeps by result (ok, failed, cancelled)",
	}, []string{"result"})

	m.updateClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "update_clients",
		Help:      "Update-channel clients currently connected",
	})

	m.notifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_total",
		Help:      "Change notifications by result (sent, dropped)",
	}, []string{"result"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// Handler serves the manager's gatherer in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Manager) RecordEntryOperation(action string) {
	m.entryOperations.WithLabelValues(action).Inc()
}

func (m *Manager) RecordEntriesPurged(n int64) {
	if n > 0 {
		m.entriesPurged.Add(float64(n))
	}
}

func (m *Manager) RecordPurgeRun(result string) {
	m.purgeRuns.WithLabelValues(result).Inc()
}

func (m *Manager) SetUpdateClients(n int) {
	m.updateClients.Set(float64(n))
}

func (m *Manager) RecordNotification(result string) {
	m.notifications.WithLabelValues(result).Inc()
}

func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Package-level recorders write to the process-wide manager.

func RecordEntryOperation(action string) { globalManager.RecordEntryOperation(action) }

func RecordEntriesPurged(n int64) { globalManager.RecordEntriesPurged(n) }

func RecordPurgeRun(result string) { globalManager.RecordPurgeRun(result) }

func SetUpdateClients(n int) { globalManager.SetUpdateClients(n) }

func RecordNotification(result string) { globalManager.RecordNotification(result) }

func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// Handler serves the process-wide registry.
func Handler() http.Handler {
	return globalManager.Handler()
}

// GetRegistry returns the process-wide registry.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
