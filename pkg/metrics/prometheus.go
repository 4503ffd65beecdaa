// Package metrics provides Prometheus metrics for the standings service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets in milliseconds. Leaderboards are small, so most
// computations land well under 50ms.
var defaultBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Standings
	leaderboardComputations *prometheus.CounterVec
	leaderboardLatency      *prometheus.HistogramVec

	// Ingestion
	racesIngested   *prometheus.CounterVec
	resultsInserted prometheus.Counter
	resultsSkipped  prometheus.Counter
	uploadsAccepted prometheus.Counter
	uploadsDup      prometheus.Counter
	exportsPublish  prometheus.Counter

	// Repository
	repositoryQueryLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker
	workerActive            prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the Record* helpers

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out of /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "alpine",
		subsystem:        "standings",
		histogramBuckets: defaultBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.leaderboardComputations = m.counterVec("leaderboard_computations_total",
		"Leaderboards computed, by kind (individual, team, qualifier)", "kind")
	m.leaderboardLatency = m.histogramVec("leaderboard_latency_milliseconds",
		"Time to load records and compute a leaderboard", "kind")

	m.racesIngested = m.counterVec("races_ingested_total", "Races stored, by category", "category")
	m.resultsInserted = m.counter("results_inserted_total", "Placement records stored")
	m.resultsSkipped = m.counter("results_skipped_total", "Placement records skipped as duplicates")
	m.uploadsAccepted = m.counter("uploads_accepted_total", "Result files accepted for ingestion")
	m.uploadsDup = m.counter("uploads_duplicate_total", "Result files rejected as already seen")
	m.exportsPublish = m.counter("exports_published_total", "CSV exports written to object storage")

	m.repositoryQueryLatency = m.histogramVec("repository_query_latency_milliseconds",
		"Repository call latency", "operation")

	m.httpRequests = m.counterVec("http_requests_total",
		"HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.queueSize = m.gauge("queue_size", "Uploads waiting for the ingest worker")
	m.queueCapacity = m.gauge("queue_capacity", "Upload queue capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Uploads enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Uploads dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Uploads rejected by a full or closed queue")

	m.workerActive = m.gauge("worker_active", "Ingest workers currently processing an upload")
	m.workerProcessingLatency = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Time to parse and store one upload",
		Buckets:   m.histogramBuckets,
	})
	m.workerErrors = m.counter("worker_errors_total", "Uploads that failed ingestion")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")
}

// RecordLeaderboardComputed counts one leaderboard computation of kind.
func RecordLeaderboardComputed(kind string) {
	globalManager.leaderboardComputations.WithLabelValues(kind).Inc()
}

// RecordLeaderboardLatency records the time to produce a leaderboard.
func RecordLeaderboardLatency(kind string, latencyMs float64) {
	globalManager.leaderboardLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordRaceIngested counts one stored race.
func RecordRaceIngested(category string) {
	globalManager.racesIngested.WithLabelValues(category).Inc()
}

// RecordResultsStored adds to the inserted and skipped record counters.
func RecordResultsStored(inserted, skipped int) {
	globalManager.resultsInserted.Add(float64(inserted))
	globalManager.resultsSkipped.Add(float64(skipped))
}

// RecordUploadAccepted counts an accepted upload.
func RecordUploadAccepted() {
	globalManager.uploadsAccepted.Inc()
}

// RecordUploadDuplicate counts an upload rejected as a duplicate.
func RecordUploadDuplicate() {
	globalManager.uploadsDup.Inc()
}

// RecordExportPublished counts one published CSV export.
func RecordExportPublished() {
	globalManager.exportsPublish.Inc()
}

// RecordRepositoryQueryLatency records repository call latency.
func RecordRepositoryQueryLatency(operation string, latencyMs float64) {
	globalManager.repositoryQueryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an enqueue.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a dequeue.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// RecordWorkerProcessingLatency records the time to process one upload.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed upload.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordErrorByComponent counts an error.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the registry served on /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
