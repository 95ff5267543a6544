// Package metrics provides Prometheus metrics for the admission calculator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the calculator service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Core business metrics
	calculations       prometheus.Counter
	calculationLatency prometheus.Histogram
	calculationErrors  *prometheus.CounterVec
	estimatesByStatus  *prometheus.CounterVec
	specialtiesRanked  prometheus.Histogram

	// Dataset metrics
	datasetRecords     prometheus.Gauge
	datasetGroups      prometheus.Gauge
	datasetSectors     prometheus.Gauge
	datasetLoads       prometheus.Counter
	datasetLoadErrors  prometheus.Counter
	datasetLoadLatency prometheus.Histogram
	datasetLastLoaded  prometheus.Gauge

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Auth metrics
	loginAttempts  *prometheus.CounterVec
	activeSessions prometheus.Gauge

	// Error metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System performance metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "admitcalc",
		subsystem:        "calculator",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		constLabels:      map[string]string{},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.calculations = m.counter("calculations_total", "Total number of admission calculations served")
	m.calculationLatency = m.histogram("calculation_latency_milliseconds",
		"Time spent filtering, estimating and ranking one request", m.histogramBuckets)
	m.calculationErrors = m.counterVec("calculation_errors_total",
		"Calculation requests rejected, by reason", "reason")
	m.estimatesByStatus = m.counterVec("estimates_total",
		"Per-specialty estimates produced, by status", "status")
	m.specialtiesRanked = m.histogram("specialties_ranked",
		"Number of specialties ranked per calculation before truncation",
		[]float64{1, 3, 5, 10, 20, 50, 100, 250, 500})

	m.datasetRecords = m.gauge("dataset_records", "Historical records in the active dataset")
	m.datasetGroups = m.gauge("dataset_groups", "Distinct groups in the active dataset")
	m.datasetSectors = m.gauge("dataset_sectors", "Distinct sectors in the active dataset")
	m.datasetLoads = m.counter("dataset_loads_total", "Successful dataset loads, including reloads")
	m.datasetLoadErrors = m.counter("dataset_load_errors_total", "Failed dataset loads")
	m.datasetLoadLatency = m.histogram("dataset_load_latency_milliseconds", "Time spent reading the dataset file",
		[]float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000})
	m.datasetLastLoaded = m.gauge("dataset_last_loaded_timestamp_seconds", "Unix time of the last successful load")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.loginAttempts = m.counterVec("login_attempts_total", "Login attempts by outcome", "outcome")
	m.activeSessions = m.gauge("active_sessions", "Sessions currently valid")

	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordCalculation counts a served calculation and its latency.
func RecordCalculation(latencyMs float64, specialties int) {
	globalManager.calculations.Inc()
	globalManager.calculationLatency.Observe(latencyMs)
	globalManager.specialtiesRanked.Observe(float64(specialties))
}

// RecordCalculationError counts a rejected calculation.
func RecordCalculationError(reason string) {
	globalManager.calculationErrors.WithLabelValues(reason).Inc()
}

// RecordEstimateStatus counts an estimate by its status label.
func RecordEstimateStatus(status string) {
	globalManager.estimatesByStatus.WithLabelValues(status).Inc()
}

// UpdateDatasetSize sets the dataset shape gauges.
func UpdateDatasetSize(records, groups, sectors int) {
	globalManager.datasetRecords.Set(float64(records))
	globalManager.datasetGroups.Set(float64(groups))
	globalManager.datasetSectors.Set(float64(sectors))
}

// RecordDatasetLoad records a successful load.
func RecordDatasetLoad(latencyMs float64, unixSeconds int64) {
	globalManager.datasetLoads.Inc()
	globalManager.datasetLoadLatency.Observe(latencyMs)
	globalManager.datasetLastLoaded.Set(float64(unixSeconds))
}

// RecordDatasetLoadError counts a failed load.
func RecordDatasetLoadError() {
	globalManager.datasetLoadErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordLoginAttempt counts a login attempt by outcome (success, invalid, throttled).
func RecordLoginAttempt(outcome string) {
	globalManager.loginAttempts.WithLabelValues(outcome).Inc()
}

// UpdateActiveSessions sets the active session gauge.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// RecordErrorByType records errors by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records errors by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
