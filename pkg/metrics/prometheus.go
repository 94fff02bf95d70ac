// Package metrics provides Prometheus metrics for the elimination vote service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Voting
	ballotsAccepted     prometheus.Counter
	ballotsRejected     *prometheus.CounterVec
	lifecycleTransition *prometheus.CounterVec
	rosterChanges       *prometheus.CounterVec
	stateRecoveries     prometheus.Counter
	currentRound        prometheus.Gauge
	participants        prometheus.Gauge

	// Persistent store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// Command queue and actor
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors *prometheus.CounterVec
	commandLatency     *prometheus.HistogramVec
	commandErrors      *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
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
		namespace:        "elimvote",
		subsystem:        "rounds",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.ballotsAccepted = auto.NewCounter(m.counterOpts("ballots_accepted_total", "Total number of ballots recorded"))
	m.ballotsRejected = auto.NewCounterVec(
		m.counterOpts("ballots_rejected_total", "Total number of ballots rejected by reason code"),
		[]string{"code"},
	)
	m.lifecycleTransition = auto.NewCounterVec(
		m.counterOpts("lifecycle_transitions_total", "Round lifecycle transitions by action"),
		[]string{"action"},
	)
	m.rosterChanges = auto.NewCounterVec(
		m.counterOpts("roster_changes_total", "Roster edits by operation"),
		[]string{"op"},
	)
	m.stateRecoveries = auto.NewCounter(m.counterOpts("state_recoveries_total", "Unreadable state documents replaced by a fresh state"))
	m.currentRound = auto.NewGauge(m.gaugeOpts("current_round", "Index of the current round, starting at 1"))
	m.participants = auto.NewGauge(m.gaugeOpts("participants", "Number of participants on the roster"))

	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_latency_milliseconds", "Persistent store operation latency in milliseconds"),
		[]string{"backend", "op"},
	)
	m.storeErrors = auto.NewCounterVec(
		m.counterOpts("store_errors_total", "Persistent store operation failures"),
		[]string{"backend", "op"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Commands waiting for the actor"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum number of queued commands"))
	m.queueEnqueueErrors = auto.NewCounterVec(
		m.counterOpts("queue_enqueue_errors_total", "Commands refused by the queue by reason"),
		[]string{"reason"},
	)
	m.commandLatency = auto.NewHistogramVec(
		m.histogramOpts("command_latency_milliseconds", "Time spent executing a command in the actor"),
		[]string{"command"},
	)
	m.commandErrors = auto.NewCounterVec(
		m.counterOpts("command_errors_total", "Commands that returned an error, by command and code"),
		[]string{"command", "code"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("http_errors_total", "HTTP error responses by endpoint and error type"),
		[]string{"endpoint", "method", "error_type"},
	)
}

// RecordBallotAccepted increments the accepted ballot counter.
func (m *Manager) RecordBallotAccepted() {
	if m.enabled {
		m.ballotsAccepted.Inc()
	}
}

// RecordBallotRejected increments the rejected ballot counter for code.
func (m *Manager) RecordBallotRejected(code string) {
	if m.enabled {
		m.ballotsRejected.WithLabelValues(code).Inc()
	}
}

// RecordLifecycleTransition counts a successful admin lifecycle action.
func (m *Manager) RecordLifecycleTransition(action string) {
	if m.enabled {
		m.lifecycleTransition.WithLabelValues(action).Inc()
	}
}

// RecordRosterChange counts a roster edit.
func (m *Manager) RecordRosterChange(op string) {
	if m.enabled {
		m.rosterChanges.WithLabelValues(op).Inc()
	}
}

// RecordStateRecovery counts a fresh state created over an unreadable document.
func (m *Manager) RecordStateRecovery() {
	if m.enabled {
		m.stateRecoveries.Inc()
	}
}

// UpdateCurrentRound sets the current round gauge (1-based).
func (m *Manager) UpdateCurrentRound(index int) {
	if m.enabled {
		m.currentRound.Set(float64(index))
	}
}

// UpdateParticipants sets the roster size gauge.
func (m *Manager) UpdateParticipants(count int) {
	if m.enabled {
		m.participants.Set(float64(count))
	}
}

// RecordStoreOperation observes a store operation latency and failure.
func (m *Manager) RecordStoreOperation(backend, op string, latencyMs float64, failed bool) {
	if !m.enabled {
		return
	}
	m.storeLatency.WithLabelValues(backend, op).Observe(latencyMs)
	if failed {
		m.storeErrors.WithLabelValues(backend, op).Inc()
	}
}

// UpdateQueueSize sets the queued command gauge.
func (m *Manager) UpdateQueueSize(size int) {
	if m.enabled {
		m.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the queue capacity gauge.
func (m *Manager) UpdateQueueCapacity(capacity int) {
	if m.enabled {
		m.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueueError counts a refused command.
func (m *Manager) RecordQueueEnqueueError(reason string) {
	if m.enabled {
		m.queueEnqueueErrors.WithLabelValues(reason).Inc()
	}
}

// RecordCommand observes command latency and, when code is non-empty, a failure.
func (m *Manager) RecordCommand(command string, latencyMs float64, code string) {
	if !m.enabled {
		return
	}
	m.commandLatency.WithLabelValues(command).Observe(latencyMs)
	if code != "" {
		m.commandErrors.WithLabelValues(command, code).Inc()
	}
}

// RecordHTTPRequest records a request count and duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint counts an HTTP error response.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m.enabled {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordBallotAccepted increments the accepted ballot counter.
func RecordBallotAccepted() { globalManager.RecordBallotAccepted() }

// RecordBallotRejected increments the rejected ballot counter for code.
func RecordBallotRejected(code string) { globalManager.RecordBallotRejected(code) }

// RecordLifecycleTransition counts a successful admin lifecycle action.
func RecordLifecycleTransition(action string) { globalManager.RecordLifecycleTransition(action) }

// RecordRosterChange counts a roster edit.
func RecordRosterChange(op string) { globalManager.RecordRosterChange(op) }

// RecordStateRecovery counts a fresh state created over an unreadable document.
func RecordStateRecovery() { globalManager.RecordStateRecovery() }

// UpdateCurrentRound sets the current round gauge (1-based).
func UpdateCurrentRound(index int) { globalManager.UpdateCurrentRound(index) }

// UpdateParticipants sets the roster size gauge.
func UpdateParticipants(count int) { globalManager.UpdateParticipants(count) }

// RecordStoreOperation observes a store operation.
func RecordStoreOperation(backend, op string, latencyMs float64, failed bool) {
	globalManager.RecordStoreOperation(backend, op, latencyMs, failed)
}

// UpdateQueueSize sets the queued command gauge.
func UpdateQueueSize(size int) { globalManager.UpdateQueueSize(size) }

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) { globalManager.UpdateQueueCapacity(capacity) }

// RecordQueueEnqueueError counts a refused command.
func RecordQueueEnqueueError(reason string) { globalManager.RecordQueueEnqueueError(reason) }

// RecordCommand observes an actor command.
func RecordCommand(command string, latencyMs float64, code string) {
	globalManager.RecordCommand(command, latencyMs, code)
}

// RecordHTTPRequest records a request count and duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordErrorByEndpoint counts an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

// GetRegistry returns the custom registry used for metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
