// Package metrics provides Prometheus metrics for the verification service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every collector of the service on its own registry.
type Manager struct {
	namespace      string
	latencyBuckets []float64
	constLabels    prometheus.Labels
	registry       *prometheus.Registry

	// Verification
	verifications        *prometheus.CounterVec
	verificationDuration prometheus.Histogram
	scores               prometheus.Histogram
	rejected             *prometheus.CounterVec

	// Extractor
	extractorErrors *prometheus.CounterVec
	extractorReady  prometheus.Gauge

	// Audit trail
	persistErrors prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a Manager. Without WithRegistry it uses a fresh registry
// carrying the Go runtime and process collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "facematch",
		latencyBuckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.verifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "verifications_total",
		Help:        "Completed verifications by decision and reason",
		ConstLabels: m.constLabels,
	}, []string{"decision", "reason"})

	m.verificationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "verification_duration_seconds",
		Help:        "End to end verification latency including extraction",
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	})

	m.scores = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "similarity_score",
		Help:        "Distribution of cosine similarity scores",
		Buckets:     prometheus.LinearBuckets(-1, 0.1, 21),
		ConstLabels: m.constLabels,
	})

	m.rejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "verifications_rejected_total",
		Help:        "Verification requests rejected before extraction, by error code",
		ConstLabels: m.constLabels,
	}, []string{"code"})

	m.extractorErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "extractor",
		Name:        "errors_total",
		Help:        "Extractor failures by kind (unavailable, error)",
		ConstLabels: m.constLabels,
	}, []string{"kind"})

	m.extractorReady = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "extractor",
		Name:        "ready",
		Help:        "1 once the embedding extractor is initialised",
		ConstLabels: m.constLabels,
	})

	m.persistErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "audit_persist_errors_total",
		Help:        "Verification records that could not be written to the database",
		ConstLabels: m.constLabels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "requests_total",
		Help:        "HTTP requests by route, method and status code",
		ConstLabels: m.constLabels,
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "request_duration_seconds",
		Help:        "HTTP request duration by route and method",
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	}, []string{"route", "method"})
}

// RecordVerification counts a completed verification. score is nil for inconclusive results.
func (m *Manager) RecordVerification(decision, reason string, score *float64, duration time.Duration) {
	m.verifications.WithLabelValues(decision, reason).Inc()
	m.verificationDuration.Observe(duration.Seconds())
	if score != nil {
		m.scores.Observe(*score)
	}
}

// RecordRejected counts a request refused before extraction
func (m *Manager) RecordRejected(code string) {
	m.rejected.WithLabelValues(code).Inc()
}

// RecordExtractorError counts an extractor failure of the given kind
func (m *Manager) RecordExtractorError(kind string) {
	m.extractorErrors.WithLabelValues(kind).Inc()
}

// SetExtractorReady flips the readiness gauge
func (m *Manager) SetExtractorReady(ready bool) {
	if ready {
		m.extractorReady.Set(1)
		return
	}
	m.extractorReady.Set(0)
}

// RecordPersistError counts a failed audit write
func (m *Manager) RecordPersistError() {
	m.persistErrors.Inc()
}

// RecordHTTPRequest records one served request
func (m *Manager) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// Registry exposes the underlying registry, mainly for tests
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
