package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps Prometheus collectors for persona-pilot. A nil *Metrics is
// valid and turns every method into a no-op, so instrumentation stays
// optional for library-style use.
type Metrics struct {
	registry               *prometheus.Registry
	requestDurationSeconds *prometheus.HistogramVec
	requestsTotal          *prometheus.CounterVec
	apiErrorsTotal         *prometheus.CounterVec
	transportFailuresTotal *prometheus.CounterVec
	variantRunsTotal       *prometheus.CounterVec
	orchestrationSeconds   prometheus.Histogram
	lastSuccessfulRunGauge prometheus.Gauge
}

// New initializes a Metrics registry with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "persona_pilot_request_duration_seconds",
			Help:    "Duration of simulation service requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "persona_pilot_requests_total",
			Help: "Total simulation service requests by operation and status class.",
		}, []string{"op", "status"}),
		apiErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "persona_pilot_api_errors_total",
			Help: "Total normalized API errors by operation.",
		}, []string{"op"}),
		transportFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "persona_pilot_transport_failures_total",
			Help: "Total requests that never completed, by operation.",
		}, []string{"op"}),
		variantRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "persona_pilot_variant_runs_total",
			Help: "Total variant simulation runs by outcome.",
		}, []string{"outcome"}),
		orchestrationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "persona_pilot_orchestration_duration_seconds",
			Help:    "End-to-end duration of intervention orchestrations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		lastSuccessfulRunGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "persona_pilot_last_successful_orchestration_timestamp",
			Help: "Unix timestamp of the last orchestration with no failed variants.",
		}),
	}

	registry.MustRegister(
		m.requestDurationSeconds,
		m.requestsTotal,
		m.apiErrorsTotal,
		m.transportFailuresTotal,
		m.variantRunsTotal,
		m.orchestrationSeconds,
		m.lastSuccessfulRunGauge,
	)

	return m
}

// Handler returns a Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed request.
func (m *Metrics) ObserveRequest(op string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDurationSeconds.WithLabelValues(op).Observe(duration.Seconds())
	m.requestsTotal.WithLabelValues(op, statusClass(status)).Inc()
}

// IncAPIError increments the normalized API error counter.
func (m *Metrics) IncAPIError(op string) {
	if m == nil {
		return
	}
	m.apiErrorsTotal.WithLabelValues(op).Inc()
}

// IncTransportFailure increments the network failure counter.
func (m *Metrics) IncTransportFailure(op string) {
	if m == nil {
		return
	}
	m.transportFailuresTotal.WithLabelValues(op).Inc()
}

// IncVariantRun records the outcome of one variant run.
func (m *Metrics) IncVariantRun(outcome string) {
	if m == nil {
		return
	}
	m.variantRunsTotal.WithLabelValues(outcome).Inc()
}

// ObserveOrchestration records the duration of a completed orchestration.
func (m *Metrics) ObserveOrchestration(duration time.Duration) {
	if m == nil {
		return
	}
	m.orchestrationSeconds.Observe(duration.Seconds())
}

// SetLastSuccessfulRunTimestamp marks the last orchestration that finished
// with every variant succeeding.
func (m *Metrics) SetLastSuccessfulRunTimestamp(t time.Time) {
	if m == nil {
		return
	}
	m.lastSuccessfulRunGauge.Set(float64(t.Unix()))
}

func statusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
