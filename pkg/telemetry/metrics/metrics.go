// Package metrics defines the Prometheus instrumentation for the
// gateway: request counts and latency, token throughput, and stream
// chunk volume.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway instrument set bound to one registry.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec
	streamChunks    *prometheus.CounterVec
	upstreamErrors  *prometheus.CounterVec
}

// New builds the instrument set under the given namespace.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total API requests by endpoint, model, and status code.",
		}, []string{"endpoint", "model", "status"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency by endpoint and model.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"endpoint", "model"}),

		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_tokens_total",
			Help:      "Tokens reported by the upstream, by model and direction.",
		}, []string{"model", "type"}),

		streamChunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_chunks_total",
			Help:      "SSE chunks relayed to clients, by model.",
		}, []string{"model"}),

		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Upstream invocation failures by error type.",
		}, []string{"model", "error_type"}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.tokensTotal,
		m.streamChunks,
		m.upstreamErrors,
	)
	return m
}

// ObserveRequest records one completed request.
func (m *Metrics) ObserveRequest(endpoint, model string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(endpoint, model, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(endpoint, model).Observe(duration.Seconds())
}

// ObserveTokens records upstream-reported token usage.
func (m *Metrics) ObserveTokens(model string, prompt, completion int) {
	if prompt > 0 {
		m.tokensTotal.WithLabelValues(model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		m.tokensTotal.WithLabelValues(model, "completion").Add(float64(completion))
	}
}

// ObserveStreamChunks records relayed chunk volume.
func (m *Metrics) ObserveStreamChunks(model string, n int) {
	if n > 0 {
		m.streamChunks.WithLabelValues(model).Add(float64(n))
	}
}

// ObserveUpstreamError records one upstream failure.
func (m *Metrics) ObserveUpstreamError(model, errorType string) {
	m.upstreamErrors.WithLabelValues(model, errorType).Inc()
}

// Handler returns the scrape endpoint handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
