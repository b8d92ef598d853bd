package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// It is passed explicitly to every component that records metrics. All
// recording helpers are safe to call on a nil *Metrics.
type Metrics struct {
	// Upstream Metrics
	upstreamRequestsTotal   *prometheus.CounterVec
	upstreamRequestDuration *prometheus.HistogramVec

	// Mapping Metrics
	transactionsMappedTotal       prometheus.Counter
	placeholdersSynthesizedTotal  *prometheus.CounterVec
	transactionMappingErrorsTotal *prometheus.CounterVec

	// HTTP Metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Upstream Metrics
		upstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_requests_total",
				Help: "Total number of requests to the upstream transaction service by status",
			},
			[]string{"status"},
		),
		upstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upstream_request_duration_seconds",
				Help:    "Duration of upstream transaction service requests in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"status"},
		),

		// Mapping Metrics
		transactionsMappedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "transactions_mapped_total",
				Help: "Total number of upstream transactions mapped into responses",
			},
		),
		placeholdersSynthesizedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "placeholders_synthesized_total",
				Help: "Total number of response fields synthesized because the upstream omitted them",
			},
			[]string{"field"},
		),
		transactionMappingErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transaction_mapping_errors_total",
				Help: "Total number of upstream records rejected during mapping",
			},
			[]string{"field"},
		),

		// HTTP Metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
	}
}

// Upstream metric helpers

// RecordUpstreamRequest records an upstream call. statusCode is 0 when no
// response was received.
func (m *Metrics) RecordUpstreamRequest(statusCode int, duration float64) {
	if m == nil {
		return
	}
	status := "error"
	if statusCode != 0 {
		status = statusCodeToString(statusCode)
	}
	m.upstreamRequestsTotal.WithLabelValues(status).Inc()
	m.upstreamRequestDuration.WithLabelValues(status).Observe(duration)
}

// Mapping metric helpers

// RecordTransactionsMapped records transactions returned to a caller.
func (m *Metrics) RecordTransactionsMapped(count int) {
	if m == nil {
		return
	}
	m.transactionsMappedTotal.Add(float64(count))
}

// RecordPlaceholder records a synthesized field.
func (m *Metrics) RecordPlaceholder(field string) {
	if m == nil {
		return
	}
	m.placeholdersSynthesizedTotal.WithLabelValues(field).Inc()
}

// RecordMappingError records an upstream record rejected during mapping.
func (m *Metrics) RecordMappingError(field string) {
	if m == nil {
		return
	}
	m.transactionMappingErrorsTotal.WithLabelValues(field).Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	if m == nil {
		return
	}
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// Helper functions

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
