package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "explorer"

// Query outcome labels
const (
	StatusOK    = "ok"
	StatusEmpty = "empty"
	StatusError = "error"
)

// Metrics contains the explorer metrics. A nil *Metrics is valid and records nothing,
// which keeps stores usable without a registry in tests and CLI one-shots.
type Metrics struct {
	QueriesTotal    *prometheus.CounterVec
	QueryDuration   *prometheus.HistogramVec
	QueryResults    *prometheus.HistogramVec
	TriplesLoaded   *prometheus.GaugeVec
	Components      *prometheus.GaugeVec
	LoadsTotal      *prometheus.CounterVec
	UploadsTotal    *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	NATSRequests    *prometheus.CounterVec
	NATSConnected   prometheus.Gauge
	WebSocketClient prometheus.Gauge
}

// NewMetrics creates the explorer metrics, unregistered.
func NewMetrics() *Metrics {
	return &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "queries_total",
				Help:      "Total number of store queries",
			},
			[]string{"backend", "operation", "status"},
		),

		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "query_duration_seconds",
				Help:      "Store query duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		),

		QueryResults: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "query_results",
				Help:      "Number of records returned per query",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
			},
			[]string{"backend", "operation"},
		),

		TriplesLoaded: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "triples_loaded",
				Help:      "Number of triples in the current snapshot",
			},
			[]string{"backend"},
		),

		Components: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "components",
				Help:      "Number of allow-listed components at last load",
			},
			[]string{"backend"},
		),

		LoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "loads_total",
				Help:      "Total number of snapshot loads",
			},
			[]string{"backend", "status"},
		),

		UploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "bootstrap_uploads_total",
				Help:      "Total number of bootstrap uploads to the remote store",
			},
			[]string{"status"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "code"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		NATSRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "nats",
				Name:      "requests_total",
				Help:      "Total number of NATS requests served",
			},
			[]string{"subject", "status"},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		WebSocketClient: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "websocket_clients",
				Help:      "Number of connected websocket search clients",
			},
		),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.QueriesTotal, m.QueryDuration, m.QueryResults,
		m.TriplesLoaded, m.Components, m.LoadsTotal, m.UploadsTotal,
		m.HTTPRequests, m.HTTPDuration,
		m.NATSRequests, m.NATSConnected, m.WebSocketClient,
	}
}

// RecordQuery records one store query. err marks the query failed; otherwise an empty
// result is counted separately from a non-empty one.
func (m *Metrics) RecordQuery(backend, operation string, started time.Time, results int, err error) {
	if m == nil {
		return
	}

	status := StatusOK
	switch {
	case err != nil:
		status = StatusError
	case results == 0:
		status = StatusEmpty
	}

	m.QueriesTotal.WithLabelValues(backend, operation, status).Inc()
	m.QueryDuration.WithLabelValues(backend, operation).Observe(time.Since(started).Seconds())
	if err == nil {
		m.QueryResults.WithLabelValues(backend, operation).Observe(float64(results))
	}
}

// RecordLoad records a snapshot load and, on success, the loaded sizes.
func (m *Metrics) RecordLoad(backend string, triples, components int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.LoadsTotal.WithLabelValues(backend, StatusError).Inc()
		return
	}
	m.LoadsTotal.WithLabelValues(backend, StatusOK).Inc()
	m.TriplesLoaded.WithLabelValues(backend).Set(float64(triples))
	m.Components.WithLabelValues(backend).Set(float64(components))
}

// RecordUpload records a bootstrap upload attempt.
func (m *Metrics) RecordUpload(err error) {
	if m == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.UploadsTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(route string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, httpCode(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordNATSRequest records a served NATS request.
func (m *Metrics) RecordNATSRequest(subject string, err error) {
	if m == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.NATSRequests.WithLabelValues(subject, status).Inc()
}

// RecordNATSStatus updates NATS connection status
func (m *Metrics) RecordNATSStatus(connected bool) {
	if m == nil {
		return
	}
	value := 0.0
	if connected {
		value = 1.0
	}
	m.NATSConnected.Set(value)
}

// AddWebSocketClients adjusts the websocket client gauge by delta.
func (m *Metrics) AddWebSocketClients(delta int) {
	if m == nil {
		return
	}
	m.WebSocketClient.Add(float64(delta))
}

func httpCode(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
