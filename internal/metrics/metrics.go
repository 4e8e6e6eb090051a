// Package metrics exposes Prometheus instrumentation for the dashboard
// service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service's Prometheus collectors behind a dedicated
// registry so tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	TransactionsCreated *prometheus.CounterVec
	AnalysisBuilds      prometheus.Counter
	EventsPublished     prometheus.Counter
	EventPublishErrors  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moneybook_http_requests_total",
			Help: "HTTP requests by method, path and status code.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "moneybook_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		TransactionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moneybook_transactions_created_total",
			Help: "Transactions recorded, by type.",
		}, []string{"type"}),
		AnalysisBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moneybook_analysis_builds_total",
			Help: "Analysis reports computed.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moneybook_events_published_total",
			Help: "Transaction events published to the broker.",
		}),
		EventPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moneybook_event_publish_errors_total",
			Help: "Failed event publish attempts.",
		}),
	}
	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.TransactionsCreated,
		m.AnalysisBuilds,
		m.EventsPublished,
		m.EventPublishErrors,
	)
	return m
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument wraps an HTTP handler with request counting and latency
// observation. The path label uses the route pattern, not the raw URL, to
// keep cardinality bounded.
func (m *Metrics) Instrument(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		m.httpRequests.WithLabelValues(r.Method, pattern, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
