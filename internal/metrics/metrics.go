// Package metrics exposes Prometheus collectors for the scrape pipeline and
// the HTTP surface.
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

// Fetch outcomes recorded per source.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
)

// Metrics owns a registry and the collectors registered on it. Each process
// builds one; tests build their own.
type Metrics struct {
	registry *prometheus.Registry

	sourceFetchTotal           *prometheus.CounterVec
	sourceFetchDurationSeconds *prometheus.HistogramVec
	sourceItemsTotal           *prometheus.CounterVec
	storeAppendTotal           *prometheus.CounterVec
	storeAppendedPostingsTotal prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		sourceFetchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobrake_source_fetch_total",
				Help: "Total number of source searches, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		),
		sourceFetchDurationSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jobrake_source_fetch_duration_seconds",
				Help:    "Histogram of source search latencies, labeled by source.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"source"},
		),
		sourceItemsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobrake_source_items_total",
				Help: "Total number of result cards seen, labeled by source and result (normalized or skipped).",
			},
			[]string{"source", "result"},
		),
		storeAppendTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobrake_store_append_total",
				Help: "Total number of batch appends, labeled by outcome.",
			},
			[]string{"outcome"},
		),
		storeAppendedPostingsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "jobrake_store_appended_postings_total",
				Help: "Total number of postings written to the store.",
			},
		),
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobrake_http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		),
		httpRequestDurationSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jobrake_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"method", "route"},
		),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer returns the underlying registry for tests and custom exporters.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// ObserveSourceFetch records one adapter invocation.
func (m *Metrics) ObserveSourceFetch(source, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.sourceFetchTotal.WithLabelValues(source, outcome).Inc()
	m.sourceFetchDurationSeconds.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveSourceItems records how many cards of one search were kept and skipped.
func (m *Metrics) ObserveSourceItems(source string, normalized, skipped int) {
	if m == nil {
		return
	}
	m.sourceItemsTotal.WithLabelValues(source, "normalized").Add(float64(normalized))
	m.sourceItemsTotal.WithLabelValues(source, "skipped").Add(float64(skipped))
}

// ObserveAppend records one batch write.
func (m *Metrics) ObserveAppend(n int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.storeAppendTotal.WithLabelValues("error").Inc()
		return
	}
	m.storeAppendTotal.WithLabelValues("ok").Inc()
	m.storeAppendedPostingsTotal.Add(float64(n))
}

// ObserveHTTPRequest increments the HTTP request metrics.
func (m *Metrics) ObserveHTTPRequest(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.httpRequestDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}
