// Package metrics defines the Prometheus collectors used by the blog and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the site.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        prometheus.Histogram
	SearchResultsCount   prometheus.Histogram
	CMSRequestsTotal     *prometheus.CounterVec
	CMSRequestDuration   *prometheus.HistogramVec
	CircuitBreakerState  *prometheus.GaugeVec
	LoginAttemptsTotal   *prometheus.CounterVec
	PostsCreatedTotal    prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates all collectors and registers them on reg. Passing nil uses the
// default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by outcome (hit, zero_result, short, error).",
			},
			[]string{"outcome", "source"},
		),
		SearchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search latency including the corpus fetch.",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of posts matched per search.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		CMSRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cms_requests_total",
				Help: "Calls to the CMS API by operation and outcome.",
			},
			[]string{"operation", "status"},
		),
		CMSRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cms_request_duration_seconds",
				Help:    "CMS API latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_login_attempts_total",
				Help: "Admin login attempts by result (success, invalid, throttled).",
			},
			[]string{"result"},
		),
		PostsCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "posts_created_total",
				Help: "Posts created through the dashboard or API.",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.CMSRequestsTotal,
		m.CMSRequestDuration,
		m.CircuitBreakerState,
		m.LoginAttemptsTotal,
		m.PostsCreatedTotal,
	)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// Handler returns the Prometheus scrape handler for the registry the metrics
// were registered on.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
