package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "historic_weather"

// Metrics holds the Prometheus counters and histograms for the weather service.
type Metrics struct {
	// Provider transport metrics.
	ProviderRequests        *prometheus.CounterVec   // labels: provider, status={2xx,3xx,4xx,5xx,error}
	ProviderRequestDuration *prometheus.HistogramVec // labels: provider
	BreakerState            *prometheus.GaugeVec     // labels: provider; 0 closed, 1 half-open, 2 open

	// Aggregation metrics.
	Units         *prometheus.CounterVec   // labels: provider, outcome
	Queries       *prometheus.CounterVec   // labels: provider, outcome={success,auth_failure,missing_key,error}
	QueryDuration *prometheus.HistogramVec // labels: provider
	QueryRecords  prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={resolved,fallback}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Sink metrics.
	RecordsPublished *prometheus.CounterVec // labels: sink, outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderRequestDuration,
		m.BreakerState,
		m.Units,
		m.Queries,
		m.QueryDuration,
		m.QueryRecords,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.RecordsPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Weather provider HTTP requests by provider and status class.",
		}, []string{"provider", "status"}),
		ProviderRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Weather provider HTTP request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_breaker_state",
			Help:      "Circuit breaker state per provider: 0 closed, 1 half-open, 2 open.",
		}, []string{"provider"}),
		Units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_total",
			Help:      "Query units (days or years) processed by outcome.",
		}, []string{"provider", "outcome"}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Historical queries by provider and outcome.",
		}, []string{"provider", "outcome"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of a complete historical query.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"provider"}),
		QueryRecords: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_records",
			Help:      "Number of records returned per successful query.",
			Buckets:   []float64{0, 1, 10, 50, 100, 365, 1000, 3650},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding lookups by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Reverse geocoding cache lookups by result.",
		}, []string{"result"}),
		RecordsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Weather records handed to sinks by sink and outcome.",
		}, []string{"sink", "outcome"}),
	}
}
