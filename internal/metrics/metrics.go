// Package metrics exposes Prometheus instrumentation for the
// market-data service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all service counters and histograms.
type Metrics struct {
	// Outbound calls to the market-data provider, by outcome (ok/error).
	ProviderRequestsTotal *prometheus.CounterVec

	// Cache lookups by kind (stock/fx) and result (hit/miss).
	CacheLookupsTotal *prometheus.CounterVec

	// Responses served from the static fallback tables, by kind.
	FallbackServedTotal *prometheus.CounterVec

	// Background refresh sweeps.
	RefreshDuration       prometheus.Histogram
	RefreshFailuresTotal  prometheus.Counter
	RefreshedEntriesTotal *prometheus.CounterVec
}

// New registers and returns all metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ProviderRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wealthwatch_provider_requests_total",
			Help: "Outbound market-data provider calls by outcome",
		}, []string{"outcome"}),

		CacheLookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wealthwatch_cache_lookups_total",
			Help: "Cache lookups by kind and result",
		}, []string{"kind", "result"}),

		FallbackServedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wealthwatch_fallback_served_total",
			Help: "Responses answered from static fallback data by kind",
		}, []string{"kind"}),

		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wealthwatch_refresh_duration_seconds",
			Help:    "Duration of background cache refresh sweeps",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),

		RefreshFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "wealthwatch_refresh_failures_total",
			Help: "Individual refresh operations that failed during a sweep",
		}),

		RefreshedEntriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wealthwatch_refreshed_entries_total",
			Help: "Cache entries re-warmed by the background scheduler by kind",
		}, []string{"kind"}),
	}
}

// CacheHit records a cache hit for the given kind.
func (m *Metrics) CacheHit(kind string) {
	m.CacheLookupsTotal.WithLabelValues(kind, "hit").Inc()
}

// CacheMiss records a cache miss for the given kind.
func (m *Metrics) CacheMiss(kind string) {
	m.CacheLookupsTotal.WithLabelValues(kind, "miss").Inc()
}

// ProviderCall records the outcome of a provider call.
func (m *Metrics) ProviderCall(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ProviderRequestsTotal.WithLabelValues(outcome).Inc()
}
