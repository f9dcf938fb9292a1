package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tier labels which store answered or received an operation.
const (
	TierPrimary = "primary"
	TierOverlay = "overlay"
	TierMiss    = "miss"
)

var (
	registry = prometheus.NewRegistry()

	lookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credsafe_lookups_total",
			Help: "Credential lookups by the tier that answered",
		},
		[]string{"tier"},
	)

	writesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credsafe_writes_total",
			Help: "Credential writes by destination tier",
		},
		[]string{"tier"},
	)

	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credsafe_transitions_total",
			Help: "Store transitions by target kind and result",
		},
		[]string{"kind", "result"},
	)

	fallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credsafe_memory_fallbacks_total",
			Help: "Startup downgrades to the in-memory store by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	registry.MustRegister(
		lookupsTotal,
		writesTotal,
		transitionsTotal,
		fallbacksTotal,
		collectors.NewGoCollector(),
	)
}

func RecordLookup(tier string) {
	lookupsTotal.WithLabelValues(tier).Inc()
}

func RecordWrite(tier string) {
	writesTotal.WithLabelValues(tier).Inc()
}

// RecordTransition records a store transition; result is "ok", "noop" or "error".
func RecordTransition(kind, result string) {
	transitionsTotal.WithLabelValues(kind, result).Inc()
}

func RecordFallback(reason string) {
	fallbacksTotal.WithLabelValues(reason).Inc()
}

// Handler serves the credsafe registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and embedding.
func Registry() *prometheus.Registry {
	return registry
}
