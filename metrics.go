package featuregate

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the engine's Prometheus collectors. They live in their own
// registry (not the global default) so hosting applications choose what to
// expose.
type Metrics struct {
	Registry *prometheus.Registry

	EvaluationsTotal   *prometheus.CounterVec
	CacheHitsTotal     prometheus.Counter
	InvalidationsTotal prometheus.Counter
	RegisteredFeatures prometheus.Gauge
}

// NewMetrics creates and registers all engine metrics in a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "featuregate_evaluations_total",
			Help: "Total number of non-cached constraint evaluations, by overall result.",
		}, []string{"result"}),

		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "featuregate_cache_hits_total",
			Help: "Total number of evaluations answered from the result cache.",
		}),

		InvalidationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "featuregate_cache_invalidations_total",
			Help: "Total number of cached results dropped by invalidation events.",
		}),

		RegisteredFeatures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "featuregate_registered_features",
			Help: "Number of features with registered constraints.",
		}),
	}

	reg.MustRegister(
		m.EvaluationsTotal,
		m.CacheHitsTotal,
		m.InvalidationsTotal,
		m.RegisteredFeatures,
	)

	return m
}
