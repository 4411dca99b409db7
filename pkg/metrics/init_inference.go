package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initInferenceMetrics() {
	r.InferencesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "kgx_category_inferences_total",
			Help: "Category inferences by outcome (table, fallback, none)",
		},
		[]string{"outcome"},
	)

	r.WalkSteps = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kgx_walk_steps",
			Help:    "Ontology nodes emitted per category inference",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 500},
		},
	)
}
