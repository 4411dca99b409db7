package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTransformMetrics() {
	r.NodesLoadedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "kgx_nodes_loaded_total",
			Help: "Nodes admitted into a graph by a format adapter",
		},
		[]string{"format"},
	)

	r.EdgesLoadedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "kgx_edges_loaded_total",
			Help: "Edges admitted into a graph by a format adapter",
		},
		[]string{"format"},
	)

	r.FilterRejectionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "kgx_filter_rejections_total",
			Help: "Candidates rejected by the active filters",
		},
		[]string{"location"},
	)

	r.TransformsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "kgx_transforms_total",
			Help: "Parse and save operations by outcome",
		},
		[]string{"operation", "format", "status"},
	)

	r.TransformDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kgx_transform_duration_seconds",
			Help:    "Parse and save duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"operation", "format"},
	)
}
