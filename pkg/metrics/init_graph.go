package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "kgx_graph_nodes",
			Help: "Nodes in the most recently reported graph",
		},
	)

	r.GraphEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "kgx_graph_edges",
			Help: "Edges in the most recently reported graph",
		},
	)

	r.MergeConflictsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "kgx_merge_conflicts_total",
			Help: "Required-attribute conflicts found while merging or remapping",
		},
	)

	r.MappingRewritesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "kgx_mapping_rewrites_total",
			Help: "Node identifiers rewritten by a mapping table",
		},
	)
}
