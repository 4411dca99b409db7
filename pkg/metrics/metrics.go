package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Record methods accept a nil *Registry so library code can report
// unconditionally.

// RecordLoad adds admitted node and edge counts for a format
func (r *Registry) RecordLoad(format string, nodes, edges int) {
	if r == nil {
		return
	}
	r.NodesLoadedTotal.WithLabelValues(format).Add(float64(nodes))
	r.EdgesLoadedTotal.WithLabelValues(format).Add(float64(edges))
}

// RecordFilterRejection counts one rejected candidate
func (r *Registry) RecordFilterRejection(location string) {
	if r == nil {
		return
	}
	r.FilterRejectionsTotal.WithLabelValues(location).Inc()
}

// RecordTransform records a parse or save with its duration
func (r *Registry) RecordTransform(operation, format string, err error, duration time.Duration) {
	if r == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	r.TransformsTotal.WithLabelValues(operation, format, status).Inc()
	r.TransformDuration.WithLabelValues(operation, format).Observe(duration.Seconds())
}

// RecordInference records the outcome of one category inference and how
// many walk steps it consumed
func (r *Registry) RecordInference(outcome string, steps int) {
	if r == nil {
		return
	}
	r.InferencesTotal.WithLabelValues(outcome).Inc()
	r.WalkSteps.Observe(float64(steps))
}

// SetGraphSize reports the size of a graph
func (r *Registry) SetGraphSize(nodes, edges int) {
	if r == nil {
		return
	}
	r.GraphNodes.Set(float64(nodes))
	r.GraphEdges.Set(float64(edges))
}

// RecordMergeConflicts adds n conflicts
func (r *Registry) RecordMergeConflicts(n int) {
	if r == nil || n == 0 {
		return
	}
	r.MergeConflictsTotal.Add(float64(n))
}

// RecordMappingRewrites adds n rewritten identifiers
func (r *Registry) RecordMappingRewrites(n int) {
	if r == nil || n == 0 {
		return
	}
	r.MappingRewritesTotal.Add(float64(n))
}

// WriteTextfile writes every metric in Prometheus text format, for the
// node-exporter textfile collector
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
