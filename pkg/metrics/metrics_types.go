// Package metrics holds the Prometheus collectors kgx reports to. A run's
// metrics are written once, as a textfile, when the CLI exits.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry groups the collectors of one run. Every Record method accepts
// a nil *Registry.
type Registry struct {
	// Format adapters
	NodesLoadedTotal      *prometheus.CounterVec
	EdgesLoadedTotal      *prometheus.CounterVec
	FilterRejectionsTotal *prometheus.CounterVec
	TransformsTotal       *prometheus.CounterVec
	TransformDuration     *prometheus.HistogramVec

	// Ontology
	InferencesTotal *prometheus.CounterVec
	WalkSteps       prometheus.Histogram

	// Merge and mapping
	GraphNodes           prometheus.Gauge
	GraphEdges           prometheus.Gauge
	MergeConflictsTotal  prometheus.Counter
	MappingRewritesTotal prometheus.Counter

	registry *prometheus.Registry
}

// NewRegistry builds a registry with every kgx collector plus the Go
// runtime collector.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.registry.MustRegister(collectors.NewGoCollector())

	r.initTransformMetrics()
	r.initInferenceMetrics()
	r.initGraphMetrics()
	return r
}

// Gatherer exposes the collected metrics, e.g. for promhttp or tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
