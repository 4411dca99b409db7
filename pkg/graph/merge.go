package graph

import (
	"slices"

	"github.com/dd0wney/cluso-kgx/pkg/logging"
	"github.com/dd0wney/cluso-kgx/pkg/metrics"
)

// MergeOption configures Merge and MapIdentifiers.
type MergeOption func(*mergeConfig)

type mergeConfig struct {
	required []string
	logger   logging.Logger
	metrics  *metrics.Registry
}

func newMergeConfig(opts []MergeOption) mergeConfig {
	cfg := mergeConfig{
		required: []string{KeyCategory},
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithRequiredKeys sets the attributes that must agree when nodes collapse
// onto one identifier. The default is "category".
func WithRequiredKeys(keys ...string) MergeOption {
	return func(c *mergeConfig) { c.required = slices.Clone(keys) }
}

func WithMergeLogger(l logging.Logger) MergeOption {
	return func(c *mergeConfig) { c.logger = logging.OrNop(l) }
}

func WithMergeMetrics(m *metrics.Registry) MergeOption {
	return func(c *mergeConfig) { c.metrics = m }
}

// conflicts compares the required keys of nodes sharing one identifier.
// Nodes lacking a key do not take part in its comparison.
func (c mergeConfig) conflicts(id string, nodes []*Node) []Conflict {
	var out []Conflict
	for _, key := range c.required {
		var values []Value
		for _, n := range nodes {
			v, ok := n.Get(key)
			if !ok {
				continue
			}
			if !slices.ContainsFunc(values, v.Equal) {
				values = append(values, v)
			}
		}
		if len(values) > 1 {
			out = append(out, Conflict{ID: id, Key: key, Values: values})
		}
	}
	return out
}

// Merge returns the union of graphs. Nodes sharing an id are combined key by
// key with the later graph winning, so the result depends on input order.
// Edges are concatenated and never deduplicated. Required keys that
// disagree are reported as a *ConflictError alongside the merged graph.
func Merge(graphs []*Graph, opts ...MergeOption) (*Graph, error) {
	cfg := newMergeConfig(opts)
	timer := logging.StartTimer(cfg.logger, "merge", logging.Count(len(graphs)))

	out := New()
	seen := make(map[string][]*Node)
	for _, g := range graphs {
		if g == nil {
			continue
		}
		for n := range g.Nodes() {
			seen[n.ID] = append(seen[n.ID], n)
			if _, err := out.AddNode(n, ReplaceCategory()); err != nil {
				timer.EndError(err)
				return nil, err
			}
		}
		for e := range g.Edges() {
			out.edges = append(out.edges, e.Clone())
		}
	}

	var conflicts []Conflict
	for _, id := range out.order {
		if nodes := seen[id]; len(nodes) > 1 {
			conflicts = append(conflicts, cfg.conflicts(id, nodes)...)
		}
	}

	cfg.metrics.SetGraphSize(out.NodeCount(), out.EdgeCount())
	if len(conflicts) > 0 {
		cfg.metrics.RecordMergeConflicts(len(conflicts))
		err := &ConflictError{Op: "merge", Conflicts: conflicts}
		timer.EndError(err)
		return out, err
	}
	timer.End(logging.Int("nodes", out.NodeCount()), logging.Int("edges", out.EdgeCount()))
	return out, nil
}
