package graph

import (
	"slices"

	"github.com/dd0wney/cluso-kgx/pkg/logging"
)

// MapIdentifiers rewrites node ids and edge endpoints through table. Ids
// absent from the table are left alone. Nodes that end up sharing an id are
// merged in graph order; when required keys disagree a *ConflictError is
// returned and g is not modified. With preserve, each renamed node keeps
// its former id under "source_id" (a list when several collapse).
func MapIdentifiers(g *Graph, table map[string]string, preserve bool, opts ...MergeOption) error {
	cfg := newMergeConfig(opts)
	timer := logging.StartTimer(cfg.logger, "map_identifiers", logging.Count(len(table)))

	target := func(id string) string {
		if to, ok := table[id]; ok && to != "" {
			return to
		}
		return id
	}

	groups := make(map[string][]*Node)
	var order []string
	for _, id := range g.order {
		to := target(id)
		if _, ok := groups[to]; !ok {
			order = append(order, to)
		}
		groups[to] = append(groups[to], g.nodes[id])
	}

	var conflicts []Conflict
	for _, to := range order {
		if members := groups[to]; len(members) > 1 {
			conflicts = append(conflicts, cfg.conflicts(to, members)...)
		}
	}
	if len(conflicts) > 0 {
		cfg.metrics.RecordMergeConflicts(len(conflicts))
		err := &ConflictError{Op: "map", Conflicts: conflicts}
		timer.EndError(err)
		return err
	}

	rewrites := 0
	nodes := make(map[string]*Node, len(order))
	for _, to := range order {
		var merged *Node
		var former []string
		for _, n := range groups[to] {
			if n.ID != to {
				former = append(former, n.ID)
				rewrites++
			}
			if merged == nil {
				merged = n
				continue
			}
			if len(n.Category) > 0 {
				merged.Category = n.Category
			}
			merged.Attributes.Update(n.Attributes)
		}
		merged.ID = to
		if preserve && len(former) > 0 {
			merged.Attributes[KeySourceID] = sourceIDs(merged.Attributes, former)
		}
		nodes[to] = merged
	}

	for _, e := range g.edges {
		e.Subject = target(e.Subject)
		e.Object = target(e.Object)
	}
	g.nodes = nodes
	g.order = order

	cfg.metrics.RecordMappingRewrites(rewrites)
	timer.End(logging.Int("rewritten", rewrites), logging.Int("nodes", len(order)))
	return nil
}

// sourceIDs combines an existing source_id attribute with newly replaced ids.
func sourceIDs(attrs Attributes, former []string) Value {
	var ids []string
	if v, ok := attrs[KeySourceID]; ok {
		ids = v.Strings()
	}
	for _, id := range former {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 1 {
		return StringValue(ids[0])
	}
	return ListValue(ids...)
}
