package ontology

// Source answers the two triple-pattern queries category inference needs.
// rdf.Store implements it.
type Source interface {
	// Objects returns o for every (subject, predicate, o) triple.
	Objects(subject, predicate string) []string
	// Subjects returns s for every (s, predicate, object) triple.
	Subjects(predicate, object string) []string
}

// hierarchy is the successor function used for category inference. It
// crosses equivalence edges in both directions at weight 0 and follows
// is-a edges upward at weight 1.
type hierarchy struct {
	sources     []Source
	equivalence []string
	isA         []string
	ignored     map[string]struct{}
}

func (h hierarchy) Successors(node string) []Step {
	var out []Step
	add := func(n string, weight int) {
		if _, skip := h.ignored[n]; skip {
			return
		}
		out = append(out, Step{Node: n, Score: weight})
	}

	for _, src := range h.sources {
		for _, p := range h.equivalence {
			for _, n := range src.Subjects(p, node) {
				add(n, 0)
			}
			for _, n := range src.Objects(node, p) {
				add(n, 0)
			}
		}
		for _, p := range h.isA {
			for _, n := range src.Objects(node, p) {
				add(n, 1)
			}
		}
	}
	return out
}
