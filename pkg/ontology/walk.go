// Package ontology infers node categories by walking an ontology's
// subclass and equivalence edges.
//
// The walk is a lazy frontier traversal: Walk returns a Walker that
// finalizes one node at a time and emits the node's unvisited successors
// with their cumulative scores. Termination depends on the successor
// source being finite; the Walker does not guard against an endless
// supply of new nodes.
package ontology

import "iter"

// Step pairs a node with a score. Successor lists use Score as the edge
// weight; walk output uses it as the cumulative score from the start node.
type Step struct {
	Node  string
	Score int
}

// Successors produces the finite, ordered neighbour list of a node.
type Successors interface {
	Successors(node string) []Step
}

// SuccessorFunc adapts a function to Successors.
type SuccessorFunc func(node string) []Step

// Successors calls f(node).
func (f SuccessorFunc) Successors(node string) []Step {
	return f(node)
}

// Walker is a single-pass enumeration of the nodes reachable from a start
// node. It is not safe for concurrent use and cannot be restarted.
type Walker struct {
	next Successors

	// frontier holds discovered but unfinalized nodes with their best
	// known score. order is the frontier in insertion order; the most
	// recently inserted node is expanded first, and updating a score does
	// not move a node.
	frontier map[string]int
	order    []string
	visited  map[string]int

	pending []Step
	emitted int
}

// Walk starts a traversal at start. Nothing is computed until Next is
// called.
func Walk(start string, next Successors) *Walker {
	return &Walker{
		next:     next,
		frontier: map[string]int{start: 0},
		order:    []string{start},
		visited:  make(map[string]int),
	}
}

// Next returns the next emitted step. The same node may be emitted more
// than once while it sits on the frontier, each time with the score it was
// reached by; once finalized it is never emitted again.
func (w *Walker) Next() (Step, bool) {
	for len(w.pending) == 0 {
		if !w.expand() {
			return Step{}, false
		}
	}
	s := w.pending[0]
	w.pending = w.pending[1:]
	w.emitted++
	return s, true
}

// expand finalizes one frontier node and queues its successors. It reports
// false when the frontier is empty.
func (w *Walker) expand() bool {
	if len(w.order) == 0 {
		return false
	}
	node := w.order[len(w.order)-1]
	w.order = w.order[:len(w.order)-1]
	score := w.frontier[node]
	delete(w.frontier, node)
	w.visited[node] = score

	for _, succ := range w.next.Successors(node) {
		if _, done := w.visited[succ.Node]; done {
			continue
		}
		if _, queued := w.frontier[succ.Node]; !queued {
			w.order = append(w.order, succ.Node)
		}
		w.frontier[succ.Node] = score + succ.Score
		w.pending = append(w.pending, Step{Node: succ.Node, Score: w.frontier[succ.Node]})
	}
	return true
}

// All adapts the walker to a range-over-func sequence of (node, score).
func (w *Walker) All() iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		for {
			s, ok := w.Next()
			if !ok || !yield(s.Node, s.Score) {
				return
			}
		}
	}
}

// Visited returns a copy of the finalized nodes and their scores.
func (w *Walker) Visited() map[string]int {
	out := make(map[string]int, len(w.visited))
	for k, v := range w.visited {
		out[k] = v
	}
	return out
}

// Emitted returns how many steps Next has returned so far.
func (w *Walker) Emitted() int {
	return w.emitted
}
