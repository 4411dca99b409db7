// Package graph is the in-memory property graph every format adapter reads
// into and writes from, together with load-time filters, graph merging and
// identifier remapping.
package graph

import (
	"iter"
	"slices"
)

// Attribute keys that are stored as fields rather than in Attributes.
const (
	KeyID       = "id"
	KeyCategory = "category"
	// KeySourceID holds the original identifiers of remapped nodes.
	KeySourceID = "source_id"
)

// Node is a graph vertex. ID is fixed once the node is in a graph.
type Node struct {
	ID         string
	Category   []string
	Attributes Attributes
}

// Get returns the node attribute under key, exposing ID and Category under
// their conventional keys.
func (n *Node) Get(key string) (Value, bool) {
	switch key {
	case KeyID:
		return StringValue(n.ID), true
	case KeyCategory:
		if len(n.Category) == 0 {
			return Value{}, false
		}
		return ListValue(n.Category...), true
	}
	v, ok := n.Attributes[key]
	return v, ok
}

// HasCategory reports whether c is one of the node's categories.
func (n *Node) HasCategory(c string) bool {
	return slices.Contains(n.Category, c)
}

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	return &Node{
		ID:         n.ID,
		Category:   slices.Clone(n.Category),
		Attributes: n.Attributes.Clone(),
	}
}

// Edge is a directed, labelled relation between two nodes of the same graph.
// Parallel edges are allowed.
type Edge struct {
	Subject    string
	Object     string
	Predicate  string
	ProvidedBy string
	Attributes Attributes
}

// Clone returns a deep copy.
func (e *Edge) Clone() *Edge {
	c := *e
	c.Attributes = e.Attributes.Clone()
	return &c
}

// AddOption adjusts how AddNode treats an existing node.
type AddOption func(*addConfig)

type addConfig struct {
	replaceCategory bool
}

// ReplaceCategory lets AddNode overwrite a category that is already set.
func ReplaceCategory() AddOption {
	return func(c *addConfig) { c.replaceCategory = true }
}

// Graph holds nodes keyed by id and an edge list. Iteration follows
// insertion order. A Graph is not safe for concurrent mutation.
type Graph struct {
	nodes map[string]*Node
	order []string
	edges []*Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// AddNode inserts n or merges it into the node with the same id. Merged
// attributes overwrite existing keys. A node's category may be assigned
// only once unless ReplaceCategory is given; re-assigning the same
// categories is not an error. The stored node is returned.
func (g *Graph) AddNode(n *Node, opts ...AddOption) (*Node, error) {
	if n == nil || n.ID == "" {
		return nil, NewError("add").Node("").Cause(ErrInvalidID).Err()
	}
	var cfg addConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	existing, ok := g.nodes[n.ID]
	if !ok {
		stored := n.Clone()
		if stored.Attributes == nil {
			stored.Attributes = make(Attributes)
		}
		g.nodes[n.ID] = stored
		g.order = append(g.order, n.ID)
		return stored, nil
	}

	if len(n.Category) > 0 {
		switch {
		case len(existing.Category) == 0, cfg.replaceCategory:
			existing.Category = slices.Clone(n.Category)
		case !slices.Equal(existing.Category, n.Category):
			return existing, NewError("add").Node(n.ID).Field(KeyCategory).Cause(ErrCategoryAlreadySet).Err()
		}
	}
	existing.Attributes.Update(n.Attributes)
	return existing, nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether id is present.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// AddEdge appends e, adding stub nodes for unknown endpoints.
func (g *Graph) AddEdge(e *Edge) error {
	if e == nil || e.Subject == "" || e.Object == "" {
		subj, pred, obj := "", "", ""
		if e != nil {
			subj, pred, obj = e.Subject, e.Predicate, e.Object
		}
		return NewError("add").Edge(subj, pred, obj).Cause(ErrInvalidID).Err()
	}
	for _, id := range []string{e.Subject, e.Object} {
		if !g.HasNode(id) {
			if _, err := g.AddNode(&Node{ID: id}); err != nil {
				return err
			}
		}
	}
	stored := e.Clone()
	if stored.Attributes == nil {
		stored.Attributes = make(Attributes)
	}
	g.edges = append(g.edges, stored)
	return nil
}

// Nodes yields nodes in insertion order.
func (g *Graph) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, id := range g.order {
			if !yield(g.nodes[id]) {
				return
			}
		}
	}
}

// Edges yields edges in insertion order.
func (g *Graph) Edges() iter.Seq[*Edge] {
	return func(yield func(*Edge) bool) {
		for _, e := range g.edges {
			if !yield(e) {
				return
			}
		}
	}
}

func (g *Graph) NodeCount() int { return len(g.nodes) }

func (g *Graph) EdgeCount() int { return len(g.edges) }

// IsEmpty reports whether the graph has neither nodes nor edges.
func (g *Graph) IsEmpty() bool {
	return len(g.nodes) == 0 && len(g.edges) == 0
}

// Clone returns a deep copy.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes: make(map[string]*Node, len(g.nodes)),
		order: slices.Clone(g.order),
		edges: make([]*Edge, len(g.edges)),
	}
	for id, n := range g.nodes {
		c.nodes[id] = n.Clone()
	}
	for i, e := range g.edges {
		c.edges[i] = e.Clone()
	}
	return c
}
