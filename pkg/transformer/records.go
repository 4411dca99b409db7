package transformer

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-kgx/pkg/graph"
)

// Reserved record fields shared by the tabular, JSON and GraphML codecs.
const (
	fieldID         = "id"
	fieldCategory   = "category"
	fieldSubject    = "subject"
	fieldObject     = "object"
	fieldEdgeLabel  = "edge_label"
	fieldPredicate  = "predicate"
	fieldProvidedBy = "provided_by"
)

var edgeFields = []string{fieldID, fieldSubject, fieldEdgeLabel, fieldObject, fieldProvidedBy}

// nodeFromRecord builds a node from a decoded record. The category value
// must be a string or string collection.
func nodeFromRecord(rec map[string]any) (*graph.Node, error) {
	id, _ := rec[fieldID].(string)
	if id == "" {
		return nil, graph.NewError("parse").Node("").Cause(graph.ErrInvalidID).Err()
	}
	cats, err := graph.Categories(rec[fieldCategory])
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", id, err)
	}
	attrs := make(map[string]any, len(rec))
	for k, v := range rec {
		if k != fieldID && k != fieldCategory {
			attrs[k] = v
		}
	}
	a, err := graph.AttributesOf(attrs)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", id, err)
	}
	return &graph.Node{ID: id, Category: cats, Attributes: a}, nil
}

// edgeFromRecord builds an edge, accepting "predicate" as an alias of
// "edge_label". An "id" field stays an attribute.
func edgeFromRecord(rec map[string]any) (*graph.Edge, error) {
	subj, _ := rec[fieldSubject].(string)
	obj, _ := rec[fieldObject].(string)
	pred, _ := rec[fieldEdgeLabel].(string)
	if pred == "" {
		pred, _ = rec[fieldPredicate].(string)
	}
	if subj == "" || obj == "" {
		return nil, graph.NewError("parse").Edge(subj, pred, obj).Cause(graph.ErrInvalidID).Err()
	}
	provided, _ := rec[fieldProvidedBy].(string)

	attrs := make(map[string]any, len(rec))
	for k, v := range rec {
		switch k {
		case fieldSubject, fieldObject, fieldEdgeLabel, fieldPredicate, fieldProvidedBy:
		default:
			attrs[k] = v
		}
	}
	a, err := graph.AttributesOf(attrs)
	if err != nil {
		return nil, fmt.Errorf("edge %s -> %s: %w", subj, obj, err)
	}
	return &graph.Edge{Subject: subj, Object: obj, Predicate: pred, ProvidedBy: provided, Attributes: a}, nil
}

func nodeRecord(n *graph.Node) map[string]any {
	rec := n.Attributes.ToMap()
	rec[fieldID] = n.ID
	if len(n.Category) > 0 {
		rec[fieldCategory] = slices.Clone(n.Category)
	}
	return rec
}

func edgeRecord(e *graph.Edge) map[string]any {
	rec := e.Attributes.ToMap()
	rec[fieldSubject] = e.Subject
	rec[fieldObject] = e.Object
	rec[fieldEdgeLabel] = e.Predicate
	if e.ProvidedBy != "" {
		rec[fieldProvidedBy] = e.ProvidedBy
	}
	return rec
}

// edgeID returns the edge's "id" attribute, assigning a urn:uuid id first
// when it has none.
func edgeID(e *graph.Edge) string {
	if v, ok := e.Attributes[fieldID]; ok && v.String() != "" {
		return v.String()
	}
	id := "urn:uuid:" + uuid.NewString()
	if e.Attributes == nil {
		e.Attributes = make(graph.Attributes)
	}
	e.Attributes[fieldID] = graph.StringValue(id)
	return id
}

// attributeKeys returns the sorted union of attribute keys, minus reserved.
func attributeKeys[T any](items []T, attrs func(T) graph.Attributes, reserved ...string) []string {
	seen := make(map[string]struct{})
	for _, it := range items {
		for k := range attrs(it) {
			seen[k] = struct{}{}
		}
	}
	for _, r := range reserved {
		delete(seen, r)
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
