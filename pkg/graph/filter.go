package graph

import (
	"fmt"
	"slices"
	"strings"
)

// Location says which element of an edge a filter applies to.
type Location string

const (
	LocationSubject Location = "subject"
	LocationObject  Location = "object"
	LocationEdge    Location = "edge"
)

// Locations lists the valid filter locations.
func Locations() []Location {
	return []Location{LocationSubject, LocationObject, LocationEdge}
}

// ParseLocation validates a location name.
func ParseLocation(s string) (Location, error) {
	l := Location(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Locations(), l) {
		return "", fmt.Errorf("%w: unknown location %q", ErrInvalidFilter, s)
	}
	return l, nil
}

// FilterKind is what a filter compares.
type FilterKind string

const (
	FilterCategory FilterKind = "category"
	FilterLabel    FilterKind = "label"
	FilterProperty FilterKind = "property"
)

// Filter restricts which nodes and edges an adapter loads. A category or
// label filter whose Value is a list matches any of its items.
type Filter struct {
	Location Location
	Kind     FilterKind
	Key      string // property filters only
	Value    Value
}

// Target is the filter's name in set_filter form, e.g. "subject_category".
func (f Filter) Target() string {
	return string(f.Location) + "_" + string(f.Kind)
}

func (f Filter) validate() error {
	if !slices.Contains(Locations(), f.Location) {
		return fmt.Errorf("%w: unknown location %q", ErrInvalidFilter, f.Location)
	}
	switch f.Kind {
	case FilterLabel:
		if f.Location != LocationEdge {
			return fmt.Errorf("%w: label filters apply to edges", ErrInvalidFilter)
		}
	case FilterCategory:
		if f.Location == LocationEdge {
			return fmt.Errorf("%w: category filters apply to nodes", ErrInvalidFilter)
		}
	case FilterProperty:
		if f.Key == "" {
			return fmt.Errorf("%w: property filter without key", ErrInvalidFilter)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidFilter, f.Kind)
	}
	return nil
}

// matches compares the filter against a single attribute value. Property
// filters need an equal value. Category and label filters also match a
// list that contains the filter value.
func (f Filter) matches(v Value, ok bool) bool {
	if !ok {
		return false
	}
	if f.Value.Kind == KindStringList && f.Kind != FilterProperty {
		for _, want := range f.Value.list {
			if v.Contains(want) {
				return true
			}
		}
		return false
	}
	if v.Equal(f.Value) {
		return true
	}
	return f.Kind != FilterProperty && f.Value.Kind == KindString && v.Contains(f.Value.str)
}

// FilterSet is the conjunction of filters consulted while loading. It is
// read-only once loading starts and keeps no state between batches.
type FilterSet struct {
	filters []Filter
}

// NewFilterSet returns a set holding filters.
func NewFilterSet(filters ...Filter) (*FilterSet, error) {
	fs := &FilterSet{}
	for _, f := range filters {
		if err := fs.Add(f); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// Add appends one filter.
func (fs *FilterSet) Add(f Filter) error {
	if err := f.validate(); err != nil {
		return NewError("add").Filter(f.Target()).Cause(err).Err()
	}
	fs.filters = append(fs.filters, f)
	return nil
}

// Set adds filters by target name: subject_category, object_category,
// node_category (both endpoints), edge_label, subject_property,
// object_property or edge_property. Property values are a key/value pair
// given as a two-element slice or as a map of one or more entries.
func (fs *FilterSet) Set(target string, value any) error {
	wrap := func(err error) error {
		return NewError("set").Filter(target).Cause(err).Err()
	}

	loc, kind, ok := strings.Cut(target, "_")
	if !ok {
		return wrap(fmt.Errorf("%w: malformed target", ErrInvalidFilter))
	}

	switch FilterKind(kind) {
	case FilterCategory, FilterLabel:
		v, err := ValueOf(value)
		if err != nil || (v.Kind != KindString && v.Kind != KindStringList) {
			return wrap(fmt.Errorf("%w: %s wants a string or string list, got %T", ErrInvalidFilter, target, value))
		}
		if loc == "node" && FilterKind(kind) == FilterCategory {
			if err := fs.Add(Filter{Location: LocationSubject, Kind: FilterCategory, Value: v}); err != nil {
				return err
			}
			return fs.Add(Filter{Location: LocationObject, Kind: FilterCategory, Value: v})
		}
		return fs.Add(Filter{Location: Location(loc), Kind: FilterKind(kind), Value: v})

	case FilterProperty:
		pairs, err := propertyPairs(value)
		if err != nil {
			return wrap(err)
		}
		for _, p := range pairs {
			if err := fs.Add(Filter{Location: Location(loc), Kind: FilterProperty, Key: p.key, Value: p.value}); err != nil {
				return err
			}
		}
		return nil
	}
	return wrap(fmt.Errorf("%w: unknown target", ErrInvalidFilter))
}

type pair struct {
	key   string
	value Value
}

func propertyPairs(raw any) ([]pair, error) {
	switch x := raw.(type) {
	case [2]string:
		return []pair{{key: x[0], value: StringValue(x[1])}}, nil
	case []string:
		if len(x) == 2 {
			return []pair{{key: x[0], value: StringValue(x[1])}}, nil
		}
	case []any:
		if len(x) == 2 {
			k, ok := x[0].(string)
			if ok {
				v, err := ValueOf(x[1])
				if err != nil {
					return nil, err
				}
				return []pair{{key: k, value: v}}, nil
			}
		}
	case map[string]any:
		out := make([]pair, 0, len(x))
		for _, k := range sortedKeys(x) {
			v, err := ValueOf(x[k])
			if err != nil {
				return nil, err
			}
			out = append(out, pair{key: k, value: v})
		}
		return out, nil
	case map[string]string:
		out := make([]pair, 0, len(x))
		for _, k := range sortedKeys(x) {
			out = append(out, pair{key: k, value: StringValue(x[k])})
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: property filter wants a key/value pair, got %T", ErrInvalidFilter, raw)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of filters.
func (fs *FilterSet) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.filters)
}

// All returns a copy of every filter in insertion order.
func (fs *FilterSet) All() []Filter {
	if fs == nil {
		return nil
	}
	return slices.Clone(fs.filters)
}

// At returns the filters for one location.
func (fs *FilterSet) At(loc Location) []Filter {
	if fs == nil {
		return nil
	}
	var out []Filter
	for _, f := range fs.filters {
		if f.Location == loc {
			out = append(out, f)
		}
	}
	return out
}

// AdmitNode reports whether n passes every category and property filter
// for loc. A nil node passes only when there are no such filters.
func (fs *FilterSet) AdmitNode(loc Location, n *Node) bool {
	if fs == nil {
		return true
	}
	for _, f := range fs.filters {
		if f.Location != loc {
			continue
		}
		if n == nil {
			return false
		}
		switch f.Kind {
		case FilterCategory:
			if !f.matches(n.Get(KeyCategory)) {
				return false
			}
		case FilterProperty:
			if !f.matches(n.Get(f.Key)) {
				return false
			}
		}
	}
	return true
}

// AdmitEdge reports whether e passes every edge filter and its endpoints
// pass the subject and object filters.
func (fs *FilterSet) AdmitEdge(e *Edge, subject, object *Node) bool {
	if fs == nil {
		return true
	}
	for _, f := range fs.At(LocationEdge) {
		switch f.Kind {
		case FilterLabel:
			if !f.matches(StringValue(e.Predicate), true) {
				return false
			}
		case FilterProperty:
			v, ok := e.Attributes[f.Key]
			if f.Key == "predicate" || f.Key == "edge_label" {
				v, ok = StringValue(e.Predicate), true
			}
			if !f.matches(v, ok) {
				return false
			}
		}
	}
	return fs.AdmitNode(LocationSubject, subject) && fs.AdmitNode(LocationObject, object)
}

// Categories normalizes a raw category value read from a source. Strings,
// string collections and nil are accepted; anything else is
// ErrInvalidCategory.
func Categories(raw any) ([]string, error) {
	switch x := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if x == "" {
			return nil, nil
		}
		return []string{x}, nil
	case []string:
		return slices.Clone(x), nil
	case Value:
		if x.Kind == KindString || x.Kind == KindStringList {
			return Categories(x.Interface())
		}
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, NewError("parse").Field(KeyCategory).
					Cause(fmt.Errorf("%w: list element of type %T", ErrInvalidCategory, e)).Err()
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, NewError("parse").Field(KeyCategory).
		Cause(fmt.Errorf("%w: %T", ErrInvalidCategory, raw)).Err()
}
