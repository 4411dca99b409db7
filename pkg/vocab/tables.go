// Package vocab holds the fixed lookup tables that translate raw RDF
// identifiers into the labels used by the graph model: predicate labels,
// node categories and attribute names.
//
// Tables are built once, at process start, and are read-only afterwards.
// They are passed by reference to the components that need them.
package vocab

import (
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTablesYAML string

// Table is an immutable IRI to label mapping. Keys match case-insensitively
// against the full IRI, never against a compact form.
type Table struct {
	labels map[string]string // lower-cased IRI -> label
	keys   []string          // original IRIs, sorted
}

// NewTable builds a table from an IRI to label map. Two keys that differ
// only by case must carry the same label.
func NewTable(entries map[string]string) (Table, error) {
	t := Table{
		labels: make(map[string]string, len(entries)),
		keys:   make([]string, 0, len(entries)),
	}
	for iri, label := range entries {
		folded := strings.ToLower(iri)
		if prev, ok := t.labels[folded]; ok && prev != label {
			return Table{}, fmt.Errorf("%w: %q maps to both %q and %q", ErrAmbiguousEntry, iri, prev, label)
		}
		t.labels[folded] = label
		t.keys = append(t.keys, iri)
	}
	sort.Strings(t.keys)
	return t, nil
}

// Lookup returns the label for iri.
func (t Table) Lookup(iri string) (string, bool) {
	label, ok := t.labels[strings.ToLower(iri)]
	return label, ok
}

// Len returns the number of entries.
func (t Table) Len() int {
	return len(t.keys)
}

// Keys returns the table's IRIs in sorted order.
func (t Table) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Reverse returns every IRI mapped to label, sorted.
func (t Table) Reverse(label string) []string {
	var out []string
	for _, iri := range t.keys {
		if l, _ := t.Lookup(iri); l == label {
			out = append(out, iri)
		}
	}
	return out
}

// Tables groups the three lookup tables consulted during RDF ingestion.
type Tables struct {
	Version    int
	Predicates Table
	Categories Table
	Properties Table
}

type tablesDocument struct {
	Version    int               `yaml:"version"`
	Predicates map[string]string `yaml:"predicates"`
	Categories map[string]string `yaml:"categories"`
	Properties map[string]string `yaml:"properties"`
}

// Load parses a YAML tables document.
func Load(r io.Reader) (*Tables, error) {
	var doc tablesDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}

	tables := &Tables{Version: doc.Version}
	var err error
	if tables.Predicates, err = NewTable(doc.Predicates); err != nil {
		return nil, fmt.Errorf("predicates: %w", err)
	}
	if tables.Categories, err = NewTable(doc.Categories); err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	if tables.Properties, err = NewTable(doc.Properties); err != nil {
		return nil, fmt.Errorf("properties: %w", err)
	}
	return tables, nil
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// Default returns the tables shipped with the binary. The embedded document
// is covered by tests, so a decode failure here is a build defect.
func Default() *Tables {
	defaultOnce.Do(func() {
		t, err := Load(strings.NewReader(defaultTablesYAML))
		if err != nil {
			panic(fmt.Sprintf("vocab: embedded tables: %v", err))
		}
		defaultTables = t
	})
	return defaultTables
}

// Label maps a raw identifier to a human label. The predicate table is
// consulted first, then categories, then properties. Unknown identifiers
// come back unchanged.
func (t *Tables) Label(iri string) string {
	for _, table := range []Table{t.Predicates, t.Categories, t.Properties} {
		if label, ok := table.Lookup(iri); ok {
			return label
		}
	}
	return iri
}

// Category returns the category label for iri, if the category table has one.
func (t *Tables) Category(iri string) (string, bool) {
	return t.Categories.Lookup(iri)
}

// Property returns the attribute name for a property IRI.
func (t *Tables) Property(iri string) (string, bool) {
	return t.Properties.Lookup(iri)
}

// PropertyIRIs returns the property IRIs that map to an attribute name.
func (t *Tables) PropertyIRIs(name string) []string {
	return t.Properties.Reverse(name)
}
