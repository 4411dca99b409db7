// Package curie converts between full IRIs and compact prefixed
// identifiers (CURIEs) using prefix expansion maps supplied at start-up.
package curie

import (
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed prefixes.yaml
var defaultPrefixesYAML string

// PrefixMap maps a CURIE prefix to the IRI it expands to.
type PrefixMap map[string]string

// NamedPrefixMap is a PrefixMap with the name it was published under.
type NamedPrefixMap struct {
	Name     string    `yaml:"name"`
	Prefixes PrefixMap `yaml:"prefixes"`
}

// Resolver contracts and expands identifiers. It is immutable and safe for
// concurrent use.
type Resolver struct {
	maps []PrefixMap
}

// NewResolver copies the given maps. Expand consults them in order.
func NewResolver(maps ...PrefixMap) *Resolver {
	r := &Resolver{maps: make([]PrefixMap, 0, len(maps))}
	for _, m := range maps {
		cp := make(PrefixMap, len(m))
		for k, v := range m {
			cp[k] = v
		}
		r.maps = append(r.maps, cp)
	}
	return r
}

// Contract returns every CURIE the prefix maps can produce for iri, sorted
// and without duplicates. A prefix whose expansion equals the whole IRI does
// not count.
func (r *Resolver) Contract(iri string) []string {
	seen := make(map[string]struct{})
	var curies []string
	for _, m := range r.maps {
		for prefix, expansion := range m {
			if expansion == "" || len(iri) <= len(expansion) || !strings.HasPrefix(iri, expansion) {
				continue
			}
			c := prefix + ":" + iri[len(expansion):]
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			curies = append(curies, c)
		}
	}
	sort.Strings(curies)
	return curies
}

// Resolve returns the lexicographically smallest CURIE for iri, or iri
// itself when no prefix applies. Repeated runs over the same input and
// prefix maps always agree.
func (r *Resolver) Resolve(iri string) string {
	if curies := r.Contract(iri); len(curies) > 0 {
		return curies[0]
	}
	return iri
}

// Expand turns a CURIE back into an IRI using the first map that knows its
// prefix.
func (r *Resolver) Expand(curie string) (string, bool) {
	prefix, local, ok := strings.Cut(curie, ":")
	if !ok || prefix == "" || strings.HasPrefix(local, "//") {
		return "", false
	}
	for _, m := range r.maps {
		if expansion, ok := m[prefix]; ok {
			return expansion + local, true
		}
	}
	return "", false
}

// KnowsPrefix reports whether any map defines prefix.
func (r *Resolver) KnowsPrefix(prefix string) bool {
	for _, m := range r.maps {
		if _, ok := m[prefix]; ok {
			return true
		}
	}
	return false
}

// LoadPrefixes parses a YAML list of named prefix maps.
func LoadPrefixes(rd io.Reader) ([]NamedPrefixMap, error) {
	var maps []NamedPrefixMap
	if err := yaml.NewDecoder(rd).Decode(&maps); err != nil {
		return nil, fmt.Errorf("decode prefixes: %w", err)
	}
	for i, m := range maps {
		if len(m.Prefixes) == 0 {
			return nil, fmt.Errorf("prefix map %d (%q) is empty", i, m.Name)
		}
	}
	return maps, nil
}

var (
	defaultOnce     sync.Once
	defaultResolver *Resolver
)

// Default returns a resolver over the built-in OBO, semantic-web and
// Monarch prefix maps.
func Default() *Resolver {
	defaultOnce.Do(func() {
		named, err := LoadPrefixes(strings.NewReader(defaultPrefixesYAML))
		if err != nil {
			panic(fmt.Sprintf("curie: embedded prefixes: %v", err))
		}
		maps := make([]PrefixMap, len(named))
		for i, n := range named {
			maps[i] = n.Prefixes
		}
		defaultResolver = NewResolver(maps...)
	})
	return defaultResolver
}

// IsCURIE reports whether s has the shape prefix:local without being a
// URL.
func IsCURIE(s string) bool {
	prefix, local, ok := strings.Cut(s, ":")
	return ok && prefix != "" && local != "" && !strings.HasPrefix(local, "//") && !strings.ContainsAny(prefix, "/# ")
}

// Prefix returns the part of a CURIE before the colon, or "" for strings
// that are not CURIEs.
func Prefix(s string) string {
	if !IsCURIE(s) {
		return ""
	}
	prefix, _, _ := strings.Cut(s, ":")
	return prefix
}
