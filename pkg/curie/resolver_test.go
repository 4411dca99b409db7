package curie

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePicksSmallestCURIE(t *testing.T) {
	r := Default()

	// Both GO: and OBO: apply; GO:0008150 sorts first.
	iri := "http://purl.obolibrary.org/obo/GO_0008150"
	assert.Equal(t, []string{"GO:0008150", "OBO:GO_0008150"}, r.Contract(iri))
	assert.Equal(t, "GO:0008150", r.Resolve(iri))
}

func TestResolvePassesThroughUnknownIRIs(t *testing.T) {
	r := Default()
	iri := "http://example.org/nothing/here"
	assert.Empty(t, r.Contract(iri))
	assert.Equal(t, iri, r.Resolve(iri))
}

func TestContractIgnoresBareNamespace(t *testing.T) {
	r := NewResolver(PrefixMap{"ex": "http://example.org/"})
	assert.Empty(t, r.Contract("http://example.org/"))
	assert.Equal(t, []string{"ex:a"}, r.Contract("http://example.org/a"))
}

func TestContractDeduplicatesAcrossMaps(t *testing.T) {
	r := NewResolver(
		PrefixMap{"ex": "http://example.org/"},
		PrefixMap{"ex": "http://example.org/", "EX": "http://example.org/"},
	)
	assert.Equal(t, []string{"EX:1", "ex:1"}, r.Contract("http://example.org/1"))
	assert.Equal(t, "EX:1", r.Resolve("http://example.org/1"))
}

func TestResolverIsIsolatedFromCallerMaps(t *testing.T) {
	m := PrefixMap{"ex": "http://example.org/"}
	r := NewResolver(m)
	m["aaa"] = "http://example.org/"
	assert.Equal(t, "ex:1", r.Resolve("http://example.org/1"))
}

func TestExpand(t *testing.T) {
	r := Default()

	tests := []struct {
		curie string
		want  string
		ok    bool
	}{
		{"MONDO:0000001", "http://purl.obolibrary.org/obo/MONDO_0000001", true},
		{"rdfs:label", "http://www.w3.org/2000/01/rdf-schema#label", true},
		{"MGI:97490", "http://www.informatics.jax.org/accession/MGI:97490", true},
		{"NOPE:1", "", false},
		{"http://example.org/a", "", false},
		{"no-colon", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.curie, func(t *testing.T) {
			got, ok := r.Expand(tt.curie)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsCURIE(t *testing.T) {
	assert.True(t, IsCURIE("HP:0000118"))
	assert.True(t, IsCURIE("biolink:Gene"))
	assert.False(t, IsCURIE("http://example.org/x"))
	assert.False(t, IsCURIE(":x"))
	assert.False(t, IsCURIE("x:"))
	assert.False(t, IsCURIE("plain"))
	assert.Equal(t, "HP", Prefix("HP:0000118"))
	assert.Equal(t, "", Prefix("http://example.org/x"))
}

func TestLoadPrefixes(t *testing.T) {
	maps, err := LoadPrefixes(strings.NewReader(`
- name: a
  prefixes:
    ex: http://example.org/
`))
	require.NoError(t, err)
	require.Len(t, maps, 1)
	assert.Equal(t, "a", maps[0].Name)

	_, err = LoadPrefixes(strings.NewReader("- name: empty\n"))
	assert.Error(t, err)
}

// Resolution must not depend on map iteration order: for any local id the
// result is stable across calls and is the minimum of all candidates.
func TestResolveDeterminismProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	r := NewResolver(
		PrefixMap{"b": "http://example.org/ns/", "OBO": "http://example.org/"},
		PrefixMap{"a": "http://example.org/ns/", "Z": "http://example.org/ns/x"},
	)

	properties.Property("resolve is stable and minimal", prop.ForAll(
		func(local string) bool {
			iri := "http://example.org/ns/" + local
			first := r.Resolve(iri)
			for i := 0; i < 5; i++ {
				if r.Resolve(iri) != first {
					return false
				}
			}
			for _, c := range r.Contract(iri) {
				if c < first {
					return false
				}
			}
			return first == "OBO:ns/"+local
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
	))

	properties.TestingRun(t)
}
