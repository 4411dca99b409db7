package ontology

import (
	"strings"
	"testing"

	"github.com/dd0wney/cluso-kgx/pkg/curie"
	"github.com/dd0wney/cluso-kgx/pkg/metrics"
	"github.com/dd0wney/cluso-kgx/pkg/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// triples is a minimal Source for tests.
type triples [][3]string

func (ts triples) Objects(subject, predicate string) []string {
	var out []string
	for _, t := range ts {
		if t[0] == subject && t[1] == predicate {
			out = append(out, t[2])
		}
	}
	return out
}

func (ts triples) Subjects(predicate, object string) []string {
	var out []string
	for _, t := range ts {
		if t[1] == predicate && t[2] == object {
			out = append(out, t[0])
		}
	}
	return out
}

const ex = "http://example.org/"

func isa(s, o string) [3]string { return [3]string{ex + s, vocab.RDFSSubClassOf, ex + o} }
func eq(s, o string) [3]string  { return [3]string{ex + s, vocab.OWLEquivalentClass, ex + o} }

func tablesFor(t *testing.T, categories map[string]string) *vocab.Tables {
	t.Helper()
	var b strings.Builder
	b.WriteString("categories:\n")
	for k, v := range categories {
		b.WriteString("  " + ex + k + ": " + v + "\n")
	}
	tables, err := vocab.Load(strings.NewReader(b.String()))
	require.NoError(t, err)
	return tables
}

func TestInferFirstPositiveTableHitWins(t *testing.T) {
	src := triples{isa("A", "B"), isa("B", "C")}

	inf := NewInferencer(tablesFor(t, map[string]string{"C": "disease"}))
	res := inf.Infer(ex+"A", src)
	assert.Equal(t, OutcomeTable, res.Outcome)
	assert.Equal(t, "disease", res.Category)
	assert.Equal(t, 2, res.Score)

	inf = NewInferencer(tablesFor(t, map[string]string{"B": "phenotype", "C": "disease"}))
	category, ok := inf.InferCategory(ex+"A", src)
	require.True(t, ok)
	assert.Equal(t, "phenotype", category)
}

func TestInferSelfReferenceNeedsPositiveScore(t *testing.T) {
	// A is itself in the table but the start node is never emitted, so
	// the category must come from an outgoing is-a edge.
	tables := tablesFor(t, map[string]string{"A": "gene", "T": "gene"})
	inf := NewInferencer(tables)

	category, ok := inf.InferCategory(ex+"A", triples{isa("A", "T")})
	require.True(t, ok)
	assert.Equal(t, "gene", category)

	_, ok = inf.InferCategory(ex+"A", triples{})
	assert.False(t, ok)
}

func TestInferTraversalOrderBeatsDepth(t *testing.T) {
	// After A expands, C is expanded before B, so E (score 3) is found
	// before F (score 2).
	src := triples{
		isa("A", "B"), isa("A", "C"),
		isa("C", "D"), isa("D", "E"),
		isa("B", "F"),
	}
	inf := NewInferencer(tablesFor(t, map[string]string{"E": "deep", "F": "shallow"}))

	res := inf.Infer(ex+"A", src)
	assert.Equal(t, "deep", res.Category)
	assert.Equal(t, 3, res.Score)
}

func TestInferEquivalenceIsFree(t *testing.T) {
	tables := tablesFor(t, map[string]string{"X": "gene", "T": "disease"})
	inf := NewInferencer(tables)

	// X is a table entry but only reachable at score 0.
	res := inf.Infer(ex+"A", triples{eq("A", "X")})
	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, ex+"X", res.Category)
	assert.Equal(t, 0, res.Score)

	// Crossing to X and then up one level scores 1.
	res = inf.Infer(ex+"A", triples{eq("A", "X"), isa("X", "T")})
	assert.Equal(t, OutcomeTable, res.Outcome)
	assert.Equal(t, "disease", res.Category)
	assert.Equal(t, 1, res.Score)

	// Equivalence is followed against the edge direction too.
	res = inf.Infer(ex+"A", triples{eq("X", "A"), isa("X", "T")})
	assert.Equal(t, "disease", res.Category)
}

func TestInferFallbackLastSeenWinsTies(t *testing.T) {
	inf := NewInferencer(tablesFor(t, map[string]string{}))

	res := inf.Infer(ex+"A", triples{isa("A", "B"), isa("A", "C")})
	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, ex+"C", res.Node)
	assert.Equal(t, 1, res.Score)

	res = inf.Infer(ex+"A", triples{isa("A", "B"), isa("B", "D"), isa("A", "C")})
	assert.Equal(t, ex+"D", res.Node)
	assert.Equal(t, 2, res.Score)
}

func TestInferSkipsUniversalRoots(t *testing.T) {
	src := triples{
		{ex + "A", vocab.RDFType, vocab.OWLClass},
		{ex + "A", vocab.RDFSSubClassOf, vocab.HPOPhenotypeRoot},
	}
	inf := NewInferencer(tablesFor(t, map[string]string{}))

	res := inf.Infer(ex+"A", src)
	assert.Equal(t, OutcomeNone, res.Outcome)
	assert.Zero(t, res.Steps)
}

func TestInferAcrossSources(t *testing.T) {
	inf := NewInferencer(tablesFor(t, map[string]string{"C": "disease"}))

	category, ok := inf.InferCategory(ex+"A", triples{isa("A", "B")}, triples{isa("B", "C")})
	require.True(t, ok)
	assert.Equal(t, "disease", category)
}

func TestInferWithResolver(t *testing.T) {
	obo := vocab.OBONamespace
	src := triples{
		{obo + "GO_0000001", vocab.RDFSSubClassOf, obo + "GO_0000002"},
		{obo + "GO_0000002", vocab.RDFSSubClassOf, obo + "GO_0000003"},
	}
	reg := metrics.NewRegistry()
	inf := NewInferencer(vocab.Default(), WithResolver(curie.Default()), WithMetrics(reg))

	res := inf.Infer("GO:0000001", src)
	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, "GO:0000003", res.Category)
	assert.Equal(t, obo+"GO_0000003", res.Node)

	src = append(src, [3]string{obo + "GO_0000003", vocab.RDFSSubClassOf, obo + "GO_0008150"})
	category, ok := inf.InferCategory("GO:0000001", src)
	require.True(t, ok)
	assert.Equal(t, "biological_process", category)
}

func TestCustomPredicates(t *testing.T) {
	partOf := ex + "partOf"
	src := triples{{ex + "A", partOf, ex + "B"}, isa("A", "C")}
	inf := NewInferencer(
		tablesFor(t, map[string]string{"B": "whole", "C": "kind"}),
		WithIsAPredicates(partOf),
		WithEquivalencePredicates(),
	)

	category, ok := inf.InferCategory(ex+"A", src)
	require.True(t, ok)
	assert.Equal(t, "whole", category)
}
