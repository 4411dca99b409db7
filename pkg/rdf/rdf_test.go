package rdf

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `# a comment
<http://ex.org/a> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <http://ex.org/b> .
<http://ex.org/a> <http://www.w3.org/2000/01/rdf-schema#label> "alpha \"one\""@en .
<http://ex.org/a> <http://ex.org/count> "3"^^<http://www.w3.org/2001/XMLSchema#integer> .

_:x <http://ex.org/p> _:y .
<http://ex.org/c> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <http://ex.org/b> .
<http://ex.org/a> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <http://ex.org/b> .
`

const turtleSample = `@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix ex: <http://ex.org/> .

ex:a rdfs:subClassOf ex:b ;
    rdfs:label "alpha"@en .
_:x ex:p _:y .
`

const rdfXMLSample = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#">
  <rdf:Description rdf:about="http://purl.obolibrary.org/obo/HP_0000003">
    <rdfs:subClassOf rdf:resource="http://purl.obolibrary.org/obo/UPHENO_0001001"/>
    <rdfs:label>Multicystic kidney dysplasia</rdfs:label>
  </rdf:Description>
</rdf:RDF>
`

func decodeAll(t *testing.T, src string, syntax Syntax) []Triple {
	t.Helper()
	dec := NewDecoder(strings.NewReader(src), syntax)
	var out []Triple
	for {
		tr, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, tr)
	}
}

func TestDecoderTerms(t *testing.T) {
	got := decodeAll(t, sample, NTriples)
	require.Len(t, got, 6)

	assert.Equal(t, IRI("http://ex.org/a"), got[0].Subject)
	assert.Equal(t, IRI("http://ex.org/b"), got[0].Object)
	assert.Equal(t, LangLiteral(`alpha "one"`, "en"), got[1].Object)
	assert.Equal(t, TypedLiteral("3", "http://www.w3.org/2001/XMLSchema#integer"), got[2].Object)
	assert.Equal(t, Blank("x"), got[3].Subject)
	assert.Equal(t, Blank("y"), got[3].Object)
}

func TestDecoderEscapes(t *testing.T) {
	got := decodeAll(t, `<http://ex.org/s> <http://ex.org/p> "tab\there\nline \u00E9" .`+"\n", NTriples)
	require.Len(t, got, 1)
	assert.Equal(t, "tab\there\nline é", got[0].Object.Value)
	assert.Empty(t, got[0].Object.Datatype, "plain literals carry no datatype")
}

func TestDecoderTurtle(t *testing.T) {
	s := NewStore()
	_, err := s.Read(strings.NewReader(turtleSample), Turtle)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"http://ex.org/b"}, s.Objects("http://ex.org/a", "http://www.w3.org/2000/01/rdf-schema#subClassOf"))
	v, ok := s.Value(IRI("http://ex.org/a"), "http://www.w3.org/2000/01/rdf-schema#label")
	require.True(t, ok)
	assert.Equal(t, LangLiteral("alpha", "en"), v)
}

func TestDecoderRDFXML(t *testing.T) {
	got := decodeAll(t, rdfXMLSample, RDFXML)
	require.Len(t, got, 2)

	s := NewStore()
	for _, tr := range got {
		s.Add(tr)
	}
	assert.Equal(t, []string{"http://purl.obolibrary.org/obo/UPHENO_0001001"},
		s.Objects("http://purl.obolibrary.org/obo/HP_0000003", "http://www.w3.org/2000/01/rdf-schema#subClassOf"))
}

func TestDecoderSyntaxErrors(t *testing.T) {
	cases := map[string]string{
		"literal subject":  `"a" <http://ex.org/p> <http://ex.org/o> .`,
		"blank predicate":  `<http://ex.org/s> _:p <http://ex.org/o> .`,
		"unterminated iri": `<http://ex.org/s <http://ex.org/p> <http://ex.org/o> .`,
		"unterminated lit": `<http://ex.org/s> <http://ex.org/p> "abc .`,
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			dec := NewDecoder(strings.NewReader(line+"\n"), NTriples)
			_, err := dec.Next()
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestSyntaxOf(t *testing.T) {
	tests := map[string]Syntax{
		"hp.nt":        NTriples,
		"hp.nt.gz":     NTriples,
		"upheno.ttl":   Turtle,
		"HP.OWL":       RDFXML,
		"mondo.rdf.gz": RDFXML,
		"go-plus.xml":  RDFXML,
		"x.ntriples":   NTriples,
		"x.turtle":     Turtle,
	}
	for name, want := range tests {
		got, err := SyntaxOf(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := SyntaxOf("hp.obo")
	assert.ErrorIs(t, err, ErrUnknownSyntax)
}

func TestEncoderRoundTrip(t *testing.T) {
	in := []Triple{
		{Subject: IRI("http://ex.org/a"), Predicate: IRI("http://ex.org/p"), Object: Literal("quote \" slash \\ nl \n")},
		{Subject: Blank("n1"), Predicate: IRI("http://ex.org/p"), Object: LangLiteral("hallo", "de")},
		{Subject: IRI("http://ex.org/a"), Predicate: IRI("http://ex.org/q"), Object: TypedLiteral("v1", "http://ex.org/datatype")},
		{Subject: IRI("http://ex.org/a"), Predicate: IRI("http://ex.org/r"), Object: IRI("http://ex.org/b")},
	}

	for _, syntax := range []Syntax{NTriples, Turtle} {
		t.Run(syntax.String(), func(t *testing.T) {
			var buf bytes.Buffer
			enc, err := NewEncoder(&buf, syntax)
			require.NoError(t, err)
			for _, tr := range in {
				require.NoError(t, enc.Encode(tr))
			}
			require.NoError(t, enc.Close())

			assert.ElementsMatch(t, in, decodeAll(t, buf.String(), syntax))
		})
	}
}

func TestEncoderErrors(t *testing.T) {
	_, err := NewEncoder(io.Discard, RDFXML)
	assert.ErrorIs(t, err, ErrUnsupportedSyntax)

	enc, err := NewEncoder(io.Discard, NTriples)
	require.NoError(t, err)
	err = enc.Encode(Triple{Subject: IRI("http://ex.org/a b"), Predicate: IRI("http://ex.org/p"), Object: Literal("x")})
	assert.Error(t, err, "spaces are not allowed in IRIs")
}

func TestTermString(t *testing.T) {
	assert.Equal(t, "<http://ex.org/a>", IRI("http://ex.org/a").String())
	assert.Equal(t, `"hallo"@de`, LangLiteral("hallo", "de").String())
	tr := Triple{Subject: IRI("http://ex.org/a"), Predicate: IRI("http://ex.org/p"), Object: IRI("http://ex.org/b")}
	assert.Equal(t, "<http://ex.org/a> <http://ex.org/p> <http://ex.org/b> .", tr.String())
}

func TestStoreIndexes(t *testing.T) {
	s := NewStore()
	n, err := s.ReadFrom(strings.NewReader(sample))
	require.NoError(t, err)
	assert.EqualValues(t, 6, n)
	assert.Equal(t, 5, s.Len(), "duplicate statement stored once")

	const subClassOf = "http://www.w3.org/2000/01/rdf-schema#subClassOf"
	const label = "http://www.w3.org/2000/01/rdf-schema#label"

	assert.Equal(t, []string{"http://ex.org/b"}, s.Objects("http://ex.org/a", subClassOf))
	assert.Equal(t, []string{"http://ex.org/a", "http://ex.org/c"}, s.Subjects(subClassOf, "http://ex.org/b"))
	assert.Empty(t, s.Objects("http://ex.org/a", label), "literal objects are not resources")
	assert.Len(t, s.ObjectTerms(IRI("http://ex.org/a"), label), 1)

	v, ok := s.Value(IRI("http://ex.org/a"), label)
	require.True(t, ok)
	assert.Equal(t, "en", v.Lang)
	_, ok = s.Value(IRI("http://ex.org/b"), label)
	assert.False(t, ok)

	assert.Equal(t, []Term{IRI("http://ex.org/a"), Blank("x"), IRI("http://ex.org/c")}, s.SubjectTerms())
	assert.Len(t, s.About(IRI("http://ex.org/a")), 3)

	var count int
	for range s.Triples() {
		count++
	}
	assert.Equal(t, 5, count)
}

func TestStoreWriteTo(t *testing.T) {
	s := NewStore()
	_, err := s.ReadFrom(strings.NewReader(sample))
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := s.WriteTo(&buf)
	require.NoError(t, err)
	assert.EqualValues(t, buf.Len(), n)

	again := NewStore()
	_, err = again.ReadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, s.triples, again.triples)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "a.nt")
	require.NoError(t, os.WriteFile(plain, []byte(sample), 0o644))

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err := w.Write([]byte(`<http://ex.org/z> <http://ex.org/p> <http://ex.org/a> .` + "\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	packed := filepath.Join(dir, "b.nt.gz")
	require.NoError(t, os.WriteFile(packed, gz.Bytes(), 0o644))

	s, err := LoadFiles(plain, packed)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Len())
	assert.Equal(t, []string{"http://ex.org/z"}, s.Subjects("http://ex.org/p", "http://ex.org/a"))

	ttl := filepath.Join(dir, "c.ttl")
	require.NoError(t, os.WriteFile(ttl, []byte(turtleSample), 0o644))
	s, err = LoadFiles(ttl)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	_, err = LoadFiles(filepath.Join(dir, "missing.nt"))
	assert.Error(t, err)
	_, err = LoadFiles(filepath.Join(dir, "a.obo"))
	assert.ErrorIs(t, err, ErrUnknownSyntax)
}
