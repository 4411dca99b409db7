// Package rdf is a small RDF model: terms, triples, readers and writers
// for N-Triples, Turtle and RDF/XML, and an indexed in-memory triple store.
package rdf

import krdf "github.com/knakk/rdf"

// TermKind distinguishes the three RDF term kinds.
type TermKind uint8

const (
	KindIRI TermKind = iota
	KindBlank
	KindLiteral
)

// Term is an RDF term. Datatype and Lang apply to literals only.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Lang     string
}

// IRI builds an IRI term.
func IRI(v string) Term { return Term{Kind: KindIRI, Value: v} }

// Blank builds a blank node with the given label (without "_:").
func Blank(label string) Term { return Term{Kind: KindBlank, Value: label} }

// Literal builds a plain string literal.
func Literal(v string) Term { return Term{Kind: KindLiteral, Value: v} }

// TypedLiteral builds a literal with a datatype IRI.
func TypedLiteral(v, datatype string) Term {
	return Term{Kind: KindLiteral, Value: v, Datatype: datatype}
}

// LangLiteral builds a language-tagged literal.
func LangLiteral(v, lang string) Term {
	return Term{Kind: KindLiteral, Value: v, Lang: lang}
}

// IsResource reports whether t can be the subject of a triple.
func (t Term) IsResource() bool {
	return t.Kind == KindIRI || t.Kind == KindBlank
}

// String renders t in N-Triples syntax. Terms that cannot be serialized
// render as their bare value.
func (t Term) String() string {
	kt, err := t.term()
	if err != nil {
		return t.Value
	}
	return kt.Serialize(krdf.NTriples)
}

// Triple is one RDF statement.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// String renders the triple as an N-Triples line without the newline.
func (t Triple) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String() + " ."
}
