package rdf

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	krdf "github.com/knakk/rdf"
)

var (
	// ErrSyntax wraps every decode failure.
	ErrSyntax = errors.New("rdf syntax error")
	// ErrUnknownSyntax is returned for file names that imply no syntax.
	ErrUnknownSyntax = errors.New("unrecognized rdf syntax")
	// ErrUnsupportedSyntax is returned when a syntax can be read but not written.
	ErrUnsupportedSyntax = errors.New("rdf syntax cannot be written")
)

const (
	xsdString     = "http://www.w3.org/2001/XMLSchema#string"
	rdfLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
)

// Syntax is an RDF serialization.
type Syntax uint8

const (
	NTriples Syntax = iota
	Turtle
	RDFXML
)

var syntaxNames = [...]string{NTriples: "N-Triples", Turtle: "Turtle", RDFXML: "RDF/XML"}

func (s Syntax) String() string {
	if int(s) < len(syntaxNames) {
		return syntaxNames[s]
	}
	return "unknown"
}

func (s Syntax) format() krdf.Format {
	switch s {
	case Turtle:
		return krdf.Turtle
	case RDFXML:
		return krdf.RDFXML
	default:
		return krdf.NTriples
	}
}

// SyntaxOf picks the syntax implied by a file name, looking through a
// trailing .gz.
func SyntaxOf(name string) (Syntax, error) {
	lower := strings.TrimSuffix(strings.ToLower(name), ".gz")
	switch path.Ext(lower) {
	case ".nt", ".ntriples":
		return NTriples, nil
	case ".ttl", ".turtle":
		return Turtle, nil
	case ".rdf", ".owl", ".xml":
		return RDFXML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSyntax, name)
}

// Decoder reads triples one statement at a time.
type Decoder struct {
	dec krdf.TripleDecoder
}

func NewDecoder(r io.Reader, syntax Syntax) *Decoder {
	return &Decoder{dec: krdf.NewTripleDecoder(r, syntax.format())}
}

// Next returns the next triple, or io.EOF when the input is exhausted.
func (d *Decoder) Next() (Triple, error) {
	t, err := d.dec.Decode()
	if errors.Is(err, io.EOF) {
		return Triple{}, io.EOF
	}
	if err != nil {
		return Triple{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return Triple{
		Subject:   fromTerm(t.Subj),
		Predicate: fromTerm(t.Pred),
		Object:    fromTerm(t.Obj),
	}, nil
}

func fromTerm(t krdf.Term) Term {
	switch v := t.(type) {
	case krdf.IRI:
		return IRI(v.String())
	case krdf.Blank:
		return Blank(strings.TrimPrefix(v.String(), "_:"))
	case krdf.Literal:
		out := Literal(v.String())
		if lang := v.Lang(); lang != "" {
			out.Lang = lang
			return out
		}
		if dt := v.DataType.String(); dt != xsdString && dt != rdfLangString {
			out.Datatype = dt
		}
		return out
	}
	return Literal(t.String())
}

// term converts t for encoding. IRIs and language tags are validated.
func (t Term) term() (krdf.Term, error) {
	switch t.Kind {
	case KindIRI:
		iri, err := krdf.NewIRI(t.Value)
		if err != nil {
			return nil, err
		}
		return iri, nil
	case KindBlank:
		b, err := krdf.NewBlank(t.Value)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	switch {
	case t.Lang != "":
		l, err := krdf.NewLangLiteral(t.Value, t.Lang)
		if err != nil {
			return nil, err
		}
		return l, nil
	case t.Datatype != "":
		dt, err := krdf.NewIRI(t.Datatype)
		if err != nil {
			return nil, err
		}
		return krdf.NewTypedLiteral(t.Value, dt), nil
	}
	l, err := krdf.NewLiteral(t.Value)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (t Triple) triple() (krdf.Triple, error) {
	s, err := t.Subject.term()
	if err != nil {
		return krdf.Triple{}, fmt.Errorf("subject: %w", err)
	}
	p, err := t.Predicate.term()
	if err != nil {
		return krdf.Triple{}, fmt.Errorf("predicate: %w", err)
	}
	o, err := t.Object.term()
	if err != nil {
		return krdf.Triple{}, fmt.Errorf("object: %w", err)
	}
	subj, okS := s.(krdf.Subject)
	pred, okP := p.(krdf.Predicate)
	obj, okO := o.(krdf.Object)
	if !okS || !okP || !okO {
		return krdf.Triple{}, fmt.Errorf("%w: %s", ErrSyntax, t)
	}
	return krdf.Triple{Subj: subj, Pred: pred, Obj: obj}, nil
}

// Encoder writes triples in N-Triples or Turtle.
type Encoder struct {
	enc *krdf.TripleEncoder
}

// NewEncoder writes to w. Call Close when done to flush.
func NewEncoder(w io.Writer, syntax Syntax) (*Encoder, error) {
	if syntax == RDFXML {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSyntax, syntax)
	}
	return &Encoder{enc: krdf.NewTripleEncoder(w, syntax.format())}, nil
}

func (e *Encoder) Encode(t Triple) error {
	kt, err := t.triple()
	if err != nil {
		return err
	}
	return e.enc.Encode(kt)
}

// Close flushes buffered output. The underlying writer stays open.
func (e *Encoder) Close() error {
	return e.enc.Close()
}
