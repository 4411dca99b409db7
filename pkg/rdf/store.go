package rdf

import (
	"errors"
	"io"
	"iter"
)

type spKey struct {
	subject   Term
	predicate string
}

type poKey struct {
	predicate string
	object    Term
}

// Store is an indexed in-memory set of triples. Duplicate statements are
// stored once. Store is not safe for concurrent writers; once loaded it may
// be read from several goroutines.
type Store struct {
	triples  []Triple
	seen     map[Triple]struct{}
	bySP     map[spKey][]Term
	byPO     map[poKey][]Term
	bySubj   map[Term][]int
	subjects []Term
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		seen:   make(map[Triple]struct{}),
		bySP:   make(map[spKey][]Term),
		byPO:   make(map[poKey][]Term),
		bySubj: make(map[Term][]int),
	}
}

// Add inserts t and reports whether it was new.
func (s *Store) Add(t Triple) bool {
	if _, dup := s.seen[t]; dup {
		return false
	}
	s.seen[t] = struct{}{}

	idx := len(s.triples)
	s.triples = append(s.triples, t)

	sp := spKey{subject: t.Subject, predicate: t.Predicate.Value}
	s.bySP[sp] = append(s.bySP[sp], t.Object)
	po := poKey{predicate: t.Predicate.Value, object: t.Object}
	s.byPO[po] = append(s.byPO[po], t.Subject)

	if _, known := s.bySubj[t.Subject]; !known {
		s.subjects = append(s.subjects, t.Subject)
	}
	s.bySubj[t.Subject] = append(s.bySubj[t.Subject], idx)
	return true
}

// Len returns the number of distinct triples.
func (s *Store) Len() int { return len(s.triples) }

// Triples yields every triple in insertion order.
func (s *Store) Triples() iter.Seq[Triple] {
	return func(yield func(Triple) bool) {
		for _, t := range s.triples {
			if !yield(t) {
				return
			}
		}
	}
}

// SubjectTerms returns the distinct subject terms in first-seen order.
func (s *Store) SubjectTerms() []Term {
	return append([]Term(nil), s.subjects...)
}

// About returns every triple whose subject is subj, in insertion order.
func (s *Store) About(subj Term) []Triple {
	idx := s.bySubj[subj]
	out := make([]Triple, len(idx))
	for i, j := range idx {
		out[i] = s.triples[j]
	}
	return out
}

// ObjectTerms returns every object of (subj, predicate, ?).
func (s *Store) ObjectTerms(subj Term, predicate string) []Term {
	return append([]Term(nil), s.bySP[spKey{subject: subj, predicate: predicate}]...)
}

// Value returns the first object of (subj, predicate, ?).
func (s *Store) Value(subj Term, predicate string) (Term, bool) {
	objs := s.bySP[spKey{subject: subj, predicate: predicate}]
	if len(objs) == 0 {
		return Term{}, false
	}
	return objs[0], true
}

// Objects returns the IRI and blank-node objects of (subject, predicate, ?)
// where subject is an IRI. Literal objects are not ontology nodes and are
// left out.
func (s *Store) Objects(subject, predicate string) []string {
	return resourceValues(s.bySP[spKey{subject: IRI(subject), predicate: predicate}])
}

// Subjects returns the subjects of (?, predicate, object) where object is
// an IRI.
func (s *Store) Subjects(predicate, object string) []string {
	return resourceValues(s.byPO[poKey{predicate: predicate, object: IRI(object)}])
}

func resourceValues(terms []Term) []string {
	var out []string
	for _, t := range terms {
		if t.IsResource() {
			out = append(out, t.Value)
		}
	}
	return out
}

// ReadFrom adds every N-Triples statement in r and returns the number of
// statements read, duplicates included.
func (s *Store) ReadFrom(r io.Reader) (int64, error) {
	return s.Read(r, NTriples)
}

// Read adds every statement in r, written in syntax.
func (s *Store) Read(r io.Reader, syntax Syntax) (int64, error) {
	dec := NewDecoder(r, syntax)
	var n int64
	for {
		t, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		s.Add(t)
		n++
	}
}

// WriteTo serializes the store as N-Triples in insertion order.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	return s.Write(w, NTriples)
}

// Write serializes the store in syntax, in insertion order.
func (s *Store) Write(w io.Writer, syntax Syntax) (int64, error) {
	cw := &countingWriter{w: w}
	enc, err := NewEncoder(cw, syntax)
	if err != nil {
		return 0, err
	}
	for _, t := range s.triples {
		if err := enc.Encode(t); err != nil {
			return cw.n, err
		}
	}
	err = enc.Close()
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
