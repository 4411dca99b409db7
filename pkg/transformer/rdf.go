package transformer

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dd0wney/cluso-kgx/pkg/curie"
	"github.com/dd0wney/cluso-kgx/pkg/graph"
	"github.com/dd0wney/cluso-kgx/pkg/logging"
	"github.com/dd0wney/cluso-kgx/pkg/ontology"
	"github.com/dd0wney/cluso-kgx/pkg/rdf"
	"github.com/dd0wney/cluso-kgx/pkg/vocab"
)

// KGXNamespace holds predicates for attributes that no property table
// entry covers.
const KGXNamespace = "https://w3id.org/kgx/"

const (
	xsdNamespace = "http://www.w3.org/2001/XMLSchema#"
	xsdDouble    = xsdNamespace + "double"
	xsdBoolean   = xsdNamespace + "boolean"
)

// RDFConfig supplies the vocabulary used to read and write RDF. Zero
// fields take the built-in defaults.
type RDFConfig struct {
	// Syntax is used when neither the format nor the file name implies one.
	Syntax     rdf.Syntax
	Tables     *vocab.Tables
	Resolver   *curie.Resolver
	Inferencer *ontology.Inferencer
	// Ontologies are consulted by category inference in addition to the
	// parsed sources.
	Ontologies []ontology.Source
}

var rdfFormats = map[string]rdf.Syntax{
	FormatNTriples: rdf.NTriples,
	FormatTurtle:   rdf.Turtle,
	FormatRDFXML:   rdf.RDFXML,
}

func rdfFormat(s rdf.Syntax) string {
	for name, syntax := range rdfFormats {
		if syntax == s {
			return name
		}
	}
	return FormatNTriples
}

// RDFTransformer reads N-Triples, Turtle and RDF/XML and writes N-Triples
// or Turtle. Associations reified with the OBAN vocabulary become edges,
// properties named in the property table become attributes, and node
// categories are inferred from the ontology hierarchy.
//
// Parse only collects statements. Finish converts everything collected
// into the graph, so inference sees every source at once.
type RDFTransformer struct {
	base
	cfg     RDFConfig
	stores  []*rdf.Store
	pending *rdf.Store
}

func NewRDFTransformer(g *graph.Graph, cfg RDFConfig, opts ...Option) *RDFTransformer {
	t := &RDFTransformer{base: newBase(rdfFormat(cfg.Syntax), g, opts), cfg: cfg}
	if t.cfg.Tables == nil {
		t.cfg.Tables = vocab.Default()
	}
	if t.cfg.Resolver == nil {
		t.cfg.Resolver = curie.Default()
	}
	if t.cfg.Inferencer == nil {
		t.cfg.Inferencer = ontology.NewInferencer(t.cfg.Tables,
			ontology.WithResolver(t.cfg.Resolver),
			ontology.WithLogger(t.logger),
			ontology.WithMetrics(t.metrics))
	}
	return t
}

// syntax resolves the syntax for a source or destination: the explicit
// format, then the file name, then the configured default.
func (t *RDFTransformer) syntax(format, location string) rdf.Syntax {
	if s, ok := rdfFormats[format]; ok {
		return s
	}
	if s, err := rdf.SyntaxOf(location); err == nil {
		return s
	}
	return t.cfg.Syntax
}

// Parse reads one RDF file (gzip when named .gz). Nothing reaches the
// graph until Finish.
func (t *RDFTransformer) Parse(ctx context.Context, source, format string) (err error) {
	start := time.Now()
	defer func() { t.track("parse", start, err) }()

	local, cleanup, err := t.localSource(ctx, source)
	if err != nil {
		return err
	}
	defer cleanup()

	if t.pending == nil {
		t.pending = rdf.NewStore()
		t.stores = append(t.stores, t.pending)
	}
	syntax := t.syntax(format, source)
	read, err := t.pending.LoadFile(local, syntax)
	if err != nil {
		return err
	}
	t.logger.Debug("triples read", logging.Source(source), logging.String("syntax", syntax.String()),
		logging.Int("statements", int(read)), logging.Int("distinct", t.pending.Len()))
	return ctx.Err()
}

// Finish converts every statement parsed since the last Finish into nodes
// and edges. Categories are inferred against all parsed sources and the
// configured ontologies.
func (t *RDFTransformer) Finish(ctx context.Context) (err error) {
	if t.pending == nil {
		return nil
	}
	start := time.Now()
	defer func() { t.track("convert", start, err) }()

	store := t.pending
	t.pending = nil
	nodes, edges, err := t.convert(ctx, store)
	if err != nil {
		return err
	}
	t.metrics.RecordLoad(t.name, nodes, edges)
	return nil
}

func (t *RDFTransformer) sources() []ontology.Source {
	out := make([]ontology.Source, 0, len(t.stores)+len(t.cfg.Ontologies))
	for i := len(t.stores) - 1; i >= 0; i-- {
		out = append(out, t.stores[i])
	}
	return append(out, t.cfg.Ontologies...)
}

// nodeID compacts an IRI; blank nodes keep their label.
func (t *RDFTransformer) nodeID(term rdf.Term) string {
	if term.Kind == rdf.KindBlank {
		return "_:" + term.Value
	}
	return t.cfg.Resolver.Resolve(term.Value)
}

// predicateLabel maps a predicate IRI to its table label or compact form.
func (t *RDFTransformer) predicateLabel(iri string) string {
	if label, ok := t.cfg.Tables.Predicates.Lookup(iri); ok {
		return label
	}
	return t.cfg.Resolver.Resolve(iri)
}

// attributeName maps a predicate to an attribute key: the property table
// first, then the kgx namespace, then the compact predicate.
func (t *RDFTransformer) attributeName(iri string) (string, bool) {
	if name, ok := t.cfg.Tables.Property(iri); ok {
		return name, true
	}
	if rest, ok := strings.CutPrefix(iri, KGXNamespace); ok && rest != "" {
		return rest, true
	}
	return t.cfg.Resolver.Resolve(iri), false
}

func literalValue(term rdf.Term) any {
	switch term.Datatype {
	case xsdDouble, xsdNamespace + "decimal", xsdNamespace + "float", xsdNamespace + "integer", xsdNamespace + "int", xsdNamespace + "long":
		if f, err := strconv.ParseFloat(term.Value, 64); err == nil {
			return f
		}
	case xsdBoolean:
		if b, err := strconv.ParseBool(term.Value); err == nil {
			return b
		}
	}
	return term.Value
}

// pending collects attribute values before they become graph.Values, so
// repeated predicates turn into lists.
type pending map[string][]any

func (p pending) add(key string, v any) { p[key] = append(p[key], v) }

func (p pending) attributes() (graph.Attributes, error) {
	out := make(graph.Attributes, len(p))
	for k, vs := range p {
		var raw any = vs[0]
		if len(vs) > 1 {
			items := make([]string, len(vs))
			for i, v := range vs {
				items[i] = fmt.Sprint(v)
			}
			raw = items
		}
		v, err := graph.ValueOf(raw)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func (t *RDFTransformer) convert(ctx context.Context, store *rdf.Store) (int, int, error) {
	sources := t.sources()
	nodes := make(map[string]*graph.Node)
	var order []string
	iris := make(map[string]string)

	touch := func(term rdf.Term) *graph.Node {
		id := t.nodeID(term)
		n, ok := nodes[id]
		if !ok {
			n = &graph.Node{ID: id}
			nodes[id] = n
			order = append(order, id)
			if term.Kind == rdf.KindIRI {
				iris[id] = term.Value
			}
		}
		return n
	}

	var edges []*graph.Edge
	nodeAttrs := make(map[string]pending)

	for i, subj := range store.SubjectTerms() {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, 0, err
			}
		}
		if t.isAssociation(store, subj) {
			e, err := t.association(store, subj)
			if err != nil {
				return 0, 0, err
			}
			if e != nil {
				s, _ := store.Value(subj, vocab.OBANHasSubject)
				o, _ := store.Value(subj, vocab.OBANHasObject)
				touch(s)
				touch(o)
				edges = append(edges, e)
			}
			continue
		}

		n := touch(subj)
		attrs := nodeAttrs[n.ID]
		if attrs == nil {
			attrs = make(pending)
			nodeAttrs[n.ID] = attrs
		}
		for _, tr := range store.About(subj) {
			pred := tr.Predicate.Value
			if label, ok := t.cfg.Tables.Predicates.Lookup(pred); ok && tr.Object.IsResource() {
				touch(tr.Object)
				edges = append(edges, &graph.Edge{Subject: n.ID, Object: t.nodeID(tr.Object), Predicate: label})
				continue
			}
			name, known := t.attributeName(pred)
			switch {
			case tr.Object.Kind == rdf.KindLiteral:
				attrs.add(name, literalValue(tr.Object))
			case known:
				attrs.add(name, t.nodeID(tr.Object))
			default:
				touch(tr.Object)
				edges = append(edges, &graph.Edge{Subject: n.ID, Object: t.nodeID(tr.Object), Predicate: t.predicateLabel(pred)})
			}
		}
	}

	loadedNodes := 0
	for _, id := range order {
		n := nodes[id]
		if p := nodeAttrs[id]; len(p) > 0 {
			a, err := p.attributes()
			if err != nil {
				return 0, 0, fmt.Errorf("node %s: %w", id, err)
			}
			n.Attributes = a
		}
		if iri, ok := iris[id]; ok && !t.hasCategory(id) {
			if cat, ok := t.cfg.Inferencer.InferCategory(iri, sources...); ok {
				n.Category = []string{cat}
			}
		}
		if !t.admitNode(n) {
			continue
		}
		if _, err := t.graph.AddNode(n); err != nil {
			return 0, 0, err
		}
		loadedNodes++
	}

	loadedEdges := 0
	for _, e := range edges {
		if !t.admitEdge(e) {
			continue
		}
		if err := t.graph.AddEdge(e); err != nil {
			return 0, 0, err
		}
		loadedEdges++
	}
	return loadedNodes, loadedEdges, nil
}

// hasCategory reports whether id is already in the graph with a category.
func (t *RDFTransformer) hasCategory(id string) bool {
	n, ok := t.graph.Node(id)
	return ok && len(n.Category) > 0
}

func (t *RDFTransformer) isAssociation(store *rdf.Store, subj rdf.Term) bool {
	for _, o := range store.ObjectTerms(subj, vocab.RDFType) {
		if o.Kind == rdf.KindIRI && o.Value == vocab.OBANAssociation {
			return true
		}
	}
	return false
}

// association turns an OBAN association into an edge. Associations lacking
// a subject or object are skipped.
func (t *RDFTransformer) association(store *rdf.Store, a rdf.Term) (*graph.Edge, error) {
	s, okS := store.Value(a, vocab.OBANHasSubject)
	o, okO := store.Value(a, vocab.OBANHasObject)
	if !okS || !okO || !s.IsResource() || !o.IsResource() {
		t.logger.Warn("incomplete association skipped", logging.NodeID(t.nodeID(a)))
		return nil, nil
	}
	e := &graph.Edge{Subject: t.nodeID(s), Object: t.nodeID(o)}
	if p, ok := store.Value(a, vocab.OBANHasPredicate); ok {
		e.Predicate = t.predicateLabel(p.Value)
	}

	attrs := make(pending)
	if a.Kind == rdf.KindIRI {
		attrs.add(fieldID, t.nodeID(a))
	}
	for _, tr := range store.About(a) {
		switch tr.Predicate.Value {
		case vocab.RDFType, vocab.OBANHasSubject, vocab.OBANHasObject, vocab.OBANHasPredicate:
			continue
		}
		name, _ := t.attributeName(tr.Predicate.Value)
		var v any
		if tr.Object.Kind == rdf.KindLiteral {
			v = literalValue(tr.Object)
		} else {
			v = t.nodeID(tr.Object)
		}
		if name == fieldProvidedBy {
			e.ProvidedBy = fmt.Sprint(v)
			continue
		}
		attrs.add(name, v)
	}
	a2, err := attrs.attributes()
	if err != nil {
		return nil, err
	}
	e.Attributes = a2
	return e, nil
}

// Save writes N-Triples or Turtle. Every edge is written as an OBAN
// association whose identifier is the edge id.
func (t *RDFTransformer) Save(ctx context.Context, destination string, opts SaveOptions) (out string, err error) {
	start := time.Now()
	defer func() { t.track("save", start, err) }()

	syntax := t.syntax(opts.Format, destination)
	if syntax == rdf.RDFXML {
		return "", fmt.Errorf("%w: %s output", ErrUnsupported, syntax)
	}

	store := rdf.NewStore()
	for n := range t.graph.Nodes() {
		t.nodeTriples(store, n)
	}
	for e := range t.graph.Edges() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		t.edgeTriples(store, e)
	}

	return t.saveTo(ctx, destination, func(path string) (string, error) {
		f, err := os.Create(path)
		if err != nil {
			return "", err
		}
		if _, err := store.Write(f, syntax); err != nil {
			f.Close()
			return "", err
		}
		if err := f.Close(); err != nil {
			return "", err
		}
		t.logger.Info("saved", logging.Path(path), logging.Int("triples", store.Len()))
		return path, nil
	})
}

// iri expands a node id back to an IRI. Blank node ids stay blank; ids
// that are neither CURIEs nor IRIs are placed in the kgx namespace.
func (t *RDFTransformer) iri(id string) rdf.Term {
	if label, ok := strings.CutPrefix(id, "_:"); ok {
		return rdf.Blank(label)
	}
	if full, ok := t.cfg.Resolver.Expand(id); ok {
		return rdf.IRI(full)
	}
	if strings.Contains(id, "://") || strings.HasPrefix(id, "urn:") {
		return rdf.IRI(id)
	}
	return rdf.IRI(KGXNamespace + id)
}

func (t *RDFTransformer) propertyIRI(name string) string {
	if iris := t.cfg.Tables.PropertyIRIs(name); len(iris) > 0 {
		return iris[0]
	}
	return KGXNamespace + name
}

func (t *RDFTransformer) predicateIRI(label string) string {
	if iris := t.cfg.Tables.Predicates.Reverse(label); len(iris) > 0 {
		return iris[0]
	}
	return t.iri(label).Value
}

// objectTerm renders an attribute value. CURIEs with a known prefix become
// IRIs, everything else a literal.
func (t *RDFTransformer) objectTerms(v graph.Value) []rdf.Term {
	switch v.Kind {
	case graph.KindNumber:
		return []rdf.Term{rdf.TypedLiteral(v.String(), xsdDouble)}
	case graph.KindBool:
		return []rdf.Term{rdf.TypedLiteral(v.String(), xsdBoolean)}
	}
	var out []rdf.Term
	for _, s := range v.Strings() {
		if curie.IsCURIE(s) && t.cfg.Resolver.KnowsPrefix(curie.Prefix(s)) {
			full, _ := t.cfg.Resolver.Expand(s)
			out = append(out, rdf.IRI(full))
			continue
		}
		out = append(out, rdf.Literal(s))
	}
	return out
}

func (t *RDFTransformer) nodeTriples(store *rdf.Store, n *graph.Node) {
	subj := t.iri(n.ID)
	typ := rdf.IRI(vocab.RDFType)
	for _, c := range n.Category {
		if iris := t.cfg.Tables.Categories.Reverse(c); len(iris) > 0 {
			store.Add(rdf.Triple{Subject: subj, Predicate: typ, Object: rdf.IRI(iris[0])})
			continue
		}
		store.Add(rdf.Triple{Subject: subj, Predicate: rdf.IRI(KGXNamespace + fieldCategory), Object: rdf.Literal(c)})
	}
	for _, k := range n.Attributes.Keys() {
		pred := rdf.IRI(t.propertyIRI(k))
		for _, o := range t.objectTerms(n.Attributes[k]) {
			store.Add(rdf.Triple{Subject: subj, Predicate: pred, Object: o})
		}
	}
}

func (t *RDFTransformer) edgeTriples(store *rdf.Store, e *graph.Edge) {
	a := t.iri(edgeID(e))
	add := func(pred string, o rdf.Term) {
		store.Add(rdf.Triple{Subject: a, Predicate: rdf.IRI(pred), Object: o})
	}
	add(vocab.RDFType, rdf.IRI(vocab.OBANAssociation))
	add(vocab.OBANHasSubject, t.iri(e.Subject))
	add(vocab.OBANHasObject, t.iri(e.Object))
	if e.Predicate != "" {
		add(vocab.OBANHasPredicate, rdf.IRI(t.predicateIRI(e.Predicate)))
	}
	if e.ProvidedBy != "" {
		add(KGXNamespace+fieldProvidedBy, rdf.Literal(e.ProvidedBy))
	}
	for _, k := range e.Attributes.Keys() {
		if k == fieldID {
			continue
		}
		for _, o := range t.objectTerms(e.Attributes[k]) {
			add(t.propertyIRI(k), o)
		}
	}
}
