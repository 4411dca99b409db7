package ontology

import (
	"github.com/dd0wney/cluso-kgx/pkg/curie"
	"github.com/dd0wney/cluso-kgx/pkg/logging"
	"github.com/dd0wney/cluso-kgx/pkg/metrics"
	"github.com/dd0wney/cluso-kgx/pkg/vocab"
)

// Outcome describes how a category was chosen.
type Outcome string

const (
	// OutcomeTable means a walked node was found in the category table.
	OutcomeTable Outcome = "table"
	// OutcomeFallback means no table entry was reached and the
	// highest-scoring walked node was used instead.
	OutcomeFallback Outcome = "fallback"
	// OutcomeNone means the walk produced no nodes.
	OutcomeNone Outcome = "none"
)

// Inference is the result of one category inference.
type Inference struct {
	// Category is the table label, or for fallbacks the best node's
	// identifier (compacted when a resolver is configured).
	Category string
	// Node is the ontology IRI the category was taken from.
	Node    string
	Score   int
	Outcome Outcome
	// Steps counts the walk steps consumed.
	Steps int
}

// Inferencer assigns categories to ontology terms. It holds only
// read-only configuration and may be shared.
type Inferencer struct {
	tables      *vocab.Tables
	resolver    *curie.Resolver
	equivalence []string
	isA         []string
	ignored     map[string]struct{}
	logger      logging.Logger
	metrics     *metrics.Registry
}

// InferencerOption configures an Inferencer.
type InferencerOption func(*Inferencer)

// WithResolver lets InferCategory accept CURIEs and compacts fallback
// categories.
func WithResolver(r *curie.Resolver) InferencerOption {
	return func(i *Inferencer) { i.resolver = r }
}

// WithIgnored replaces the set of nodes that are never walked.
func WithIgnored(iris ...string) InferencerOption {
	return func(i *Inferencer) {
		i.ignored = make(map[string]struct{}, len(iris))
		for _, iri := range iris {
			i.ignored[iri] = struct{}{}
		}
	}
}

// WithEquivalencePredicates replaces the zero-cost predicates.
func WithEquivalencePredicates(iris ...string) InferencerOption {
	return func(i *Inferencer) { i.equivalence = append([]string(nil), iris...) }
}

// WithIsAPredicates replaces the upward predicates.
func WithIsAPredicates(iris ...string) InferencerOption {
	return func(i *Inferencer) { i.isA = append([]string(nil), iris...) }
}

func WithLogger(l logging.Logger) InferencerOption {
	return func(i *Inferencer) { i.logger = logging.OrNop(l) }
}

func WithMetrics(r *metrics.Registry) InferencerOption {
	return func(i *Inferencer) { i.metrics = r }
}

// NewInferencer creates an inferencer over the given tables.
func NewInferencer(tables *vocab.Tables, opts ...InferencerOption) *Inferencer {
	inf := &Inferencer{
		tables:      tables,
		equivalence: vocab.EquivalencePredicates,
		isA:         vocab.IsAPredicates,
		logger:      logging.NewNopLogger(),
	}
	WithIgnored(vocab.UniversalRoots...)(inf)
	for _, opt := range opts {
		opt(inf)
	}
	return inf
}

// InferCategory returns a category for id, walking the given sources.
// See Infer for the selection rules.
func (i *Inferencer) InferCategory(id string, sources ...Source) (string, bool) {
	res := i.Infer(id, sources...)
	if res.Outcome == OutcomeNone {
		return "", false
	}
	return res.Category, true
}

// Infer walks from id and picks a category.
//
// The first walked node that is in the category table with a score above
// zero wins immediately. The walk is not a shortest-path search, so when
// several table entries are reachable the one met first in traversal order
// is chosen even if another is closer. Callers depend on this choice.
//
// When no table entry is reached the walked node with the highest score is
// returned, later nodes winning ties.
func (i *Inferencer) Infer(id string, sources ...Source) Inference {
	start := id
	if i.resolver != nil && curie.IsCURIE(id) {
		if iri, ok := i.resolver.Expand(id); ok {
			start = iri
		}
	}

	w := Walk(start, hierarchy{
		sources:     sources,
		equivalence: i.equivalence,
		isA:         i.isA,
		ignored:     i.ignored,
	})

	var best *Step
	for node, score := range w.All() {
		if score > 0 {
			if category, ok := i.tables.Category(node); ok {
				res := Inference{Category: category, Node: node, Score: score, Outcome: OutcomeTable, Steps: w.Emitted()}
				i.report(id, res)
				return res
			}
		}
		if best == nil || score >= best.Score {
			best = &Step{Node: node, Score: score}
		}
	}

	if best == nil {
		res := Inference{Outcome: OutcomeNone, Steps: w.Emitted()}
		i.report(id, res)
		return res
	}

	category := best.Node
	if i.resolver != nil {
		category = i.resolver.Resolve(best.Node)
	}
	res := Inference{Category: category, Node: best.Node, Score: best.Score, Outcome: OutcomeFallback, Steps: w.Emitted()}
	i.report(id, res)
	return res
}

func (i *Inferencer) report(id string, res Inference) {
	i.metrics.RecordInference(string(res.Outcome), res.Steps)
	i.logger.Debug("category inferred",
		logging.NodeID(id),
		logging.Category(res.Category),
		logging.String("outcome", string(res.Outcome)),
		logging.Int("score", res.Score),
		logging.Int("steps", res.Steps),
	)
}
