// Package validation checks a loaded graph against the exchange format's
// structural rules and reports every violation found.
package validation

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dd0wney/cluso-kgx/pkg/curie"
	"github.com/dd0wney/cluso-kgx/pkg/graph"
	"github.com/dd0wney/cluso-kgx/pkg/logging"
)

var (
	// validate is a singleton validator instance
	validate = newValidate()

	// MaxPropertyKey bounds attribute key length.
	MaxPropertyKey = 100

	propKeyPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_:.\-]*$`)
)

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("curie", func(fl validator.FieldLevel) bool {
		return curie.IsCURIE(fl.Field().String())
	})
	return v
}

// nodeRecord and edgeRecord carry the tag-checked shape of graph entries.
type nodeRecord struct {
	ID       string   `validate:"required,curie"`
	Category []string `validate:"required,min=1,dive,required"`
}

type edgeRecord struct {
	Subject   string `validate:"required"`
	Predicate string `validate:"required"`
	Object    string `validate:"required"`
}

// Entity names what an Issue refers to.
type Entity string

const (
	EntityNode Entity = "node"
	EntityEdge Entity = "edge"
)

// Issue is one violation.
type Issue struct {
	Entity  Entity
	ID      string
	Field   string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %s: %s", i.Entity, i.ID, i.Field, i.Message)
}

// Report collects the issues found in one graph.
type Report struct {
	Nodes  int
	Edges  int
	Errors []Issue
}

// OK reports whether no issue was found.
func (r *Report) OK() bool { return len(r.Errors) == 0 }

// Err returns nil for a clean report and a summary error otherwise.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("%w: %d issues", ErrInvalidGraph, len(r.Errors))
}

// ErrInvalidGraph is returned by Report.Err when issues were found.
var ErrInvalidGraph = errors.New("graph failed validation")

// WriteTo renders the report as text, one issue per line.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "checked %d nodes and %d edges: %d issues\n", r.Nodes, r.Edges, len(r.Errors))
	for _, issue := range r.Errors {
		b.WriteString(issue.String())
		b.WriteByte('\n')
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func (r *Report) add(entity Entity, id, field, msg string) {
	r.Errors = append(r.Errors, Issue{Entity: entity, ID: id, Field: field, Message: msg})
}

// Option configures a Validator.
type Option func(*Validator)

// WithResolver makes the validator reject node ids whose prefix the
// resolver does not know.
func WithResolver(r *curie.Resolver) Option {
	return func(v *Validator) { v.resolver = r }
}

func WithLogger(l logging.Logger) Option {
	return func(v *Validator) { v.logger = logging.OrNop(l) }
}

// Validator checks graphs. It holds no per-graph state.
type Validator struct {
	resolver *curie.Resolver
	logger   logging.Logger
}

func NewValidator(opts ...Option) *Validator {
	v := &Validator{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks every node and edge of g.
func (v *Validator) Validate(g *graph.Graph) *Report {
	timer := logging.StartTimer(v.logger, "validate")
	r := &Report{Nodes: g.NodeCount(), Edges: g.EdgeCount()}

	for n := range g.Nodes() {
		v.checkNode(r, n)
	}
	for e := range g.Edges() {
		v.checkEdge(r, g, e)
	}

	timer.End(logging.Count(len(r.Errors)))
	return r
}

func (v *Validator) checkNode(r *Report, n *graph.Node) {
	rec := nodeRecord{ID: n.ID, Category: n.Category}
	for _, fe := range fieldErrors(validate.Struct(rec)) {
		r.add(EntityNode, n.ID, strings.ToLower(fe.Field()), describe(fe))
	}
	if v.resolver != nil && curie.IsCURIE(n.ID) && !v.resolver.KnowsPrefix(curie.Prefix(n.ID)) {
		r.add(EntityNode, n.ID, "id", fmt.Sprintf("unknown prefix %q", curie.Prefix(n.ID)))
	}
	for _, k := range n.Attributes.Keys() {
		if err := ValidatePropertyKey(k); err != nil {
			r.add(EntityNode, n.ID, k, err.Error())
		}
	}
}

func (v *Validator) checkEdge(r *Report, g *graph.Graph, e *graph.Edge) {
	id := fmt.Sprintf("%s -[%s]-> %s", e.Subject, e.Predicate, e.Object)
	rec := edgeRecord{Subject: e.Subject, Predicate: e.Predicate, Object: e.Object}
	for _, fe := range fieldErrors(validate.Struct(rec)) {
		r.add(EntityEdge, id, strings.ToLower(fe.Field()), describe(fe))
	}
	// Stub endpoints have neither category nor attributes.
	for _, end := range [][2]string{{"subject", e.Subject}, {"object", e.Object}} {
		n, ok := g.Node(end[1])
		if end[1] != "" && (!ok || len(n.Category) == 0 && len(n.Attributes) == 0) {
			r.add(EntityEdge, id, end[0], fmt.Sprintf("node %s is only referenced by edges", end[1]))
		}
	}
	for _, k := range e.Attributes.Keys() {
		if err := ValidatePropertyKey(k); err != nil {
			r.add(EntityEdge, id, k, err.Error())
		}
	}
}

// ValidatePropertyKey validates an attribute key
func ValidatePropertyKey(key string) error {
	if key == "" {
		return errors.New("property key cannot be empty")
	}
	if len(key) > MaxPropertyKey {
		return fmt.Errorf("property key '%s' exceeds maximum length of %d characters", key, MaxPropertyKey)
	}
	if !propKeyPattern.MatchString(key) {
		return fmt.Errorf("property key '%s' is invalid (must start with letter or underscore)", key)
	}
	return nil
}

func fieldErrors(err error) validator.ValidationErrors {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs
	}
	return nil
}

// describe converts a validator error to a user-friendly message
func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", e.Param())
	case "curie":
		return fmt.Sprintf("%q is not a CURIE (prefix:local)", e.Value())
	default:
		return fmt.Sprintf("validation failed (%s)", e.Tag())
	}
}
