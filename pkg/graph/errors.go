package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors
var (
	ErrNodeNotFound       = errors.New("node not found")
	ErrInvalidID          = errors.New("invalid ID")
	ErrInvalidCategory    = errors.New("invalid category value")
	ErrCategoryAlreadySet = errors.New("category already assigned")
	ErrInvalidValue       = errors.New("invalid attribute value")
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrConflict           = errors.New("conflicting attributes")
)

// GraphError provides structured error information for graph operations.
type GraphError struct {
	Op     string // Operation that failed (e.g., "add", "filter")
	Entity string // Entity type (e.g., "node", "edge", "filter")
	ID     string // Entity identifier (if applicable)
	Field  string // Attribute or filter target
	Cause  error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Entity != "" {
		b.WriteByte(' ')
		b.WriteString(e.Entity)
	}
	if e.ID != "" {
		fmt.Fprintf(&b, " %s", e.ID)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %s)", e.Field)
	}
	fmt.Fprintf(&b, ": %v", e.Cause)
	return b.String()
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for building GraphErrors.
type ErrorBuilder struct {
	err GraphError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: GraphError{Op: op}}
}

func (b *ErrorBuilder) Node(id string) *ErrorBuilder {
	b.err.Entity = "node"
	b.err.ID = id
	return b
}

func (b *ErrorBuilder) Edge(subject, predicate, object string) *ErrorBuilder {
	b.err.Entity = "edge"
	b.err.ID = fmt.Sprintf("%s -[%s]-> %s", subject, predicate, object)
	return b
}

func (b *ErrorBuilder) Filter(target string) *ErrorBuilder {
	b.err.Entity = "filter"
	b.err.Field = target
	return b
}

func (b *ErrorBuilder) Field(name string) *ErrorBuilder {
	b.err.Field = name
	return b
}

func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the constructed error.
func (b *ErrorBuilder) Err() error {
	e := b.err
	return &e
}

// NodeNotFoundError creates a node not found error.
func NodeNotFoundError(id string) error {
	return NewError("get").Node(id).Cause(ErrNodeNotFound).Err()
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

// Conflict is one required attribute that disagrees between nodes collapsing
// onto the same identifier.
type Conflict struct {
	ID     string
	Key    string
	Values []Value
}

func (c Conflict) String() string {
	vals := make([]string, len(c.Values))
	for i, v := range c.Values {
		vals[i] = fmt.Sprintf("%q", v.String())
	}
	return fmt.Sprintf("%s.%s = [%s]", c.ID, c.Key, strings.Join(vals, ", "))
}

// ConflictError lists every conflict found by a merge or identifier mapping.
type ConflictError struct {
	Op        string
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	const shown = 3
	parts := make([]string, 0, shown)
	for i, c := range e.Conflicts {
		if i == shown {
			parts = append(parts, fmt.Sprintf("and %d more", len(e.Conflicts)-shown))
			break
		}
		parts = append(parts, c.String())
	}
	return fmt.Sprintf("%s: %d conflicting attributes: %s", e.Op, len(e.Conflicts), strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrConflict) true for every ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
