package transformer

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/dd0wney/cluso-kgx/pkg/graph"
	"github.com/dd0wney/cluso-kgx/pkg/objectstore"
	"github.com/dd0wney/cluso-kgx/pkg/rdf"
)

// Format names.
const (
	FormatCSV      = "csv"
	FormatTSV      = "tsv"
	FormatJSON     = "json"
	FormatGraphML  = "graphml"
	FormatNTriples = "nt"
	FormatTurtle   = "ttl"
	FormatRDFXML   = "rdfxml"
	FormatNeo4j    = "neo4j"
	FormatPostgres = "postgres"
)

// Formats lists every format New accepts.
func Formats() []string {
	return []string{FormatCSV, FormatTSV, FormatJSON, FormatGraphML, FormatNTriples, FormatTurtle, FormatRDFXML, FormatNeo4j, FormatPostgres}
}

var extensions = map[string]string{
	".csv":     FormatCSV,
	".tsv":     FormatTSV,
	".json":    FormatJSON,
	".graphml": FormatGraphML,
	".nt":      FormatNTriples,
	".ttl":     FormatTurtle,
	".owl":     FormatRDFXML,
	".rdf":     FormatRDFXML,
}

// FormatOf infers a format from a path, object URL or database URI.
// Archives and compressed files are looked through: "x.tsv.tar" is tsv and
// "x.nt.gz" is nt.
func FormatOf(location string) (string, error) {
	lower := strings.ToLower(location)
	switch {
	case strings.HasPrefix(lower, "bolt://"), strings.HasPrefix(lower, "bolt+s://"),
		strings.HasPrefix(lower, "neo4j://"), strings.HasPrefix(lower, "neo4j+s://"):
		return FormatNeo4j, nil
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return FormatPostgres, nil
	}
	if objectstore.IsRemote(lower) {
		lower = strings.TrimPrefix(lower, objectstore.Scheme)
	}

	name := path.Base(lower)
	for _, wrapper := range []string{".gz", ".tar"} {
		name = strings.TrimSuffix(name, wrapper)
	}
	if f, ok := extensions[path.Ext(name)]; ok {
		return f, nil
	}
	if strings.HasSuffix(lower, ".tar") {
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q (known: %s)", ErrUnknownFormat, location, strings.Join(Formats(), ", "))
}

// New returns a transformer for format over g. A nil g starts empty.
func New(format string, g *graph.Graph, opts ...Option) (Transformer, error) {
	switch format {
	case FormatCSV:
		return NewCSVTransformer(g, ',', opts...), nil
	case FormatTSV:
		return NewCSVTransformer(g, '\t', opts...), nil
	case FormatJSON:
		return NewJSONTransformer(g, opts...), nil
	case FormatGraphML:
		return NewGraphMLTransformer(g, opts...), nil
	case FormatNTriples:
		return NewRDFTransformer(g, RDFConfig{Syntax: rdf.NTriples}, opts...), nil
	case FormatTurtle:
		return NewRDFTransformer(g, RDFConfig{Syntax: rdf.Turtle}, opts...), nil
	case FormatRDFXML:
		return NewRDFTransformer(g, RDFConfig{Syntax: rdf.RDFXML}, opts...), nil
	case FormatNeo4j:
		return NewNeo4jTransformer(g, Neo4jConfig{}, opts...), nil
	case FormatPostgres:
		return NewPostgresTransformer(g, "", opts...), nil
	}
	return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
}

// InputFormat resolves the single format shared by inputs. An explicit
// format wins; otherwise every input must imply the same one.
func InputFormat(inputs []string, explicit string) (string, error) {
	if explicit != "" {
		if !slices.Contains(Formats(), explicit) {
			return "", fmt.Errorf("%w: %q", ErrUnknownFormat, explicit)
		}
		return explicit, nil
	}
	var format string
	for _, in := range inputs {
		f, err := FormatOf(in)
		if err != nil {
			return "", err
		}
		if format != "" && f != format {
			return "", fmt.Errorf("%w: %s is %s but earlier inputs are %s; set the input format explicitly",
				ErrMixedFormats, in, f, format)
		}
		format = f
	}
	if format == "" {
		return "", fmt.Errorf("%w: no inputs", ErrUnknownFormat)
	}
	return format, nil
}

// Load parses every input into one new transformer. Formats are checked
// before anything is read.
func Load(ctx context.Context, inputs []string, inputFormat string, opts ...Option) (Transformer, error) {
	format, err := InputFormat(inputs, inputFormat)
	if err != nil {
		return nil, err
	}
	t, err := New(format, nil, opts...)
	if err != nil {
		return nil, err
	}
	for _, in := range inputs {
		if err := t.Parse(ctx, in, format); err != nil {
			return t, fmt.Errorf("parse %s: %w", in, err)
		}
	}
	if f, ok := t.(Finisher); ok {
		if err := f.Finish(ctx); err != nil {
			return t, fmt.Errorf("convert: %w", err)
		}
	}
	if r, ok := t.(interface{ Report() }); ok {
		r.Report()
	}
	return t, nil
}

// SaveAs writes g with the transformer for outputFormat, or the format
// implied by destination when outputFormat is empty, and returns the
// location created.
func SaveAs(ctx context.Context, g *graph.Graph, destination, outputFormat string, opts ...Option) (string, error) {
	format := outputFormat
	if format == "" {
		f, err := FormatOf(destination)
		if err != nil {
			return "", err
		}
		format = f
	}
	t, err := New(format, g, opts...)
	if err != nil {
		return "", err
	}
	return t.Save(ctx, destination, SaveOptions{Format: format})
}
