// Package transformer converts knowledge graphs between storage formats.
// Every adapter reads into and writes from a graph.Graph, consulting a
// graph.FilterSet while loading.
package transformer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dd0wney/cluso-kgx/pkg/graph"
	"github.com/dd0wney/cluso-kgx/pkg/logging"
	"github.com/dd0wney/cluso-kgx/pkg/metrics"
	"github.com/dd0wney/cluso-kgx/pkg/objectstore"
)

var (
	// ErrMixedFormats is returned before parsing when inputs disagree on
	// format and no explicit input format was given.
	ErrMixedFormats  = errors.New("inputs have different formats")
	ErrUnknownFormat = errors.New("unrecognized format")
	ErrUnsupported   = errors.New("operation not supported by this format")
)

// SaveOptions tunes Save.
type SaveOptions struct {
	// Format overrides the output format implied by the destination.
	Format string
}

// Transformer loads graphs from and saves graphs to one family of formats.
type Transformer interface {
	// Parse adds the contents of source to the graph. Sources are
	// admitted through the transformer's filters.
	Parse(ctx context.Context, source, format string) error
	// Save writes the graph to destination and returns the location
	// actually created, which may differ from destination (for example
	// when an archive extension is appended).
	Save(ctx context.Context, destination string, opts SaveOptions) (string, error)
	Graph() *graph.Graph
	Filters() *graph.FilterSet
}

// Finisher is implemented by transformers that build the graph only once
// every source has been parsed. Load calls Finish after the last Parse.
type Finisher interface {
	Finish(ctx context.Context) error
}

// Option configures a transformer.
type Option func(*base)

func WithLogger(l logging.Logger) Option {
	return func(b *base) { b.logger = logging.OrNop(l) }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(b *base) { b.metrics = m }
}

// WithObjectStore sets the store used for s3:// sources and destinations.
// Without it an S3 client is built from the environment on first use.
func WithObjectStore(s objectstore.Store) Option {
	return func(b *base) { b.store = s }
}

// WithFilters replaces the transformer's filter set.
func WithFilters(fs *graph.FilterSet) Option {
	return func(b *base) {
		if fs != nil {
			b.filters = fs
		}
	}
}

// base carries what every adapter shares.
type base struct {
	name    string
	graph   *graph.Graph
	filters *graph.FilterSet
	logger  logging.Logger
	metrics *metrics.Registry
	store   objectstore.Store
}

func newBase(name string, g *graph.Graph, opts []Option) base {
	if g == nil {
		g = graph.New()
	}
	b := base{
		name:    name,
		graph:   g,
		filters: &graph.FilterSet{},
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	b.logger = b.logger.With(logging.Component("transformer"), logging.Format(name))
	return b
}

func (b *base) Graph() *graph.Graph { return b.graph }

func (b *base) Filters() *graph.FilterSet { return b.filters }

// Report logs the graph size.
func (b *base) Report() {
	b.logger.Info("graph loaded",
		logging.Int("nodes", b.graph.NodeCount()),
		logging.Int("edges", b.graph.EdgeCount()))
	b.metrics.SetGraphSize(b.graph.NodeCount(), b.graph.EdgeCount())
}

// admitNode admits a standalone node when it could appear at either end
// of an edge under the current filters.
func (b *base) admitNode(n *graph.Node) bool {
	if b.filters.Len() == 0 {
		return true
	}
	if b.filters.AdmitNode(graph.LocationSubject, n) || b.filters.AdmitNode(graph.LocationObject, n) {
		return true
	}
	b.metrics.RecordFilterRejection("node")
	return false
}

// admitEdge checks e against the filters using the endpoint nodes already
// in the graph, or id-only stubs when they are not.
func (b *base) admitEdge(e *graph.Edge) bool {
	if b.filters.Len() == 0 {
		return true
	}
	endpoint := func(id string) *graph.Node {
		if n, ok := b.graph.Node(id); ok {
			return n
		}
		return &graph.Node{ID: id}
	}
	if b.filters.AdmitEdge(e, endpoint(e.Subject), endpoint(e.Object)) {
		return true
	}
	b.metrics.RecordFilterRejection(string(graph.LocationEdge))
	return false
}

// track records duration and outcome of one parse or save.
func (b *base) track(op string, start time.Time, err error) {
	b.metrics.RecordTransform(op, b.name, err, time.Since(start))
}

// objectStore returns the configured store, building an S3 client from the
// environment when none was given.
func (b *base) objectStore(ctx context.Context) (objectstore.Store, error) {
	if b.store != nil {
		return b.store, nil
	}
	s3, err := objectstore.NewS3(ctx, objectstore.OptionsFromEnv())
	if err != nil {
		return nil, err
	}
	b.store = s3
	return s3, nil
}

// localSource makes source readable from disk, downloading s3:// objects
// to a temporary file. The returned cleanup removes any download.
func (b *base) localSource(ctx context.Context, source string) (string, func(), error) {
	if !objectstore.IsRemote(source) {
		return source, func() {}, nil
	}
	store, err := b.objectStore(ctx)
	if err != nil {
		return "", nil, err
	}
	path, err := objectstore.Download(ctx, store, source, "")
	if err != nil {
		return "", nil, err
	}
	b.logger.Debug("downloaded source", logging.Source(source), logging.Path(path))
	return path, func() { os.Remove(path) }, nil
}

// saveTo runs write against a local path for destination. For s3://
// destinations the file is written to a temporary directory and uploaded
// to the object whose key carries the written file's name.
func (b *base) saveTo(ctx context.Context, destination string, write func(path string) (string, error)) (string, error) {
	if !objectstore.IsRemote(destination) {
		return write(destination)
	}
	bucket, key, err := objectstore.ParseURL(destination)
	if err != nil {
		return "", err
	}
	store, err := b.objectStore(ctx)
	if err != nil {
		return "", err
	}

	dir, err := os.MkdirTemp("", "kgx-save-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	local := filepath.Join(dir, path.Base(key))
	written, err := write(local)
	if err != nil {
		return "", err
	}
	// Keep any suffix the writer appended (e.g. ".tar").
	remote := fmt.Sprintf("%s%s/%s%s", objectstore.Scheme, bucket, key, written[len(local):])
	if err := objectstore.Upload(ctx, store, written, remote); err != nil {
		return "", err
	}
	b.logger.Info("uploaded", logging.Path(remote))
	return remote, nil
}
