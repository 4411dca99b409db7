package transformer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dd0wney/cluso-kgx/pkg/graph"
	"github.com/dd0wney/cluso-kgx/pkg/logging"
)

// jsonDocument is the on-disk JSON layout.
type jsonDocument struct {
	Nodes []map[string]any `json:"nodes"`
	Edges []map[string]any `json:"edges"`
}

// JSONTransformer reads and writes {"nodes": [...], "edges": [...]}.
type JSONTransformer struct {
	base
}

func NewJSONTransformer(g *graph.Graph, opts ...Option) *JSONTransformer {
	return &JSONTransformer{base: newBase(FormatJSON, g, opts)}
}

func (t *JSONTransformer) Parse(ctx context.Context, source, format string) (err error) {
	start := time.Now()
	defer func() { t.track("parse", start, err) }()

	local, cleanup, err := t.localSource(ctx, source)
	if err != nil {
		return err
	}
	defer cleanup()

	f, err := os.Open(local)
	if err != nil {
		return err
	}
	defer f.Close()

	var doc jsonDocument
	dec := json.NewDecoder(bufio.NewReader(f))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode %s: %w", source, err)
	}

	var nodes, edges int
	for i, rec := range doc.Nodes {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		n, err := nodeFromRecord(rec)
		if err != nil {
			return fmt.Errorf("nodes[%d]: %w", i, err)
		}
		if !t.admitNode(n) {
			continue
		}
		if _, err := t.graph.AddNode(n); err != nil {
			return err
		}
		nodes++
	}
	for i, rec := range doc.Edges {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		e, err := edgeFromRecord(rec)
		if err != nil {
			return fmt.Errorf("edges[%d]: %w", i, err)
		}
		if !t.admitEdge(e) {
			continue
		}
		if err := t.graph.AddEdge(e); err != nil {
			return err
		}
		edges++
	}

	t.metrics.RecordLoad(t.name, nodes, edges)
	t.logger.Debug("parsed", logging.Source(source), logging.Int("nodes", nodes), logging.Int("edges", edges))
	return nil
}

// Save writes indented JSON. Edges without an id are given one.
func (t *JSONTransformer) Save(ctx context.Context, destination string, opts SaveOptions) (out string, err error) {
	start := time.Now()
	defer func() { t.track("save", start, err) }()

	doc := jsonDocument{
		Nodes: make([]map[string]any, 0, t.graph.NodeCount()),
		Edges: make([]map[string]any, 0, t.graph.EdgeCount()),
	}
	for n := range t.graph.Nodes() {
		doc.Nodes = append(doc.Nodes, nodeRecord(n))
	}
	for e := range t.graph.Edges() {
		edgeID(e)
		doc.Edges = append(doc.Edges, edgeRecord(e))
	}

	return t.saveTo(ctx, destination, func(path string) (string, error) {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return "", err
		}
		t.logger.Info("saved", logging.Path(path), logging.Int("nodes", len(doc.Nodes)), logging.Int("edges", len(doc.Edges)))
		return path, nil
	})
}
