package transformer

import (
	"bufio"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dd0wney/cluso-kgx/pkg/graph"
	"github.com/dd0wney/cluso-kgx/pkg/logging"
)

const graphmlNamespace = "http://graphml.graphdrawing.org/xmlns"

type graphmlDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	Xmlns   string       `xml:"xmlns,attr,omitempty"`
	Keys    []graphmlKey `xml:"key"`
	Graph   graphmlGraph `xml:"graph"`
}

// graphmlKey declares one attribute. List marks string lists joined with
// "|" in the data text.
type graphmlKey struct {
	ID   string `xml:"id,attr"`
	For  string `xml:"for,attr"`
	Name string `xml:"attr.name,attr"`
	Type string `xml:"attr.type,attr"`
	List string `xml:"attr.list,attr,omitempty"`
}

type graphmlGraph struct {
	ID          string        `xml:"id,attr,omitempty"`
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphmlNode `xml:"node"`
	Edges       []graphmlEdge `xml:"edge"`
}

type graphmlNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphmlData `xml:"data"`
}

type graphmlEdge struct {
	ID     string        `xml:"id,attr,omitempty"`
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphmlData `xml:"data"`
}

type graphmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// GraphMLTransformer reads and writes GraphML with typed data keys.
type GraphMLTransformer struct {
	base
}

func NewGraphMLTransformer(g *graph.Graph, opts ...Option) *GraphMLTransformer {
	return &GraphMLTransformer{base: newBase(FormatGraphML, g, opts)}
}

func (t *GraphMLTransformer) Parse(ctx context.Context, source, format string) (err error) {
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

	var doc graphmlDoc
	if err := xml.NewDecoder(bufio.NewReader(f)).Decode(&doc); err != nil {
		return fmt.Errorf("decode %s: %w", source, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	keys := make(map[string]graphmlKey, len(doc.Keys))
	for _, k := range doc.Keys {
		keys[k.ID] = k
	}

	var nodes, edges int
	for _, gn := range doc.Graph.Nodes {
		rec, err := decodeData(keys, gn.Data)
		if err != nil {
			return fmt.Errorf("node %s: %w", gn.ID, err)
		}
		rec[fieldID] = gn.ID
		n, err := nodeFromRecord(rec)
		if err != nil {
			return err
		}
		if !t.admitNode(n) {
			continue
		}
		if _, err := t.graph.AddNode(n); err != nil {
			return err
		}
		nodes++
	}
	for _, ge := range doc.Graph.Edges {
		rec, err := decodeData(keys, ge.Data)
		if err != nil {
			return fmt.Errorf("edge %s -> %s: %w", ge.Source, ge.Target, err)
		}
		rec[fieldSubject] = ge.Source
		rec[fieldObject] = ge.Target
		if ge.ID != "" {
			rec[fieldID] = ge.ID
		}
		e, err := edgeFromRecord(rec)
		if err != nil {
			return err
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

// decodeData converts data elements using their key declarations.
// Undeclared keys are read as strings named by the key id.
func decodeData(keys map[string]graphmlKey, data []graphmlData) (map[string]any, error) {
	rec := make(map[string]any, len(data))
	for _, d := range data {
		k, ok := keys[d.Key]
		if !ok {
			k = graphmlKey{Name: d.Key, Type: "string"}
		}
		name := k.Name
		if name == "" {
			name = k.ID
		}
		if k.List != "" || name == fieldCategory {
			if d.Value != "" {
				rec[name] = strings.Split(d.Value, listSeparator)
			}
			continue
		}
		switch k.Type {
		case "double", "float", "int", "long":
			f, err := strconv.ParseFloat(strings.TrimSpace(d.Value), 64)
			if err != nil {
				return nil, fmt.Errorf("key %s: %w", name, err)
			}
			rec[name] = f
		case "boolean":
			b, err := strconv.ParseBool(strings.TrimSpace(d.Value))
			if err != nil {
				return nil, fmt.Errorf("key %s: %w", name, err)
			}
			rec[name] = b
		default:
			rec[name] = d.Value
		}
	}
	return rec, nil
}

func (t *GraphMLTransformer) Save(ctx context.Context, destination string, opts SaveOptions) (out string, err error) {
	start := time.Now()
	defer func() { t.track("save", start, err) }()

	doc := t.document()
	return t.saveTo(ctx, destination, func(path string) (string, error) {
		f, err := os.Create(path)
		if err != nil {
			return "", err
		}
		w := bufio.NewWriter(f)
		w.WriteString(xml.Header)
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")
		if err := enc.Encode(doc); err != nil {
			f.Close()
			return "", err
		}
		w.WriteString("\n")
		if err := w.Flush(); err != nil {
			f.Close()
			return "", err
		}
		if err := f.Close(); err != nil {
			return "", err
		}
		t.logger.Info("saved", logging.Path(path))
		return path, nil
	})
}

type keyRegistry struct {
	scope string
	ids   map[string]string
	keys  []graphmlKey
}

// key declares name on first use. A key seen with different kinds falls
// back to a string.
func (r *keyRegistry) key(name string, v graph.Value) string {
	id, ok := r.ids[name]
	if !ok {
		id = fmt.Sprintf("%s_%s", r.scope, name)
		r.ids[name] = id
		r.keys = append(r.keys, graphmlKey{ID: id, For: r.scope, Name: name, Type: graphmlType(v)})
		if v.Kind == graph.KindStringList {
			r.keys[len(r.keys)-1].List = "string"
		}
		return id
	}
	for i := range r.keys {
		if r.keys[i].ID == id && r.keys[i].Type != graphmlType(v) {
			r.keys[i].Type = "string"
		}
	}
	return id
}

func graphmlType(v graph.Value) string {
	switch v.Kind {
	case graph.KindNumber:
		return "double"
	case graph.KindBool:
		return "boolean"
	default:
		return "string"
	}
}

func (t *GraphMLTransformer) document() graphmlDoc {
	nodeKeys := &keyRegistry{scope: "node", ids: map[string]string{}}
	edgeKeys := &keyRegistry{scope: "edge", ids: map[string]string{}}

	doc := graphmlDoc{Xmlns: graphmlNamespace, Graph: graphmlGraph{ID: "G", EdgeDefault: "directed"}}
	for n := range t.graph.Nodes() {
		gn := graphmlNode{ID: n.ID}
		if len(n.Category) > 0 {
			v := graph.ListValue(n.Category...)
			gn.Data = append(gn.Data, graphmlData{Key: nodeKeys.key(fieldCategory, v), Value: v.String()})
		}
		for _, k := range n.Attributes.Keys() {
			v := n.Attributes[k]
			gn.Data = append(gn.Data, graphmlData{Key: nodeKeys.key(k, v), Value: v.String()})
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, gn)
	}
	for e := range t.graph.Edges() {
		ge := graphmlEdge{ID: edgeID(e), Source: e.Subject, Target: e.Object}
		label := graph.StringValue(e.Predicate)
		ge.Data = append(ge.Data, graphmlData{Key: edgeKeys.key(fieldEdgeLabel, label), Value: e.Predicate})
		if e.ProvidedBy != "" {
			v := graph.StringValue(e.ProvidedBy)
			ge.Data = append(ge.Data, graphmlData{Key: edgeKeys.key(fieldProvidedBy, v), Value: e.ProvidedBy})
		}
		for _, k := range e.Attributes.Keys() {
			if k == fieldID {
				continue
			}
			v := e.Attributes[k]
			ge.Data = append(ge.Data, graphmlData{Key: edgeKeys.key(k, v), Value: v.String()})
		}
		doc.Graph.Edges = append(doc.Graph.Edges, ge)
	}
	doc.Keys = slices.Concat(nodeKeys.keys, edgeKeys.keys)
	return doc
}
