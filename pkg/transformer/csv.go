package transformer

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/dd0wney/cluso-kgx/pkg/graph"
	"github.com/dd0wney/cluso-kgx/pkg/logging"
)

// listSeparator joins list values inside one cell.
const listSeparator = "|"

// CSVTransformer reads and writes delimited node and edge tables. A save
// produces a tar archive holding nodes.<ext> and edges.<ext>; a parse
// accepts that archive or a single node or edge table.
type CSVTransformer struct {
	base
	comma rune
}

// NewCSVTransformer uses comma as the field delimiter.
func NewCSVTransformer(g *graph.Graph, comma rune, opts ...Option) *CSVTransformer {
	name := FormatCSV
	if comma == '\t' {
		name = FormatTSV
	}
	return &CSVTransformer{base: newBase(name, g, opts), comma: comma}
}

func (t *CSVTransformer) ext() string { return "." + t.name }

// Parse reads a tar archive of tables or one table. Node tables are loaded
// before edge tables so edge filters see the loaded endpoints.
func (t *CSVTransformer) Parse(ctx context.Context, source, format string) (err error) {
	start := time.Now()
	defer func() { t.track("parse", start, err) }()

	local, cleanup, err := t.localSource(ctx, source)
	if err != nil {
		return err
	}
	defer cleanup()

	var nodeTables, edgeTables [][]byte
	if strings.HasSuffix(strings.ToLower(local), ".tar") {
		nodeTables, edgeTables, err = readArchive(local)
	} else {
		var data []byte
		data, err = os.ReadFile(local)
		if err == nil {
			if isEdgeTable(data, t.comma) {
				edgeTables = append(edgeTables, data)
			} else {
				nodeTables = append(nodeTables, data)
			}
		}
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", source, err)
	}

	var nodes, edges int
	for _, data := range nodeTables {
		n, err := t.readTable(ctx, data, t.addNodeRecord)
		if err != nil {
			return err
		}
		nodes += n
	}
	for _, data := range edgeTables {
		n, err := t.readTable(ctx, data, t.addEdgeRecord)
		if err != nil {
			return err
		}
		edges += n
	}
	t.metrics.RecordLoad(t.name, nodes, edges)
	t.logger.Debug("parsed", logging.Source(source), logging.Int("nodes", nodes), logging.Int("edges", edges))
	return nil
}

func readArchive(path string) (nodes, edges [][]byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nodes, edges, nil
		}
		if err != nil {
			return nil, nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, nil, err
		}
		switch name := strings.ToLower(hdr.Name); {
		case strings.Contains(name, "edges"):
			edges = append(edges, data)
		case strings.Contains(name, "nodes"):
			nodes = append(nodes, data)
		}
	}
}

func isEdgeTable(data []byte, comma rune) bool {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	header, err := r.Read()
	if err != nil {
		return false
	}
	return slices.Contains(header, fieldSubject) && slices.Contains(header, fieldObject)
}

// readTable feeds every row to add as a record of non-empty cells and
// returns the number of rows admitted.
func (t *CSVTransformer) readTable(ctx context.Context, data []byte, add func(map[string]any) (bool, error)) (int, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = t.comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	admitted := 0
	for row := 1; ; row++ {
		if row%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return admitted, err
			}
		}
		cells, err := r.Read()
		if errors.Is(err, io.EOF) {
			return admitted, nil
		}
		if err != nil {
			return admitted, err
		}
		rec := make(map[string]any, len(header))
		for i, col := range header {
			if i >= len(cells) || cells[i] == "" {
				continue
			}
			rec[col] = cellValue(col, cells[i])
		}
		ok, err := add(rec)
		if err != nil {
			return admitted, fmt.Errorf("row %d: %w", row, err)
		}
		if ok {
			admitted++
		}
	}
}

// cellValue splits list cells. Categories are always lists.
func cellValue(col, cell string) any {
	if col == fieldCategory || strings.Contains(cell, listSeparator) {
		return strings.Split(cell, listSeparator)
	}
	return cell
}

func (t *CSVTransformer) addNodeRecord(rec map[string]any) (bool, error) {
	n, err := nodeFromRecord(rec)
	if err != nil {
		return false, err
	}
	if !t.admitNode(n) {
		return false, nil
	}
	_, err = t.graph.AddNode(n)
	return err == nil, err
}

func (t *CSVTransformer) addEdgeRecord(rec map[string]any) (bool, error) {
	e, err := edgeFromRecord(rec)
	if err != nil {
		return false, err
	}
	if !t.admitEdge(e) {
		return false, nil
	}
	return true, t.graph.AddEdge(e)
}

// Save writes a tar archive. ".tar" is appended to destination unless
// already present.
func (t *CSVTransformer) Save(ctx context.Context, destination string, opts SaveOptions) (out string, err error) {
	start := time.Now()
	defer func() { t.track("save", start, err) }()

	return t.saveTo(ctx, destination, func(path string) (string, error) {
		if !strings.HasSuffix(path, ".tar") {
			path += ".tar"
		}
		f, err := os.Create(path)
		if err != nil {
			return "", err
		}
		if err := t.writeArchive(f); err != nil {
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

func (t *CSVTransformer) writeArchive(w io.Writer) error {
	nodes, edges, err := t.tables()
	if err != nil {
		return err
	}
	tw := tar.NewWriter(w)
	now := time.Now()
	for _, member := range []struct {
		name string
		data []byte
	}{
		{"nodes" + t.ext(), nodes},
		{"edges" + t.ext(), edges},
	} {
		hdr := &tar.Header{Name: member.name, Mode: 0o644, Size: int64(len(member.data)), ModTime: now}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if _, err := tw.Write(member.data); err != nil {
			return err
		}
	}
	return tw.Close()
}

// tables renders the node and edge tables. Columns are the reserved fields
// followed by the sorted union of attribute keys.
func (t *CSVTransformer) tables() (nodes, edges []byte, err error) {
	nodeList := slices.Collect(t.graph.Nodes())
	edgeList := slices.Collect(t.graph.Edges())

	nodeCols := append([]string{fieldID, fieldCategory},
		attributeKeys(nodeList, func(n *graph.Node) graph.Attributes { return n.Attributes }, fieldID, fieldCategory)...)
	nodes, err = t.writeTable(nodeCols, len(nodeList), func(i int) map[string]any { return nodeRecord(nodeList[i]) })
	if err != nil {
		return nil, nil, err
	}

	edgeCols := append(slices.Clone(edgeFields),
		attributeKeys(edgeList, func(e *graph.Edge) graph.Attributes { return e.Attributes }, edgeFields...)...)
	edges, err = t.writeTable(edgeCols, len(edgeList), func(i int) map[string]any {
		edgeID(edgeList[i])
		return edgeRecord(edgeList[i])
	})
	return nodes, edges, err
}

func (t *CSVTransformer) writeTable(cols []string, rows int, record func(int) map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = t.comma
	if err := w.Write(cols); err != nil {
		return nil, err
	}
	cells := make([]string, len(cols))
	for i := 0; i < rows; i++ {
		rec := record(i)
		for j, col := range cols {
			cells[j] = formatCell(rec[col])
		}
		if err := w.Write(cells); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(x, listSeparator)
	case string:
		return x
	default:
		val, err := graph.ValueOf(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return val.String()
	}
}
