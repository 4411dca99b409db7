package transformer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-kgx/pkg/graph"
	"github.com/dd0wney/cluso-kgx/pkg/metrics"
	"github.com/dd0wney/cluso-kgx/pkg/objectstore"
)

func sampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	_, err := g.AddNode(&graph.Node{
		ID:         "HGNC:11603",
		Category:   []string{"gene"},
		Attributes: graph.Attributes{"name": graph.StringValue("TBX4")},
	})
	require.NoError(t, err)
	_, err = g.AddNode(&graph.Node{
		ID:         "HP:0000003",
		Category:   []string{"phenotypic_feature"},
		Attributes: graph.Attributes{"synonym": graph.ListValue("multicystic kidney", "renal dysplasia")},
	})
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(&graph.Edge{
		Subject:    "HGNC:11603",
		Object:     "HP:0000003",
		Predicate:  "has_phenotype",
		ProvidedBy: "monarch",
		Attributes: graph.Attributes{"relation": graph.StringValue("RO:0002200")},
	}))
	return g
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"graph.csv", FormatCSV},
		{"graph.tsv.tar", FormatTSV},
		{"graph.tar", FormatCSV},
		{"graph.json", FormatJSON},
		{"GRAPH.GraphML", FormatGraphML},
		{"data/ontology.nt.gz", FormatNTriples},
		{"upheno.ttl", FormatTurtle},
		{"hp.owl", FormatRDFXML},
		{"mondo.rdf.gz", FormatRDFXML},
		{"s3://bucket/graphs/out.json", FormatJSON},
		{"bolt://localhost:7687", FormatNeo4j},
		{"neo4j://db.example.org", FormatNeo4j},
		{"postgres://kgx@localhost/graphs", FormatPostgres},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			got, err := FormatOf(tt.location)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := FormatOf("graph.xlsx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestInputFormat(t *testing.T) {
	t.Run("agreeing inputs", func(t *testing.T) {
		got, err := InputFormat([]string{"a.json", "b.json"}, "")
		require.NoError(t, err)
		assert.Equal(t, FormatJSON, got)
	})

	t.Run("mixed inputs", func(t *testing.T) {
		_, err := InputFormat([]string{"a.csv", "b.json"}, "")
		assert.ErrorIs(t, err, ErrMixedFormats)
	})

	t.Run("explicit format wins", func(t *testing.T) {
		got, err := InputFormat([]string{"a.csv", "b.json"}, FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, FormatJSON, got)
	})

	t.Run("unknown explicit format", func(t *testing.T) {
		_, err := InputFormat([]string{"a.csv"}, "xlsx")
		assert.ErrorIs(t, err, ErrUnknownFormat)
	})

	t.Run("no inputs", func(t *testing.T) {
		_, err := InputFormat(nil, "")
		assert.ErrorIs(t, err, ErrUnknownFormat)
	})
}

func TestLoadRejectsMixedFormatsBeforeParsing(t *testing.T) {
	// Neither file exists; the format check must fail first.
	_, err := Load(context.Background(), []string{"missing.csv", "missing.json"}, "")
	assert.ErrorIs(t, err, ErrMixedFormats)
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, format := range []string{FormatCSV, FormatTSV, FormatJSON, FormatGraphML} {
		t.Run(format, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "out."+format)
			written, err := SaveAs(ctx, sampleGraph(t), dest, "")
			require.NoError(t, err)
			_, err = os.Stat(written)
			require.NoError(t, err)

			tr, err := Load(ctx, []string{written}, "")
			require.NoError(t, err)
			g := tr.Graph()
			assert.Equal(t, 2, g.NodeCount())
			assert.Equal(t, 1, g.EdgeCount())

			gene, ok := g.Node("HGNC:11603")
			require.True(t, ok)
			assert.Equal(t, []string{"gene"}, gene.Category)
			assert.Equal(t, "TBX4", gene.Attributes.GetString("name"))

			pheno, ok := g.Node("HP:0000003")
			require.True(t, ok)
			syn, ok := pheno.Attributes.Get("synonym")
			require.True(t, ok)
			assert.ElementsMatch(t, []string{"multicystic kidney", "renal dysplasia"}, syn.Strings())

			for e := range g.Edges() {
				assert.Equal(t, "HGNC:11603", e.Subject)
				assert.Equal(t, "HP:0000003", e.Object)
				assert.Equal(t, "has_phenotype", e.Predicate)
				assert.Equal(t, "monarch", e.ProvidedBy)
				assert.Equal(t, "RO:0002200", e.Attributes.GetString("relation"))
				assert.True(t, strings.HasPrefix(e.Attributes.GetString("id"), "urn:uuid:"))
			}
		})
	}
}

func TestCSVSaveAppendsTar(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "graph.csv")
	written, err := NewCSVTransformer(sampleGraph(t), ',').Save(context.Background(), dest, SaveOptions{})
	require.NoError(t, err)
	assert.Equal(t, dest+".tar", written)
}

func TestCSVParseSingleTables(t *testing.T) {
	nodes := writeFile(t, "nodes.csv", "id,category,name\nHGNC:1,gene,A1BG\nHP:2,phenotypic_feature|disease,\n")
	edges := writeFile(t, "edges.csv", "subject,edge_label,object,provided_by\nHGNC:1,has_phenotype,HP:2,test\n")

	tr := NewCSVTransformer(nil, ',')
	ctx := context.Background()
	require.NoError(t, tr.Parse(ctx, nodes, FormatCSV))
	require.NoError(t, tr.Parse(ctx, edges, FormatCSV))

	g := tr.Graph()
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
	n, ok := g.Node("HP:2")
	require.True(t, ok)
	assert.Equal(t, []string{"phenotypic_feature", "disease"}, n.Category)
	_, hasName := n.Attributes.Get("name")
	assert.False(t, hasName, "empty cells are not attributes")
}

func TestJSONParseInvalidCategory(t *testing.T) {
	path := writeFile(t, "bad.json", `{"nodes":[{"id":"X:1","category":[1,2]}],"edges":[]}`)
	err := NewJSONTransformer(nil).Parse(context.Background(), path, FormatJSON)
	assert.ErrorIs(t, err, graph.ErrInvalidCategory)
}

const filterFixture = `{
  "nodes": [
    {"id": "HGNC:1", "category": ["gene"]},
    {"id": "HGNC:2", "category": ["gene"]},
    {"id": "MONDO:1", "category": ["disease"]},
    {"id": "HP:1", "category": ["phenotypic_feature"]}
  ],
  "edges": [
    {"subject": "HGNC:1", "edge_label": "has_phenotype", "object": "HP:1"},
    {"subject": "HGNC:2", "edge_label": "causes_condition", "object": "MONDO:1"},
    {"subject": "MONDO:1", "edge_label": "has_phenotype", "object": "HP:1"}
  ]
}`

func TestFiltersApplyDuringLoad(t *testing.T) {
	path := writeFile(t, "graph.json", filterFixture)
	ctx := context.Background()

	t.Run("subject category", func(t *testing.T) {
		fs := &graph.FilterSet{}
		require.NoError(t, fs.Set("subject_category", "gene"))
		tr, err := Load(ctx, []string{path}, "", WithFilters(fs))
		require.NoError(t, err)
		g := tr.Graph()
		assert.Equal(t, 2, g.EdgeCount())
		for e := range g.Edges() {
			assert.True(t, strings.HasPrefix(e.Subject, "HGNC:"))
		}
	})

	t.Run("subject category and edge label", func(t *testing.T) {
		fs := &graph.FilterSet{}
		require.NoError(t, fs.Set("subject_category", "gene"))
		require.NoError(t, fs.Set("edge_label", "has_phenotype"))
		tr, err := Load(ctx, []string{path}, "", WithFilters(fs))
		require.NoError(t, err)
		assert.Equal(t, 1, tr.Graph().EdgeCount())
	})

	t.Run("node category on both ends", func(t *testing.T) {
		fs := &graph.FilterSet{}
		require.NoError(t, fs.Set("subject_category", "gene"))
		require.NoError(t, fs.Set("object_category", "gene"))
		tr, err := Load(ctx, []string{path}, "", WithFilters(fs))
		require.NoError(t, err)
		g := tr.Graph()
		assert.Equal(t, 0, g.EdgeCount())
		assert.True(t, g.HasNode("HGNC:1"))
		assert.False(t, g.HasNode("MONDO:1"))
	})

	t.Run("filter set is reusable", func(t *testing.T) {
		fs := &graph.FilterSet{}
		require.NoError(t, fs.Set("edge_label", []string{"has_phenotype", "causes_condition"}))
		first, err := Load(ctx, []string{path}, "", WithFilters(fs))
		require.NoError(t, err)
		second, err := Load(ctx, []string{path}, "", WithFilters(fs))
		require.NoError(t, err)
		assert.Equal(t, 3, first.Graph().EdgeCount())
		assert.Equal(t, first.Graph().EdgeCount(), second.Graph().EdgeCount())
	})
}

func TestLoadRecordsMetrics(t *testing.T) {
	path := writeFile(t, "graph.json", filterFixture)
	reg := metrics.NewRegistry()
	fs := &graph.FilterSet{}
	require.NoError(t, fs.Set("edge_label", "has_phenotype"))

	_, err := Load(context.Background(), []string{path}, "", WithMetrics(reg), WithFilters(fs))
	require.NoError(t, err)

	var m dto.Metric
	require.NoError(t, reg.NodesLoadedTotal.WithLabelValues(FormatJSON).Write(&m))
	assert.Equal(t, 4.0, m.Counter.GetValue())
	require.NoError(t, reg.EdgesLoadedTotal.WithLabelValues(FormatJSON).Write(&m))
	assert.Equal(t, 2.0, m.Counter.GetValue())
	require.NoError(t, reg.FilterRejectionsTotal.WithLabelValues("edge").Write(&m))
	assert.Equal(t, 1.0, m.Counter.GetValue())
}

func TestObjectStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := objectstore.NewMemory()

	for _, tt := range []struct {
		dest string
		want string
	}{
		{"s3://graphs/run-1/out.json", "s3://graphs/run-1/out.json"},
		{"s3://graphs/run-1/out.csv", "s3://graphs/run-1/out.csv.tar"},
	} {
		t.Run(tt.dest, func(t *testing.T) {
			written, err := SaveAs(ctx, sampleGraph(t), tt.dest, "", WithObjectStore(store))
			require.NoError(t, err)
			assert.Equal(t, tt.want, written)

			tr, err := Load(ctx, []string{written}, "", WithObjectStore(store))
			require.NoError(t, err)
			assert.Equal(t, 2, tr.Graph().NodeCount())
			assert.Equal(t, 1, tr.Graph().EdgeCount())
		})
	}
}

// cancelAfter is a context whose Err starts reporting cancellation after
// a fixed number of calls, which lets a load stop at a known record.
type cancelAfter struct {
	context.Context
	calls int
	limit int
}

func (c *cancelAfter) Err() error {
	c.calls++
	if c.calls > c.limit {
		return context.Canceled
	}
	return nil
}

func chainDocument(n int) string {
	var b strings.Builder
	b.WriteString(`{"nodes":[`)
	for i := range n {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"id":"N:%d","category":["gene"]}`, i)
	}
	b.WriteString(`],"edges":[`)
	for i := range n {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"subject":"N:%d","edge_label":"interacts_with","object":"N:%d"}`, i, (i+1)%n)
	}
	b.WriteString(`]}`)
	return b.String()
}

func TestInterruptedLoadLeavesValidGraph(t *testing.T) {
	path := writeFile(t, "chain.json", chainDocument(2500))

	// Err is consulted every 1000 records: nodes at 0, 1000, 2000, then
	// edges at 0, 1000, 2000.
	tests := []struct {
		name      string
		limit     int
		wantNodes int
		wantEdges int
	}{
		{"during nodes", 1, 1000, 0},
		{"during edges", 4, 2500, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &cancelAfter{Context: context.Background(), limit: tt.limit}
			tr, err := Load(ctx, []string{path}, "")
			require.ErrorIs(t, err, context.Canceled)
			require.NotNil(t, tr)

			g := tr.Graph()
			assert.Equal(t, tt.wantNodes, g.NodeCount())
			assert.Equal(t, tt.wantEdges, g.EdgeCount())

			seen := make(map[string]bool)
			for n := range g.Nodes() {
				assert.False(t, seen[n.ID], "duplicate node %s", n.ID)
				seen[n.ID] = true
			}
			assert.Len(t, seen, g.NodeCount())
			for e := range g.Edges() {
				assert.True(t, g.HasNode(e.Subject), e.Subject)
				assert.True(t, g.HasNode(e.Object), e.Object)
			}
		})
	}
}

func TestNewUnknownFormat(t *testing.T) {
	_, err := New("xlsx", nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
