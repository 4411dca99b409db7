package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-kgx/pkg/graph"
	"github.com/dd0wney/cluso-kgx/pkg/transformer"
	"github.com/dd0wney/cluso-kgx/pkg/validation"
)

const fixture = `{
  "nodes": [
    {"id": "HGNC:11603", "category": ["gene"], "name": "TBX4"},
    {"id": "HP:0000003", "category": ["phenotypic_feature"]}
  ],
  "edges": [
    {"subject": "HGNC:11603", "edge_label": "has_phenotype", "object": "HP:0000003", "provided_by": "monarch"}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the command line against a fresh root and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := rootCmd(newApp())
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBatchName(t *testing.T) {
	tests := []struct {
		output string
		i      int
		want   string
	}{
		{"graph.json", 0, "graph(0).json"},
		{"out/graph.csv.tar", 3, "out/graph(3).csv.tar"},
		{"/tmp/graph", 1, "/tmp/graph(1)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, batchName(tt.output, tt.i), tt.output)
	}
}

func TestFilterFlags(t *testing.T) {
	t.Run("labels and properties", func(t *testing.T) {
		fs, err := filterFlags(
			[]string{"subject=gene", "edge=has_phenotype"},
			[]string{"edge=provided_by=clinvar"},
		)
		require.NoError(t, err)
		assert.Equal(t, 3, fs.Len())

		edge := fs.At(graph.LocationEdge)
		require.Len(t, edge, 2)
		kinds := []graph.FilterKind{edge[0].Kind, edge[1].Kind}
		assert.ElementsMatch(t, []graph.FilterKind{graph.FilterLabel, graph.FilterProperty}, kinds)

		subject := fs.At(graph.LocationSubject)
		require.Len(t, subject, 1)
		assert.Equal(t, graph.FilterCategory, subject[0].Kind)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := filterFlags([]string{"subject"}, nil)
		assert.Error(t, err)
		_, err = filterFlags(nil, []string{"edge=provided_by"})
		assert.Error(t, err)
		_, err = filterFlags([]string{"node=gene"}, nil)
		assert.ErrorIs(t, err, graph.ErrInvalidFilter)
	})
}

func TestCommandTree(t *testing.T) {
	root := rootCmd(newApp())
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{
		"dump", "validate", "load-mapping", "load-and-merge", "neo4j-download",
		"neo4j-upload", "node-summary", "edge-summary", "infer", "browse", "version",
	} {
		assert.Contains(t, names, want)
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestDump(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "graph.json", fixture)
	output := filepath.Join(dir, "graph.csv")

	out, err := run(t, "dump", input, output)
	require.NoError(t, err)
	assert.Contains(t, out, output+".tar")

	back, err := transformer.Load(context.Background(), []string{output + ".tar"}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, back.Graph().NodeCount())
	assert.Equal(t, 1, back.Graph().EdgeCount())
}

func TestDumpRejectsMixedInputs(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", fixture)
	b := writeFile(t, dir, "b.graphml", "")
	_, err := run(t, "dump", a, b, filepath.Join(dir, "out.json"))
	assert.ErrorIs(t, err, transformer.ErrMixedFormats)
}

func TestLoadMappingAndDump(t *testing.T) {
	dir := t.TempDir()
	mappings := filepath.Join(dir, "mappings")
	csvPath := writeFile(t, dir, "hgnc.csv", "hgnc,ncbi\nHGNC:11603,NCBIGene:9496\n")

	out, err := run(t, "--mapping-dir", mappings, "load-mapping", "hgnc", csvPath, "--show")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved 1 entries")
	assert.Contains(t, out, "HGNC:11603 -> NCBIGene:9496")

	input := writeFile(t, dir, "graph.json", fixture)
	output := filepath.Join(dir, "mapped.json")
	_, err = run(t, "--mapping-dir", mappings, "dump", "--mapping", "hgnc", "--preserve", input, output)
	require.NoError(t, err)

	back, err := transformer.Load(context.Background(), []string{output}, "")
	require.NoError(t, err)
	g := back.Graph()
	n, ok := g.Node("NCBIGene:9496")
	require.True(t, ok)
	assert.Equal(t, "HGNC:11603", n.Attributes.GetString("source_id"))
	assert.False(t, g.HasNode("HGNC:11603"))
	for e := range g.Edges() {
		assert.Equal(t, "NCBIGene:9496", e.Subject)
	}
}

func TestLoadMappingColumns(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "ids.csv", "x,HGNC:1,NCBIGene:1\n")
	_, err := run(t, "--mapping-dir", dir, "load-mapping", "ids", csvPath, "--no-header", "--columns", "1,2")
	require.NoError(t, err)

	_, err = run(t, "--mapping-dir", dir, "load-mapping", "ids", csvPath, "--columns", "1")
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	table := map[string]string{"a": "1", "b": "2", "c": "3"}
	assert.Equal(t, []string{"a -> 1", "b -> 2", "... and 1 more"}, preview(table, 2))
	assert.Len(t, preview(table, 5), 3)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	t.Run("clean", func(t *testing.T) {
		out, err := run(t, "validate", writeFile(t, dir, "ok.json", fixture))
		require.NoError(t, err)
		assert.Contains(t, out, "checked 2 nodes and 1 edges: 0 issues")
	})

	t.Run("issues", func(t *testing.T) {
		bad := writeFile(t, dir, "bad.json", `{"nodes":[{"id":"HGNC:1"}],"edges":[]}`)
		out, err := run(t, "validate", bad)
		assert.ErrorIs(t, err, validation.ErrInvalidGraph)
		assert.Contains(t, out, "HGNC:1")
	})
}

func TestWriteSummary(t *testing.T) {
	header := []string{"category", "prefix", "frequency"}
	records := [][]string{{"gene", "HGNC", "10"}, {"disease", "MONDO", "2"}}

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "summary.csv")
		var out bytes.Buffer
		require.NoError(t, writeSummary(&out, path, header, records))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "category|prefix|frequency\ngene|HGNC|10\ndisease|MONDO|2\n", string(data))
	})

	t.Run("terminal", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, writeSummary(&out, "", header, records))
		s := out.String()
		assert.Contains(t, s, "category")
		assert.Contains(t, s, "MONDO")
		assert.Equal(t, 1, strings.Count(s, "HGNC"))
	})
}

func TestDownloadRequiresBatchSize(t *testing.T) {
	_, err := run(t, "neo4j-download", "bolt://localhost:7687", "neo4j", "pw", "out.json", "--batch-start", "2")
	assert.ErrorContains(t, err, "--batch-size")
}

func TestInferRequiresOntology(t *testing.T) {
	_, err := run(t, "infer", "HP:0000003")
	assert.Error(t, err)
}

func TestInfer(t *testing.T) {
	onto := writeFile(t, t.TempDir(), "hp.nt",
		"<http://purl.obolibrary.org/obo/HP_0000003> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <http://purl.obolibrary.org/obo/UPHENO_0001001> .\n")
	out, err := run(t, "infer", "HP:0000003", "--ontology", onto)
	require.NoError(t, err)
	assert.Contains(t, out, "phenotype")
}

func TestMergeConflicts(t *testing.T) {
	build := func(category string) *graph.Graph {
		g := graph.New()
		_, err := g.AddNode(&graph.Node{ID: "HGNC:1", Category: []string{category}})
		require.NoError(t, err)
		return g
	}

	t.Run("fail by default", func(t *testing.T) {
		var stderr bytes.Buffer
		_, err := newApp().merge(&stderr, []*graph.Graph{build("gene"), build("protein")}, false)
		assert.ErrorIs(t, err, graph.ErrConflict)
		assert.Contains(t, stderr.String(), "HGNC:1.category")
	})

	t.Run("allowed", func(t *testing.T) {
		var stderr bytes.Buffer
		merged, err := newApp().merge(&stderr, []*graph.Graph{build("gene"), build("protein")}, true)
		require.NoError(t, err)
		n, ok := merged.Node("HGNC:1")
		require.True(t, ok)
		assert.Equal(t, []string{"protein"}, n.Category)
		assert.Contains(t, stderr.String(), "1 merge conflicts")
	})

	t.Run("no conflicts", func(t *testing.T) {
		var stderr bytes.Buffer
		merged, err := newApp().merge(&stderr, []*graph.Graph{build("gene"), build("gene")}, false)
		require.NoError(t, err)
		assert.Equal(t, 1, merged.NodeCount())
		assert.Empty(t, stderr.String())
	})
}
