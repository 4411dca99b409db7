package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mergeYAML = `
target:
  zeta:
    neo4j:
      host: localhost
      port: 7687
      username: neo4j
      password: secret
    target_filter:
      subject_category: gene
      edge_label: [interacts_with]
    query_limits:
      start: 0
      end: 1000
  alpha:
    neo4j:
      host: neo4j://remote
      username: reader
destination:
  neo4j:
    host: merged
    port: 7688
    username: writer
`

func TestParseMergeConfig(t *testing.T) {
	t.Setenv(PasswordEnv, "from-env")

	cfg, err := ParseMergeConfig(strings.NewReader(mergeYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha"}, cfg.Names(), "document order is kept")

	zeta := cfg.Target["zeta"]
	assert.Equal(t, "bolt://localhost:7687", zeta.Neo4j.URI())
	assert.Equal(t, "secret", zeta.Neo4j.Password)
	assert.Equal(t, "gene", zeta.TargetFilter["subject_category"])
	require.NotNil(t, zeta.QueryLimits)
	require.NotNil(t, zeta.QueryLimits.End)
	assert.Equal(t, 1000, *zeta.QueryLimits.End)

	alpha := cfg.Target["alpha"]
	assert.Equal(t, "neo4j://remote", alpha.Neo4j.URI())
	assert.Equal(t, "from-env", alpha.Neo4j.Password)
	assert.Nil(t, alpha.QueryLimits)

	require.NotNil(t, cfg.Destination)
	assert.Equal(t, "bolt://merged:7688", cfg.Destination.Neo4j.URI())
	assert.Equal(t, "from-env", cfg.Destination.Neo4j.Password)
}

func TestParseMergeConfigRejects(t *testing.T) {
	cases := map[string]string{
		"no targets":    "target: {}\n",
		"missing host":  "target:\n  a:\n    neo4j:\n      username: u\n",
		"bad port":      "target:\n  a:\n    neo4j:\n      host: h\n      username: u\n      port: 70000\n",
		"window":        "target:\n  a:\n    neo4j: {host: h, username: u}\n    query_limits: {start: 10, end: 5}\n",
		"negative":      "target:\n  a:\n    neo4j: {host: h, username: u}\n    query_limits: {start: -1}\n",
		"empty dest":    "target:\n  a:\n    neo4j: {host: h, username: u}\ndestination: {format: json}\n",
		"not yaml":      "target: [",
		"unknown field": "target:\n  a:\n    neo4j: {host: h, username: u}\nsurprise: 1\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMergeConfig(strings.NewReader(doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestFileDestination(t *testing.T) {
	doc := "target:\n  a:\n    neo4j: {host: h, username: u}\ndestination: {path: s3://bucket/merged.json}\n"
	cfg, err := ParseMergeConfig(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/merged.json", cfg.Destination.Path)
	assert.Nil(t, cfg.Destination.Neo4j)
}

func TestLoadMergeConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merge.yml")
	require.NoError(t, os.WriteFile(path, []byte(mergeYAML), 0o644))
	cfg, err := LoadMergeConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Target, 2)

	_, err = LoadMergeConfig(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestNamesWithoutDocumentOrder(t *testing.T) {
	cfg := &MergeConfig{Target: map[string]Target{"b": {}, "a": {}}}
	assert.Equal(t, []string{"a", "b"}, cfg.Names())
}
