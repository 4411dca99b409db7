package transformer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-kgx/pkg/graph"
)

func TestAttributesJSONB(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		raw, err := encodeAttributes(nil)
		require.NoError(t, err)
		assert.Equal(t, "{}", string(raw))

		a, err := decodeAttributes(nil)
		require.NoError(t, err)
		assert.NotNil(t, a)
		assert.Empty(t, a)
	})

	t.Run("round trip", func(t *testing.T) {
		in := graph.Attributes{
			"name":     graph.StringValue("TBX4"),
			"synonym":  graph.ListValue("a", "b"),
			"score":    graph.NumberValue(0.5),
			"obsolete": graph.BoolValue(false),
		}
		raw, err := encodeAttributes(in)
		require.NoError(t, err)

		out, err := decodeAttributes(raw)
		require.NoError(t, err)
		assert.Equal(t, "TBX4", out.GetString("name"))
		assert.Equal(t, []string{"a", "b"}, out["synonym"].Strings())
		f, err := out["score"].AsNumber()
		require.NoError(t, err)
		assert.Equal(t, 0.5, f)
		assert.Equal(t, graph.KindBool, out["obsolete"].Kind)
	})

	t.Run("null document", func(t *testing.T) {
		a, err := decodeAttributes([]byte("null"))
		require.NoError(t, err)
		assert.NotNil(t, a)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := decodeAttributes([]byte(`{"name":`))
		assert.Error(t, err)
	})
}

func TestPostgresTransformerDefaults(t *testing.T) {
	tr := NewPostgresTransformer(nil, "postgres://kgx@localhost/graphs")
	assert.Equal(t, DefaultUnwindBatch, tr.batch)
	assert.NotNil(t, tr.Graph())
	tr.Close()
}
