package objectstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	bucket, key, err := ParseURL("s3://graphs/monarch/out.json")
	require.NoError(t, err)
	assert.Equal(t, "graphs", bucket)
	assert.Equal(t, "monarch/out.json", key)

	for _, bad := range []string{"graphs/out.json", "s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		_, _, err := ParseURL(bad)
		assert.ErrorIs(t, err, ErrInvalidURL, bad)
	}
	assert.True(t, IsRemote("s3://a/b"))
	assert.False(t, IsRemote("/tmp/a"))
}

func TestUploadDownload(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	dir := t.TempDir()

	src := filepath.Join(dir, "graph.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"nodes":[]}`), 0o644))
	require.NoError(t, Upload(ctx, store, src, "s3://bucket/path/graph.json"))

	path, err := Download(ctx, store, "s3://bucket/path/graph.json", dir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "-graph.json"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"nodes":[]}`, string(data))

	_, err = Download(ctx, store, "s3://bucket/missing.json", dir)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("KGX_S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("KGX_S3_PATH_STYLE", "true")
	opts := OptionsFromEnv()
	assert.Equal(t, "http://localhost:9000", opts.Endpoint)
	assert.True(t, opts.PathStyle)
}

func TestNewS3WithStaticCredentials(t *testing.T) {
	s, err := NewS3(context.Background(), Options{
		Region:    "us-east-1",
		Endpoint:  "http://localhost:9000",
		AccessKey: "key",
		SecretKey: "secret",
		PathStyle: true,
	})
	require.NoError(t, err)
	assert.NotNil(t, s.client)
}
