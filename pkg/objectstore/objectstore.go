// Package objectstore moves serialized graphs to and from object storage so
// that s3:// locations can be used wherever a file path is accepted.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const Scheme = "s3://"

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidURL = errors.New("invalid object URL")
)

// Store reads and writes whole objects.
type Store interface {
	Put(ctx context.Context, bucket, key string, body io.Reader) error
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// IsRemote reports whether location names an object rather than a file.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, Scheme)
}

// ParseURL splits s3://bucket/key.
func ParseURL(location string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(location, Scheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q lacks %s", ErrInvalidURL, location, Scheme)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q needs a bucket and key", ErrInvalidURL, location)
	}
	return bucket, key, nil
}

// Options configures the S3 client. Empty fields fall back to the AWS
// default chain (environment, shared config, instance role).
type Options struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// PathStyle addresses buckets as endpoint/bucket, as MinIO expects.
	PathStyle bool
}

// OptionsFromEnv reads KGX_S3_REGION, KGX_S3_ENDPOINT and
// KGX_S3_PATH_STYLE. Credentials come from the AWS default chain.
func OptionsFromEnv() Options {
	return Options{
		Region:    os.Getenv("KGX_S3_REGION"),
		Endpoint:  os.Getenv("KGX_S3_ENDPOINT"),
		PathStyle: os.Getenv("KGX_S3_PATH_STYLE") == "true",
	}
}

// S3 is a Store backed by Amazon S3 or an S3-compatible service.
type S3 struct {
	client *s3.Client
}

// NewS3 builds a client from opts.
func NewS3(ctx context.Context, opts Options) (*S3, error) {
	var loaders []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loaders = append(loaders, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})
	return &S3{client: client}, nil
}

func (s *S3) Put(ctx context.Context, bucket, key string, body io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *S3) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, bucket, key)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, bucket, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = data
	return nil
}

func (m *Memory) Get(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, bucket, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Upload copies a local file to location.
func Upload(ctx context.Context, store Store, path, location string) error {
	bucket, key, err := ParseURL(location)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return store.Put(ctx, bucket, key, f)
}

// Download copies the object at location into a new file in dir and
// returns its path. The file keeps the object's base name so format
// detection by extension still works.
func Download(ctx context.Context, store Store, location, dir string) (string, error) {
	bucket, key, err := ParseURL(location)
	if err != nil {
		return "", err
	}
	body, err := store.Get(ctx, bucket, key)
	if err != nil {
		return "", err
	}
	defer body.Close()

	base := key[strings.LastIndex(key, "/")+1:]
	f, err := os.CreateTemp(dir, "*-"+base)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("download %s: %w", location, err)
	}
	return f.Name(), f.Close()
}
