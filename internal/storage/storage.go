// Package storage opens warehouse CSV files from a local directory or an
// S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/fourthcoffee/fc-commerce/internal/config"
	"github.com/fourthcoffee/fc-commerce/internal/logging"
)

// Source opens named files under a root.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Location(name string) string
}

// New returns a Source for root, which is either a local directory or an
// s3://bucket/prefix URI.
func New(ctx context.Context, root string, cfg config.StorageConfig) (Source, error) {
	if strings.HasPrefix(root, "s3://") {
		bucket, prefix, err := ParseS3URI(root)
		if err != nil {
			return nil, err
		}
		return NewS3Source(ctx, bucket, prefix, cfg)
	}
	return NewDirSource(root), nil
}

// ParseS3URI splits s3://bucket/prefix into its parts.
func ParseS3URI(uri string) (bucket, prefix string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("invalid storage uri %q: %w", uri, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid storage uri %q: expected s3://bucket/prefix", uri)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}

// DirSource reads files from a local directory.
type DirSource struct {
	root string
}

// NewDirSource creates a DirSource rooted at root.
func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

// Open opens root/name.
func (d *DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(d.Location(name))
}

// Location returns the file path of name.
func (d *DirSource) Location(name string) string {
	return filepath.Join(d.root, name)
}

// S3Source reads objects from a bucket under a key prefix.
type S3Source struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Source creates an S3Source. Static credentials are used when
// configured, otherwise the default AWS credential chain. A custom
// endpoint selects any S3-compatible store (MinIO, RustFS, ...).
func NewS3Source(ctx context.Context, bucket, prefix string, cfg config.StorageConfig) (*S3Source, error) {
	if bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	logging.Debug().
		Str("bucket", bucket).
		Str("prefix", prefix).
		Str("endpoint", cfg.Endpoint).
		Msg("Using object storage source")

	return &S3Source{client: client, bucket: bucket, prefix: prefix}, nil
}

// Open streams the object for name. A missing object yields an error
// wrapping fs.ErrNotExist.
func (s *S3Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%s: %w", s.Location(name), fs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to get %s: %w", s.Location(name), err)
	}
	return out.Body, nil
}

// Location returns the s3:// URI of name.
func (s *S3Source) Location(name string) string {
	return "s3://" + s.bucket + "/" + s.key(name)
}

func (s *S3Source) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}
