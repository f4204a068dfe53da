package s3fetch

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrObjectTooLarge is returned when an object exceeds the caller's limit.
var ErrObjectTooLarge = errors.New("object too large")

// API is the subset of the S3 client used here. *s3.Client satisfies it.
type API interface {
	s3.ListObjectsV2APIClient
	manager.DownloadAPIClient
}

// Client provides S3 operations for CATRAS archives.
type Client struct {
	api API
}

// ClientOptions adjusts the default AWS configuration.
type ClientOptions struct {
	// Region overrides the region from the environment.
	Region string
	// Endpoint points the client at an S3-compatible service.
	Endpoint string
	// PathStyle forces path-style addressing, which most S3-compatible
	// services require.
	PathStyle bool
}

// NewClient creates a new S3 client using default AWS configuration.
func NewClient(ctx context.Context) (*Client, error) {
	return NewClientWithOptions(ctx, ClientOptions{})
}

// NewClientWithOptions creates a client from the default AWS configuration
// with opts applied.
func NewClientWithOptions(ctx context.Context, opts ClientOptions) (*Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	api := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})
	return &Client{api: api}, nil
}

// NewClientWithConfig creates a new S3 client with a custom AWS config.
func NewClientWithConfig(cfg aws.Config) *Client {
	return &Client{api: s3.NewFromConfig(cfg)}
}

// NewClientWithAPI wraps an existing API implementation.
func NewClientWithAPI(api API) *Client {
	return &Client{api: api}
}

// ListKeys returns every key under prefix that ends in one of suffixes,
// in the order S3 lists them.
func (c *Client) ListKeys(ctx context.Context, bucket, prefix string, suffixes ...string) ([]string, error) {
	p := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if hasSuffix(key, suffixes) {
				keys = append(keys, key)
			}
		}
	}
	return keys, nil
}

// ReadObject reads a whole object into memory. Objects larger than
// maxSize fail with ErrObjectTooLarge; maxSize <= 0 means no limit.
func (c *Client) ReadObject(ctx context.Context, bucket, key string, maxSize int64) ([]byte, error) {
	body, err := c.StreamObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	r := io.Reader(body)
	if maxSize > 0 {
		r = io.LimitReader(body, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, fmt.Errorf("s3://%s/%s: %w: more than %d bytes", bucket, key, ErrObjectTooLarge, maxSize)
	}
	return data, nil
}

// StreamObject returns a reader for an S3 object.
func (c *Client) StreamObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	resp, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object s3://%s/%s: %w", bucket, key, err)
	}
	return resp.Body, nil
}
