package upload

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"go.uber.org/zap"

	"github.com/kambire/Geeks-S3-Api-upload/errors"
	"github.com/kambire/Geeks-S3-Api-upload/internal/s3api"
	"github.com/kambire/Geeks-S3-Api-upload/uploadtypes"
)

// DefaultRegion is the region name sent to providers that do not shard by
// region. Cloudflare R2 and MinIO accept the fixed value "auto"; request
// signing only needs the region to be internally consistent.
const DefaultRegion = "auto"

// Client holds the configured connection to a single bucket on an
// S3-compatible store. All uploads performed through it target that bucket.
type Client struct {
	// api is the S3 endpoint surface used for uploads
	api s3api.S3API

	// bucket is the destination bucket name
	bucket string

	// fsys is the filesystem abstraction used to read local files
	fsys fs.Filesystem

	// log receives structured engine logs
	log *zap.Logger

	// poolSize is the default worker count for runs
	poolSize int

	// partSize is the default multipart chunk size in bytes
	partSize int64
}

// NewClient creates a client for the bucket named in creds. All four
// credential fields are required, and the endpoint must be an absolute
// http(s) URL. Requests are signed with the static key pair and use
// path-style addressing, which S3-compatible providers expect.
//
// Example:
//
//	client, err := upload.NewClient(ctx, creds,
//	    upload.WithPoolSize(4),
//	)
func NewClient(ctx context.Context, creds uploadtypes.Credentials, opts ...uploadtypes.Option) (*Client, error) {
	if field := creds.Missing(); field != "" {
		return nil, errors.NewError("client initialization", errors.ErrInvalidConfig).
			WithMessage(fmt.Sprintf("missing credential field %q", field))
	}
	if err := validateEndpoint(creds.Endpoint); err != nil {
		return nil, err
	}

	clientCfg := &uploadtypes.ClientConfig{
		Region:   DefaultRegion,
		PartSize: uploadtypes.DefaultPartSize,
		PoolSize: uploadtypes.DefaultPoolSize,
	}
	for _, opt := range opts {
		opt(clientCfg)
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(clientCfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, errors.NewError("client initialization", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(creds.Endpoint)
		o.UsePathStyle = true
		if clientCfg.CustomHTTPClient != nil {
			o.HTTPClient = clientCfg.CustomHTTPClient
		}
	})

	return newClient(s3Client, creds.Bucket, clientCfg), nil
}

// NewClientWithAPI creates a client around an existing S3API implementation.
// This is primarily used for testing with mocked endpoints.
func NewClientWithAPI(api s3api.S3API, bucket string, opts ...uploadtypes.Option) *Client {
	clientCfg := &uploadtypes.ClientConfig{
		PartSize: uploadtypes.DefaultPartSize,
		PoolSize: uploadtypes.DefaultPoolSize,
	}
	for _, opt := range opts {
		opt(clientCfg)
	}
	return newClient(api, bucket, clientCfg)
}

// newClient fills in the defaults shared by both constructors.
func newClient(api s3api.S3API, bucket string, cfg *uploadtypes.ClientConfig) *Client {
	fsys := cfg.Filesystem
	if fsys == nil {
		fsys = billy.NewOSFS("/")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = uploadtypes.DefaultPoolSize
	}
	partSize := cfg.PartSize
	if partSize <= 0 {
		partSize = uploadtypes.DefaultPartSize
	}

	return &Client{
		api:      api,
		bucket:   bucket,
		fsys:     fsys,
		log:      log,
		poolSize: poolSize,
		partSize: partSize,
	}
}

// Bucket returns the destination bucket this client uploads to.
func (c *Client) Bucket() string {
	return c.bucket
}

// validateEndpoint rejects endpoints the SDK would accept but the store
// could never serve, so misconfiguration surfaces before a run starts.
func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return errors.NewError("client initialization", errors.ErrInvalidConfig).
			WithMessage(fmt.Sprintf("invalid endpoint %q: %v", endpoint, err))
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.NewError("client initialization", errors.ErrInvalidConfig).
			WithMessage(fmt.Sprintf("endpoint %q must be an absolute http(s) URL", endpoint))
	}
	return nil
}
