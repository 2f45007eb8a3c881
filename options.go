// Package upload provides functional options for configuring client,
// run, and queue behavior. These options follow the functional options
// pattern for clean, composable configuration.
package upload

import (
	"net/http"

	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"go.uber.org/zap"

	"github.com/kambire/Geeks-S3-Api-upload/uploadtypes"
)

// WithRegion overrides the region name used when signing requests.
// Default is DefaultRegion; S3-compatible stores rarely need anything else.
func WithRegion(region string) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		if region != "" {
			c.Region = region
		}
	}
}

// WithPartSize sets the chunk size for multipart uploads in bytes.
// Default is 10MB. Files at or below the part size upload in one request.
func WithPartSize(partSize int64) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		if partSize > 0 {
			c.PartSize = partSize
		}
	}
}

// WithPoolSize sets the default number of concurrent upload workers per run.
// Default is 10 workers.
func WithPoolSize(poolSize int) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		if poolSize > 0 {
			c.PoolSize = poolSize
		}
	}
}

// WithHTTPClient supplies a custom HTTP client for store requests.
// Useful for proxies, custom TLS configuration, or request timeouts.
func WithHTTPClient(client *http.Client) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.CustomHTTPClient = client
	}
}

// WithFilesystem sets the filesystem implementation used to read local files.
// Default is the OS filesystem. This is useful for testing with in-memory
// filesystems.
func WithFilesystem(filesystem fs.Filesystem) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithLogger sets the structured logger for client and run events.
// Default is a no-op logger.
func WithLogger(logger *zap.Logger) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithRunPoolSize overrides the client's worker count for a single run.
func WithRunPoolSize(poolSize int) uploadtypes.RunOption {
	return func(c *uploadtypes.RunConfig) {
		if poolSize > 0 {
			c.PoolSize = poolSize
		}
	}
}

// WithRunPartSize overrides the client's multipart chunk size for a single run.
func WithRunPartSize(partSize int64) uploadtypes.RunOption {
	return func(c *uploadtypes.RunConfig) {
		if partSize > 0 {
			c.PartSize = partSize
		}
	}
}

// WithRunLogger overrides the client's logger for a single run.
func WithRunLogger(logger *zap.Logger) uploadtypes.RunOption {
	return func(c *uploadtypes.RunConfig) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithShowPending includes pending tasks in the visible list while a run
// is active. By default only uploading and failed tasks show during a run.
func WithShowPending(show bool) uploadtypes.QueueOption {
	return func(c *uploadtypes.QueueConfig) {
		c.ShowPending = show
	}
}
