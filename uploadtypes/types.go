// Package uploadtypes provides shared type definitions for the upload module.
package uploadtypes

import (
	"net/http"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"go.uber.org/zap"
)

// Default tuning values for the upload engine.
const (
	// DefaultPartSize is the fixed multipart part size (10 MiB).
	DefaultPartSize int64 = 10 * 1024 * 1024

	// DefaultPoolSize is the number of concurrent transfer workers.
	DefaultPoolSize = 10
)

// Status represents the lifecycle state of an upload task.
type Status string

// Task lifecycle states.
const (
	// StatusPending marks a task that is queued but not yet claimed by a worker.
	StatusPending Status = "pending"

	// StatusUploading marks a task currently held by exactly one worker.
	StatusUploading Status = "uploading"

	// StatusCompleted marks a task whose object was fully stored.
	StatusCompleted Status = "completed"

	// StatusError marks a task whose transfer failed; recovery is user-initiated.
	StatusError Status = "error"
)

// LocalFile references local binary content plus its byte length.
// The content itself is opened lazily through the filesystem abstraction
// when a worker claims the owning task.
type LocalFile struct {
	// Path is the local file path
	Path string

	// Size is the file size in bytes
	Size int64
}

// FileUpload pairs a local file with the object key it will be stored under.
// It is the resolver's output and the queue's enqueue input.
type FileUpload struct {
	// File is the local content reference
	File LocalFile

	// Key is the destination object key, forward-slash separated
	Key string
}

// Task is one queued file transfer.
type Task struct {
	// ID is an opaque unique identifier assigned at enqueue, immutable
	ID string

	// File is the local content reference, exclusively owned by the task
	File LocalFile

	// Key is the destination object key, computed once at ingestion
	Key string

	// BytesTransferred is the number of bytes acknowledged by the store
	BytesTransferred int64

	// Progress is the transfer percentage 0-100, monotone while uploading
	Progress int

	// Status is the task's lifecycle state
	Status Status

	// ErrorDetail is the operator-facing failure message, set only on error
	ErrorDetail string
}

// ProgressFunc is the push sink invoked as the remote store acknowledges
// bytes. Implementations must be safe for concurrent use when shared
// between tasks.
type ProgressFunc func(bytesLoaded, bytesTotal int64)

// Credentials holds the static configuration for an S3-compatible store.
// The JSON field names are the persisted wire format.
type Credentials struct {
	// AccessKeyID is the static access key
	AccessKeyID string `json:"accessKeyId"`

	// SecretAccessKey is the static secret key
	SecretAccessKey string `json:"secretAccessKey"`

	// Endpoint is the store's base URL, e.g. https://<account>.r2.cloudflarestorage.com
	Endpoint string `json:"endpoint"`

	// Bucket is the target bucket name
	Bucket string `json:"bucket"`
}

// Missing returns the JSON name of the first unset credential field, or
// the empty string when all four fields are present.
func (c Credentials) Missing() string {
	switch {
	case c.AccessKeyID == "":
		return "accessKeyId"
	case c.SecretAccessKey == "":
		return "secretAccessKey"
	case c.Endpoint == "":
		return "endpoint"
	case c.Bucket == "":
		return "bucket"
	}
	return ""
}

// RunSummary reports the outcome of one queue run.
type RunSummary struct {
	// Total is the number of tasks in the run's snapshot
	Total int

	// Completed is the number of tasks that reached completed
	Completed int

	// Failed is the number of tasks that reached error
	Failed int

	// Bytes is the total size of successfully stored objects
	Bytes int64

	// Duration is how long the run took
	Duration time.Duration
}

// Configuration types for functional options

// ClientConfig holds configuration for the store client.
type ClientConfig struct {
	Region           string
	PartSize         int64
	PoolSize         int
	CustomHTTPClient *http.Client
	Filesystem       fs.Filesystem // Filesystem abstraction for file content
	Logger           *zap.Logger
}

// RunConfig holds per-run overrides applied on top of the client defaults.
type RunConfig struct {
	PoolSize int
	PartSize int64
	Logger   *zap.Logger
}

// QueueConfig holds display policy configuration for a queue.
type QueueConfig struct {
	// ShowPending keeps pending tasks in the visible view during an
	// active run instead of narrowing to uploading and error tasks.
	ShowPending bool
}

// Option is a functional option for configuring the store client.
type (
	Option func(*ClientConfig)
	// RunOption is a functional option for configuring a single run.
	RunOption func(*RunConfig)
	// QueueOption is a functional option for configuring a queue.
	QueueOption func(*QueueConfig)
)
