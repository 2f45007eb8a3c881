// Package errors provides error types and handling for upload operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents an upload operation error with context about the
// operation that failed. It wraps the underlying SDK or filesystem error
// with additional context for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "enqueue", "run", "transfer")
	Op string

	// Bucket is the target bucket name (if applicable)
	Bucket string

	// Key is the destination object key (if applicable)
	Key string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("upload.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("upload.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("upload.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("upload.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// Sentinel errors for common upload failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrInvalidConfig indicates the store configuration is unusable
	ErrInvalidConfig = errors.New("upload: invalid configuration")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("upload: invalid input")

	// ErrInvalidObjectKey indicates that a destination key is invalid
	ErrInvalidObjectKey = errors.New("upload: invalid object key")

	// ErrAccessDenied indicates the store rejected the credentials
	ErrAccessDenied = errors.New("upload: access denied")

	// ErrTransport indicates a network-level failure reaching the store
	ErrTransport = errors.New("upload: network error")

	// ErrTaskNotFound indicates the referenced task is not in the queue
	ErrTaskNotFound = errors.New("upload: task not found")

	// ErrTaskUploading indicates the task is held by a worker and cannot be mutated
	ErrTaskUploading = errors.New("upload: task is uploading")

	// ErrNotRetryable indicates retry was invoked on a task not in error status
	ErrNotRetryable = errors.New("upload: task is not in error status")

	// ErrRunActive indicates the operation conflicts with an active run
	ErrRunActive = errors.New("upload: run already active")

	// ErrNotConfigured indicates no usable stored credentials were found
	ErrNotConfigured = errors.New("upload: credentials not configured")
)

// IsAccessDenied checks if an error indicates the store rejected the credentials.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsTransport checks if an error indicates a network-level failure.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsInvalidConfig checks if an error indicates unusable store configuration.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsNotConfigured checks if an error indicates missing stored credentials.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// IsRunActive checks if an error indicates a conflicting active run.
func IsRunActive(err error) bool {
	return errors.Is(err, ErrRunActive)
}
