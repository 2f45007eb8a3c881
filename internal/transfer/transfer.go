// Package transfer drives a single object through the S3 upload protocol.
//
// Objects no larger than one part travel as a single PutObject request;
// larger objects use multipart upload with fixed-size parts. Any failure
// after a multipart upload was created aborts it so no parts are left
// behind server-side.
package transfer

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kambire/Geeks-S3-Api-upload/errors"
	"github.com/kambire/Geeks-S3-Api-upload/internal/s3api"
	"github.com/kambire/Geeks-S3-Api-upload/uploadtypes"
)

// Uploader performs uploads against one bucket.
type Uploader struct {
	s3Client s3api.S3API
	bucket   string
	partSize int64
}

// New creates a new Uploader. A non-positive partSize falls back to the
// default part size.
func New(s3Client s3api.S3API, bucket string, partSize int64) *Uploader {
	if partSize <= 0 {
		partSize = uploadtypes.DefaultPartSize
	}
	return &Uploader{
		s3Client: s3Client,
		bucket:   bucket,
		partSize: partSize,
	}
}

// Upload stores size bytes from reader under key. The progress sink is
// invoked with the running byte count each time the store acknowledges
// data; it may be nil.
func (u *Uploader) Upload(
	ctx context.Context,
	key string,
	reader io.Reader,
	size int64,
	contentType string,
	progress uploadtypes.ProgressFunc,
) error {
	if contentType == "" {
		contentType = DefaultContentType
	}

	if size <= u.partSize {
		return u.uploadSingle(ctx, key, reader, size, contentType, progress)
	}
	return u.uploadMultipart(ctx, key, reader, size, contentType, progress)
}

// uploadSingle performs a single-request upload for objects that fit in
// one part.
func (u *Uploader) uploadSingle(
	ctx context.Context,
	key string,
	reader io.Reader,
	size int64,
	contentType string,
	progress uploadtypes.ProgressFunc,
) error {
	data := make([]byte, size)
	if _, err := io.ReadFull(reader, data); err != nil {
		return errors.NewObjectError("read", u.bucket, key, err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}

	if _, err := u.s3Client.PutObject(ctx, input); err != nil {
		return errors.NewObjectError("putObject", u.bucket, key, err)
	}

	if progress != nil {
		progress(size, size)
	}
	return nil
}

// uploadMultipart streams the content as fixed-size parts and stitches them
// server-side. Parts upload sequentially so acknowledged progress never
// moves backwards.
func (u *Uploader) uploadMultipart(
	ctx context.Context,
	key string,
	reader io.Reader,
	size int64,
	contentType string,
	progress uploadtypes.ProgressFunc,
) error {
	uploadID, err := u.createMultipartUpload(ctx, key, contentType)
	if err != nil {
		return err
	}

	parts := make([]awstypes.CompletedPart, 0, calculateParts(size, u.partSize))
	buf := make([]byte, u.partSize)

	var sent int64
	for partNumber := int32(1); sent < size; partNumber++ {
		n := u.partSize
		if remaining := size - sent; remaining < n {
			n = remaining
		}

		if _, err := io.ReadFull(reader, buf[:n]); err != nil {
			u.abortMultipartUpload(ctx, key, uploadID)
			return errors.NewObjectError("read", u.bucket, key, err)
		}

		input := &s3.UploadPartInput{
			Bucket:     aws.String(u.bucket),
			Key:        aws.String(key),
			UploadId:   aws.String(uploadID),
			PartNumber: aws.Int32(partNumber),
			Body:       bytes.NewReader(buf[:n]),
		}

		output, err := u.s3Client.UploadPart(ctx, input)
		if err != nil {
			u.abortMultipartUpload(ctx, key, uploadID)
			return errors.NewObjectError("uploadPart", u.bucket, key, err)
		}

		parts = append(parts, awstypes.CompletedPart{
			ETag:       output.ETag,
			PartNumber: aws.Int32(partNumber),
		})

		sent += n
		if progress != nil {
			progress(sent, size)
		}
	}

	return u.completeMultipartUpload(ctx, key, uploadID, parts)
}

// calculateParts returns the number of parts needed for the given size.
func calculateParts(size, partSize int64) int {
	if size == 0 {
		return 1
	}
	return int((size + partSize - 1) / partSize)
}

// createMultipartUpload creates a new multipart upload.
func (u *Uploader) createMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}

	output, err := u.s3Client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", errors.NewObjectError("createMultipartUpload", u.bucket, key, err)
	}

	return aws.ToString(output.UploadId), nil
}

// completeMultipartUpload completes the multipart upload.
func (u *Uploader) completeMultipartUpload(
	ctx context.Context,
	key, uploadID string,
	parts []awstypes.CompletedPart,
) error {
	input := &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(u.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &awstypes.CompletedMultipartUpload{
			Parts: parts,
		},
	}

	if _, err := u.s3Client.CompleteMultipartUpload(ctx, input); err != nil {
		u.abortMultipartUpload(ctx, key, uploadID)
		return errors.NewObjectError("completeMultipartUpload", u.bucket, key, err)
	}
	return nil
}

// abortMultipartUpload discards a failed multipart upload and any parts
// already stored server-side.
func (u *Uploader) abortMultipartUpload(ctx context.Context, key, uploadID string) {
	input := &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(u.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	}
	// Ignore errors during cleanup
	_, _ = u.s3Client.AbortMultipartUpload(ctx, input)
}
