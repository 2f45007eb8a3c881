package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uperrors "github.com/kambire/Geeks-S3-Api-upload/errors"
	"github.com/kambire/Geeks-S3-Api-upload/internal/testutil"
	"github.com/kambire/Geeks-S3-Api-upload/uploadtypes"
)

// seedFiles writes n ten-byte files and returns matching uploads.
func seedFiles(t *testing.T, fsys *billy.FS, n int) []uploadtypes.FileUpload {
	t.Helper()
	uploads := make([]uploadtypes.FileUpload, 0, n)
	for i := 0; i < n; i++ {
		path := fmt.Sprintf("/data/file-%02d.bin", i)
		content := fmt.Sprintf("payload-%02d", i)
		require.NoError(t, fsys.WriteFile(path, []byte(content), 0o644))
		uploads = append(uploads, uploadtypes.FileUpload{
			File: uploadtypes.LocalFile{Path: path, Size: int64(len(content))},
			Key:  fmt.Sprintf("file-%02d.bin", i),
		})
	}
	return uploads
}

func newTestClient(mock *testutil.MockS3Client, fsys *billy.FS) *Client {
	return NewClientWithAPI(mock, "test-bucket", WithFilesystem(fsys))
}

// TestQueue_Run_DrainsQueue tests the happy path across a full queue.
func TestQueue_Run_DrainsQueue(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	uploads := seedFiles(t, fsys, 12)

	var putCalls atomic.Int64
	mock := &testutil.MockS3Client{
		PutObjectFunc: func(_ context.Context, _ *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			putCalls.Add(1)
			return &s3.PutObjectOutput{}, nil
		},
	}

	q := NewQueue()
	q.Enqueue(uploads...)

	summary, err := q.Run(context.Background(), newTestClient(mock, fsys))
	require.NoError(t, err)

	assert.Equal(t, 12, summary.Total)
	assert.Equal(t, 12, summary.Completed)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, int64(120), summary.Bytes)
	assert.Equal(t, int64(12), putCalls.Load())
	assert.False(t, q.Active())
	assert.Equal(t, 100, q.Progress())

	for _, task := range q.Tasks() {
		assert.Equal(t, uploadtypes.StatusCompleted, task.Status)
		assert.Equal(t, 100, task.Progress)
		assert.Empty(t, task.ErrorDetail)
	}
}

// TestQueue_Run_FailureIsolatedToTask tests that one failed upload never
// drags its siblings down.
func TestQueue_Run_FailureIsolatedToTask(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	uploads := seedFiles(t, fsys, 12)

	mock := &testutil.MockS3Client{
		PutObjectFunc: func(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			if aws.ToString(in.Key) == "file-03.bin" {
				return nil, errors.New("chunk upload failed")
			}
			return &s3.PutObjectOutput{}, nil
		},
	}

	q := NewQueue()
	created := q.Enqueue(uploads...)

	summary, err := q.Run(context.Background(), newTestClient(mock, fsys))
	require.NoError(t, err)

	assert.Equal(t, 12, summary.Total)
	assert.Equal(t, 11, summary.Completed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, int64(110), summary.Bytes)

	failed, found := q.Find(created[3].ID)
	require.True(t, found)
	assert.Equal(t, uploadtypes.StatusError, failed.Status)
	assert.Contains(t, failed.ErrorDetail, "chunk upload failed")
	assert.Zero(t, failed.Progress)

	// 110 of 120 bytes done, rounded.
	assert.Equal(t, 92, q.Progress())
}

// TestQueue_Run_AccessDeniedDetail tests that permission failures surface
// the fixed credentials guidance on the task.
func TestQueue_Run_AccessDeniedDetail(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	uploads := seedFiles(t, fsys, 1)

	mock := &testutil.MockS3Client{
		PutObjectFunc: func(_ context.Context, _ *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
		},
	}

	q := NewQueue()
	created := q.Enqueue(uploads...)

	summary, err := q.Run(context.Background(), newTestClient(mock, fsys))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	task, _ := q.Find(created[0].ID)
	assert.Equal(t, uperrors.AccessDeniedMessage, task.ErrorDetail)
}

// TestQueue_Run_MidRunEnqueueWaits tests that tasks enqueued while a run
// is draining stay pending until the next run.
func TestQueue_Run_MidRunEnqueueWaits(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	uploads := seedFiles(t, fsys, 2)

	started := make(chan string, 4)
	release := make(chan struct{})
	mock := &testutil.MockS3Client{
		PutObjectFunc: func(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			started <- aws.ToString(in.Key)
			<-release
			return &s3.PutObjectOutput{}, nil
		},
	}

	q := NewQueue()
	q.Enqueue(uploads...)
	client := newTestClient(mock, fsys)

	var summary *uploadtypes.RunSummary
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		summary, runErr = q.Run(context.Background(), client)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(5 * time.Second):
			t.Fatal("workers never reached the store")
		}
	}

	require.NoError(t, fsys.WriteFile("/data/late.bin", []byte("late bytes"), 0o644))
	late := q.Enqueue(uploadtypes.FileUpload{
		File: uploadtypes.LocalFile{Path: "/data/late.bin", Size: 10},
		Key:  "late.bin",
	})

	close(release)
	<-done
	require.NoError(t, runErr)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Completed)

	task, found := q.Find(late[0].ID)
	require.True(t, found)
	assert.Equal(t, uploadtypes.StatusPending, task.Status)

	second, err := q.Run(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Total)
	assert.Equal(t, 1, second.Completed)
}

// TestQueue_Run_SecondRunRejected tests the one-run-at-a-time rule.
func TestQueue_Run_SecondRunRejected(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	uploads := seedFiles(t, fsys, 1)

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	mock := &testutil.MockS3Client{
		PutObjectFunc: func(_ context.Context, _ *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			started <- struct{}{}
			<-release
			return &s3.PutObjectOutput{}, nil
		},
	}

	q := NewQueue()
	q.Enqueue(uploads...)
	client := newTestClient(mock, fsys)

	var summary *uploadtypes.RunSummary
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		summary, runErr = q.Run(context.Background(), client)
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never reached the store")
	}

	_, err := q.Run(context.Background(), client)
	require.Error(t, err)
	assert.True(t, uperrors.IsRunActive(err))

	_, err = q.ClearCompleted()
	require.Error(t, err)
	assert.True(t, uperrors.IsRunActive(err))

	close(release)
	<-done
	require.NoError(t, runErr)
	assert.Equal(t, 1, summary.Completed)
}

// TestQueue_Run_NothingEligible tests the empty-run fast path.
func TestQueue_Run_NothingEligible(t *testing.T) {
	mock := &testutil.MockS3Client{
		PutObjectFunc: func(_ context.Context, _ *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			t.Error("no uploads expected")
			return &s3.PutObjectOutput{}, nil
		},
	}
	fsys := billy.NewInMemoryFS()
	client := newTestClient(mock, fsys)

	t.Run("empty queue", func(t *testing.T) {
		q := NewQueue()
		summary, err := q.Run(context.Background(), client)
		require.NoError(t, err)
		assert.Zero(t, summary.Total)
		assert.False(t, q.Active())
	})

	t.Run("only completed tasks", func(t *testing.T) {
		q := NewQueue()
		created := q.Enqueue(uploadtypes.FileUpload{
			File: uploadtypes.LocalFile{Path: "/data/done.bin", Size: 10},
			Key:  "done.bin",
		})
		q.claim(created[0].ID)
		q.complete(created[0].ID)

		summary, err := q.Run(context.Background(), client)
		require.NoError(t, err)
		assert.Zero(t, summary.Total)
	})
}

// TestQueue_Run_FailedTasksDrainNextRun tests that a later run picks up
// tasks left in error status without an explicit retry.
func TestQueue_Run_FailedTasksDrainNextRun(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	uploads := seedFiles(t, fsys, 1)

	var failing atomic.Bool
	failing.Store(true)
	mock := &testutil.MockS3Client{
		PutObjectFunc: func(_ context.Context, _ *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			if failing.Load() {
				return nil, errors.New("store exploded")
			}
			return &s3.PutObjectOutput{}, nil
		},
	}

	q := NewQueue()
	created := q.Enqueue(uploads...)
	client := newTestClient(mock, fsys)

	first, err := q.Run(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Failed)

	task, _ := q.Find(created[0].ID)
	assert.Equal(t, uploadtypes.StatusError, task.Status)
	assert.Contains(t, task.ErrorDetail, "store exploded")

	failing.Store(false)
	second, err := q.Run(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Total)
	assert.Equal(t, 1, second.Completed)

	task, _ = q.Find(created[0].ID)
	assert.Equal(t, uploadtypes.StatusCompleted, task.Status)
	assert.Empty(t, task.ErrorDetail)
}

// TestQueue_Run_NilClient tests the guard on the client argument.
func TestQueue_Run_NilClient(t *testing.T) {
	q := NewQueue()
	_, err := q.Run(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, uperrors.IsInvalidConfig(err))
}

// TestQueue_Run_CancelLeavesRestPending tests that cancellation stops
// further claims while tasks not yet started stay pending.
func TestQueue_Run_CancelLeavesRestPending(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	uploads := seedFiles(t, fsys, 3)

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	mock := &testutil.MockS3Client{
		PutObjectFunc: func(_ context.Context, _ *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			started <- struct{}{}
			<-release
			return &s3.PutObjectOutput{}, nil
		},
	}

	q := NewQueue()
	q.Enqueue(uploads...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var summary *uploadtypes.RunSummary
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		summary, runErr = q.Run(ctx, newTestClient(mock, fsys), WithRunPoolSize(1))
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never reached the store")
	}
	cancel()
	close(release)
	<-done
	require.NoError(t, runErr)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Completed)
	assert.Zero(t, summary.Failed)
	assert.False(t, q.Active())

	var pending int
	for _, task := range q.Tasks() {
		if task.Status == uploadtypes.StatusPending {
			pending++
		}
	}
	assert.Equal(t, 2, pending)
}

// TestQueue_Run_MultipartUpload tests that a large task goes through the
// chunked protocol end to end.
func TestQueue_Run_MultipartUpload(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	content := bytes.Repeat([]byte("a"), 25)
	require.NoError(t, fsys.WriteFile("/data/big.bin", content, 0o644))

	var mu sync.Mutex
	var partNumbers []int32
	var completedParts int
	mock := &testutil.MockS3Client{
		PutObjectFunc: func(_ context.Context, _ *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			t.Error("expected the multipart path")
			return &s3.PutObjectOutput{}, nil
		},
		CreateMultipartUploadFunc: func(_ context.Context, _ *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
			return &s3.CreateMultipartUploadOutput{UploadId: aws.String("upload-1")}, nil
		},
		UploadPartFunc: func(_ context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
			mu.Lock()
			partNumbers = append(partNumbers, aws.ToInt32(in.PartNumber))
			mu.Unlock()
			return &s3.UploadPartOutput{ETag: aws.String(fmt.Sprintf("etag-%d", aws.ToInt32(in.PartNumber)))}, nil
		},
		CompleteMultipartUploadFunc: func(_ context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
			mu.Lock()
			completedParts = len(in.MultipartUpload.Parts)
			mu.Unlock()
			return &s3.CompleteMultipartUploadOutput{}, nil
		},
	}

	q := NewQueue()
	created := q.Enqueue(uploadtypes.FileUpload{
		File: uploadtypes.LocalFile{Path: "/data/big.bin", Size: 25},
		Key:  "big.bin",
	})

	summary, err := q.Run(context.Background(), newTestClient(mock, fsys), WithRunPartSize(10))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, int64(25), summary.Bytes)
	assert.Equal(t, []int32{1, 2, 3}, partNumbers)
	assert.Equal(t, 3, completedParts)

	task, _ := q.Find(created[0].ID)
	assert.Equal(t, uploadtypes.StatusCompleted, task.Status)
	assert.Equal(t, 100, task.Progress)
}

// TestQueue_Run_PoolSizeOption tests that per-run pool sizing bounds
// concurrency.
func TestQueue_Run_PoolSizeOption(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	uploads := seedFiles(t, fsys, 6)

	var inflight, peak atomic.Int64
	mock := &testutil.MockS3Client{
		PutObjectFunc: func(_ context.Context, _ *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			cur := inflight.Add(1)
			defer inflight.Add(-1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			return &s3.PutObjectOutput{}, nil
		},
	}

	q := NewQueue()
	q.Enqueue(uploads...)

	summary, err := q.Run(context.Background(), newTestClient(mock, fsys), WithRunPoolSize(2))
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Completed)
	assert.LessOrEqual(t, peak.Load(), int64(2))
}
