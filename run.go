package upload

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kambire/Geeks-S3-Api-upload/errors"
	"github.com/kambire/Geeks-S3-Api-upload/internal/pool"
	"github.com/kambire/Geeks-S3-Api-upload/internal/transfer"
	"github.com/kambire/Geeks-S3-Api-upload/uploadtypes"
)

// Run drives every task that is pending or failed at the moment of the
// call to completed or error status, uploading through client's bucket.
// The eligible set is snapshotted up front: tasks enqueued while the run
// is in flight stay pending and wait for the next run.
//
// Run blocks until every snapshotted task has been processed or ctx is
// canceled. On cancellation, in-flight tasks record their error and
// unclaimed tasks simply stay pending; the summary reflects whatever
// actually happened. Only one run may be active per queue at a time.
func (q *Queue) Run(ctx context.Context, client *Client, opts ...uploadtypes.RunOption) (*uploadtypes.RunSummary, error) {
	if client == nil {
		return nil, errors.NewError("run", errors.ErrInvalidConfig).
			WithMessage("client is required")
	}

	cfg := &uploadtypes.RunConfig{
		PoolSize: client.poolSize,
		PartSize: client.partSize,
		Logger:   client.log,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	snapshot, err := q.beginRun()
	if err != nil {
		return nil, err
	}
	if len(snapshot) == 0 {
		return &uploadtypes.RunSummary{}, nil
	}
	defer q.endRun()

	start := time.Now()
	log := cfg.Logger.With(zap.String("bucket", client.bucket))
	log.Info("run started",
		zap.Int("tasks", len(snapshot)),
		zap.Int("pool_size", cfg.PoolSize))

	uploader := transfer.New(client.api, client.bucket, cfg.PartSize)
	workers := pool.New(uploader, client.fsys, cfg.PoolSize, cfg.Logger)
	workers.Run(ctx, snapshot, pool.Callbacks{
		Claim:    q.claim,
		Progress: q.recordProgress,
		Complete: q.complete,
		Fail:     q.fail,
	})

	summary := q.summarize(snapshot, time.Since(start))
	log.Info("run finished",
		zap.Int("completed", summary.Completed),
		zap.Int("failed", summary.Failed),
		zap.Int64("bytes", summary.Bytes),
		zap.Duration("duration", summary.Duration))
	return summary, nil
}

// beginRun snapshots the IDs of every task eligible for upload and marks
// the queue active. It fails with ErrRunActive if another run already
// holds the queue, and returns an empty snapshot without activating when
// nothing is eligible.
func (q *Queue) beginRun() ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.active {
		return nil, errors.NewError("run", errors.ErrRunActive)
	}

	var ids []string
	for _, t := range q.tasks {
		if t.Status == uploadtypes.StatusPending || t.Status == uploadtypes.StatusError {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	q.active = true
	return ids, nil
}

// endRun releases the queue for the next run.
func (q *Queue) endRun() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.active = false
}

// summarize tallies the end state of the snapshotted tasks. Tasks removed
// during the run are skipped; tasks left pending by a canceled run count
// toward Total but neither Completed nor Failed.
func (q *Queue) summarize(ids []string, elapsed time.Duration) *uploadtypes.RunSummary {
	q.mu.Lock()
	defer q.mu.Unlock()

	byID := make(map[string]uploadtypes.Task, len(q.tasks))
	for _, t := range q.tasks {
		byID[t.ID] = t
	}

	summary := &uploadtypes.RunSummary{
		Total:    len(ids),
		Duration: elapsed,
	}
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			continue
		}
		switch t.Status {
		case uploadtypes.StatusCompleted:
			summary.Completed++
			summary.Bytes += t.File.Size
		case uploadtypes.StatusError:
			summary.Failed++
		}
	}
	return summary
}
