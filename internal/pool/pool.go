// Package pool implements the fixed-size worker pool that drains a run's
// task snapshot.
//
// Workers share a single atomic cursor over the snapshot taken at run
// start: each worker repeatedly claims the next unclaimed index, so no two
// workers can hold the same task and a run settles exactly when the cursor
// is exhausted. Task state never lives here; every observation and
// mutation goes through the callbacks supplied by the queue.
package pool

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"go.uber.org/zap"

	"github.com/kambire/Geeks-S3-Api-upload/errors"
	"github.com/kambire/Geeks-S3-Api-upload/internal/transfer"
	"github.com/kambire/Geeks-S3-Api-upload/uploadtypes"
)

// Callbacks route task-state transitions back to the owning queue.
//
// Claim moves the task to uploading and returns its current value; it
// reports false when the task is no longer eligible (removed since the
// snapshot was taken). Progress, Complete, and Fail record acknowledgment,
// success, and classified failure respectively.
type Callbacks struct {
	Claim    func(id string) (uploadtypes.Task, bool)
	Progress func(id string, bytesLoaded, bytesTotal int64)
	Complete func(id string)
	Fail     func(id string, detail string)
}

// Pool drives tasks through the upload protocol with bounded concurrency.
type Pool struct {
	uploader *transfer.Uploader
	fsys     fs.Filesystem
	size     int
	log      *zap.Logger
}

// New creates a pool of size workers transferring through uploader.
// A non-positive size falls back to the default pool size; a nil logger
// disables logging.
func New(uploader *transfer.Uploader, fsys fs.Filesystem, size int, log *zap.Logger) *Pool {
	if size <= 0 {
		size = uploadtypes.DefaultPoolSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{
		uploader: uploader,
		fsys:     fsys,
		size:     size,
		log:      log,
	}
}

// Run processes every task in snapshot and blocks until all workers have
// exhausted the shared cursor. Per-task failures are recorded through the
// callbacks and never abort sibling workers. Cancelling ctx stops further
// claims; tasks not yet claimed stay in their snapshot state.
func (p *Pool) Run(ctx context.Context, snapshot []string, cb Callbacks) {
	var cursor atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					return
				}
				idx := cursor.Add(1) - 1
				if idx >= int64(len(snapshot)) {
					return
				}
				p.process(ctx, worker, snapshot[idx], cb)
			}
		}(i)
	}

	wg.Wait()
}

// process uploads one claimed task and records its outcome.
func (p *Pool) process(ctx context.Context, worker int, id string, cb Callbacks) {
	task, ok := cb.Claim(id)
	if !ok {
		p.log.Debug("task no longer eligible, skipping",
			zap.Int("worker", worker),
			zap.String("task", id))
		return
	}

	p.log.Info("task claimed",
		zap.Int("worker", worker),
		zap.String("task", task.ID),
		zap.String("key", task.Key),
		zap.Int64("size", task.File.Size))

	file, err := p.fsys.Open(task.File.Path)
	if err != nil {
		p.fail(worker, task, cb, err)
		return
	}
	defer file.Close()

	contentType := transfer.DetectContentType(p.fsys, task.File.Path)

	sink := func(loaded, total int64) {
		cb.Progress(task.ID, loaded, total)
	}

	if err := p.uploader.Upload(ctx, task.Key, file, task.File.Size, contentType, sink); err != nil {
		p.fail(worker, task, cb, err)
		return
	}

	cb.Complete(task.ID)
	p.log.Info("task completed",
		zap.Int("worker", worker),
		zap.String("task", task.ID),
		zap.String("key", task.Key))
}

// fail classifies err and records it on the task.
func (p *Pool) fail(worker int, task uploadtypes.Task, cb Callbacks, err error) {
	detail := errors.Classify(err).Error()
	cb.Fail(task.ID, detail)
	p.log.Warn("task failed",
		zap.Int("worker", worker),
		zap.String("task", task.ID),
		zap.String("key", task.Key),
		zap.String("detail", detail),
		zap.Error(err))
}
