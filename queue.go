package upload

import (
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/kambire/Geeks-S3-Api-upload/errors"
	"github.com/kambire/Geeks-S3-Api-upload/uploadtypes"
)

// Queue holds upload tasks and controls their lifecycle. Tasks enter as
// pending, are claimed by workers during a run, and finish as completed
// or error. Failed tasks stay in the queue until the caller retries or
// removes them; the queue never retries on its own.
//
// All methods are safe for concurrent use.
type Queue struct {
	// mu guards tasks and active
	mu sync.Mutex

	// tasks is the ordered task list; order is arrival order
	tasks []uploadtypes.Task

	// active reports whether a run is currently draining the queue
	active bool

	// showPending includes pending tasks in Visible during a run
	showPending bool
}

// NewQueue creates an empty queue.
func NewQueue(opts ...uploadtypes.QueueOption) *Queue {
	cfg := &uploadtypes.QueueConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Queue{showPending: cfg.ShowPending}
}

// replace swaps the task list for fn's result. Callers must hold mu.
// Every list mutation goes through here so a reader never observes a
// partially updated list; fn builds a new slice instead of editing in
// place.
func (q *Queue) replace(fn func(tasks []uploadtypes.Task) []uploadtypes.Task) {
	q.tasks = fn(q.tasks)
}

// copyTasks clones the list so a mutation never aliases the previous one.
func copyTasks(tasks []uploadtypes.Task) []uploadtypes.Task {
	next := make([]uploadtypes.Task, len(tasks))
	copy(next, tasks)
	return next
}

// Enqueue appends one task per upload in arrival order. Every task gets a
// fresh ID, even when the same file is enqueued twice. The created tasks
// are returned in the same order as the input.
func (q *Queue) Enqueue(uploads ...uploadtypes.FileUpload) []uploadtypes.Task {
	created := make([]uploadtypes.Task, len(uploads))
	for i, up := range uploads {
		created[i] = uploadtypes.Task{
			ID:     uuid.NewString(),
			File:   up.File,
			Key:    up.Key,
			Status: uploadtypes.StatusPending,
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.replace(func(tasks []uploadtypes.Task) []uploadtypes.Task {
		next := make([]uploadtypes.Task, 0, len(tasks)+len(created))
		next = append(next, tasks...)
		next = append(next, created...)
		return next
	})
	return created
}

// Remove deletes a task from the queue. Tasks currently uploading cannot
// be removed; Remove returns ErrTaskUploading and leaves the queue
// unchanged. Removing an unknown ID returns ErrTaskNotFound.
func (q *Queue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	var opErr error
	found := false
	q.replace(func(tasks []uploadtypes.Task) []uploadtypes.Task {
		for i, t := range tasks {
			if t.ID != id {
				continue
			}
			found = true
			if t.Status == uploadtypes.StatusUploading {
				opErr = errors.NewError("remove", errors.ErrTaskUploading).WithKey(t.Key)
				return tasks
			}
			next := make([]uploadtypes.Task, 0, len(tasks)-1)
			next = append(next, tasks[:i]...)
			next = append(next, tasks[i+1:]...)
			return next
		}
		return tasks
	})
	if !found {
		return errors.NewError("remove", errors.ErrTaskNotFound)
	}
	return opErr
}

// Retry moves a failed task back to pending so the next run picks it up.
// Only tasks in error status can be retried; anything else returns
// ErrNotRetryable. Retrying clears the error detail and resets progress.
func (q *Queue) Retry(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	var opErr error
	found := false
	q.replace(func(tasks []uploadtypes.Task) []uploadtypes.Task {
		for i, t := range tasks {
			if t.ID != id {
				continue
			}
			found = true
			if t.Status != uploadtypes.StatusError {
				opErr = errors.NewError("retry", errors.ErrNotRetryable).WithKey(t.Key)
				return tasks
			}
			next := copyTasks(tasks)
			t.Status = uploadtypes.StatusPending
			t.Progress = 0
			t.BytesTransferred = 0
			t.ErrorDetail = ""
			next[i] = t
			return next
		}
		return tasks
	})
	if !found {
		return errors.NewError("retry", errors.ErrTaskNotFound)
	}
	return opErr
}

// ClearCompleted drops every completed task and reports how many were
// removed. It is rejected with ErrRunActive while a run is draining the
// queue, since the run's task set must stay stable until it finishes.
func (q *Queue) ClearCompleted() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.active {
		return 0, errors.NewError("clearCompleted", errors.ErrRunActive)
	}

	removed := 0
	q.replace(func(tasks []uploadtypes.Task) []uploadtypes.Task {
		next := make([]uploadtypes.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.Status == uploadtypes.StatusCompleted {
				removed++
				continue
			}
			next = append(next, t)
		}
		return next
	})
	return removed, nil
}

// Tasks returns a snapshot of every task in arrival order.
func (q *Queue) Tasks() []uploadtypes.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return copyTasks(q.tasks)
}

// Visible returns the tasks a task list UI should show. While a run is
// active that is the uploading and failed tasks (plus pending ones when
// the queue was built with WithShowPending); when idle, everything except
// completed tasks.
func (q *Queue) Visible() []uploadtypes.Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	visible := make([]uploadtypes.Task, 0, len(q.tasks))
	for _, t := range q.tasks {
		if q.visibleLocked(t) {
			visible = append(visible, t)
		}
	}
	return visible
}

func (q *Queue) visibleLocked(t uploadtypes.Task) bool {
	if q.active {
		switch t.Status {
		case uploadtypes.StatusUploading, uploadtypes.StatusError:
			return true
		case uploadtypes.StatusPending:
			return q.showPending
		default:
			return false
		}
	}
	return t.Status != uploadtypes.StatusCompleted
}

// Find returns the task with the given ID and whether it exists.
func (q *Queue) Find(id string) (uploadtypes.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return uploadtypes.Task{}, false
}

// Len returns the number of tasks in the queue.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Active reports whether a run is currently draining the queue.
func (q *Queue) Active() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Progress returns the aggregate percentage across the current task list.
func (q *Queue) Progress() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return GlobalProgress(q.tasks)
}

// claim hands a task to a worker. It succeeds only for tasks still in
// pending or error status, so a task removed or completed between snapshot
// and claim is skipped rather than uploaded twice.
func (q *Queue) claim(id string) (uploadtypes.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var claimed uploadtypes.Task
	ok := false
	q.replace(func(tasks []uploadtypes.Task) []uploadtypes.Task {
		for i, t := range tasks {
			if t.ID != id {
				continue
			}
			if t.Status != uploadtypes.StatusPending && t.Status != uploadtypes.StatusError {
				return tasks
			}
			next := copyTasks(tasks)
			t.Status = uploadtypes.StatusUploading
			t.Progress = 0
			t.BytesTransferred = 0
			t.ErrorDetail = ""
			next[i] = t
			claimed = t
			ok = true
			return next
		}
		return tasks
	})
	return claimed, ok
}

// recordProgress updates a task's transferred bytes and percentage from a
// progress event. Both values only move forward, so a late or duplicate
// event never makes progress appear to rewind. Events for tasks no longer
// uploading are dropped.
func (q *Queue) recordProgress(id string, bytesLoaded, bytesTotal int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.replace(func(tasks []uploadtypes.Task) []uploadtypes.Task {
		for i, t := range tasks {
			if t.ID != id {
				continue
			}
			if t.Status != uploadtypes.StatusUploading {
				return tasks
			}
			next := copyTasks(tasks)
			if bytesLoaded > t.BytesTransferred {
				t.BytesTransferred = bytesLoaded
			}
			if bytesTotal > 0 {
				if pct := int(math.Round(float64(bytesLoaded) / float64(bytesTotal) * 100)); pct > t.Progress {
					t.Progress = pct
				}
			}
			next[i] = t
			return next
		}
		return tasks
	})
}

// complete marks a task completed at full progress.
func (q *Queue) complete(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.replace(func(tasks []uploadtypes.Task) []uploadtypes.Task {
		for i, t := range tasks {
			if t.ID != id {
				continue
			}
			next := copyTasks(tasks)
			t.Status = uploadtypes.StatusCompleted
			t.Progress = 100
			t.BytesTransferred = t.File.Size
			t.ErrorDetail = ""
			next[i] = t
			return next
		}
		return tasks
	})
}

// fail marks a task failed and records the human-readable detail. The
// task stays in the queue so the caller can inspect and retry it.
func (q *Queue) fail(id string, detail string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.replace(func(tasks []uploadtypes.Task) []uploadtypes.Task {
		for i, t := range tasks {
			if t.ID != id {
				continue
			}
			next := copyTasks(tasks)
			t.Status = uploadtypes.StatusError
			t.Progress = 0
			t.BytesTransferred = 0
			t.ErrorDetail = detail
			next[i] = t
			return next
		}
		return tasks
	})
}
