package testutil

import (
	"sync"

	"github.com/kambire/Geeks-S3-Api-upload/uploadtypes"
)

// ProgressEvent is one recorded acknowledgment from the store.
type ProgressEvent struct {
	Loaded int64
	Total  int64
}

// RecordingSink captures progress callbacks for assertions in tests.
// It is safe for concurrent use.
type RecordingSink struct {
	mu     sync.Mutex
	events []ProgressEvent
}

// Sink returns the ProgressFunc to hand to the code under test.
func (r *RecordingSink) Sink() uploadtypes.ProgressFunc {
	return func(loaded, total int64) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, ProgressEvent{Loaded: loaded, Total: total})
	}
}

// Events returns a copy of the recorded events in arrival order.
func (r *RecordingSink) Events() []ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ProgressEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Last returns the most recent event, if any.
func (r *RecordingSink) Last() (ProgressEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return ProgressEvent{}, false
	}
	return r.events[len(r.events)-1], true
}
