package upload

import (
	"math"

	"github.com/kambire/Geeks-S3-Api-upload/uploadtypes"
)

// GlobalProgress computes the aggregate completion percentage for a task
// list, weighting each task by its file size. Completed tasks count in
// full, failed tasks count as zero, and everything else counts in
// proportion to its own percentage. An empty list, or one whose files
// are all zero bytes, reports 0.
//
// The result depends only on the list passed in, so callers can evaluate
// historical snapshots the same way as the live queue.
func GlobalProgress(tasks []uploadtypes.Task) int {
	var total, done float64
	for _, t := range tasks {
		size := float64(t.File.Size)
		total += size
		switch t.Status {
		case uploadtypes.StatusCompleted:
			done += size
		case uploadtypes.StatusError:
			// failed bytes count as zero until the task is retried
		default:
			done += size * float64(t.Progress) / 100
		}
	}
	if total <= 0 {
		return 0
	}
	return int(math.Round(done / total * 100))
}
