// Package upload implements a queue-driven upload engine for S3-compatible
// object stores such as Cloudflare R2 or MinIO.
//
// Files and folders are resolved into upload tasks, collected in a Queue,
// and drained by a fixed-size worker pool. Each task moves through a small
// lifecycle (pending, uploading, completed, error) and reports byte-level
// progress as it transfers. Failed tasks stay in the queue until the caller
// retries or removes them; the engine never retries on its own.
//
// Key features:
//   - Queue semantics that survive partial failure: one bad file never
//     stops the run, and its error detail is kept on the task
//   - Automatic multipart upload for files above the part size
//   - Fixed worker pool with a shared cursor, so a run uploads the tasks
//     that were eligible when it started and nothing else
//   - Path-style addressing and static credentials, as required by most
//     S3-compatible providers
//
// Example usage:
//
//	client, err := upload.NewClient(ctx, creds)
//	if err != nil {
//	    return err
//	}
//
//	queue := upload.NewQueue()
//	queue.Enqueue(files...)
//
//	summary, err := queue.Run(ctx, client)
//	if err != nil {
//	    return err
//	}
package upload
