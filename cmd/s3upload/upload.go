package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/spf13/cobra"

	upload "github.com/kambire/Geeks-S3-Api-upload"
	"github.com/kambire/Geeks-S3-Api-upload/credstore"
	"github.com/kambire/Geeks-S3-Api-upload/errors"
	"github.com/kambire/Geeks-S3-Api-upload/ingest"
	"github.com/kambire/Geeks-S3-Api-upload/uploadtypes"
)

const (
	FlagPoolSize    = "pool-size"
	FlagPartSize    = "part-size"
	FlagShowPending = "show-pending"
	FlagRetryFailed = "retry-failed"
)

// progressInterval is how often the aggregate percentage is printed
// during a run.
const progressInterval = 2 * time.Second

// UploadCmd creates the command that uploads files and folders to the
// configured bucket.
func UploadCmd() *cobra.Command {
	var (
		poolSize    int
		partSize    int64
		showPending bool
		retryFailed bool
	)

	cmd := &cobra.Command{
		Use:   "upload [path...]",
		Short: "Upload files and folders to the configured bucket",
		Long: `Upload resolves each path into upload tasks and drives them through a
fixed-size worker pool. A file keeps its bare name as the object key; a
folder contributes every file beneath it, keyed relative to the folder
itself.

Failed uploads are reported individually and never retried on their own.
Pass --retry-failed to give failures one more run before exiting.`,
		Example: `  s3upload upload report.pdf
  s3upload upload ./project --pool-size 4
  s3upload upload a.bin b.bin --retry-failed`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			creds, err := credstore.Default().Load()
			if err != nil {
				if errors.IsNotConfigured(err) {
					return fmt.Errorf("no stored credentials; run \"s3upload configure\" first")
				}
				return err
			}

			client, err := upload.NewClient(ctx, creds,
				upload.WithPoolSize(poolSize),
				upload.WithPartSize(partSize),
				upload.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			fsys := billy.NewOSFS("/")
			sources := make([]ingest.Source, 0, len(args))
			for _, arg := range args {
				abs, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", arg, err)
				}
				src, err := ingest.FromPath(fsys, abs)
				if err != nil {
					return err
				}
				sources = append(sources, src)
			}

			entries, err := ingest.Resolve(ctx, sources...)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("nothing to upload")
				return nil
			}

			queue := upload.NewQueue(upload.WithShowPending(showPending))
			queue.Enqueue(entries...)
			fmt.Printf("uploading %d file(s) to bucket %s\n", len(entries), client.Bucket())

			summary, err := runOnce(ctx, queue, client)
			if err != nil {
				return err
			}

			if retryFailed && summary.Failed > 0 && ctx.Err() == nil {
				fmt.Printf("retrying %d failed upload(s)\n", summary.Failed)
				for _, t := range queue.Tasks() {
					if t.Status == uploadtypes.StatusError {
						if err := queue.Retry(t.ID); err != nil {
							return err
						}
					}
				}
				summary, err = runOnce(ctx, queue, client)
				if err != nil {
					return err
				}
			}

			report(queue, summary)
			if summary.Failed > 0 {
				if !retryFailed {
					fmt.Println("hint: pass --retry-failed to give failures another run")
				}
				return fmt.Errorf("%d of %d upload(s) failed", summary.Failed, summary.Total)
			}
			if ctx.Err() != nil {
				return fmt.Errorf("upload interrupted: %d of %d completed", summary.Completed, summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&poolSize, FlagPoolSize, uploadtypes.DefaultPoolSize, "number of concurrent upload workers")
	cmd.Flags().Int64Var(&partSize, FlagPartSize, uploadtypes.DefaultPartSize, "multipart chunk size in bytes")
	cmd.Flags().BoolVar(&showPending, FlagShowPending, false, "list pending tasks in progress output during the run")
	cmd.Flags().BoolVar(&retryFailed, FlagRetryFailed, false, "give failed uploads one more run before exiting")

	return cmd
}

// runOnce drives a single run while printing aggregate progress.
func runOnce(ctx context.Context, queue *upload.Queue, client *upload.Client) (*uploadtypes.RunSummary, error) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fmt.Printf("progress %d%% (%d task(s) listed)\n", queue.Progress(), len(queue.Visible()))
			}
		}
	}()

	summary, err := queue.Run(ctx, client)
	close(done)
	return summary, err
}

// report prints per-task problems and the run totals. After a run the
// visible list holds everything that still needs attention: failures,
// plus tasks left pending by an interrupt.
func report(queue *upload.Queue, summary *uploadtypes.RunSummary) {
	for _, t := range queue.Visible() {
		switch t.Status {
		case uploadtypes.StatusError:
			fmt.Printf("failed   %s: %s\n", t.Key, t.ErrorDetail)
		case uploadtypes.StatusPending:
			fmt.Printf("pending  %s\n", t.Key)
		}
	}
	fmt.Printf("completed %d of %d upload(s), %d byte(s) in %s\n",
		summary.Completed, summary.Total, summary.Bytes, summary.Duration.Round(time.Millisecond))
}
