package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// FlagVerbose enables debug logging on every command
	FlagVerbose = "verbose"
)

// RootCmd creates and returns the root command for the s3upload CLI,
// configuring global flags and adding all subcommands.
func RootCmd() *cobra.Command {
	r := &cobra.Command{
		Use:   "s3upload",
		Short: "s3upload pushes files and folders to an S3-compatible bucket",
		Long: `s3upload uploads files and whole folder trees to any S3-compatible
object store, such as Cloudflare R2 or MinIO. Credentials are stored
once with "s3upload configure" and reused by every upload.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	r.PersistentFlags().Bool(FlagVerbose, false, "enable verbose logging")
	r.AddCommand(ConfigureCmd(), UploadCmd(), VersionCmd())

	return r
}

// newLogger builds the CLI logger. The default keeps quiet below warnings;
// --verbose switches to the development encoder at debug level.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, err := cmd.Flags().GetBool(FlagVerbose)
	if err != nil {
		return nil, err
	}
	if verbose {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// Execute runs the root command and exits nonzero on failure.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
