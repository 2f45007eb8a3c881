package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version metadata, overridden at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

// VersionCmd creates the command that prints build information.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print s3upload version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Version: %s\nCommit: %s\n", version, commit)
			return nil
		},
	}
}
