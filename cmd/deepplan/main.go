// Package main provides the entry point for the deepplan CLI.
package main

import (
	"context"
	"os"

	"github.com/mrz1836/deepplan/internal/cli"
)

// Build-time variables set via ldflags.
//
//nolint:gochecknoglobals // Set by the linker
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx := context.Background()
	err := cli.Execute(ctx, cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})
	os.Exit(cli.ExitCodeForError(err))
}
