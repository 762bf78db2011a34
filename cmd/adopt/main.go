// Package main provides the entry point for the adopt CLI.
package main

import (
	"context"
	"os"

	"github.com/mrz1836/adopt/internal/cli"
	"github.com/mrz1836/adopt/internal/signal"
)

// Set via ldflags at build time.
var (
	version = "dev"     //nolint:gochecknoglobals // ldflags target
	commit  = "none"    //nolint:gochecknoglobals // ldflags target
	date    = "unknown" //nolint:gochecknoglobals // ldflags target
)

// exitInterrupted follows the shell convention of 128 + SIGINT.
const exitInterrupted = 130

func main() {
	h := signal.NewHandler(context.Background())

	err := cli.Execute(h.Context(), cli.BuildInfo{Version: version, Commit: commit, Date: date})
	interrupted := h.Err() != nil

	h.Stop()
	cli.CloseLogFile()

	if interrupted {
		os.Exit(exitInterrupted)
	}
	os.Exit(cli.ExitCodeForError(err))
}
