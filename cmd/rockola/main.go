// Command rockola converts a music and video library into the formats the
// jukebox player expects, and builds the player's song catalog.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

// errBatchFailed marks a batch that finished with per-file errors. The
// summary has already been printed, so nothing more is written.
var errBatchFailed = errors.New("one or more files failed")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errBatchFailed) && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(stderr, "rockola: %v\n", err)
		}
		return 1
	}
	return 0
}
