package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/backmassage/rockola/internal/config"
)

// ExecResult holds the outcome of a single ffmpeg invocation.
type ExecResult struct {
	Stderr string
	Err    error
}

// TimedOut reports whether the invocation was stopped by the encode timeout.
func (r ExecResult) TimedOut() bool { return errors.Is(r.Err, ErrTimeout) }

// Executor runs ffmpeg with an optional per-invocation timeout.
type Executor struct {
	Bin     string
	Timeout time.Duration
	Verbose bool
}

// NewExecutor returns an Executor configured from cfg.
func NewExecutor(cfg *config.Config) *Executor {
	return &Executor{Bin: cfg.FFmpegBin, Timeout: cfg.EncodeTimeout, Verbose: cfg.Verbose}
}

// Run executes ffmpeg with args. When verbose, stderr is tee'd to os.Stderr
// in real time; otherwise it is captured silently for classification. A run
// that exceeds the timeout is killed and its error wraps [ErrTimeout].
func (e *Executor) Run(ctx context.Context, args []string) ExecResult {
	runCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	bin := e.Bin
	if bin == "" {
		bin = "ffmpeg"
	}
	cmd := exec.CommandContext(runCtx, bin, args...)
	cmd.WaitDelay = 2 * time.Second

	var stderrBuf bytes.Buffer
	if e.Verbose {
		cmd.Stderr = io.MultiWriter(&stderrBuf, os.Stderr)
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	if err != nil && ctx.Err() == nil && runCtx.Err() == context.DeadlineExceeded {
		err = fmt.Errorf("%w after %s", ErrTimeout, e.Timeout)
	}
	return ExecResult{
		Stderr: stderrBuf.String(),
		Err:    err,
	}
}
