// Package convert turns one source file into its destination: it mirrors the
// path, decides between skip, copy, and encode, runs ffmpeg with the GPU to
// CPU fallback, and reports a tagged Outcome. Nothing escapes Process as an
// error or panic; every failure becomes a Failed outcome.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/backmassage/rockola/internal/config"
	"github.com/backmassage/rockola/internal/ffmpeg"
	"github.com/backmassage/rockola/internal/fileutil"
	"github.com/backmassage/rockola/internal/logging"
	"github.com/backmassage/rockola/internal/media"
	"github.com/backmassage/rockola/internal/naming"
	"github.com/backmassage/rockola/internal/planner"
)

// Runner executes ffmpeg with the given arguments.
type Runner interface {
	Run(ctx context.Context, args []string) ffmpeg.ExecResult
}

// CodecProber reports whether a file's video already uses the target codec.
type CodecProber interface {
	IsCompatible(ctx context.Context, path string) bool
}

// Executor processes single files for one batch. It is safe for concurrent
// use; the only shared state is the table of produced destinations.
type Executor struct {
	cfg    *config.Config
	log    *logging.Logger
	runner Runner
	prober CodecProber
	claims *naming.Claims
}

// New returns an Executor that mirrors cfg.SourceDir under cfg.DestDir.
func New(cfg *config.Config, log *logging.Logger, runner Runner, prober CodecProber) *Executor {
	return &Executor{
		cfg:    cfg,
		log:    log,
		runner: runner,
		prober: prober,
		claims: naming.NewClaims(),
	}
}

// Destination returns the output path and media kind for src.
func (e *Executor) Destination(src string) (string, media.Kind, error) {
	kind := media.Classify(src)
	dest, err := naming.OutputPath(e.cfg.SourceDir, e.cfg.DestDir, src, kind, e.cfg.VideoExt, e.cfg.AudioExt)
	return dest, kind, err
}

// Schedule groups files into waves for dispatch. Files that share a
// destination land in different waves, in enumeration order, so the first
// enumerated source gets the first attempt and a later one runs only after
// it has finished. Unsupported files and files whose destination cannot be
// computed all go to the first wave.
func (e *Executor) Schedule(files []string) [][]int {
	dests := make([]string, len(files))
	for i, src := range files {
		dest, kind, err := e.Destination(src)
		if err == nil && kind != media.Unsupported {
			dests[i] = dest
		}
	}
	return naming.Waves(dests)
}

// Process converts src and returns its outcome. A successful copy or encode
// (or, in a dry run, a planned one) claims the destination, so later sources
// mapping to the same path are skipped.
func (e *Executor) Process(ctx context.Context, src string) (out Outcome) {
	start := time.Now()
	out = Outcome{Source: src, Kind: media.Classify(src), DryRun: e.cfg.DryRun}
	defer func() {
		if r := recover(); r != nil {
			if out.Dest != "" && !e.cfg.DryRun {
				_ = os.Remove(fileutil.PartialPath(out.Dest))
			}
			out = failed(out, fmt.Sprintf("panic: %v", r))
		}
		out.Elapsed = time.Since(start)
	}()

	dest, kind, err := e.Destination(src)
	if err != nil {
		return failed(out, err.Error())
	}
	out.Dest = dest

	out = e.process(ctx, out, kind)
	if out.Bucket() == BucketProcessed {
		e.claims.Claim(src, dest)
	}
	return out
}

func (e *Executor) process(ctx context.Context, out Outcome, kind media.Kind) Outcome {
	src, dest := out.Source, out.Dest
	if !e.cfg.DryRun {
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return failed(out, fmt.Sprintf("create output directory: %v", err))
		}
	}

	facts := planner.Facts{
		Source: src,
		Dest:   dest,
		Kind:   kind,
		Compatible: func() bool {
			return e.prober.IsCompatible(ctx, src)
		},
	}
	if kind != media.Unsupported {
		exists, err := fileutil.Exists(dest)
		if err != nil {
			return failed(out, fmt.Sprintf("stat output: %v", err))
		}
		facts.DestExists = exists
		if owner := e.claims.Owner(dest); owner != src {
			facts.Owner = owner
		}
	}

	plan := planner.BuildPlan(e.cfg, facts)
	switch plan.Action {
	case planner.ActionSkip:
		out.Status = StatusSkipped
		out.Reason = plan.SkipReason
		if plan.Owner != "" {
			e.log.Debug(e.cfg.Verbose, "Skip (produced by %s): %s", filepath.Base(plan.Owner), filepath.Base(src))
		} else {
			e.log.Debug(e.cfg.Verbose, "Skip (%s): %s", plan.SkipReason, filepath.Base(src))
		}
		return out

	case planner.ActionCopy:
		out.InBytes = fileutil.Size(src)
		if e.cfg.DryRun {
			out.Status = StatusCopied
			return out
		}
		n, err := fileutil.CopyPreserve(src, dest)
		if err != nil {
			return failed(out, err.Error())
		}
		out.Status = StatusCopied
		out.OutBytes = n
		return out

	default:
		out.InBytes = fileutil.Size(src)
		if kind == media.Audio {
			return e.encodeAudio(ctx, out)
		}
		return e.encodeVideo(ctx, out)
	}
}

// encodeAudio transcodes to the standard audio format in a single attempt.
func (e *Executor) encodeAudio(ctx context.Context, out Outcome) Outcome {
	if e.cfg.DryRun {
		out.Status = StatusConverted
		return out
	}
	tmp := fileutil.PartialPath(out.Dest)
	res := e.runner.Run(ctx, ffmpeg.AudioArgs(e.cfg, out.Source, tmp))
	if res.Err != nil {
		_ = os.Remove(tmp)
		return failed(out, describe(res))
	}
	return e.finish(out, tmp)
}

// encodeVideo walks the encoder ladder: at most one attempt per engine.
func (e *Executor) encodeVideo(ctx context.Context, out Outcome) Outcome {
	rs := ffmpeg.NewRetryState(e.cfg.EncoderMode)
	tmp := fileutil.PartialPath(out.Dest)

	for {
		engine, ok := rs.Next()
		if !ok {
			break
		}
		if e.cfg.DryRun {
			out.Status = StatusConverted
			out.Engine = engine
			return out
		}

		res := e.runner.Run(ctx, ffmpeg.VideoArgs(e.cfg, out.Source, tmp, engine))
		if res.Err == nil {
			out.Engine = engine
			return e.finish(out, tmp)
		}
		_ = os.Remove(tmp)

		if rs.Advance(ctx, engine, res) == ffmpeg.RetryNone {
			break
		}
		e.log.Debug(e.cfg.Verbose, "%s encode failed for %s (%s), falling back",
			engine, filepath.Base(out.Source), describe(res))
	}

	parts := make([]string, 0, len(rs.Attempts))
	for _, a := range rs.Attempts {
		parts = append(parts, a.Engine.String()+": "+describe(a.Result))
	}
	if len(parts) == 0 {
		return failed(out, "no encoder available")
	}
	return failed(out, strings.Join(parts, "; "))
}

// finish renames the partial output into place and records the result.
func (e *Executor) finish(out Outcome, tmp string) Outcome {
	if err := os.Rename(tmp, out.Dest); err != nil {
		_ = os.Remove(tmp)
		return failed(out, fmt.Sprintf("finalize output: %v", err))
	}
	out.Status = StatusConverted
	out.OutBytes = fileutil.Size(out.Dest)
	return out
}

func failed(out Outcome, detail string) Outcome {
	out.Status = StatusFailed
	out.Detail = detail
	return out
}

// describe condenses an ffmpeg failure to one line.
func describe(res ffmpeg.ExecResult) string {
	if res.TimedOut() {
		return res.Err.Error()
	}
	msg := "ffmpeg failed"
	if res.Err != nil {
		msg = res.Err.Error()
	}
	if last := ffmpeg.LastLine(res.Stderr); last != "" {
		msg += ": " + last
	}
	switch {
	case ffmpeg.MatchEncoderUnavailable(res.Stderr):
		msg = "encoder unavailable: " + msg
	case ffmpeg.MatchInputIssue(res.Stderr):
		msg = "unreadable input: " + msg
	}
	return msg
}
