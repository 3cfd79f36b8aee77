// Package pipeline is the batch driver: it discovers source files, fans them
// out to a bounded pool of workers running the converter, shows progress,
// and tallies the outcomes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/backmassage/rockola/internal/config"
	"github.com/backmassage/rockola/internal/convert"
	"github.com/backmassage/rockola/internal/display"
	"github.com/backmassage/rockola/internal/ffmpeg"
	"github.com/backmassage/rockola/internal/journal"
	"github.com/backmassage/rockola/internal/logging"
	"github.com/backmassage/rockola/internal/probe"
	"github.com/backmassage/rockola/internal/term"
)

// ErrLocked is returned when another batch holds the destination lock.
var ErrLocked = errors.New("destination is locked by another rockola run")

// Options carries the collaborators of a run. Zero values select the real
// ffmpeg executor, the ffprobe prober, no journal, and a progress bar on
// stderr when it is a terminal.
type Options struct {
	Runner   convert.Runner
	Prober   convert.CodecProber
	Journal  *journal.Store
	Progress io.Writer
	// Summary receives the rendered summary table; defaults to os.Stdout.
	Summary io.Writer
	// Preflight runs once files are known and before anything is written.
	// A returned error aborts the run.
	Preflight func(ctx context.Context, files []string) error
}

// LockPath returns the lock file guarding destDir. It lives in the user
// cache directory, named after the absolute destination, so the destination
// tree holds only converted media.
func LockPath(destDir string) (string, error) {
	abs, err := filepath.Abs(destDir)
	if err != nil {
		return "", err
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(cache, "rockola", "locks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs))).String()
	return filepath.Join(dir, name+".lock"), nil
}

// Run is the top-level batch entry point. It creates the destination root,
// discovers files, processes each exactly once on cfg.Workers workers, and
// returns aggregate stats. Per-file failures are counted, not returned; the
// error is reserved for setup problems (discovery, lock, journal).
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger, opts Options) (*RunStats, error) {
	start := time.Now()
	stats := &RunStats{RunID: uuid.NewString(), DryRun: cfg.DryRun}

	if !cfg.DryRun {
		if err := os.MkdirAll(cfg.DestDir, 0o755); err != nil {
			return stats, fmt.Errorf("create destination: %w", err)
		}
	}

	files, err := Discover(cfg.SourceDir, func(path string, err error) {
		log.Warn("Skipping unreadable %s: %v", path, err)
	})
	if err != nil {
		return stats, fmt.Errorf("discover files: %w", err)
	}
	stats.Total = len(files)
	if len(files) == 0 {
		log.Info("Nothing to process in %s", cfg.SourceDir)
		return stats, nil
	}

	if opts.Preflight != nil {
		if err := opts.Preflight(ctx, files); err != nil {
			return stats, err
		}
	}

	if cfg.LockDest && !cfg.DryRun {
		path, err := LockPath(cfg.DestDir)
		if err != nil {
			return stats, fmt.Errorf("lock path: %w", err)
		}
		lock := flock.New(path)
		ok, err := lock.TryLock()
		if err != nil {
			return stats, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return stats, ErrLocked
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				log.Warn("Failed to release lock: %v", err)
			}
		}()
	}

	opts = withDefaults(cfg, log, opts)
	exec := convert.New(cfg, log, opts.Runner, opts.Prober)
	logBatchHeader(cfg, log, stats)

	if opts.Journal != nil {
		if err := opts.Journal.BeginRun(ctx, journal.Run{
			ID:          stats.RunID,
			SourceDir:   cfg.SourceDir,
			DestDir:     cfg.DestDir,
			EncoderMode: string(cfg.EncoderMode),
			Workers:     cfg.Workers,
			DryRun:      cfg.DryRun,
			StartedAt:   start,
		}); err != nil {
			return stats, fmt.Errorf("journal: %w", err)
		}
	}

	outcomes := dispatch(ctx, cfg, log, exec, files, opts)

	for _, o := range outcomes {
		stats.Add(o)
		if opts.Journal != nil {
			if err := opts.Journal.RecordOutcome(context.WithoutCancel(ctx), stats.RunID, o); err != nil {
				log.Warn("Journal: %v", err)
			}
		}
	}
	stats.Elapsed = time.Since(start)

	if opts.Journal != nil {
		if err := opts.Journal.FinishRun(context.WithoutCancel(ctx), stats.RunID, stats.Totals(), time.Now()); err != nil {
			log.Warn("Journal: %v", err)
		}
	}

	logSummary(log, stats, opts.Summary)
	return stats, nil
}

// dispatch runs exec.Process for every file on at most cfg.Workers
// goroutines and returns the outcomes indexed like files. Files are run in
// the waves given by exec.Schedule, one wave after another, so a source that
// shares its destination with an earlier one starts only after that one has
// finished. Once ctx is cancelled, files not yet started are recorded as
// interrupted failures.
func dispatch(
	ctx context.Context,
	cfg *config.Config,
	log *logging.Logger,
	exec *convert.Executor,
	files []string,
	opts Options,
) []convert.Outcome {
	total := len(files)
	outcomes := make([]convert.Outcome, total)
	bar := newProgressBar(opts.Progress, total, cfg.DryRun)
	var done atomic.Int64

	workers := cfg.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers()
	}

	for _, wave := range exec.Schedule(files) {
		var g errgroup.Group
		g.SetLimit(workers)
		for _, i := range wave {
			path := files[i]
			if ctx.Err() != nil {
				outcomes[i] = convert.Outcome{Source: path, Status: convert.StatusFailed, Detail: "interrupted"}
				continue
			}
			g.Go(func() error {
				o := exec.Process(ctx, path)
				outcomes[i] = o
				n := done.Add(1)
				if bar != nil {
					_ = bar.Add(1)
					if o.Status == convert.StatusFailed {
						log.Debug(cfg.Verbose, "%s: %s", o.String(), path)
					}
				} else {
					logOutcome(cfg, log, int(n), total, o)
				}
				return nil
			})
		}
		_ = g.Wait()
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return outcomes
}

func withDefaults(cfg *config.Config, log *logging.Logger, opts Options) Options {
	if opts.Runner == nil {
		opts.Runner = ffmpeg.NewExecutor(cfg)
	}
	if opts.Prober == nil {
		opts.Prober = probe.New(cfg, func(path string, err error) {
			log.Debug(cfg.Verbose, "Probe failed, treating %s as incompatible: %v", filepath.Base(path), err)
		})
	}
	if opts.Progress == nil && cfg.ShowProgress && !cfg.Verbose && term.IsTerminal(os.Stderr) {
		opts.Progress = os.Stderr
	}
	if opts.Summary == nil {
		opts.Summary = os.Stdout
	}
	return opts
}

func newProgressBar(w io.Writer, total int, dryRun bool) *progressbar.ProgressBar {
	if w == nil {
		return nil
	}
	desc := "Converting"
	if dryRun {
		desc = "Planning"
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
	)
}

// --- Logging helpers ---

func logOutcome(cfg *config.Config, log *logging.Logger, n, total int, o convert.Outcome) {
	name := o.Source
	if rel, err := filepath.Rel(cfg.SourceDir, o.Source); err == nil {
		name = rel
	}
	prefix := fmt.Sprintf("[%d/%d]", n, total)
	if o.DryRun && o.Bucket() == convert.BucketProcessed {
		prefix += " [DRY]"
	}
	switch o.Status {
	case convert.StatusFailed:
		log.Error("%s %s: %s", prefix, name, o.Detail)
	case convert.StatusSkipped:
		log.Debug(cfg.Verbose, "%s %s: %s", prefix, o.Label(), name)
	default:
		log.Success("%s %s: %s", prefix, o.Label(), name)
	}
}

func logBatchHeader(cfg *config.Config, log *logging.Logger, stats *RunStats) {
	log.Info("Run %s", stats.RunID)
	log.Info("Found %d files in %s", stats.Total, cfg.SourceDir)
	log.Info("Destination: %s", cfg.DestDir)
	switch cfg.EncoderMode {
	case config.EncoderGPU:
		log.Info("Video: %s (-preset %s), no fallback", cfg.GPUEncoder, cfg.GPUPreset)
	case config.EncoderCPU:
		log.Info("Video: %s (-preset %s)", cfg.CPUEncoder, cfg.CPUPreset)
	default:
		log.Info("Video: %s (-preset %s), fallback %s (-preset %s)",
			cfg.GPUEncoder, cfg.GPUPreset, cfg.CPUEncoder, cfg.CPUPreset)
	}
	log.Info("Audio: %s; outputs .%s / .%s", cfg.AudioEncoder, cfg.VideoExt, cfg.AudioExt)
	log.Info("Workers: %d", cfg.Workers)
	if cfg.EncodeTimeout > 0 {
		log.Info("Encode timeout: %s per attempt", cfg.EncodeTimeout)
	}
	if cfg.DryRun {
		log.Warn("Dry run: nothing will be written")
	}
}

func logSummary(log *logging.Logger, stats *RunStats, w io.Writer) {
	log.Info("Done: %d processed, %d omitted, %d errors", stats.Processed, stats.Omitted, stats.Errors)
	if w != nil {
		fmt.Fprintln(w, display.RenderSummary(stats.Summary()))
	}
	if stats.DryRun {
		return
	}
	saved := stats.SpaceSaved()
	if saved >= 0 {
		log.Success("Total space saved: %s (input %s -> output %s)",
			display.FormatBytes(saved),
			display.FormatBytes(stats.TotalInputBytes),
			display.FormatBytes(stats.TotalOutputBytes))
	} else {
		log.Warn("Total space saved: -%s (overall output is larger)",
			display.FormatBytes(-saved))
	}
}
