package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/backmassage/rockola/internal/check"
	"github.com/backmassage/rockola/internal/config"
	"github.com/backmassage/rockola/internal/display"
	"github.com/backmassage/rockola/internal/journal"
	"github.com/backmassage/rockola/internal/logging"
	"github.com/backmassage/rockola/internal/media"
	"github.com/backmassage/rockola/internal/pipeline"
)

func newConvertCommand(configFlag *string) *cobra.Command {
	var skipCheck, strictDeps bool

	cmd := &cobra.Command{
		Use:   "convert [source_dir dest_dir]",
		Short: "Copy or convert every file under source_dir into dest_dir",
		Long: "Mirror source_dir into dest_dir: audio becomes MP3 and video becomes\n" +
			"H.264 MP4. Files already present in dest_dir are left alone, so an\n" +
			"interrupted batch can simply be run again.",
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configFlag)
			if err != nil {
				return err
			}
			if err := config.ApplyPositional(cfg, args); err != nil {
				return err
			}
			if err := cfg.RequirePaths(); err != nil {
				return err
			}
			return runConvert(cmd, cfg, skipCheck, strictDeps)
		},
	}

	bindConfigFlags(cmd)
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Skip the ffmpeg/encoder test before the batch")
	cmd.Flags().BoolVar(&strictDeps, "strict-deps", false, "Abort the batch when the ffmpeg/encoder test fails")
	return cmd
}

func runConvert(cmd *cobra.Command, cfg *config.Config, skipCheck, strictDeps bool) error {
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	display.PrintBanner(cmd.OutOrStdout())

	// Output must not live inside the input, or the batch would discover
	// its own results.
	if err := requireDir(cfg.SourceDir, "source directory"); err != nil {
		return err
	}
	sourceAbs, err := absPath(cfg.SourceDir)
	if err != nil {
		return fmt.Errorf("resolve source path: %w", err)
	}
	destAbs, err := resolvePath(cfg.DestDir)
	if err != nil {
		return fmt.Errorf("resolve destination path: %w", err)
	}
	if err := cfg.ValidatePaths(sourceAbs, destAbs); err != nil {
		log.Error("Choose a destination outside: %s", cfg.SourceDir)
		return err
	}
	if r := check.CheckDirectoryAccess("source", cfg.SourceDir, false); !r.OK {
		return fmt.Errorf("source directory unusable: %s", r.Detail)
	}

	log.Info("=== Rockola v%s (%s) ===", version, commit)
	log.Info("In:  %s", cfg.SourceDir)
	log.Info("Out: %s", cfg.DestDir)
	if path := log.FilePath(); path != "" {
		log.Info("Log: %s", path)
	}
	log.Info("")

	var store *journal.Store
	if cfg.JournalPath != "" {
		path, err := config.ExpandPath(cfg.JournalPath)
		if err != nil {
			return err
		}
		store, err = journal.Open(path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer store.Close()
	}

	// Cancel on SIGINT/SIGTERM; running encodes are killed, their partial
	// files removed, and the remaining files reported as interrupted.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Received interrupt, stopping…")
			cancel()
		case <-ctx.Done():
		}
	}()

	opts := pipeline.Options{
		Journal: store,
		Summary: cmd.OutOrStdout(),
	}
	if !skipCheck && !cfg.DryRun {
		opts.Preflight = func(_ context.Context, files []string) error {
			return checkTools(cfg, log, files, strictDeps)
		}
	}

	stats, err := pipeline.Run(ctx, cfg, log, opts)
	if err != nil {
		return err
	}
	if stats.Errors > 0 {
		return errBatchFailed
	}
	return nil
}

// checkTools tests ffmpeg, ffprobe and the encoders when some file needs
// them. A failure is a warning unless strict is set: copies still go through
// and the files that need ffmpeg are reported as failed.
func checkTools(cfg *config.Config, log *logging.Logger, files []string, strict bool) error {
	if !needsFFmpeg(cfg, files) {
		return nil
	}
	err := check.CheckDeps(cfg, log)
	if err == nil || strict {
		return err
	}
	log.Warn("%v; files that need ffmpeg will be reported as failed", err)
	return nil
}

// needsFFmpeg reports whether any file is more than a plain copy. Audio
// already in the output format is copied as is; every other supported
// file is probed or encoded.
func needsFFmpeg(cfg *config.Config, files []string) bool {
	for _, f := range files {
		switch media.Classify(f) {
		case media.Video:
			return true
		case media.Audio:
			if media.Ext(f) != cfg.AudioExt {
				return true
			}
		}
	}
	return false
}
