package config

// This file binds CLI flags onto a Config. Flags are grouped into encoding,
// behavior, and display. Negated flags (e.g. --no-lock) are captured
// separately and applied after parsing so defaults and the config file hold
// unless the user passes the flag.

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// FlagSet captures flags whose effect is applied after parsing.
type FlagSet struct {
	noLock     bool
	noProgress bool
	forceColor bool
	noColor    bool
	cpuOnly    bool
}

// BindFlags registers the conversion flags on fs, writing straight into cfg
// where possible. Call [FlagSet.Apply] after the flags have been parsed.
func BindFlags(fs *pflag.FlagSet, cfg *Config) *FlagSet {
	n := &FlagSet{}
	defineEncodingFlags(fs, cfg, n)
	defineBehaviorFlags(fs, cfg, n)
	defineDisplayFlags(fs, cfg, n)
	return n
}

// defineEncodingFlags registers --mode, --cpu-only, encoder names, presets, and timeouts.
func defineEncodingFlags(fs *pflag.FlagSet, cfg *Config, n *FlagSet) {
	fs.VarP(&encoderModeValue{&cfg.EncoderMode}, "mode", "m", "Encoder mode: auto | gpu | cpu")
	fs.BoolVar(&n.cpuOnly, "cpu-only", false, "Same as --mode cpu")
	fs.IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "Parallel conversions (0 = logical cores)")
	fs.StringVar(&cfg.GPUEncoder, "gpu-encoder", cfg.GPUEncoder, "GPU video encoder")
	fs.StringVar(&cfg.GPUPreset, "gpu-preset", cfg.GPUPreset, "GPU encoder preset")
	fs.StringVar(&cfg.CPUEncoder, "cpu-encoder", cfg.CPUEncoder, "CPU video encoder")
	fs.StringVar(&cfg.CPUPreset, "cpu-preset", cfg.CPUPreset, "CPU encoder preset")
	fs.StringVar(&cfg.AudioEncoder, "audio-encoder", cfg.AudioEncoder, "Audio encoder")
	fs.DurationVar(&cfg.EncodeTimeout, "encode-timeout", cfg.EncodeTimeout, "Per-attempt encode limit (0 = none)")
	fs.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "Codec probe limit")
	fs.StringVar(&cfg.FFmpegBin, "ffmpeg", cfg.FFmpegBin, "ffmpeg binary")
	fs.StringVar(&cfg.FFprobeBin, "ffprobe", cfg.FFprobeBin, "ffprobe binary")
}

// defineBehaviorFlags registers dry-run, lock, and journal flags.
func defineBehaviorFlags(fs *pflag.FlagSet, cfg *Config, n *FlagSet) {
	fs.BoolVarP(&cfg.DryRun, "dry-run", "d", cfg.DryRun, "Preview only; do not copy or encode")
	fs.BoolVar(&n.noLock, "no-lock", false, "Do not lock the destination directory")
	fs.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "Record runs in this SQLite file")
}

// defineDisplayFlags registers --color, --no-color, --no-progress, verbose, --log.
func defineDisplayFlags(fs *pflag.FlagSet, cfg *Config, n *FlagSet) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&n.noProgress, "no-progress", false, "Hide the live progress bar")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")
	fs.StringVarP(&cfg.LogFile, "log", "l", cfg.LogFile, "Append logs to file")
}

// Apply copies negated and shorthand flag values into cfg.
func (n *FlagSet) Apply(cfg *Config) {
	if n.noLock {
		cfg.LockDest = false
	}
	if n.noProgress {
		cfg.ShowProgress = false
	}
	if n.cpuOnly {
		cfg.EncoderMode = EncoderCPU
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// ApplyPositional sets SourceDir and DestDir from positional args. Either
// may be omitted when the config file or environment already supplied it.
func ApplyPositional(cfg *Config, args []string) error {
	switch len(args) {
	case 0:
	case 2:
		cfg.SourceDir = NormalizeDirArg(args[0])
		cfg.DestDir = NormalizeDirArg(args[1])
	default:
		return fmt.Errorf("need exactly <source_dir> <dest_dir> (got %d args)", len(args))
	}
	return nil
}

// pflag.Value adapter so EncoderMode can be used with fs.Var.

type encoderModeValue struct{ p *EncoderMode }

func (e *encoderModeValue) String() string { return string(*e.p) }
func (e *encoderModeValue) Type() string   { return "mode" }
func (e *encoderModeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "auto":
		*e.p = EncoderAuto
	case "gpu":
		*e.p = EncoderGPU
	case "cpu":
		*e.p = EncoderCPU
	default:
		return fmt.Errorf("invalid mode %q (use 'auto', 'gpu' or 'cpu')", s)
	}
	return nil
}

// Resolve builds the effective configuration: defaults, then the config
// file at path, then the environment, then every flag the user actually set
// on parsed. Flags are replayed by name, so parsed may be bound to a
// throwaway Config.
func Resolve(path string, parsed *pflag.FlagSet) (*Config, string, error) {
	cfg := DefaultConfig()
	resolved, _, err := Load(&cfg, path)
	if err != nil {
		return nil, "", err
	}
	if parsed == nil {
		return &cfg, resolved, nil
	}

	fs := pflag.NewFlagSet("rockola", pflag.ContinueOnError)
	n := BindFlags(fs, &cfg)
	var replayErr error
	parsed.Visit(func(f *pflag.Flag) {
		if replayErr != nil || fs.Lookup(f.Name) == nil {
			return
		}
		if err := fs.Set(f.Name, f.Value.String()); err != nil {
			replayErr = fmt.Errorf("flag --%s: %w", f.Name, err)
		}
	})
	if replayErr != nil {
		return nil, "", replayErr
	}
	n.Apply(&cfg)
	return &cfg, resolved, nil
}
