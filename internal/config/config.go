// Package config holds runtime configuration: defaults, TOML file loading,
// CLI flag binding, and validation. A Config value is built once at startup
// and passed by pointer to every component; nothing reads package state.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
)

// --- Enum types for validated string fields ---

// EncoderMode selects which video encoders a conversion may use.
type EncoderMode string

const (
	EncoderAuto EncoderMode = "auto" // GPU first, CPU fallback (default).
	EncoderGPU  EncoderMode = "gpu"  // GPU only; a GPU failure is final.
	EncoderCPU  EncoderMode = "cpu"  // Software encoding only.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally overlaid by [Load] and [BindFlags], and then validated.
type Config struct {
	// Paths (positional args, env, or config file).
	SourceDir string
	DestDir   string

	// Worker pool. Zero or negative means one worker per logical core.
	Workers int

	// External tools.
	FFmpegBin  string
	FFprobeBin string

	// Output normalization.
	VideoExt    string // Default: "mp4".
	AudioExt    string // Default: "mp3".
	TargetCodec string // Default: "h264".

	// Encoders.
	EncoderMode  EncoderMode
	GPUEncoder   string // Default: "h264_nvenc".
	GPUPreset    string // Default: "p1".
	CPUEncoder   string // Default: "libx264".
	CPUPreset    string // Default: "ultrafast".
	AudioEncoder string // Default: "mp3".

	// Timeouts. EncodeTimeout of zero disables the limit.
	EncodeTimeout time.Duration
	ProbeTimeout  time.Duration

	// Behavior.
	DryRun      bool
	LockDest    bool   // Default: true.
	JournalPath string // Optional SQLite run history.

	// Display and logging.
	Verbose      bool
	ShowProgress bool // Default: true.
	ColorMode    ColorMode
	LogFile      string
}

// DefaultConfig returns a Config with the stock conversion profile: NVENC
// fastest preset with libx264 ultrafast fallback, MP3 audio, MP4 video.
func DefaultConfig() Config {
	return Config{
		Workers:       DefaultWorkers(),
		FFmpegBin:     "ffmpeg",
		FFprobeBin:    "ffprobe",
		VideoExt:      "mp4",
		AudioExt:      "mp3",
		TargetCodec:   "h264",
		EncoderMode:   EncoderAuto,
		GPUEncoder:    "h264_nvenc",
		GPUPreset:     "p1",
		CPUEncoder:    "libx264",
		CPUPreset:     "ultrafast",
		AudioEncoder:  "mp3",
		EncodeTimeout: 0,
		ProbeTimeout:  30 * time.Second,
		LockDest:      true,
		ShowProgress:  true,
		ColorMode:     ColorAuto,
	}
}

// DefaultWorkers returns the logical core count, falling back to the Go
// runtime's view when the host query fails.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields and normalizes the extension and worker
// settings. Paths are not required here; commands that need them call
// [Config.RequirePaths].
func (c *Config) Validate() error {
	switch c.EncoderMode {
	case EncoderAuto, EncoderGPU, EncoderCPU:
		// valid
	default:
		return fmt.Errorf("invalid encoder mode %q (use 'auto', 'gpu' or 'cpu')", c.EncoderMode)
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", c.ColorMode)
	}

	c.VideoExt = normalizeExt(c.VideoExt)
	c.AudioExt = normalizeExt(c.AudioExt)
	if c.VideoExt == "" || c.AudioExt == "" {
		return errors.New("video and audio extensions must not be empty")
	}
	if strings.TrimSpace(c.TargetCodec) == "" {
		return errors.New("target codec must not be empty")
	}
	if c.EncodeTimeout < 0 || c.ProbeTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers()
	}
	return nil
}

// RequirePaths reports an error when either batch root is missing.
func (c *Config) RequirePaths() error {
	if c.SourceDir == "" || c.DestDir == "" {
		return errors.New("need both source_dir and dest_dir")
	}
	return nil
}

// normalizeExt lowercases an extension and strips any leading dots.
func normalizeExt(ext string) string {
	return strings.TrimLeft(strings.ToLower(strings.TrimSpace(ext)), ".")
}

// ValidatePaths ensures the resolved destination directory is not inside (or
// equal to) the resolved source directory. This prevents a batch from
// discovering its own output. Both arguments must be absolute,
// symlink-resolved paths.
func (c *Config) ValidatePaths(sourceAbs, destAbs string) error {
	sep := string(filepath.Separator)
	if destAbs == sourceAbs || strings.HasPrefix(destAbs+sep, sourceAbs+sep) {
		return errors.New("destination directory must not be inside source directory")
	}
	return nil
}
