// Package check provides system diagnostics (the check command) and
// pre-batch dependency validation (CheckDeps) for ffmpeg, ffprobe, the GPU
// and CPU H.264 encoders, and the MP3 encoder.
package check

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/backmassage/rockola/internal/config"
)

// Sentinel errors returned by CheckDeps when a required tool or encoder is missing.
var (
	ErrFfmpegNotFound      = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound     = errors.New("ffprobe not found on PATH")
	ErrGPUEncodeFailed     = errors.New("GPU mode selected but the GPU test encode failed")
	ErrCPUEncodeFailed     = errors.New("CPU mode selected but the CPU test encode failed")
	ErrNoVideoEncoder      = errors.New("neither the GPU nor the CPU video encoder works")
	ErrAudioEncoderMissing = errors.New("audio test encode failed")
)

// Logger is the minimal logging interface needed by RunCheck.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// Result is one line of the check report.
type Result struct {
	Name   string
	OK     bool
	Detail string
}

// Swapped in tests.
var (
	lookPath  = exec.LookPath
	runSilent = func(name string, args ...string) bool {
		cmd := exec.Command(name, args...)
		cmd.Stdout = nil
		cmd.Stderr = nil
		return cmd.Run() == nil
	}
	versionOf = func(name string) (string, error) {
		out, err := exec.Command(name, "-version").Output()
		if err != nil {
			return "", err
		}
		first := strings.TrimSpace(string(out))
		if idx := strings.Index(first, "\n"); idx > 0 {
			first = first[:idx]
		}
		return first, nil
	}
)

// RunCheck runs the interactive check flow: availability and version of
// ffmpeg and ffprobe, then a tiny test encode with each configured encoder.
// It is informational only and does not stop on failure.
func RunCheck(cfg *config.Config, log Logger) []Result {
	log.Info("=== System Check ===")
	var results []Result
	add := func(r Result) {
		results = append(results, r)
		switch {
		case r.OK:
			log.Success("%s: %s", r.Name, r.Detail)
		default:
			log.Error("%s: %s", r.Name, r.Detail)
		}
	}

	add(checkTool(cfg.FFmpegBin))
	add(checkTool(cfg.FFprobeBin))
	add(checkEncode("GPU video ("+cfg.GPUEncoder+")", cfg.FFmpegBin, videoTestArgs(cfg.GPUEncoder, cfg.GPUPreset)))
	add(checkEncode("CPU video ("+cfg.CPUEncoder+")", cfg.FFmpegBin, videoTestArgs(cfg.CPUEncoder, cfg.CPUPreset)))
	add(checkEncode("Audio ("+cfg.AudioEncoder+")", cfg.FFmpegBin, audioTestArgs(cfg.AudioEncoder)))
	if cfg.SourceDir != "" {
		add(CheckDirectoryAccess("Source", cfg.SourceDir, false))
	}
	if cfg.DestDir != "" {
		add(checkDestination(cfg.DestDir))
	}
	return results
}

func checkTool(bin string) Result {
	if _, err := lookPath(bin); err != nil {
		return Result{Name: bin, Detail: "not found"}
	}
	v, err := versionOf(bin)
	if err != nil {
		return Result{Name: bin, Detail: fmt.Sprintf("found but -version failed: %v", err)}
	}
	return Result{Name: bin, OK: true, Detail: v}
}

func checkEncode(name, ffmpegBin string, args []string) Result {
	if runSilent(ffmpegBin, args...) {
		return Result{Name: name, OK: true, Detail: "test encode works"}
	}
	return Result{Name: name, Detail: "test encode failed"}
}

// CheckDeps is the pre-batch validation: it verifies that ffmpeg and
// ffprobe are on PATH and that the encoders the chosen mode needs actually
// work. In auto mode a broken GPU encoder only produces a warning because
// every file can still fall back to the CPU. Returns a sentinel error on
// failure.
func CheckDeps(cfg *config.Config, log Logger) error {
	if _, err := lookPath(cfg.FFmpegBin); err != nil {
		return ErrFfmpegNotFound
	}
	if _, err := lookPath(cfg.FFprobeBin); err != nil {
		return ErrFfprobeNotFound
	}

	gpu := func() bool { return runSilent(cfg.FFmpegBin, videoTestArgs(cfg.GPUEncoder, cfg.GPUPreset)...) }
	cpu := func() bool { return runSilent(cfg.FFmpegBin, videoTestArgs(cfg.CPUEncoder, cfg.CPUPreset)...) }

	switch cfg.EncoderMode {
	case config.EncoderGPU:
		if !gpu() {
			return ErrGPUEncodeFailed
		}
	case config.EncoderCPU:
		if !cpu() {
			return ErrCPUEncodeFailed
		}
	default:
		gpuOK := gpu()
		if !gpuOK {
			if !cpu() {
				return ErrNoVideoEncoder
			}
			log.Warn("%s unavailable; every video will be encoded with %s", cfg.GPUEncoder, cfg.CPUEncoder)
		}
	}

	if !runSilent(cfg.FFmpegBin, audioTestArgs(cfg.AudioEncoder)...) {
		return fmt.Errorf("%w (%s)", ErrAudioEncoderMissing, cfg.AudioEncoder)
	}
	return nil
}

// --- internal helpers ---

// videoTestArgs returns the ffmpeg arguments for a minimal test encode.
// NVENC rejects very small frames, so the test uses 256x256.
func videoTestArgs(encoder, preset string) []string {
	args := []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
		"-c:v", encoder,
	}
	if preset != "" {
		args = append(args, "-preset", preset)
	}
	return append(args, "-f", "null", "-")
}

// audioTestArgs returns the ffmpeg arguments for a minimal audio test encode.
func audioTestArgs(encoder string) []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=0.1",
		"-c:a", encoder, "-f", "null", "-",
	}
}
