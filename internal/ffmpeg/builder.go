// Package ffmpeg builds and executes ffmpeg commands for the two conversion
// shapes rockola needs (video to H.264/MP3, audio to MP3) and decides when a
// failed video encode moves from the GPU encoder to the CPU encoder.
package ffmpeg

import (
	"github.com/backmassage/rockola/internal/config"
)

// Engine identifies which video encoder produced an output.
type Engine int

const (
	EngineGPU Engine = iota
	EngineCPU
)

func (e Engine) String() string {
	if e == EngineCPU {
		return "CPU"
	}
	return "GPU"
}

// preamble is shared by every invocation: quiet logs, no stdin, overwrite.
func preamble(cfg *config.Config) []string {
	args := make([]string, 0, 16)
	args = append(args, "-hide_banner", "-nostdin", "-y")
	if cfg.Verbose {
		args = append(args, "-loglevel", "info")
	} else {
		args = append(args, "-loglevel", "error")
	}
	return args
}

// VideoArgs returns the argument slice (without the binary) that encodes in
// to out with the engine's video encoder and preset and the configured audio
// encoder.
func VideoArgs(cfg *config.Config, in, out string, engine Engine) []string {
	encoder, preset := cfg.GPUEncoder, cfg.GPUPreset
	if engine == EngineCPU {
		encoder, preset = cfg.CPUEncoder, cfg.CPUPreset
	}
	args := preamble(cfg)
	args = append(args, "-i", in, "-c:v", encoder)
	if preset != "" {
		args = append(args, "-preset", preset)
	}
	args = append(args, "-c:a", cfg.AudioEncoder, out)
	return args
}

// AudioArgs returns the argument slice that transcodes in to out with the
// configured audio encoder.
func AudioArgs(cfg *config.Config, in, out string) []string {
	args := preamble(cfg)
	return append(args, "-i", in, "-c:a", cfg.AudioEncoder, out)
}
