// Package probe inspects media files with ffprobe. One JSON call per file is
// parsed into a ProbeResult; Prober.IsCompatible answers the only question
// the converter asks: is the primary video stream already in the target codec.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/backmassage/rockola/internal/config"
)

// ErrNoVideo is reported to the error hook when a file has no video stream.
var ErrNoVideo = errors.New("no video stream")

// ErrorHook receives the cause whenever a probe is treated as incompatible
// because of a failure.
type ErrorHook func(path string, err error)

// Prober runs ffprobe with an optional per-call timeout.
type Prober struct {
	Bin         string
	Timeout     time.Duration
	TargetCodec string
	OnError     ErrorHook
}

// New returns a Prober configured from cfg. onError may be nil.
func New(cfg *config.Config, onError ErrorHook) *Prober {
	return &Prober{
		Bin:         cfg.FFprobeBin,
		Timeout:     cfg.ProbeTimeout,
		TargetCodec: cfg.TargetCodec,
		OnError:     onError,
	}
}

// Probe runs a single ffprobe JSON call against path and returns the
// parsed result.
func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	bin := p.Bin
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("ffprobe %q: timed out after %s", path, p.Timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("ffprobe %q: %w: %s", path, err, msg)
		}
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return ParseJSON(out)
}

// IsCompatible reports whether the primary video stream of path already uses
// the target codec. Every failure (missing tool, unreadable file, bad output,
// timeout, no video stream) yields false and is passed to the error hook.
func (p *Prober) IsCompatible(ctx context.Context, path string) bool {
	pr, err := p.Probe(ctx, path)
	if err == nil && !pr.HasVideo() {
		err = fmt.Errorf("ffprobe %q: %w", path, ErrNoVideo)
	}
	if err != nil {
		if p.OnError != nil {
			p.OnError(path, err)
		}
		return false
	}
	return CodecMatches(pr.PrimaryVideo.Codec, p.TargetCodec)
}

// CodecMatches reports whether codec contains target, case-insensitively.
// An empty target never matches.
func CodecMatches(codec, target string) bool {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		return false
	}
	return strings.Contains(strings.ToLower(codec), target)
}

// ParseJSON converts raw ffprobe JSON output into a ProbeResult.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*ProbeResult, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	return buildResult(&raw), nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

type ffprobeStream struct {
	CodecName   string         `json:"codec_name"`
	CodecType   string         `json:"codec_type"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Disposition map[string]int `json:"disposition"`
}

func buildResult(raw *ffprobeOutput) *ProbeResult {
	pr := &ProbeResult{
		Format: FormatInfo{
			FormatName: raw.Format.FormatName,
			Duration:   parseFloat(raw.Format.Duration),
		},
	}

	for i := range raw.Streams {
		s := &raw.Streams[i]
		switch s.CodecType {
		case "video":
			vs := VideoStream{
				Codec:         s.CodecName,
				Width:         s.Width,
				Height:        s.Height,
				IsAttachedPic: s.Disposition["attached_pic"] == 1,
			}
			if !vs.IsAttachedPic && pr.PrimaryVideo == nil {
				pr.PrimaryVideo = &vs
			}
		case "audio":
			pr.AudioStreams = append(pr.AudioStreams, AudioStream{Codec: s.CodecName})
		}
	}
	return pr
}

// parseFloat reads ffprobe's string-encoded numbers; bad input yields 0.
func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
