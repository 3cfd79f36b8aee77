package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
	"time"

	"github.com/backmassage/rockola/internal/config"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	return &cfg
}

func TestVideoArgs(t *testing.T) {
	cfg := testConfig()
	tests := []struct {
		name   string
		engine Engine
		want   []string
	}{
		{"gpu", EngineGPU, []string{
			"-hide_banner", "-nostdin", "-y", "-loglevel", "error",
			"-i", "in.avi", "-c:v", "h264_nvenc", "-preset", "p1", "-c:a", "mp3", "out.mp4",
		}},
		{"cpu", EngineCPU, []string{
			"-hide_banner", "-nostdin", "-y", "-loglevel", "error",
			"-i", "in.avi", "-c:v", "libx264", "-preset", "ultrafast", "-c:a", "mp3", "out.mp4",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VideoArgs(cfg, "in.avi", "out.mp4", tt.engine)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("VideoArgs:\n got %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestVideoArgs_EmptyPresetOmitted(t *testing.T) {
	cfg := testConfig()
	cfg.CPUPreset = ""
	for _, a := range VideoArgs(cfg, "a", "b", EngineCPU) {
		if a == "-preset" {
			t.Fatal("-preset should be omitted when the preset is empty")
		}
	}
}

func TestAudioArgs(t *testing.T) {
	cfg := testConfig()
	cfg.Verbose = true
	want := []string{
		"-hide_banner", "-nostdin", "-y", "-loglevel", "info",
		"-i", "song.flac", "-c:a", "mp3", "song.mp3",
	}
	if got := AudioArgs(cfg, "song.flac", "song.mp3"); !reflect.DeepEqual(got, want) {
		t.Errorf("AudioArgs:\n got %q\nwant %q", got, want)
	}
}

func TestEngineString(t *testing.T) {
	if EngineGPU.String() != "GPU" || EngineCPU.String() != "CPU" {
		t.Errorf("got %s/%s", EngineGPU, EngineCPU)
	}
}

func TestRetryState_Ladders(t *testing.T) {
	tests := []struct {
		mode config.EncoderMode
		want []Engine
	}{
		{config.EncoderAuto, []Engine{EngineGPU, EngineCPU}},
		{config.EncoderGPU, []Engine{EngineGPU}},
		{config.EncoderCPU, []Engine{EngineCPU}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			rs := NewRetryState(tt.mode)
			var got []Engine
			for {
				e, ok := rs.Next()
				if !ok {
					break
				}
				got = append(got, e)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ladder = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetryState_Advance(t *testing.T) {
	ctx := context.Background()
	failed := ExecResult{Stderr: "No NVENC capable devices found", Err: errors.New("exit status 1")}

	rs := NewRetryState(config.EncoderAuto)
	e, _ := rs.Next()
	if got := rs.Advance(ctx, e, failed); got != RetryFallbackCPU {
		t.Fatalf("after GPU failure: got %v, want RetryFallbackCPU", got)
	}
	e, _ = rs.Next()
	if got := rs.Advance(ctx, e, failed); got != RetryNone {
		t.Errorf("after CPU failure: got %v, want RetryNone", got)
	}
	if len(rs.Attempts) != 2 || rs.Attempts[0].Engine != EngineGPU || rs.Attempts[1].Engine != EngineCPU {
		t.Errorf("attempts = %+v", rs.Attempts)
	}

	timedOut := ExecResult{Err: ErrTimeout}
	rs = NewRetryState(config.EncoderAuto)
	e, _ = rs.Next()
	if got := rs.Advance(ctx, e, timedOut); got != RetryFallbackCPU {
		t.Errorf("GPU timeout should fall back, got %v", got)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	rs = NewRetryState(config.EncoderAuto)
	e, _ = rs.Next()
	if got := rs.Advance(cancelled, e, failed); got != RetryNone {
		t.Errorf("cancelled run must not fall back, got %v", got)
	}
}

func TestMatchEncoderUnavailable(t *testing.T) {
	tests := []struct {
		stderr string
		want   bool
	}{
		{"[h264_nvenc @ 0x55] No NVENC capable devices found", true},
		{"[h264_nvenc @ 0x55] Cannot load libnvidia-encode.so.1", true},
		{"Unknown encoder 'h264_nvenc'", true},
		{"Invalid data found when processing input", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := MatchEncoderUnavailable(tt.stderr); got != tt.want {
			t.Errorf("MatchEncoderUnavailable(%q) = %v, want %v", tt.stderr, got, tt.want)
		}
	}
}

func TestMatchInputIssue(t *testing.T) {
	if !MatchInputIssue("in.avi: Invalid data found when processing input") {
		t.Error("expected input issue")
	}
	if MatchInputIssue("No NVENC capable devices found") {
		t.Error("encoder issue is not an input issue")
	}
}

func TestLastLine(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"single", "single"},
		{"first\nsecond\n\n  \n", "second"},
		{"a\r\nb\r\n", "b"},
	}
	for _, tt := range tests {
		if got := LastLine(tt.in); got != tt.want {
			t.Errorf("LastLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func fakeFFmpeg(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	bin := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return bin
}

func TestExecutor_CapturesStderr(t *testing.T) {
	e := &Executor{Bin: fakeFFmpeg(t, "echo 'Unknown encoder' >&2\nexit 1\n")}
	res := e.Run(context.Background(), []string{"-i", "x"})
	if res.Err == nil {
		t.Fatal("expected error")
	}
	if res.TimedOut() {
		t.Error("plain failure reported as timeout")
	}
	if LastLine(res.Stderr) != "Unknown encoder" {
		t.Errorf("stderr = %q", res.Stderr)
	}
}

func TestExecutor_Success(t *testing.T) {
	e := &Executor{Bin: fakeFFmpeg(t, "exit 0\n")}
	if res := e.Run(context.Background(), nil); res.Err != nil {
		t.Errorf("unexpected error: %v", res.Err)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	e := &Executor{Bin: fakeFFmpeg(t, "exec sleep 5\n"), Timeout: 100 * time.Millisecond}
	start := time.Now()
	res := e.Run(context.Background(), nil)
	if !res.TimedOut() {
		t.Fatalf("expected ErrTimeout, got %v", res.Err)
	}
	if time.Since(start) > 4*time.Second {
		t.Error("timeout not enforced")
	}
}
