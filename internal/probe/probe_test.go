package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// Music video with embedded cover art ahead of the real H.264 stream.
const sampleCoverThenH264 = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "mjpeg",
      "codec_type": "video",
      "width": 600,
      "height": 600,
      "disposition": { "default": 0, "attached_pic": 1 }
    },
    {
      "index": 1,
      "codec_name": "h264",
      "codec_type": "video",
      "width": 1280,
      "height": 720,
      "disposition": { "default": 1, "attached_pic": 0 }
    },
    {
      "index": 2,
      "codec_name": "aac",
      "codec_type": "audio",
      "channels": 2,
      "disposition": { "default": 1 }
    }
  ],
  "format": {
    "filename": "/music/Rock/Band/video.mp4",
    "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
    "duration": "214.500000",
    "size": "31457280",
    "bit_rate": "1173000"
  }
}`

// Legacy MPEG-4 Part 2 AVI.
const sampleMpeg4 = `{
  "streams": [
    { "index": 0, "codec_name": "mpeg4", "codec_type": "video", "width": 640, "height": 480 },
    { "index": 1, "codec_name": "mp3", "codec_type": "audio", "channels": 2 }
  ],
  "format": { "filename": "old.avi", "format_name": "avi", "duration": "180.0" }
}`

// Audio only: cover art but no real video.
const sampleAudioOnly = `{
  "streams": [
    { "index": 0, "codec_name": "mp3", "codec_type": "audio", "channels": 2 },
    { "index": 1, "codec_name": "png", "codec_type": "video", "disposition": { "attached_pic": 1 } }
  ],
  "format": { "filename": "song.mp4", "format_name": "mp3" }
}`

func TestParseJSON_SkipsAttachedPic(t *testing.T) {
	pr, err := ParseJSON([]byte(sampleCoverThenH264))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if pr.PrimaryVideo == nil {
		t.Fatal("PrimaryVideo is nil")
	}
	if v := pr.PrimaryVideo; v.Codec != "h264" || v.Width != 1280 || v.Height != 720 {
		t.Errorf("primary video: got %+v", *v)
	}
	if got := pr.PrimaryAudioCodec(); got != "aac" {
		t.Errorf("audio codec: got %q", got)
	}
	if got := pr.Container(); got != "mov" {
		t.Errorf("container: got %q", got)
	}
	if pr.Format.Duration != 214.5 {
		t.Errorf("duration: got %f", pr.Format.Duration)
	}
}

func TestParseJSON_NoRealVideo(t *testing.T) {
	pr, err := ParseJSON([]byte(sampleAudioOnly))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if pr.HasVideo() {
		t.Errorf("cover art must not count as video: %+v", pr.PrimaryVideo)
	}
	if pr.PrimaryAudioCodec() != "mp3" || pr.Container() != "mp3" {
		t.Errorf("audio-only result: %+v", pr)
	}
	if pr.Format.Duration != 0 {
		t.Errorf("missing duration should parse as 0, got %f", pr.Format.Duration)
	}
}

func TestParseJSON_InvalidJSON(t *testing.T) {
	if _, err := ParseJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestCodecMatches(t *testing.T) {
	tests := []struct {
		codec, target string
		want          bool
	}{
		{"h264", "h264", true},
		{"H264", "h264", true},
		{"h264_cuvid", "h264", true},
		{"hevc", "h264", false},
		{"mpeg4", "h264", false},
		{"", "h264", false},
		{"h264", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.codec+"/"+tt.target, func(t *testing.T) {
			if got := CodecMatches(tt.codec, tt.target); got != tt.want {
				t.Errorf("CodecMatches(%q, %q) = %v, want %v", tt.codec, tt.target, got, tt.want)
			}
		})
	}
}

// fakeFFprobe writes a shell script that prints body and exits with code.
func fakeFFprobe(t *testing.T, body string, code int, sleep string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	dir := t.TempDir()
	data := filepath.Join(dir, "out.json")
	if err := os.WriteFile(data, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\n"
	if sleep != "" {
		script += "sleep " + sleep + "\n"
	}
	script += "cat '" + data + "'\n"
	if code != 0 {
		script += "echo 'Invalid data found when processing input' >&2\n"
	}
	script += "exit " + string(rune('0'+code)) + "\n"
	bin := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return bin
}

func TestIsCompatible(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		code    int
		want    bool
		wantErr bool
	}{
		{"h264 behind cover art", sampleCoverThenH264, 0, true, false},
		{"mpeg4", sampleMpeg4, 0, false, false},
		{"no video stream", sampleAudioOnly, 0, false, true},
		{"garbage output", "oops", 0, false, true},
		{"ffprobe fails", "", 1, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hooked []error
			p := &Prober{
				Bin:         fakeFFprobe(t, tt.body, tt.code, ""),
				TargetCodec: "h264",
				OnError:     func(_ string, err error) { hooked = append(hooked, err) },
			}
			if got := p.IsCompatible(context.Background(), "in.mp4"); got != tt.want {
				t.Errorf("IsCompatible = %v, want %v", got, tt.want)
			}
			if (len(hooked) > 0) != tt.wantErr {
				t.Errorf("hook calls = %v, wantErr %v", hooked, tt.wantErr)
			}
		})
	}
}

func TestIsCompatible_NoVideoSentinel(t *testing.T) {
	var got error
	p := &Prober{
		Bin:         fakeFFprobe(t, sampleAudioOnly, 0, ""),
		TargetCodec: "h264",
		OnError:     func(_ string, err error) { got = err },
	}
	p.IsCompatible(context.Background(), "song.mp4")
	if !errors.Is(got, ErrNoVideo) {
		t.Errorf("hook error = %v, want ErrNoVideo", got)
	}
}

func TestIsCompatible_MissingBinary(t *testing.T) {
	var got error
	p := &Prober{
		Bin:         filepath.Join(t.TempDir(), "does-not-exist"),
		TargetCodec: "h264",
		OnError:     func(_ string, err error) { got = err },
	}
	if p.IsCompatible(context.Background(), "x.mp4") {
		t.Error("missing ffprobe must be incompatible")
	}
	if got == nil {
		t.Error("expected the hook to receive the exec error")
	}
}

func TestIsCompatible_Timeout(t *testing.T) {
	var got error
	p := &Prober{
		Bin:         fakeFFprobe(t, sampleCoverThenH264, 0, "5"),
		Timeout:     100 * time.Millisecond,
		TargetCodec: "h264",
		OnError:     func(_ string, err error) { got = err },
	}
	start := time.Now()
	if p.IsCompatible(context.Background(), "slow.mp4") {
		t.Error("timed-out probe must be incompatible")
	}
	if time.Since(start) > 4*time.Second {
		t.Error("probe did not honor the timeout")
	}
	if got == nil || !strings.Contains(got.Error(), "timed out") {
		t.Errorf("hook error = %v, want timeout", got)
	}
}

func TestIsCompatible_NilHook(t *testing.T) {
	p := &Prober{Bin: fakeFFprobe(t, "oops", 0, ""), TargetCodec: "h264"}
	if p.IsCompatible(context.Background(), "x.mp4") {
		t.Error("unparseable output must be incompatible")
	}
}
