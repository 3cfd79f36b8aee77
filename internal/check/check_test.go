package check

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/rockola/internal/config"
)

type recordLogger struct{ lines []string }

func (l *recordLogger) add(level, f string)                { l.lines = append(l.lines, level+" "+f) }
func (l *recordLogger) Info(f string, _ ...interface{})    { l.add("INFO", f) }
func (l *recordLogger) Success(f string, _ ...interface{}) { l.add("SUCCESS", f) }
func (l *recordLogger) Warn(f string, _ ...interface{})    { l.add("WARN", f) }
func (l *recordLogger) Error(f string, _ ...interface{})   { l.add("ERROR", f) }
func (l *recordLogger) Debug(bool, string, ...interface{}) {}

// stubTools replaces the process helpers for one test. working lists the
// encoders whose test encode succeeds; missing lists binaries not on PATH.
func stubTools(t *testing.T, working, missing []string) {
	t.Helper()
	origLook, origRun, origVer := lookPath, runSilent, versionOf
	t.Cleanup(func() { lookPath, runSilent, versionOf = origLook, origRun, origVer })

	lookPath = func(name string) (string, error) {
		for _, m := range missing {
			if m == name {
				return "", errors.New("not found")
			}
		}
		return "/usr/bin/" + name, nil
	}
	versionOf = func(name string) (string, error) { return name + " version 7.0", nil }
	runSilent = func(_ string, args ...string) bool {
		joined := strings.Join(args, " ")
		for _, enc := range working {
			if strings.Contains(joined, "-c:v "+enc+" ") || strings.Contains(joined, "-c:a "+enc+" ") {
				return true
			}
		}
		return false
	}
}

func defaultCfg() *config.Config {
	cfg := config.DefaultConfig()
	return &cfg
}

func TestCheckDeps(t *testing.T) {
	tests := []struct {
		name     string
		mode     config.EncoderMode
		working  []string
		missing  []string
		wantErr  error
		wantWarn bool
	}{
		{"all good", config.EncoderAuto, []string{"h264_nvenc", "libx264", "mp3"}, nil, nil, false},
		{"auto without gpu warns", config.EncoderAuto, []string{"libx264", "mp3"}, nil, nil, true},
		{"auto without any video", config.EncoderAuto, []string{"mp3"}, nil, ErrNoVideoEncoder, false},
		{"gpu mode without gpu", config.EncoderGPU, []string{"libx264", "mp3"}, nil, ErrGPUEncodeFailed, false},
		{"cpu mode without cpu", config.EncoderCPU, []string{"h264_nvenc", "mp3"}, nil, ErrCPUEncodeFailed, false},
		{"cpu mode ignores gpu", config.EncoderCPU, []string{"libx264", "mp3"}, nil, nil, false},
		{"no audio encoder", config.EncoderAuto, []string{"h264_nvenc"}, nil, ErrAudioEncoderMissing, false},
		{"no ffmpeg", config.EncoderAuto, nil, []string{"ffmpeg"}, ErrFfmpegNotFound, false},
		{"no ffprobe", config.EncoderAuto, nil, []string{"ffprobe"}, ErrFfprobeNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubTools(t, tt.working, tt.missing)
			cfg := defaultCfg()
			cfg.EncoderMode = tt.mode
			log := &recordLogger{}

			err := CheckDeps(cfg, log)
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Fatalf("CheckDeps = %v, want %v", err, tt.wantErr)
			}
			warned := false
			for _, l := range log.lines {
				if strings.HasPrefix(l, "WARN") {
					warned = true
				}
			}
			if warned != tt.wantWarn {
				t.Errorf("warned = %v, want %v (%v)", warned, tt.wantWarn, log.lines)
			}
		})
	}
}

func TestRunCheck(t *testing.T) {
	stubTools(t, []string{"libx264", "mp3"}, []string{"ffprobe"})
	results := RunCheck(defaultCfg(), &recordLogger{})

	want := map[string]bool{
		"ffmpeg":                 true,
		"ffprobe":                false,
		"GPU video (h264_nvenc)": false,
		"CPU video (libx264)":    true,
		"Audio (mp3)":            true,
	}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for _, r := range results {
		if ok, exists := want[r.Name]; !exists || ok != r.OK {
			t.Errorf("%s: OK=%v (%s)", r.Name, r.OK, r.Detail)
		}
	}
}

func TestVideoTestArgs(t *testing.T) {
	args := strings.Join(videoTestArgs("h264_nvenc", "p1"), " ")
	if !strings.Contains(args, "-c:v h264_nvenc -preset p1 -f null -") {
		t.Errorf("unexpected args: %s", args)
	}
	if strings.Contains(strings.Join(videoTestArgs("libx264", ""), " "), "-preset") {
		t.Error("empty preset should be omitted")
	}
}

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if r := CheckDirectoryAccess("Dest", dir, true); !r.OK {
		t.Errorf("writable temp dir: %+v", r)
	}

	missing := filepath.Join(dir, "missing")
	if r := CheckDirectoryAccess("Source", missing, false); r.OK || !strings.Contains(r.Detail, "does not exist") {
		t.Errorf("missing dir: %+v", r)
	}

	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckDirectoryAccess("Source", file, false); r.OK || !strings.Contains(r.Detail, "not a directory") {
		t.Errorf("regular file: %+v", r)
	}
}

func TestCheckDestination_NotYetCreated(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out")
	r := checkDestination(dest)
	if !r.OK || !strings.Contains(r.Detail, "will be created") {
		t.Errorf("checkDestination = %+v", r)
	}
}

func TestRunCheck_IncludesDirectories(t *testing.T) {
	stubTools(t, []string{"h264_nvenc", "libx264", "mp3"}, nil)
	cfg := defaultCfg()
	cfg.SourceDir = t.TempDir()
	cfg.DestDir = filepath.Join(t.TempDir(), "out")

	results := RunCheck(cfg, &recordLogger{})
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	if got := strings.Join(names, ","); !strings.HasSuffix(got, "Source,Destination") {
		t.Errorf("results = %s", got)
	}
}
