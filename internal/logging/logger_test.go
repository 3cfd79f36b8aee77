package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/rockola/internal/config"
)

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogFile = ""
	cfg.ColorMode = config.ColorNever
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	l.Info("test message")
	if l.FilePath() != "" {
		t.Errorf("FilePath = %q, want empty", l.FilePath())
	}
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorAlways
	cfg.LogFile = filepath.Join(dir, "logs", "rockola.log")
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("to file")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(cfg.LogFile)
	if !bytes.Contains(b, []byte("[INFO] to file")) {
		t.Errorf("log file content: %s", string(b))
	}
	if bytes.Contains(b, []byte("\033[")) {
		t.Error("log file must not contain ANSI sequences")
	}
	cfg.ColorMode = config.ColorNever
	_, _ = NewLogger(&cfg) // reset package colors for other tests
}

func TestWriterLogger_DebugGating(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)
	l.Debug(false, "hidden %d", 1)
	l.Debug(true, "shown %d", 2)
	l.Error("boom")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Debug(false) should not write")
	}
	if !strings.Contains(out, "[DEBUG] shown 2") {
		t.Errorf("missing debug line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] boom") {
		t.Errorf("missing error line: %q", out)
	}
}
