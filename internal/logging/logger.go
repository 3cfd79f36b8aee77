// Package logging provides a leveled, optionally colored logger with an
// optional append-only file sink. Console output uses the colors resolved by
// the term package; the file always receives plain text.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/backmassage/rockola/internal/config"
	"github.com/backmassage/rockola/internal/term"
)

// Logger writes timestamped level-tagged lines. All methods are safe for
// concurrent use by pipeline workers.
type Logger struct {
	mu       sync.Mutex
	stdout   io.Writer
	stderr   io.Writer
	file     *os.File
	filePath string
	plain    bool
}

// NewLogger configures terminal colors from cfg and optionally opens
// cfg.LogFile. Call Close when done.
func NewLogger(cfg *config.Config) (*Logger, error) {
	term.Configure(cfg.ColorMode)
	l := &Logger{stdout: os.Stdout, stderr: os.Stderr}

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.file = f
		l.filePath = cfg.LogFile
	}
	return l, nil
}

// NewWriterLogger returns a Logger that sends every level to w, without
// colors or a file sink. Used by tests and by commands that capture output.
func NewWriterLogger(w io.Writer) *Logger {
	return &Logger{stdout: w, stderr: w, plain: true}
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// FilePath returns the log file path, or "" when logging only to the console.
func (l *Logger) FilePath() string { return l.filePath }

func (l *Logger) line(level string, style term.Style, text string) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	tag := "[" + level + "]"
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.stdout
	if level == "ERROR" {
		out = l.stderr
	}
	painted := tag
	if !l.plain {
		painted = term.Paint(style, tag)
	}
	_, _ = io.WriteString(out, ts+" "+painted+" "+text+"\n")
	if l.file != nil {
		_, _ = io.WriteString(l.file, ts+" "+tag+" "+text+"\n")
	}
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...interface{}) {
	l.line("INFO", term.StyleInfo, fmt.Sprintf(format, args...))
}

// Success logs at SUCCESS level (green).
func (l *Logger) Success(format string, args ...interface{}) {
	l.line("SUCCESS", term.StyleSuccess, fmt.Sprintf(format, args...))
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...interface{}) {
	l.line("WARN", term.StyleWarn, fmt.Sprintf(format, args...))
}

// Error logs at ERROR level (red), to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.line("ERROR", term.StyleError, fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level (cyan) only when verbose; no-op otherwise.
func (l *Logger) Debug(verbose bool, format string, args ...interface{}) {
	if !verbose {
		return
	}
	l.line("DEBUG", term.StyleDebug, fmt.Sprintf(format, args...))
}
