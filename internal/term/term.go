// Package term decides whether console output is colored and paints text
// with ANSI styles. [Configure] runs once at startup; afterwards [Paint] is
// safe to call from any goroutine.
package term

import (
	"os"
	"strings"
	"sync/atomic"

	"github.com/mattn/go-isatty"

	"github.com/backmassage/rockola/internal/config"
)

// Style is an ANSI SGR prefix.
type Style string

// Styles used by the logger and the banner.
const (
	StyleError   Style = "\033[1;91m"
	StyleSuccess Style = "\033[1;92m"
	StyleWarn    Style = "\033[1;93m"
	StyleInfo    Style = "\033[1;94m"
	StyleAccent  Style = "\033[1;95m"
	StyleDebug   Style = "\033[1;96m"

	reset = "\033[0m"
)

var enabled atomic.Bool

// Configure resolves mode against the environment and turns colors on or off.
func Configure(mode config.ColorMode) {
	enabled.Store(resolve(mode))
}

// Enabled reports whether ANSI colors are currently active.
func Enabled() bool { return enabled.Load() }

// Paint wraps text in style when colors are enabled.
func Paint(style Style, text string) string {
	if text == "" || !enabled.Load() {
		return text
	}
	return string(style) + text + reset
}

// resolve applies the color mode. In auto mode NO_COLOR (https://no-color.org)
// and TERM=dumb turn colors off, CLICOLOR_FORCE turns them on, and otherwise
// stdout must be a terminal.
func resolve(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" || strings.EqualFold(os.Getenv("TERM"), "dumb") {
		return false
	}
	if v := os.Getenv("CLICOLOR_FORCE"); v != "" && v != "0" {
		return true
	}
	return IsTerminal(os.Stdout)
}

// IsTerminal reports whether f is attached to a TTY, including Cygwin and
// MSYS pseudo-terminals on Windows.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
