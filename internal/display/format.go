package display

import (
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes returns a human-readable IEC size (B, KiB, MiB, ...).
// Negative values are formatted by magnitude with a leading minus.
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatBytesWithSign prefixes with + or - for delta display (e.g. "- 1.2 GiB").
func FormatBytesWithSign(bytes int64) string {
	switch {
	case bytes > 0:
		return "+ " + FormatBytes(bytes)
	case bytes < 0:
		return "- " + FormatBytes(-bytes)
	default:
		return FormatBytes(0)
	}
}

// FormatDuration rounds d to whole seconds, or milliseconds below one second.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
