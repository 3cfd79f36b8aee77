package ffmpeg

import (
	"errors"
	"regexp"
	"strings"
)

// ErrTimeout marks an invocation killed by the encode timeout.
var ErrTimeout = errors.New("ffmpeg timed out")

// Pre-compiled regexes for classifying ffmpeg stderr output.
var (
	reEncoderUnavailable = regexp.MustCompile(
		`(?i)No NVENC capable devices found|` +
			`Cannot load libnvidia-encode|` +
			`Cannot load libcuda|` +
			`OpenEncodeSessionEx failed|` +
			`Driver does not support the required nvenc API version|` +
			`Unknown encoder|` +
			`Encoder not found`)

	reInputIssue = regexp.MustCompile(
		`(?i)Invalid data found when processing input|` +
			`moov atom not found|` +
			`No such file or directory|` +
			`Permission denied`)
)

// MatchEncoderUnavailable reports whether stderr shows the encoder could not
// be opened at all (missing hardware, driver, or build support).
func MatchEncoderUnavailable(stderr string) bool {
	return reEncoderUnavailable.MatchString(stderr)
}

// MatchInputIssue reports whether stderr blames the input file rather than
// the encoder.
func MatchInputIssue(stderr string) bool {
	return reInputIssue.MatchString(stderr)
}

// LastLine returns the last non-empty line of stderr, which is where ffmpeg
// prints the fatal error. Empty when stderr is blank.
func LastLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
