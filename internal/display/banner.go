// Package display renders human-facing output: the startup banner, byte
// sizes, and tables for batch summaries and run history.
package display

import (
	"fmt"
	"io"

	"github.com/backmassage/rockola/internal/term"
)

const banner = `                _             _
 _ __ ___   ___| | _____  ___| | __ _
| '__/ _ \ / __| |/ / _ \/ _ \ |/ _` + "`" + ` |
| | | (_) | (__|   < (_) | (_) | | (_| |
|_|  \___/ \___|_|\_\___/ \___/|_|\__,_|
`

// PrintBanner writes the ASCII art banner to w, in the accent color when
// colors are enabled.
func PrintBanner(w io.Writer) {
	fmt.Fprintln(w, term.Paint(term.StyleAccent, banner))
}
