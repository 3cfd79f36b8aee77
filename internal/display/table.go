package display

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Align selects column alignment for RenderTable.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// RenderTable renders headers and rows as a rounded table. Short rows are
// padded with empty cells.
func RenderTable(headers []string, rows [][]string, aligns []Align) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// Failure is one failed file in a Summary.
type Failure struct {
	Source string
	Detail string
}

// Summary is the end-of-batch report.
type Summary struct {
	RunID  string
	DryRun bool

	Total     int
	Processed int
	Omitted   int
	Errors    int

	Copied             int
	ConvertedGPU       int
	ConvertedCPU       int
	ConvertedAudio     int
	SkippedExists      int
	SkippedUnsupported int

	InBytes  int64
	OutBytes int64
	Elapsed  time.Duration

	Failures []Failure
}

// RenderSummary renders the totals table followed by a table of failures
// (when there are any).
func RenderSummary(s Summary) string {
	rows := [][]string{
		{"Processed", fmt.Sprint(s.Processed)},
		{"  Copied", fmt.Sprint(s.Copied)},
		{"  Converted (GPU)", fmt.Sprint(s.ConvertedGPU)},
		{"  Converted (CPU)", fmt.Sprint(s.ConvertedCPU)},
		{"  Converted (audio)", fmt.Sprint(s.ConvertedAudio)},
		{"Omitted", fmt.Sprint(s.Omitted)},
		{"  Already exists", fmt.Sprint(s.SkippedExists)},
		{"  Unsupported", fmt.Sprint(s.SkippedUnsupported)},
		{"Errors", fmt.Sprint(s.Errors)},
		{"Total", fmt.Sprint(s.Total)},
	}
	if s.DryRun {
		rows = append(rows, []string{"Bytes", "n/a (dry run)"})
	} else {
		rows = append(rows, []string{"Bytes", FormatBytes(s.InBytes) + " -> " + FormatBytes(s.OutBytes)})
	}
	rows = append(rows, []string{"Elapsed", FormatDuration(s.Elapsed)})

	var b strings.Builder
	b.WriteString(RenderTable([]string{"Result", "Files"}, rows, []Align{AlignLeft, AlignRight}))

	if len(s.Failures) > 0 {
		failRows := make([][]string, 0, len(s.Failures))
		for _, f := range s.Failures {
			failRows = append(failRows, []string{filepath.Base(f.Source), f.Detail})
		}
		b.WriteString("\n")
		b.WriteString(RenderTable([]string{"Failed file", "Detail"}, failRows, nil))
	}
	return b.String()
}
