package pipeline

import (
	"time"

	"github.com/backmassage/rockola/internal/convert"
	"github.com/backmassage/rockola/internal/display"
	"github.com/backmassage/rockola/internal/ffmpeg"
	"github.com/backmassage/rockola/internal/journal"
	"github.com/backmassage/rockola/internal/media"
	"github.com/backmassage/rockola/internal/planner"
)

// RunStats tracks aggregate counters and byte totals across a batch run.
// Processed + Omitted + Errors always equals Total once every outcome has
// been added.
type RunStats struct {
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

	TotalInputBytes  int64
	TotalOutputBytes int64
	Elapsed          time.Duration

	Failures []convert.Outcome
}

// Add counts one outcome by its tag.
func (s *RunStats) Add(o convert.Outcome) {
	switch o.Bucket() {
	case convert.BucketProcessed:
		s.Processed++
		s.TotalInputBytes += o.InBytes
		s.TotalOutputBytes += o.OutBytes
	case convert.BucketOmitted:
		s.Omitted++
	default:
		s.Errors++
		s.Failures = append(s.Failures, o)
	}

	switch o.Status {
	case convert.StatusCopied:
		s.Copied++
	case convert.StatusConverted:
		switch {
		case o.Kind == media.Audio:
			s.ConvertedAudio++
		case o.Engine == ffmpeg.EngineCPU:
			s.ConvertedCPU++
		default:
			s.ConvertedGPU++
		}
	case convert.StatusSkipped:
		if o.Reason == planner.SkipUnsupported {
			s.SkippedUnsupported++
		} else {
			s.SkippedExists++
		}
	}
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s *RunStats) SpaceSaved() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}

// Totals returns the three summary counts.
func (s *RunStats) Totals() journal.Totals {
	return journal.Totals{Total: s.Total, Processed: s.Processed, Omitted: s.Omitted, Errors: s.Errors}
}

// Summary converts the stats into the display report.
func (s *RunStats) Summary() display.Summary {
	sum := display.Summary{
		RunID:              s.RunID,
		DryRun:             s.DryRun,
		Total:              s.Total,
		Processed:          s.Processed,
		Omitted:            s.Omitted,
		Errors:             s.Errors,
		Copied:             s.Copied,
		ConvertedGPU:       s.ConvertedGPU,
		ConvertedCPU:       s.ConvertedCPU,
		ConvertedAudio:     s.ConvertedAudio,
		SkippedExists:      s.SkippedExists,
		SkippedUnsupported: s.SkippedUnsupported,
		InBytes:            s.TotalInputBytes,
		OutBytes:           s.TotalOutputBytes,
		Elapsed:            s.Elapsed,
	}
	for _, f := range s.Failures {
		sum.Failures = append(sum.Failures, display.Failure{Source: f.Source, Detail: f.Detail})
	}
	return sum
}
