package convert

import (
	"time"

	"github.com/backmassage/rockola/internal/ffmpeg"
	"github.com/backmassage/rockola/internal/media"
	"github.com/backmassage/rockola/internal/planner"
)

// Status is the tag of an Outcome.
type Status int

const (
	StatusCopied Status = iota
	StatusConverted
	StatusSkipped
	StatusFailed
)

// Bucket is the summary category an Outcome is counted in.
type Bucket int

const (
	BucketProcessed Bucket = iota
	BucketOmitted
	BucketError
)

// Outcome is the result of processing one source file. Exactly one is
// produced per file and it is not modified after Process returns.
type Outcome struct {
	Source string
	Dest   string
	Kind   media.Kind
	Status Status

	Engine ffmpeg.Engine      // StatusConverted, video only
	Reason planner.SkipReason // StatusSkipped only
	Detail string             // StatusFailed only

	InBytes  int64
	OutBytes int64
	Elapsed  time.Duration
	DryRun   bool
}

// Bucket maps the tag to a summary category: Copied and Converted are
// processed, Skipped is omitted, Failed is an error.
func (o Outcome) Bucket() Bucket {
	switch o.Status {
	case StatusCopied, StatusConverted:
		return BucketProcessed
	case StatusSkipped:
		return BucketOmitted
	default:
		return BucketError
	}
}

// Label renders the tag, e.g. "Converted(GPU)" or "Skipped(already-exists)".
func (o Outcome) Label() string {
	switch o.Status {
	case StatusCopied:
		return "Copied"
	case StatusConverted:
		if o.Kind == media.Audio {
			return "Converted(audio)"
		}
		return "Converted(" + o.Engine.String() + ")"
	case StatusSkipped:
		return "Skipped(" + o.Reason.String() + ")"
	default:
		return "Failed"
	}
}

// String renders the label plus the failure detail when there is one.
func (o Outcome) String() string {
	if o.Status == StatusFailed && o.Detail != "" {
		return "Failed(" + o.Detail + ")"
	}
	return o.Label()
}
