package planner

import "github.com/backmassage/rockola/internal/media"

// Action describes the per-file processing decision.
type Action int

const (
	ActionEncode Action = iota
	ActionCopy
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionCopy:
		return "copy"
	case ActionSkip:
		return "skip"
	default:
		return "encode"
	}
}

// SkipReason says why a file is left alone.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipExists
	SkipUnsupported
)

func (r SkipReason) String() string {
	switch r {
	case SkipExists:
		return "already-exists"
	case SkipUnsupported:
		return "unsupported-format"
	default:
		return ""
	}
}

// FilePlan holds the decision for a single source file. It is produced by
// BuildPlan and carried out by the convert package.
type FilePlan struct {
	Source string
	Dest   string
	Kind   media.Kind

	Action     Action
	SkipReason SkipReason
	// Owner is set when another source already produced Dest in this run.
	Owner string
}

// Facts are the observations BuildPlan decides from. Compatible is only
// called for a video source that already has the standard extension, so the
// codec probe runs only when its answer matters.
type Facts struct {
	Source     string
	Dest       string
	Kind       media.Kind
	DestExists bool
	Owner      string
	Compatible func() bool
}
