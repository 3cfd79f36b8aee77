// Package planner decides, per source file, whether to skip it, copy it as
// is, or encode it. The decision is pure; all filesystem and process work
// happens in the convert package.
package planner

import (
	"github.com/backmassage/rockola/internal/config"
	"github.com/backmassage/rockola/internal/media"
)

// BuildPlan produces a FilePlan from config and the observed facts.
//
// Flow:
//  1. Unsupported extension: skip (unsupported-format)
//  2. Destination present on disk or already produced in this run by another
//     source: skip (already-exists)
//  3. Source already has the standard extension (and, for video, the target
//     codec): copy
//  4. Otherwise: encode
func BuildPlan(cfg *config.Config, f Facts) *FilePlan {
	plan := &FilePlan{
		Source: f.Source,
		Dest:   f.Dest,
		Kind:   f.Kind,
		Owner:  f.Owner,
	}

	switch {
	case f.Kind == media.Unsupported:
		plan.Action = ActionSkip
		plan.SkipReason = SkipUnsupported
	case f.DestExists || f.Owner != "":
		plan.Action = ActionSkip
		plan.SkipReason = SkipExists
	case canCopy(cfg, f):
		plan.Action = ActionCopy
	default:
		plan.Action = ActionEncode
	}
	return plan
}

func canCopy(cfg *config.Config, f Facts) bool {
	ext := media.Ext(f.Source)
	switch f.Kind {
	case media.Video:
		return ext == cfg.VideoExt && f.Compatible != nil && f.Compatible()
	case media.Audio:
		return ext == cfg.AudioExt
	}
	return false
}
