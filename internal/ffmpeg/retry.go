package ffmpeg

import (
	"context"

	"github.com/backmassage/rockola/internal/config"
)

// RetryAction identifies what happens after a failed encode attempt.
type RetryAction int

const (
	RetryNone        RetryAction = iota
	RetryFallbackCPU             // Re-run the encode with the CPU encoder.
)

// Attempt records one encode invocation for logging and failure detail.
type Attempt struct {
	Engine Engine
	Result ExecResult
}

// RetryState walks the encoder ladder for a single file: GPU then CPU in
// auto mode, a single rung in gpu or cpu mode.
type RetryState struct {
	ladder   []Engine
	next     int
	Attempts []Attempt
}

// NewRetryState returns the ladder for mode.
func NewRetryState(mode config.EncoderMode) *RetryState {
	var ladder []Engine
	switch mode {
	case config.EncoderGPU:
		ladder = []Engine{EngineGPU}
	case config.EncoderCPU:
		ladder = []Engine{EngineCPU}
	default:
		ladder = []Engine{EngineGPU, EngineCPU}
	}
	return &RetryState{ladder: ladder}
}

// Next returns the engine for the next attempt, or false when the ladder is
// exhausted.
func (s *RetryState) Next() (Engine, bool) {
	if s.next >= len(s.ladder) {
		return 0, false
	}
	e := s.ladder[s.next]
	s.next++
	return e, true
}

// Advance records a failed attempt and reports whether another rung remains.
// Any failure on the GPU rung (including a timeout) falls back; cancellation
// of the parent context never does.
func (s *RetryState) Advance(ctx context.Context, engine Engine, res ExecResult) RetryAction {
	s.Attempts = append(s.Attempts, Attempt{Engine: engine, Result: res})
	if ctx.Err() != nil {
		return RetryNone
	}
	if s.next >= len(s.ladder) {
		return RetryNone
	}
	return RetryFallbackCPU
}
