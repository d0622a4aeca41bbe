package mock

import (
	"time"

	"github.com/fwojciec/gias"
)

// Compile-time interface verification.
var (
	_ gias.Recorder     = (*Recorder)(nil)
	_ gias.TokenCounter = (*TokenCounter)(nil)
)

// Recorder is a mock implementation of gias.Recorder.
type Recorder struct {
	ObserveRequestFn      func(method, route string, status int, elapsed time.Duration)
	ObservePatchOutcomeFn func(status gias.Status)
	ObserveApplyFn        func(checkOnly, applied bool)
}

func (r *Recorder) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	r.ObserveRequestFn(method, route, status, elapsed)
}

func (r *Recorder) ObservePatchOutcome(status gias.Status) {
	r.ObservePatchOutcomeFn(status)
}

func (r *Recorder) ObserveApply(checkOnly, applied bool) {
	r.ObserveApplyFn(checkOnly, applied)
}

// TokenCounter is a mock implementation of gias.TokenCounter.
type TokenCounter struct {
	CountFn func(text string) int
}

func (c *TokenCounter) Count(text string) int {
	return c.CountFn(text)
}
