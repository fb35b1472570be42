package bulk

import (
	"context"
	"sync/atomic"
)

// RunContext carries one run's stop signal. Cancel may be called from any goroutine;
// the traversal loop observes it at item boundaries. Cancel also cuts short any delay
// in progress, but never an extraction in flight.
type RunContext struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cancelled atomic.Bool
}

// NewRunContext derives a run from parent. Cancelling parent also stops the run.
func NewRunContext(parent context.Context) *RunContext {
	ctx, cancel := context.WithCancel(parent)
	return &RunContext{ctx: ctx, cancel: cancel}
}

// Cancel requests a stop.
func (r *RunContext) Cancel() {
	r.cancelled.Store(true)
	r.cancel()
}

// IsCancelled reports whether a stop was requested or the parent context ended.
func (r *RunContext) IsCancelled() bool {
	return r.cancelled.Load() || r.ctx.Err() != nil
}

// Context is done once the run is cancelled. Delays wait on it.
func (r *RunContext) Context() context.Context {
	return r.ctx
}

func (r *RunContext) release() {
	r.cancel()
}
