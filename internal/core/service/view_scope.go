package service

import (
	"context"
	"sync"
)

// ViewScope ties requests and state updates to the lifetime of one view.
// Closing it cancels every request started with its context and turns later
// Apply calls into no-ops.
type ViewScope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewViewScope opens a scope derived from parent.
func NewViewScope(parent context.Context) *ViewScope {
	ctx, cancel := context.WithCancel(parent)
	return &ViewScope{ctx: ctx, cancel: cancel}
}

// Context is the context requests issued for this view should use.
func (v *ViewScope) Context() context.Context {
	return v.ctx
}

// Apply runs update unless the view has been closed, and reports whether it ran.
func (v *ViewScope) Apply(update func()) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return false
	}
	update()
	return true
}

// Close tears the view down. It is safe to call more than once.
func (v *ViewScope) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.cancel()
}

// Closed reports whether Close has been called.
func (v *ViewScope) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}
