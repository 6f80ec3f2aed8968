package stores

import (
	"context"
	"errors"
	"time"
)

// ErrAwaitTimeout is returned when a condition did not become true in time.
var ErrAwaitTimeout = errors.New("timed out waiting for condition")

// Signal is a broadcast point for state changes. Every mutation of a store
// broadcasts once; waiters grab the current generation channel and are woken
// when it closes.
type Signal struct {
	ch chan struct{}
}

// NewSignal returns a ready Signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// broadcast wakes all current waiters. Callers must hold the owning
// store's write lock so wakeups and state changes stay ordered.
func (s *Signal) broadcast() {
	close(s.ch)
	s.ch = make(chan struct{})
}

// wait returns the channel for the current generation. Callers must hold
// the owning store's lock (read or write) while grabbing it.
func (s *Signal) wait() <-chan struct{} {
	return s.ch
}

// watchable is satisfied by every store in this package.
type watchable interface {
	// Changed returns a channel closed on the next mutation.
	Changed() <-chan struct{}
}

// Await blocks until cond() is true, the timeout elapses, or ctx is done.
// cond is evaluated with no locks held and must itself take consistent
// snapshots of whatever state it inspects. The condition is re-evaluated
// after every mutation of w, so spurious wakeups are harmless.
func Await(ctx context.Context, w watchable, timeout time.Duration, cond func() bool) error {
	if cond() {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		ch := w.Changed()
		// Re-check after grabbing the generation channel: a mutation
		// between the last check and the grab is visible to cond now,
		// one after the grab closes ch. No window is lost either way.
		if cond() {
			return nil
		}
		select {
		case <-ch:
			if cond() {
				return nil
			}
		case <-timer.C:
			return ErrAwaitTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
