package dis

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrTimerClosed is returned when arming a closed timer.
	ErrTimerClosed = errors.New("dis: timer closed")
	// ErrNegativeDelay is returned when arming with a delay below zero.
	ErrNegativeDelay = errors.New("dis: negative timer delay")
)

// Timer runs one callback after a delay.
//
// The transmission is a chain of one-shot expiries: each callback computes the
// next delay and arms the timer again, relative to the moment it runs. A
// callback that does not re-arm ends the chain.
type Timer interface {
	// Arm schedules fn to run once after d. It may be called from within a
	// running callback.
	Arm(d time.Duration, fn func()) error
	// Cancel drops the pending expiry, if any. A callback that is already
	// running is not interrupted.
	Cancel()
}

// HostTimer implements Timer on top of the Go runtime timers.
//
// Runtime timers do not guarantee sub-microsecond wake-ups; short delays are
// rounded up by the scheduler. The receiving hardware only needs the minimum
// hold times to be honoured, which a late expiry never violates.
type HostTimer struct {
	mu     sync.Mutex
	t      *time.Timer
	closed bool
}

// NewHostTimer returns a ready to use HostTimer.
func NewHostTimer() *HostTimer {
	return &HostTimer{}
}

// Arm implements Timer.
func (h *HostTimer) Arm(d time.Duration, fn func()) error {
	if d < 0 {
		return ErrNegativeDelay
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrTimerClosed
	}
	if h.t != nil {
		h.t.Stop()
	}
	h.t = time.AfterFunc(d, fn)
	return nil
}

// Cancel implements Timer.
func (h *HostTimer) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.t != nil {
		h.t.Stop()
		h.t = nil
	}
}

// Close cancels any pending expiry and makes further Arm calls fail.
func (h *HostTimer) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.t != nil {
		h.t.Stop()
		h.t = nil
	}
	h.closed = true
	return nil
}
