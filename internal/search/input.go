// Package search holds the transient, per-client search box input and commits
// it after a quiet period.
package search

import (
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultDebounce is the quiet period after the last keystroke before the
// input is committed.
const DefaultDebounce = 500 * time.Millisecond

// Handler receives committed input.
type Handler interface {
	// Commit is called with the final input after the quiet period, or with
	// the current input on an explicit submit.
	Commit(query string)
	// Clear is called when the input is cleared.
	Clear()
}

// Input is the raw search box value of one client. Only the value that has
// been quiet for the debounce period is committed; intermediate values never
// are.
type Input struct {
	clock   clockwork.Clock
	delay   time.Duration
	handler Handler

	mu     sync.Mutex
	value  string
	timer  clockwork.Timer
	gen    uint64
	closed bool
}

// NewInput creates an input that commits to handler. A non-positive delay
// uses DefaultDebounce.
func NewInput(clock clockwork.Clock, delay time.Duration, handler Handler) *Input {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Input{
		clock:   clock,
		delay:   delay,
		handler: handler,
	}
}

// Change records a keystroke and restarts the quiet-period timer.
func (in *Input) Change(value string) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed {
		return
	}

	in.value = value
	in.stopLocked()
	in.gen++
	gen := in.gen
	in.timer = in.clock.AfterFunc(in.delay, func() {
		in.fire(gen)
	})
}

// Submit commits the current value immediately, cancelling any pending timer.
// Blank input is not submitted. Reports whether a commit happened.
func (in *Input) Submit() bool {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return false
	}
	in.stopLocked()
	value := in.value
	in.mu.Unlock()

	if strings.TrimSpace(value) == "" {
		return false
	}
	in.handler.Commit(value)
	return true
}

// Clear empties the input, cancels any pending timer and notifies the handler.
func (in *Input) Clear() {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	in.stopLocked()
	in.value = ""
	in.mu.Unlock()

	in.handler.Clear()
}

// Sync sets the input to a query committed elsewhere without scheduling a
// commit.
func (in *Input) Sync(value string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.timer == nil {
		in.value = value
	}
}

// Value returns the current raw input.
func (in *Input) Value() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.value
}

// Pending reports whether a commit is scheduled.
func (in *Input) Pending() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.timer != nil
}

// Close cancels any pending commit. Further calls are ignored.
func (in *Input) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.stopLocked()
	in.closed = true
}

// stopLocked cancels the pending timer. Bumping gen also drops a callback
// that already fired but has not yet taken the lock.
func (in *Input) stopLocked() {
	if in.timer != nil {
		in.timer.Stop()
		in.timer = nil
	}
	in.gen++
}

func (in *Input) fire(gen uint64) {
	in.mu.Lock()
	if in.closed || gen != in.gen {
		in.mu.Unlock()
		return
	}
	in.timer = nil
	value := in.value
	in.mu.Unlock()

	in.handler.Commit(value)
}
