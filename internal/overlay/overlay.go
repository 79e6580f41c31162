// Package overlay implements the per-attempt verification state machine:
// Idle -> Processing -> Success | Failure, with Retry back to Idle for
// strategies that allow a fresh capture, and Cancel from anywhere. Success is
// the only terminal state that fires the completion callback, after a fixed
// display window.
package overlay

import (
	"errors"
	"sync"
	"time"

	"github.com/DenisKurek/memoract/internal/model"
)

type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateSuccess    State = "success"
	StateFailure    State = "failure"
	StateClosed     State = "closed"
)

var (
	ErrNotIdle      = errors.New("verification already started")
	ErrNotFailed    = errors.New("retry is only available after a failure")
	ErrNotRetryable = errors.New("this verification method does not support retry")
	ErrClosed       = errors.New("overlay closed")
)

// Overlay owns one verification attempt's result for the duration of that
// attempt. Retry and Cancel discard it.
type Overlay struct {
	mu        sync.Mutex
	state     State
	result    *model.VerificationResult
	retryable bool

	displayWindow time.Duration
	onComplete    func()
	timer         *time.Timer
	fired         bool
}

func New(retryable bool, displayWindow time.Duration, onComplete func()) *Overlay {
	return &Overlay{
		state:         StateIdle,
		retryable:     retryable,
		displayWindow: displayWindow,
		onComplete:    onComplete,
	}
}

// Begin moves Idle -> Processing. Called once capture has produced input and
// the verify call is about to go in flight.
func (o *Overlay) Begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case StateIdle:
		o.state = StateProcessing
		return nil
	case StateClosed:
		return ErrClosed
	default:
		return ErrNotIdle
	}
}

// Resolve records the arrived result. A success schedules the completion
// callback after the display window; a failure waits for Retry or Cancel.
func (o *Overlay) Resolve(res model.VerificationResult) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateProcessing {
		return
	}

	o.result = &res
	if res.Success {
		o.state = StateSuccess
		o.timer = time.AfterFunc(o.displayWindow, o.complete)
	} else {
		o.state = StateFailure
	}
}

// Fail renders an exceptional verify error as a generic failure state rather
// than crashing; the message replaces the backend's.
func (o *Overlay) Fail(message string) {
	o.Resolve(model.VerificationResult{Success: false, Message: message})
}

func (o *Overlay) complete() {
	o.mu.Lock()
	if o.fired || o.state != StateSuccess {
		o.mu.Unlock()
		return
	}
	o.fired = true
	cb := o.onComplete
	o.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// Retry resets Failure -> Idle, discarding the captured input's result so a
// new capture must run. Only offered by retryable strategies.
func (o *Overlay) Retry() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateClosed {
		return ErrClosed
	}
	if o.state != StateFailure {
		return ErrNotFailed
	}
	if !o.retryable {
		return ErrNotRetryable
	}
	o.result = nil
	o.state = StateIdle
	return nil
}

// Cancel discards all in-progress state and returns control to the caller.
// It never fires the completion callback and never mutates the task store.
func (o *Overlay) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.timer != nil {
		o.timer.Stop()
	}
	o.result = nil
	o.state = StateClosed
}

// Snapshot returns the current state and, in a terminal display state, the
// attempt's result.
func (o *Overlay) Snapshot() (State, *model.VerificationResult) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.result == nil {
		return o.state, nil
	}
	res := *o.result
	return o.state, &res
}
