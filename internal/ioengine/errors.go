package ioengine

import (
	"errors"
	"fmt"
)

// ErrEngineClosed is delivered to every wait still pending when the engine
// is closed, and returned by primitives invoked after Close.
var ErrEngineClosed = errors.New("io engine closed")

// Descriptor failure kinds, surfaced through EventError. Use errors.Is to
// distinguish which condition completed a wait.
var (
	// ErrPollErr reports an error condition on a watched descriptor.
	ErrPollErr = errors.New("POLLERR")
	// ErrPollHup reports that the peer of a watched descriptor hung up.
	ErrPollHup = errors.New("POLLHUP")
	// ErrPollNval reports that a watched descriptor is not open.
	ErrPollNval = errors.New("POLLNVAL")
)

// EventError is the failure attached to a wait whose descriptor reported an
// error condition. It unwraps to exactly one of ErrPollErr, ErrPollHup or
// ErrPollNval; when several conditions fire at once the highest-priority one
// wins (ERR > HUP > NVAL).
type EventError struct {
	FD   int
	cond error
}

func newEventError(fd int, revents Events) *EventError {
	var cond error
	switch {
	case revents&EventErr != 0:
		cond = ErrPollErr
	case revents&EventHup != 0:
		cond = ErrPollHup
	default:
		cond = ErrPollNval
	}
	return &EventError{FD: fd, cond: cond}
}

func (e *EventError) Error() string {
	return fmt.Sprintf("%v on fd %d", e.cond, e.FD)
}

func (e *EventError) Unwrap() error {
	return e.cond
}
