package ioengine

import "time"

// WaitUntil parks c until the deadline passes. An elapsed timer is a normal
// outcome, so a nil error is returned both when the deadline fires and when
// it had already passed at the call (in which case c never suspends). A zero
// deadline waits indefinitely and can only complete through Close. The only
// failure this wait can observe is the engine shutting down.
func (e *Engine) WaitUntil(c Waiter, deadline time.Time) error {
	if e.closed {
		return ErrEngineClosed
	}
	if !deadline.IsZero() && !e.cfg.Now().Before(deadline) {
		return nil
	}
	op := operation{cont: c, fd: -1, deadline: deadline}
	e.register(&op)
	c.Suspend()
	return op.failure
}

// WaitFor parks c for the given duration.
func (e *Engine) WaitFor(c Waiter, d time.Duration) error {
	return e.WaitUntil(c, e.cfg.Now().Add(d))
}

// PollUntil parks c until the descriptor reports one of the interest
// conditions or the deadline passes, whichever comes first. The returned
// mask is empty when the deadline fired rather than readiness; callers must
// check which condition actually completed the wait. A zero deadline means
// readiness only.
func (e *Engine) PollUntil(c Waiter, fd int, interest Events, deadline time.Time) (Events, error) {
	if e.closed {
		return 0, ErrEngineClosed
	}
	if !deadline.IsZero() && !e.cfg.Now().Before(deadline) {
		return 0, nil
	}
	op := operation{cont: c, fd: fd, interest: interest, deadline: deadline}
	e.register(&op)
	c.Suspend()
	return op.revents, op.failure
}

// PollFor is PollUntil with a relative timeout.
func (e *Engine) PollFor(c Waiter, fd int, interest Events, d time.Duration) (Events, error) {
	return e.PollUntil(c, fd, interest, e.cfg.Now().Add(d))
}

// Poll parks c until the descriptor reports one of the interest conditions,
// with no deadline.
func (e *Engine) Poll(c Waiter, fd int, interest Events) (Events, error) {
	return e.PollUntil(c, fd, interest, time.Time{})
}

// PollOnce samples the descriptor's current conditions without blocking on
// them: the operation registers with empty interest and an already-elapsed
// deadline, so it is satisfied on the very next drain pass with whatever the
// query observed. Unlike the other primitives it always suspends for that
// one pass.
func (e *Engine) PollOnce(c Waiter, fd int) (Events, error) {
	if e.closed {
		return 0, ErrEngineClosed
	}
	op := operation{cont: c, fd: fd, deadline: e.cfg.Now()}
	e.register(&op)
	c.Suspend()
	return op.revents, op.failure
}
