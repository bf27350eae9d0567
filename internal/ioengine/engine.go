// Package ioengine multiplexes suspended computations that wait for
// descriptor readiness, a deadline, or both, through a single batched
// poll(2)-style query per drain cycle.
//
// The engine is strictly single-threaded and cooperative: all registration
// and draining must happen on the one goroutine that owns it, and a resumed
// continuation runs until it suspends again before the drain proceeds. The
// engine only waits for readiness; it never reads or writes descriptors
// itself.
package ioengine

import (
	"errors"
	"fmt"
	"math"
	"syscall"
	"time"

	"fortio.org/safecast"

	"riptide/internal/trace"
)

// Continuation is a suspended computation the engine resumes when its wait
// completes. Resuming an already-finished continuation is forbidden; the
// engine resumes each registered continuation at most once.
type Continuation interface {
	Resume()
	Done() bool
}

// Waiter is a continuation that can also park itself. The waiting primitives
// register an operation on behalf of the waiter and then call Suspend from
// the waiter's own control flow.
type Waiter interface {
	Continuation
	Suspend()
}

// operation is one pending suspension: what to resume, which readiness
// condition and/or deadline satisfies it, and the outcome slots.
type operation struct {
	cont     Continuation
	fd       int       // -1 for pure timers
	interest Events    // ignored for pure timers
	deadline time.Time // zero means no deadline
	revents  Events
	failure  error
}

// elapsed reports whether the operation's deadline has passed at now.
// Operations without a deadline never elapse.
func (op *operation) elapsed(now time.Time) bool {
	return !op.deadline.IsZero() && !now.Before(op.deadline)
}

// Config configures an Engine. Zero fields get defaults: the system poller
// and the wall clock.
type Config struct {
	// Poll performs the batched readiness query. Defaults to poll(2).
	Poll PollFunc
	// Now supplies the current time for deadline checks. Defaults to time.Now.
	Now func() time.Time
	// Tracer receives drain and operation events. Defaults to trace.Nop.
	Tracer trace.Tracer
}

// Stats are cumulative counters over the engine's lifetime.
type Stats struct {
	Registered uint64 // operations accepted by register
	Drains     uint64 // drain cycles performed
	Resumed    uint64 // continuations resumed
	Timeouts   uint64 // operations completed by deadline expiry
	Failures   uint64 // operations completed with a failure attached
}

// Engine owns the pending set of wait operations. The zero value is not
// usable; create one with New.
type Engine struct {
	cfg    Config
	ops    []*operation // pending, in registration order
	stats  Stats
	closed bool
}

// New creates an engine, filling config defaults.
func New(cfg Config) *Engine {
	if cfg.Poll == nil {
		cfg.Poll = systemPoll
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Tracer == nil {
		cfg.Tracer = trace.Nop
	}
	return &Engine{cfg: cfg}
}

// Len returns the number of pending operations.
func (e *Engine) Len() int {
	return len(e.ops)
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// register appends op to the pending set. Insertion order is resumption
// order for operations that become eligible in the same drain pass.
func (e *Engine) register(op *operation) {
	if op.cont == nil {
		panic("ioengine: register operation without continuation")
	}
	e.ops = append(e.ops, op)
	e.stats.Registered++
	e.point(trace.ScopeOp, "register", op.fd, "")
}

// Pull performs at most one non-blocking drain pass: a single zero-timeout
// batched query, then resumes every operation made eligible by it. A query
// interrupted by a signal is retried, still without blocking. Pull returns
// immediately when nothing is pending.
func (e *Engine) Pull() {
	if len(e.ops) == 0 {
		return
	}
	e.drain(func(fds []PollFD) (int, error) {
		for {
			n, err := e.cfg.Poll(fds, 0)
			if err != nil && errors.Is(err, syscall.EINTR) {
				continue
			}
			return n, err
		}
	})
}

// PullAll drains until the pending set is empty. Each batched query blocks
// no longer than the time remaining until the soonest deadline among pending
// operations, or indefinitely when no operation carries one. A query that
// reaches that deadline with nothing ready completes the expired operations
// and loops; interruption by a signal retries with the remaining time
// recomputed from the wall clock.
func (e *Engine) PullAll() {
	for len(e.ops) > 0 {
		e.drain(func(fds []PollFD) (int, error) {
			soonest := e.soonestDeadline()
			for {
				timeoutMs := -1
				if !soonest.IsZero() {
					remaining := soonest.Sub(e.cfg.Now())
					if remaining <= 0 {
						return 0, nil
					}
					timeoutMs = clampMs(remaining)
				}
				n, err := e.cfg.Poll(fds, timeoutMs)
				if err != nil {
					if errors.Is(err, syscall.EINTR) {
						continue
					}
					return n, err
				}
				if n > 0 {
					return n, nil
				}
				// Nothing ready yet. Loop: either the soonest deadline has
				// now passed (next iteration returns 0) or millisecond
				// truncation woke us early and we re-poll the remainder.
			}
		})
	}
}

// drain runs one classify-and-resume cycle around a single logical query.
// Every eligible operation is removed from the pending set before any
// continuation is resumed, so re-entrant registrations land in the next
// pass and can never be confused with the in-flight batch.
func (e *Engine) drain(poll func(fds []PollFD) (int, error)) {
	e.stats.Drains++
	e.span(trace.ScopeDrain, "drain", fmt.Sprintf("pending=%d", len(e.ops)))

	fds := make([]PollFD, len(e.ops))
	for i, op := range e.ops {
		fds[i] = PollFD{FD: op.fd, Events: op.interest}
	}

	_, err := poll(fds)

	for i, op := range e.ops {
		op.revents = fds[i].Revents
	}

	now := e.cfg.Now()
	var ready []*operation
	keep := e.ops[:0]

	if err != nil {
		// The query itself failed; nothing it reported can be trusted.
		// Conservatively fail every descriptor-bearing operation with the
		// captured system error. Pure timers whose deadline has passed
		// still complete normally: a timeout is not a failure.
		sysErr := fmt.Errorf("poll: %w", err)
		for _, op := range e.ops {
			switch {
			case op.fd >= 0:
				op.failure = sysErr
				ready = append(ready, op)
			case op.elapsed(now):
				ready = append(ready, op)
			default:
				keep = append(keep, op)
			}
		}
	} else {
		for _, op := range e.ops {
			readiness := op.fd >= 0 && op.revents&(op.interest|eventFault) != 0
			if !readiness && !op.elapsed(now) {
				keep = append(keep, op)
				continue
			}
			if readiness && op.revents&eventFault != 0 {
				op.failure = newEventError(op.fd, op.revents)
			}
			ready = append(ready, op)
		}
	}
	e.ops = keep

	for _, op := range ready {
		e.resume(op)
	}

	e.spanEnd(trace.ScopeDrain, "drain", fmt.Sprintf("resumed=%d pending=%d", len(ready), len(e.ops)))
}

// resume hands the outcome to the waiting continuation and updates counters.
func (e *Engine) resume(op *operation) {
	e.stats.Resumed++
	detail := ""
	switch {
	case op.failure != nil:
		e.stats.Failures++
		detail = op.failure.Error()
	case op.revents != 0:
		detail = op.revents.String()
	default:
		e.stats.Timeouts++
		detail = "timeout"
	}
	e.point(trace.ScopeOp, "resume", op.fd, detail)
	op.cont.Resume()
}

// soonestDeadline returns the earliest finite deadline among pending
// operations, or the zero time when every pending wait is indefinite.
func (e *Engine) soonestDeadline() time.Time {
	var soonest time.Time
	for _, op := range e.ops {
		if op.deadline.IsZero() {
			continue
		}
		if soonest.IsZero() || op.deadline.Before(soonest) {
			soonest = op.deadline
		}
	}
	return soonest
}

// Close resumes every still-pending operation with ErrEngineClosed,
// last-registered first, so no continuation is left parked forever. Waits
// registered by continuations during the unwind are unwound as well.
// Primitives called after Close fail immediately without suspending.
func (e *Engine) Close() error {
	e.closed = true
	for len(e.ops) > 0 {
		op := e.ops[len(e.ops)-1]
		e.ops = e.ops[:len(e.ops)-1]
		op.failure = ErrEngineClosed
		e.resume(op)
	}
	e.point(trace.ScopeEngine, "close", -1, "")
	return e.cfg.Tracer.Close()
}

// clampMs converts a positive duration to whole milliseconds for the poll
// timeout. Truncation is fine: a sub-millisecond remainder degrades to a
// zero-timeout query and the drain loop re-checks the clock.
func clampMs(d time.Duration) int {
	ms, err := safecast.Conv[int](d.Milliseconds())
	if err != nil {
		return math.MaxInt32
	}
	return ms
}

func (e *Engine) point(scope trace.Scope, name string, fd int, detail string) {
	if !e.cfg.Tracer.Enabled() {
		return
	}
	e.cfg.Tracer.Emit(&trace.Event{
		Time:   e.cfg.Now(),
		Kind:   trace.KindPoint,
		Scope:  scope,
		Name:   name,
		FD:     fd,
		Detail: detail,
	})
}

func (e *Engine) span(scope trace.Scope, name, detail string) {
	if !e.cfg.Tracer.Enabled() {
		return
	}
	e.cfg.Tracer.Emit(&trace.Event{
		Time:   e.cfg.Now(),
		Kind:   trace.KindSpanBegin,
		Scope:  scope,
		Name:   name,
		FD:     -1,
		Detail: detail,
	})
}

func (e *Engine) spanEnd(scope trace.Scope, name, detail string) {
	if !e.cfg.Tracer.Enabled() {
		return
	}
	e.cfg.Tracer.Emit(&trace.Event{
		Time:   e.cfg.Now(),
		Kind:   trace.KindSpanEnd,
		Scope:  scope,
		Name:   name,
		FD:     -1,
		Detail: detail,
	})
}
