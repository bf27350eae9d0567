package coro

import "fmt"

// Resumer is anything that can be resumed exactly once per suspension.
type Resumer interface {
	Resume()
}

// State describes coroutine scheduling state.
type State uint8

const (
	StateNew State = iota
	StateSuspended
	StateRunning
	StateDone
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// A Coroutine is a suspended computation with exactly-once resume semantics.
//
// The body runs on its own goroutine, but control is handed off strictly:
// Resume transfers control into the body and does not return until the body
// suspends or finishes, so at any moment exactly one side is running. That
// makes a set of coroutines driven from a single goroutine cooperatively
// scheduled with no preemption.
//
// A Coroutine starts suspended; the first Resume runs the body from the top.
type Coroutine struct {
	resume chan struct{}
	yield  chan struct{}
	state  State
	next   Resumer // resumed after the body finishes
	panicv any
}

// New creates a suspended coroutine. The body does not run until Resume.
func New(fn func(c *Coroutine)) *Coroutine {
	c := &Coroutine{
		resume: make(chan struct{}),
		yield:  make(chan struct{}),
		state:  StateNew,
	}
	go func() {
		<-c.resume
		defer func() {
			c.panicv = recover()
			c.state = StateDone
			c.yield <- struct{}{}
		}()
		fn(c)
	}()
	return c
}

// Resume transfers control into the coroutine until it suspends or finishes.
// When the coroutine finishes and a continuation was attached with Chain,
// that continuation is resumed in turn; chains of coroutines are flattened
// into a loop so long await chains cannot grow the resumer's stack.
//
// Resuming a finished coroutine panics.
func (c *Coroutine) Resume() {
	cur := c
	for {
		cur.transfer()
		if cur.state != StateDone || cur.next == nil {
			return
		}
		next := cur.next
		cur.next = nil
		nc, ok := next.(*Coroutine)
		if !ok {
			next.Resume()
			return
		}
		cur = nc
	}
}

func (c *Coroutine) transfer() {
	if c.state == StateDone {
		panic(fmt.Sprintf("coro: resume of %s coroutine", c.state))
	}
	c.state = StateRunning
	c.resume <- struct{}{}
	<-c.yield
	if c.state == StateDone && c.panicv != nil {
		panic(c.panicv)
	}
}

// Suspend parks the coroutine until the next Resume. It must be called from
// the coroutine's own body.
func (c *Coroutine) Suspend() {
	c.state = StateSuspended
	c.yield <- struct{}{}
	<-c.resume
	c.state = StateRunning
}

// Done reports whether the body has finished.
func (c *Coroutine) Done() bool {
	return c.state == StateDone
}

// Chain attaches a continuation resumed once, right after the body finishes.
// It replaces any previously attached continuation.
func (c *Coroutine) Chain(next Resumer) {
	c.next = next
}
