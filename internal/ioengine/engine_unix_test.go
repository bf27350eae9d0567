//go:build unix

package ioengine_test

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"riptide/internal/coro"
	"riptide/internal/ioengine"
	"riptide/internal/osfd"
)

func mustPipe(t *testing.T) (r, w *osfd.Handle) {
	t.Helper()
	r, w, err := osfd.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})
	return r, w
}

func TestScenarioReadableDescriptorObservedByPull(t *testing.T) {
	r, w := mustPipe(t)
	e := ioengine.New(ioengine.Config{})

	var mask ioengine.Events
	var err error
	c := coro.New(func(c *coro.Coroutine) {
		mask, err = e.Poll(c, r.FD(), ioengine.EventIn)
	})
	c.Resume()

	// Made readable before the drain.
	if _, werr := unix.Write(w.FD(), []byte("x")); werr != nil {
		t.Fatalf("write: %v", werr)
	}

	e.Pull()

	if !c.Done() {
		t.Fatalf("readiness wait not resumed by non-blocking drain")
	}
	if err != nil {
		t.Fatalf("readable descriptor surfaced failure: %v", err)
	}
	if mask&ioengine.EventIn == 0 {
		t.Fatalf("observed mask %v, want POLLIN set", mask)
	}
}

func TestPollUntilReadinessBeforeDeadline(t *testing.T) {
	r, w := mustPipe(t)
	e := ioengine.New(ioengine.Config{})

	var mask ioengine.Events
	var err error
	c := coro.New(func(c *coro.Coroutine) {
		mask, err = e.PollFor(c, r.FD(), ioengine.EventIn, time.Hour)
	})
	c.Resume()

	if _, werr := unix.Write(w.FD(), []byte("x")); werr != nil {
		t.Fatalf("write: %v", werr)
	}
	e.PullAll()

	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if mask&ioengine.EventIn == 0 {
		t.Fatalf("observed mask %v, want POLLIN", mask)
	}
}

func TestWritablePipeCompletesImmediately(t *testing.T) {
	_, w := mustPipe(t)
	e := ioengine.New(ioengine.Config{})

	var mask ioengine.Events
	c := coro.New(func(c *coro.Coroutine) {
		mask, _ = e.Poll(c, w.FD(), ioengine.EventOut)
	})
	c.Resume()
	e.Pull()

	if mask&ioengine.EventOut == 0 {
		t.Fatalf("fresh pipe write end not writable: mask %v", mask)
	}
}

func TestHangupSurfacesAsFailure(t *testing.T) {
	r, w := mustPipe(t)
	e := ioengine.New(ioengine.Config{})

	var err error
	c := coro.New(func(c *coro.Coroutine) {
		_, err = e.Poll(c, r.FD(), ioengine.EventIn)
	})
	c.Resume()

	if cerr := w.Close(); cerr != nil {
		t.Fatalf("close write end: %v", cerr)
	}
	e.PullAll()

	if !errors.Is(err, ioengine.ErrPollHup) {
		t.Fatalf("hangup produced %v, want ErrPollHup", err)
	}
	var evErr *ioengine.EventError
	if !errors.As(err, &evErr) || evErr.FD != r.FD() {
		t.Fatalf("hangup failure not tagged with descriptor: %v", err)
	}
}

func TestPollOnceSamplesOnNextDrain(t *testing.T) {
	r, _ := mustPipe(t)
	e := ioengine.New(ioengine.Config{})

	var err error
	done := false
	c := coro.New(func(c *coro.Coroutine) {
		_, err = e.PollOnce(c, r.FD())
		done = true
	})
	c.Resume()
	if done {
		t.Fatalf("PollOnce completed without a drain pass")
	}

	e.Pull()

	if !done {
		t.Fatalf("PollOnce not satisfied by the next drain pass")
	}
	if err != nil {
		t.Fatalf("healthy descriptor sampled with failure: %v", err)
	}
}

func TestPollOnceReportsInvalidDescriptor(t *testing.T) {
	r, w := mustPipe(t)
	stale := r.FD()
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	_ = w

	e := ioengine.New(ioengine.Config{})
	var err error
	c := coro.New(func(c *coro.Coroutine) {
		_, err = e.PollOnce(c, stale)
	})
	c.Resume()
	e.Pull()

	if !errors.Is(err, ioengine.ErrPollNval) {
		t.Fatalf("closed descriptor produced %v, want ErrPollNval", err)
	}
}
