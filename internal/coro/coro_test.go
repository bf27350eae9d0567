package coro

import "testing"

func TestCoroutineStartsSuspended(t *testing.T) {
	ran := false
	c := New(func(c *Coroutine) { ran = true })
	if ran {
		t.Fatalf("body ran before first resume")
	}
	if c.Done() {
		t.Fatalf("new coroutine reports done")
	}
	c.Resume()
	if !ran {
		t.Fatalf("body did not run on resume")
	}
	if !c.Done() {
		t.Fatalf("finished coroutine not done")
	}
}

func TestResumeRunsToNextSuspend(t *testing.T) {
	steps := 0
	c := New(func(c *Coroutine) {
		steps = 1
		c.Suspend()
		steps = 2
		c.Suspend()
		steps = 3
	})

	c.Resume()
	if steps != 1 || c.Done() {
		t.Fatalf("after first resume: steps=%d done=%v", steps, c.Done())
	}
	c.Resume()
	if steps != 2 || c.Done() {
		t.Fatalf("after second resume: steps=%d done=%v", steps, c.Done())
	}
	c.Resume()
	if steps != 3 || !c.Done() {
		t.Fatalf("after final resume: steps=%d done=%v", steps, c.Done())
	}
}

func TestResumeFinishedPanics(t *testing.T) {
	c := New(func(c *Coroutine) {})
	c.Resume()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on resume of finished coroutine")
		}
	}()
	c.Resume()
}

func TestChainResumesAwaiter(t *testing.T) {
	var order []string
	inner := New(func(c *Coroutine) {
		order = append(order, "inner")
	})
	outer := New(func(c *Coroutine) {
		order = append(order, "outer-before")
		c.Suspend()
		order = append(order, "outer-after")
	})

	outer.Resume() // parks awaiting inner
	inner.Chain(outer)
	inner.Resume()

	want := []string{"outer-before", "inner", "outer-after"}
	if len(order) != len(want) {
		t.Fatalf("order mismatch: got %v want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v want %v", i, order, want)
		}
	}
	if !outer.Done() || !inner.Done() {
		t.Fatalf("chain left coroutines unfinished: outer=%v inner=%v", outer.Done(), inner.Done())
	}
}

func TestLongChainFlattens(t *testing.T) {
	const depth = 10000

	chain := make([]*Coroutine, depth)
	for i := 0; i < depth; i++ {
		chain[i] = New(func(c *Coroutine) {})
	}
	for i := 0; i < depth-1; i++ {
		chain[i].Chain(chain[i+1])
	}

	// A recursive resume would need depth stack frames; the flattened loop
	// completes the whole chain from a single call.
	chain[0].Resume()

	for i, c := range chain {
		if !c.Done() {
			t.Fatalf("coroutine %d not done after chain resume", i)
		}
	}
}

func TestPanicPropagatesToResumer(t *testing.T) {
	c := New(func(c *Coroutine) {
		panic("boom")
	})

	defer func() {
		r := recover()
		if r != "boom" {
			t.Fatalf("expected body panic to propagate, got %v", r)
		}
		if !c.Done() {
			t.Fatalf("panicked coroutine should read as done")
		}
	}()
	c.Resume()
}
