package coro

import "runtime"

// Goroutines is a Platform that backs every context with a goroutine parked
// on a handoff channel. Swap hands the channel token to the target and parks
// the caller, so the goroutines interleave strictly one at a time.
type Goroutines struct{}

var _ Platform = Goroutines{}

type goroutine struct {
	resume   chan struct{}
	done     chan struct{} // nil for bootstrap contexts
	released bool
}

// Released reports whether the context was discarded.
func (g *goroutine) Released() bool { return g.released }

// Bootstrap returns a context for the calling goroutine.
func (Goroutines) Bootstrap() Context {
	return &goroutine{resume: make(chan struct{})}
}

// Make starts a goroutine that waits for its first resume before calling entry.
func (Goroutines) Make(stack []byte, entry func(arg any), arg any) (Context, error) {
	if entry == nil {
		return nil, ErrNilEntry
	}
	if len(stack) == 0 {
		return nil, ErrNoStack
	}

	g := &goroutine{
		resume: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(g.done)
		if _, ok := <-g.resume; !ok {
			return
		}
		entry(arg)
	}()
	return g, nil
}

// Swap transfers control to to and blocks until from is resumed. A context
// released while parked here unwinds its goroutine instead of returning.
func (Goroutines) Swap(from, to Context) error {
	f, ok := from.(*goroutine)
	if !ok {
		return ErrForeignContext
	}
	t, ok := to.(*goroutine)
	if !ok {
		return ErrForeignContext
	}
	if t.released {
		return ErrReleased
	}
	if f == t {
		return nil
	}

	t.resume <- struct{}{}
	if _, ok := <-f.resume; !ok {
		runtime.Goexit()
	}
	return nil
}

// Release closes the context's handoff channel and waits for its goroutine
// to finish unwinding.
func (Goroutines) Release(c Context) error {
	g, ok := c.(*goroutine)
	if !ok {
		return ErrForeignContext
	}
	if g.released {
		return ErrReleased
	}
	g.released = true
	close(g.resume)
	if g.done != nil {
		<-g.done
	}
	return nil
}
