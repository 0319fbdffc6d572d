package flow

import (
	"context"
	"sync"
)

// Completion receives the outcome of a consumption: the accumulated bytes
// (nil when nothing was read, and always nil when forwarding) or the error
// that ended it.
type Completion func(data []byte, err error)

// Future is the deferred outcome of a consumption. It is resolved exactly
// once.
type Future struct {
	mu    sync.Mutex
	done  chan struct{}
	data  []byte
	err   error
	thens []Completion
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolve settles the future and runs the pending callbacks on the calling
// goroutine. Calls after the first are ignored.
func (f *Future) resolve(data []byte, err error) {
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		return
	default:
	}
	f.data, f.err = data, err
	close(f.done)
	thens := f.thens
	f.thens = nil
	f.mu.Unlock()

	for _, fn := range thens {
		fn(data, err)
	}
}

// Done is closed once the outcome is known.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the outcome is known or ctx is done. Giving up on ctx
// does not affect the source; the consumption carries on without a waiter.
func (f *Future) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-f.done:
		return f.data, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Then registers fn to receive the outcome. If the future is still pending,
// fn runs on the goroutine that resolves it, after callbacks registered
// earlier; otherwise it runs immediately on the caller.
func (f *Future) Then(fn Completion) {
	if fn == nil {
		return
	}

	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		fn(f.data, f.err)
		return
	default:
	}
	f.thens = append(f.thens, fn)
	f.mu.Unlock()
}
