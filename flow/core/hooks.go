package core

import (
	"context"
	"time"
)

// Outcome summarizes a finished consumption for OnComplete hooks.
type Outcome struct {
	Chunks   int           // chunks accepted before the outcome
	Bytes    int64         // total size of those chunks
	Duration time.Duration // from attaching listeners to the outcome
	Err      error         // nil on success
}

// Hooks holds observation callbacks for stream consumption.
// All fields are optional - nil means no observation for that event.
// Hooks run synchronously on the goroutine delivering the source's
// notifications, so they should be fast. OnChunk runs while the
// consumption is locked and must not notify the consumed source directly.
type Hooks struct {
	OnStart    func()        // listeners attached to the source
	OnChunk    func([]byte)  // chunk accepted; must not be retained or modified
	OnError    func(error)   // source error governed the outcome
	OnEnd      func()        // end of stream governed the outcome
	OnComplete func(Outcome) // outcome delivered, exactly once
}

// hooksKey is unexported to prevent collisions with user context keys.
type hooksKey struct{}

// WithHooks attaches hooks to the context.
// Multiple calls to WithHooks compose in FIFO order - hooks from earlier
// calls are invoked before hooks from later calls.
//
// Example:
//
//	ctx := core.WithHooks(ctx, core.Hooks{
//	    OnChunk: func(b []byte) { log.Printf("chunk: %d bytes", len(b)) },
//	})
func WithHooks(ctx context.Context, hooks Hooks) context.Context {
	if ctx == nil {
		panic("nil context")
	}

	existing := hookSets(ctx)
	sets := make([]*Hooks, len(existing), len(existing)+1)
	copy(sets, existing)
	sets = append(sets, &hooks)

	return context.WithValue(ctx, hooksKey{}, sets)
}

func hookSets(ctx context.Context) []*Hooks {
	if ctx == nil {
		return nil
	}
	sets, _ := ctx.Value(hooksKey{}).([]*Hooks)
	return sets
}

// HookInvoker calls the hooks found on a context. A nil or empty invoker
// is valid and does nothing.
type HookInvoker struct {
	sets []*Hooks
}

// NewHookInvoker snapshots the hooks attached to ctx. Call it once per
// consumption.
func NewHookInvoker(ctx context.Context) *HookInvoker {
	return &HookInvoker{sets: hookSets(ctx)}
}

// Start calls all OnStart hooks in FIFO order.
func (h *HookInvoker) Start() {
	if h == nil {
		return
	}
	for _, hooks := range h.sets {
		if hooks.OnStart != nil {
			hooks.OnStart()
		}
	}
}

// Chunk calls all OnChunk hooks in FIFO order.
func (h *HookInvoker) Chunk(chunk []byte) {
	if h == nil {
		return
	}
	for _, hooks := range h.sets {
		if hooks.OnChunk != nil {
			hooks.OnChunk(chunk)
		}
	}
}

// Error calls all OnError hooks in FIFO order.
func (h *HookInvoker) Error(err error) {
	if h == nil {
		return
	}
	for _, hooks := range h.sets {
		if hooks.OnError != nil {
			hooks.OnError(err)
		}
	}
}

// End calls all OnEnd hooks in FIFO order.
func (h *HookInvoker) End() {
	if h == nil {
		return
	}
	for _, hooks := range h.sets {
		if hooks.OnEnd != nil {
			hooks.OnEnd()
		}
	}
}

// Complete calls all OnComplete hooks in FIFO order.
func (h *HookInvoker) Complete(outcome Outcome) {
	if h == nil {
		return
	}
	for _, hooks := range h.sets {
		if hooks.OnComplete != nil {
			hooks.OnComplete(outcome)
		}
	}
}

// NewSafeHooks wraps every hook with panic recovery. Recovered values are
// passed to panicHandler as ErrPanic; if panicHandler is nil, panics are
// silently recovered.
func NewSafeHooks(hooks Hooks, panicHandler func(ErrPanic)) Hooks {
	if panicHandler == nil {
		panicHandler = func(ErrPanic) {}
	}
	guard := func() {
		if r := recover(); r != nil {
			panicHandler(NewPanicError(r))
		}
	}

	var safe Hooks
	if fn := hooks.OnStart; fn != nil {
		safe.OnStart = func() {
			defer guard()
			fn()
		}
	}
	if fn := hooks.OnChunk; fn != nil {
		safe.OnChunk = func(b []byte) {
			defer guard()
			fn(b)
		}
	}
	if fn := hooks.OnError; fn != nil {
		safe.OnError = func(err error) {
			defer guard()
			fn(err)
		}
	}
	if fn := hooks.OnEnd; fn != nil {
		safe.OnEnd = func() {
			defer guard()
			fn()
		}
	}
	if fn := hooks.OnComplete; fn != nil {
		safe.OnComplete = func(o Outcome) {
			defer guard()
			fn(o)
		}
	}
	return safe
}

// WithSafeHooks is a convenience function that wraps hooks with panic recovery
// before attaching them to the context.
func WithSafeHooks(ctx context.Context, hooks Hooks, panicHandler func(ErrPanic)) context.Context {
	return WithHooks(ctx, NewSafeHooks(hooks, panicHandler))
}
