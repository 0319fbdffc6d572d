// Package observe provides ready-made hooks for watching stream
// consumption: counters, error collection, structured logging and
// OpenTelemetry metrics.
package observe

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/lguimbarda/readall/flow/core"
)

// Usage pattern:
//
//	ctx = observe.WithChunkHook(ctx, func(b []byte) { fmt.Println(len(b)) })
//	ctx, counter := observe.WithCounter(ctx)
//	data, err := flow.Read(ctx, src).Wait(ctx)

// WithChunkHook attaches a callback fired for each accepted chunk.
func WithChunkHook(ctx context.Context, callback func([]byte)) context.Context {
	return core.WithHooks(ctx, core.Hooks{
		OnChunk: callback,
	})
}

// WithErrorHook attaches a callback fired when a source error decides the
// outcome.
func WithErrorHook(ctx context.Context, callback func(error)) context.Context {
	return core.WithHooks(ctx, core.Hooks{
		OnError: callback,
	})
}

// WithStartHook attaches a callback fired when consumption begins.
func WithStartHook(ctx context.Context, callback func()) context.Context {
	return core.WithHooks(ctx, core.Hooks{
		OnStart: callback,
	})
}

// WithCompleteHook attaches a callback fired once per consumption with its
// outcome.
func WithCompleteHook(ctx context.Context, callback func(core.Outcome)) context.Context {
	return core.WithHooks(ctx, core.Hooks{
		OnComplete: callback,
	})
}

// Counter provides thread-safe counting across consumptions.
type Counter struct {
	chunks    atomic.Int64
	bytes     atomic.Int64
	errors    atomic.Int64
	completed atomic.Int64
}

// Chunks returns the number of chunks accepted.
func (c *Counter) Chunks() int64 { return c.chunks.Load() }

// Bytes returns the number of bytes accepted.
func (c *Counter) Bytes() int64 { return c.bytes.Load() }

// Errors returns the number of consumptions that ended in error.
func (c *Counter) Errors() int64 { return c.errors.Load() }

// Completed returns the number of consumptions that delivered an outcome.
func (c *Counter) Completed() int64 { return c.completed.Load() }

// WithCounter attaches counting hooks and returns the counter for querying.
func WithCounter(ctx context.Context) (context.Context, *Counter) {
	counter := &Counter{}
	ctx = core.WithHooks(ctx, core.Hooks{
		OnChunk: func(b []byte) {
			counter.chunks.Add(1)
			counter.bytes.Add(int64(len(b)))
		},
		OnComplete: func(o core.Outcome) {
			counter.completed.Add(1)
			if o.Err != nil {
				counter.errors.Add(1)
			}
		},
	})
	return ctx, counter
}

// ErrorCollector collects the errors that ended consumptions.
type ErrorCollector struct {
	mu     sync.Mutex
	errors []error
}

// Errors returns a copy of all collected errors.
func (c *ErrorCollector) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]error, len(c.errors))
	copy(result, c.errors)
	return result
}

// HasErrors returns true if any errors were collected.
func (c *ErrorCollector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors) > 0
}

// WithErrorCollector attaches a hook collecting failed outcomes, including
// sink failures.
func WithErrorCollector(ctx context.Context) (context.Context, *ErrorCollector) {
	collector := &ErrorCollector{}
	ctx = core.WithHooks(ctx, core.Hooks{
		OnComplete: func(o core.Outcome) {
			if o.Err == nil {
				return
			}
			collector.mu.Lock()
			collector.errors = append(collector.errors, o.Err)
			collector.mu.Unlock()
		},
	})
	return ctx, collector
}
