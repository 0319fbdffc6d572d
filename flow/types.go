// Package flow reads a whole event-based byte stream into memory, or
// forwards it to a writer, and reports the outcome exactly once.
//
// This package is the primary user-facing API. Sources come from the
// flow/event, flow/io, flow/http and flow/sql packages, or from any type
// implementing the core source interfaces.
//
//	flow.ReadAll(ctx, io.FromReader(ctx, r), func(data []byte, err error) {
//	    ...
//	})
//
//	data, err := flow.Read(ctx, src).Wait(ctx)
package flow

import (
	"context"

	"github.com/lguimbarda/readall/flow/core"
)

// Type aliases for the core contracts.
// These allow users to work with the package without importing core directly.
type (
	// Notifier reports errors and end of stream.
	Notifier = core.Notifier

	// Readable is a pull-style source.
	Readable = core.Readable

	// Pushing is a push-style source.
	Pushing = core.Pushing

	// Hooks observes a consumption.
	Hooks = core.Hooks

	// Outcome summarizes a finished consumption for hooks.
	Outcome = core.Outcome

	// ErrPanic wraps a panic recovered from a sink or hook.
	ErrPanic = core.ErrPanic
)

// WithHooks attaches observation hooks to ctx.
func WithHooks(ctx context.Context, hooks Hooks) context.Context {
	return core.WithHooks(ctx, hooks)
}

// WithChunkSize sets the chunk size used by reader-backed sources created
// with ctx.
func WithChunkSize(ctx context.Context, size int) context.Context {
	return core.WithConfig(ctx, core.ReadConfig{ChunkSize: size})
}
