// Package core defines the contracts readall is built on: the event-based
// source interfaces, the channel-based Result/Stream used by asynchronous
// producers, and the hooks and configuration carried on a context.
//
// NOTE: this package should have no dependencies outside the standard
// library, including other flow packages.
package core

import (
	"context"
)

// Stream is a channel-based flow of results. Producers that already speak
// channels can be turned into an event source with event.FromStream.
type Stream[OUT any] interface {
	Emit(context.Context) <-chan Result[OUT]
}

// Emitter is a function that produces a channel of results. It implements
// Stream.
type Emitter[OUT any] func(context.Context) <-chan Result[OUT]

func Emit[OUT any](emitter func(context.Context) <-chan Result[OUT]) Emitter[OUT] {
	return emitter
}

func (e Emitter[OUT]) Emit(ctx context.Context) <-chan Result[OUT] {
	return e(ctx)
}

// FromSlice creates a Stream that emits each item and then closes.
func FromSlice[OUT any](items []OUT) Stream[OUT] {
	return Emit(func(ctx context.Context) <-chan Result[OUT] {
		out := make(chan Result[OUT], len(items))
		for _, item := range items {
			out <- Ok(item)
		}
		close(out)
		return out
	})
}
