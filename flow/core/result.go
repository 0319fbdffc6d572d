package core

import "errors"

// ErrEndOfStream marks the normal end of a channel-based Stream.
var ErrEndOfStream = errors.New("end of stream")

// Result is one item sent on a Stream's channel: a chunk, an error that
// breaks the stream, or a sentinel that stops it without error.
type Result[T any] struct {
	value T
	err   error
	stop  bool
}

// Ok wraps a value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err wraps an error that fails the stream.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Sentinel stops the stream. reason describes why and is not treated as a
// failure.
func Sentinel[T any](reason error) Result[T] {
	return Result[T]{err: reason, stop: true}
}

// EndOfStream is the sentinel for normal termination.
func EndOfStream[T any]() Result[T] {
	return Sentinel[T](ErrEndOfStream)
}

func (r Result[T]) IsSentinel() bool { return r.stop }

func (r Result[T]) IsError() bool { return r.err != nil && !r.stop }

// Value is the wrapped value; the zero value for errors and sentinels.
func (r Result[T]) Value() T { return r.value }

// Error is the failure of an error result, nil otherwise.
func (r Result[T]) Error() error {
	if r.stop {
		return nil
	}
	return r.err
}
