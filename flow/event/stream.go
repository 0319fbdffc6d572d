// Package event provides an in-memory event source that satisfies both the
// pull (core.Readable) and push (core.Pushing) contracts, plus helpers that
// drive it from readers and channel-based streams.
package event

import (
	"context"
	"sync"

	"github.com/lguimbarda/readall/flow/core"
)

// Stream is an event-emitting byte stream.
//
// Producers call Write, End and Fail. While at least one data listener is
// registered the stream is flowing: chunks go straight to the data
// listeners. Otherwise chunks are queued and readable listeners are told to
// pull them with Read.
//
// Notifications are serialized: listeners never run concurrently with each
// other. Whichever goroutine finds no delivery in progress delivers, and
// keeps delivering until nothing is pending. Calls made from a listener, or
// while another goroutine is delivering, only queue their notifications and
// return; the delivering goroutine runs them after the current listener
// returns. Listeners may therefore call any method, including registering
// more listeners or calling Write, End and Fail.
//
// End and Fail notify the currently registered listeners every time they are
// called. The first of them is remembered: end and error listeners attached
// afterwards are invoked with it.
type Stream struct {
	mu         sync.Mutex
	queue      [][]byte
	onError    []func(error)
	onReadable []func()
	onData     []func([]byte)
	onEnd      []func()
	finished   bool
	failure    error

	pending    []func()
	delivering bool

	produce   func(*Stream)
	startOnce sync.Once
}

var (
	_ core.Readable = (*Stream)(nil)
	_ core.Pushing  = (*Stream)(nil)
	_ core.Starter  = (*Stream)(nil)
)

// New returns an idle stream fed by explicit Write/End/Fail calls.
func New() *Stream {
	return &Stream{}
}

// Producer returns a stream whose data comes from produce. produce runs on
// its own goroutine once Start is called and is responsible for ending or
// failing the stream.
func Producer(produce func(*Stream)) *Stream {
	return &Stream{produce: produce}
}

// Start launches the producer, if any. Only the first call has an effect.
func (s *Stream) Start() {
	if s.produce == nil {
		return
	}
	s.startOnce.Do(func() {
		go s.produce(s)
	})
}

// OnError registers an error listener.
func (s *Stream) OnError(fn func(error)) {
	s.mu.Lock()
	s.onError = append(s.onError, fn)
	if s.finished && s.failure != nil {
		err := s.failure
		s.dispatchLocked(func() { fn(err) })
		return
	}
	s.mu.Unlock()
}

// OnEnd registers an end listener.
func (s *Stream) OnEnd(fn func()) {
	s.mu.Lock()
	s.onEnd = append(s.onEnd, fn)
	if s.finished && s.failure == nil {
		s.dispatchLocked(fn)
		return
	}
	s.mu.Unlock()
}

// OnReadable registers a readable listener. If chunks are already queued
// the listener is notified right away.
func (s *Stream) OnReadable(fn func()) {
	s.mu.Lock()
	s.onReadable = append(s.onReadable, fn)
	if len(s.queue) > 0 {
		s.dispatchLocked(fn)
		return
	}
	s.mu.Unlock()
}

// OnData registers a data listener and switches the stream to flowing
// mode. Chunks queued so far are handed to the new listener first.
func (s *Stream) OnData(fn func([]byte)) {
	s.mu.Lock()
	s.onData = append(s.onData, fn)
	queued := s.queue
	s.queue = nil
	tasks := make([]func(), 0, len(queued))
	for _, chunk := range queued {
		tasks = append(tasks, func() { fn(chunk) })
	}
	s.dispatchLocked(tasks...)
}

// Read pulls the next queued chunk.
func (s *Stream) Read() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil, false
	}
	chunk := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	return chunk, true
}

func (s *Stream) buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Write emits one chunk. The stream takes ownership of chunk.
func (s *Stream) Write(chunk []byte) {
	s.mu.Lock()
	if len(s.onData) > 0 {
		tasks := make([]func(), 0, len(s.onData))
		for _, fn := range s.onData {
			tasks = append(tasks, func() { fn(chunk) })
		}
		s.dispatchLocked(tasks...)
		return
	}
	s.queue = append(s.queue, chunk)
	s.dispatchLocked(s.onReadable...)
}

// End signals that no more data will be written.
func (s *Stream) End() {
	s.mu.Lock()
	s.finished = true
	s.dispatchLocked(s.onEnd...)
}

// Fail signals that the stream broke with err.
func (s *Stream) Fail(err error) {
	s.mu.Lock()
	if !s.finished {
		s.finished = true
		s.failure = err
	}
	tasks := make([]func(), 0, len(s.onError))
	for _, fn := range s.onError {
		tasks = append(tasks, func() { fn(err) })
	}
	s.dispatchLocked(tasks...)
}

// Finish ends the stream if err is nil and fails it with err otherwise.
func (s *Stream) Finish(err error) {
	if err != nil {
		s.Fail(err)
		return
	}
	s.End()
}

// dispatchLocked queues tasks for delivery and, unless a delivery is
// already in progress, runs the queue on the calling goroutine. It must be
// called with s.mu held and releases it.
func (s *Stream) dispatchLocked(tasks ...func()) {
	s.pending = append(s.pending, tasks...)
	if s.delivering || len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	s.delivering = true
	s.mu.Unlock()

	// A panicking listener must not leave the stream stuck in delivery.
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.delivering = false
			s.pending = nil
			s.mu.Unlock()
			panic(r)
		}
	}()

	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.delivering = false
			s.mu.Unlock()
			return
		}
		task := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.mu.Unlock()

		task()
	}
}

// FromStream returns a stream driven by a channel-based core.Stream once
// started. Values are written, the first error result fails the stream, and
// a sentinel or the channel closing ends it.
func FromStream(ctx context.Context, in core.Stream[[]byte]) *Stream {
	return Producer(func(s *Stream) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		for res := range in.Emit(ctx) {
			switch {
			case res.IsError():
				s.Fail(res.Error())
				return
			case res.IsSentinel():
				s.End()
				return
			default:
				s.Write(res.Value())
			}
		}
		if err := ctx.Err(); err != nil {
			s.Fail(err)
			return
		}
		s.End()
	})
}
