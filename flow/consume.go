package flow

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/lguimbarda/readall/flow/core"
)

// Consume attaches to src and resolves the returned Future once src ends or
// fails.
//
// With a nil sink, chunks are concatenated in arrival order and the future
// resolves with the result, or with nil if src ended without a single
// chunk. With a sink, every chunk is written to it as it arrives and the
// future resolves with nil data. The first error or end governs the
// outcome; anything src emits afterwards is ignored. Source errors are
// passed through as is.
//
// Pull sources (core.Readable) are drained until Read reports nothing on
// every readable notification. Push sources (core.Pushing) have their data
// listener used instead. If src also implements core.Starter, Start is
// called after all listeners are attached.
//
// Hooks found on ctx observe the consumption.
func Consume(ctx context.Context, src core.Notifier, sink io.Writer) *Future {
	a := &accumulator{
		sink:    sink,
		hooks:   core.NewHookInvoker(ctx),
		future:  newFuture(),
		started: time.Now(),
	}
	if sink == nil {
		a.buf = bytebufferpool.Get()
	}

	a.hooks.Start()

	src.OnError(a.fail)
	switch s := src.(type) {
	case core.Readable:
		s.OnReadable(func() { a.drain(s) })
	case core.Pushing:
		s.OnData(func(chunk []byte) { a.accept(chunk) })
	}
	src.OnEnd(a.end)

	if s, ok := src.(core.Starter); ok {
		s.Start()
	}
	return a.future
}

// Read buffers src and returns the deferred result.
func Read(ctx context.Context, src core.Notifier) *Future {
	return Consume(ctx, src, nil)
}

// ReadAll buffers src and hands the result to done.
func ReadAll(ctx context.Context, src core.Notifier, done Completion) {
	Read(ctx, src).Then(done)
}

// Forward writes every chunk of src to sink and returns the deferred
// outcome, whose data is always nil.
func Forward(ctx context.Context, src core.Notifier, sink io.Writer) *Future {
	if sink == nil {
		sink = io.Discard
	}
	return Consume(ctx, src, sink)
}

// Pipe writes every chunk of src to sink and reports the outcome to done.
func Pipe(ctx context.Context, src core.Notifier, sink io.Writer, done Completion) {
	Forward(ctx, src, sink).Then(done)
}

// accumulator is the state of one consumption. completed is checked at the
// top of every listener.
type accumulator struct {
	sink    io.Writer
	hooks   *core.HookInvoker
	future  *Future
	started time.Time

	mu        sync.Mutex
	buf       *bytebufferpool.ByteBuffer
	chunks    int
	bytes     int64
	completed bool
}

func (a *accumulator) drain(r core.Readable) {
	for {
		chunk, ok := r.Read()
		if !ok || !a.accept(chunk) {
			return
		}
	}
}

// accept buffers or forwards one chunk. It reports false once the outcome
// is settled. OnChunk hooks run before the guard is released so that none
// of them can follow OnComplete.
func (a *accumulator) accept(chunk []byte) bool {
	a.mu.Lock()
	if a.completed {
		a.mu.Unlock()
		return false
	}

	if a.sink == nil {
		_, _ = a.buf.Write(chunk)
	} else if err := a.forward(chunk); err != nil {
		a.completed = true
		outcome := a.outcome(err)
		a.mu.Unlock()
		a.deliver(nil, outcome)
		return false
	}
	a.chunks++
	a.bytes += int64(len(chunk))

	defer a.mu.Unlock()
	a.hooks.Chunk(chunk)
	return true
}

// forward writes chunk to the sink, turning short writes and panics into
// errors.
func (a *accumulator) forward(chunk []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.NewPanicError(r)
		}
	}()

	n, err := a.sink.Write(chunk)
	if err == nil && n < len(chunk) {
		err = io.ErrShortWrite
	}
	return err
}

func (a *accumulator) fail(err error) {
	a.mu.Lock()
	if a.completed {
		a.mu.Unlock()
		return
	}
	a.completed = true
	outcome := a.outcome(err)
	a.mu.Unlock()

	a.hooks.Error(err)
	a.deliver(nil, outcome)
}

func (a *accumulator) end() {
	a.mu.Lock()
	if a.completed {
		a.mu.Unlock()
		return
	}
	a.completed = true

	var data []byte
	if a.buf != nil && a.chunks > 0 {
		data = make([]byte, a.buf.Len())
		copy(data, a.buf.B)
	}
	outcome := a.outcome(nil)
	a.mu.Unlock()

	a.hooks.End()
	a.deliver(data, outcome)
}

// outcome releases the buffer and summarizes the consumption. Callers hold
// a.mu.
func (a *accumulator) outcome(err error) core.Outcome {
	if a.buf != nil {
		bytebufferpool.Put(a.buf)
		a.buf = nil
	}
	return core.Outcome{
		Chunks:   a.chunks,
		Bytes:    a.bytes,
		Duration: time.Since(a.started),
		Err:      err,
	}
}

func (a *accumulator) deliver(data []byte, outcome core.Outcome) {
	a.hooks.Complete(outcome)
	a.future.resolve(data, outcome.Err)
}
