package event

import (
	"context"
	"errors"
	"io"

	"github.com/lguimbarda/readall/flow/core"
)

// Copy writes r into s in chunks of core.ChunkSize(ctx) until r reports
// io.EOF, and returns nil then. It returns any other read error, or ctx's
// error if ctx is done between reads. Each written chunk is a fresh slice.
// The stream is neither ended nor failed; see Finish.
func Copy(ctx context.Context, s *Stream, r io.Reader) error {
	buf := make([]byte, core.ChunkSize(ctx))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.Write(chunk)
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Pump copies r into s and then ends it, or fails it with the error that
// stopped the copy.
func Pump(ctx context.Context, s *Stream, r io.Reader) {
	s.Finish(Copy(ctx, s, r))
}

// FromReader returns a stream that pumps r once started.
func FromReader(ctx context.Context, r io.Reader) *Stream {
	return Producer(func(s *Stream) {
		Pump(ctx, s, r)
	})
}

// ReadCloser returns a stream that, once started, opens a reader, copies it
// and closes it before ending or failing the stream. An open error fails
// the stream as is; a close error fails it only if the copy succeeded.
func ReadCloser(ctx context.Context, open func() (io.ReadCloser, error)) *Stream {
	return Producer(func(s *Stream) {
		rc, err := open()
		if err != nil {
			s.Fail(err)
			return
		}
		err = Copy(ctx, s, rc)
		if closeErr := rc.Close(); err == nil {
			err = closeErr
		}
		s.Finish(err)
	})
}
