// Package io provides sources and sinks backed by files and readers.
package io

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/lguimbarda/readall/flow/event"
)

// FromReader creates a source that reads r in chunks once started.
// The chunk size comes from the context's core.ReadConfig.
func FromReader(ctx context.Context, r io.Reader) *event.Stream {
	return event.FromReader(ctx, r)
}

// ReadFile creates a source that streams the file at path once started.
// If the file cannot be opened the source fails with the wrapped open error
// (errors.Is(err, fs.ErrNotExist) holds for a missing file).
// The file is closed before the source ends or fails.
func ReadFile(ctx context.Context, path string) *event.Stream {
	return event.ReadCloser(ctx, func() (io.ReadCloser, error) {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return file, nil
	})
}

// FileSink is a buffered file writer usable as a forwarding sink.
// Close must be called to flush it.
type FileSink struct {
	file   *os.File
	writer *bufio.Writer
}

// WriteFile opens path for forwarding. The file is created if it doesn't
// exist, or truncated if it does.
func WriteFile(path string) (*FileSink, error) {
	return OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
}

// AppendFile opens path for forwarding, appending to existing content.
// The file is created if it doesn't exist.
func AppendFile(path string) (*FileSink, error) {
	return OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// OpenFile opens a sink with custom file options.
func OpenFile(path string, flag int, perm os.FileMode) (*FileSink, error) {
	file, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}
	return &FileSink{file: file, writer: bufio.NewWriter(file)}, nil
}

func (f *FileSink) Write(p []byte) (int, error) {
	return f.writer.Write(p)
}

// Close flushes buffered data and closes the file.
func (f *FileSink) Close() error {
	flushErr := f.writer.Flush()
	closeErr := f.file.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
