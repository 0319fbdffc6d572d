// Package http provides sources backed by HTTP response bodies.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/lguimbarda/readall/flow/event"
)

// StatusError is reported by Get when the server answers with a 4xx or 5xx
// status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status: %s", e.Status)
}

// Body creates a source that streams resp.Body once started and closes it
// before ending or failing. The status code is not inspected.
func Body(ctx context.Context, resp *http.Response) *event.Stream {
	return event.ReadCloser(ctx, func() (io.ReadCloser, error) {
		return resp.Body, nil
	})
}

// Get creates a source that performs a GET request with http.DefaultClient
// once started and streams the response body.
func Get(ctx context.Context, url string) *event.Stream {
	return GetWithClient(ctx, http.DefaultClient, url)
}

// GetWithClient is Get with a custom client. Request failures fail the
// source wrapped with %w, 4xx/5xx responses with *StatusError. Cancelling
// ctx aborts the request, which the consumer observes as an error.
func GetWithClient(ctx context.Context, client *http.Client, url string) *event.Stream {
	return event.ReadCloser(ctx, func() (io.ReadCloser, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http get: %w", err)
		}
		if resp.StatusCode >= http.StatusBadRequest {
			resp.Body.Close()
			return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
		}
		return resp.Body, nil
	})
}
