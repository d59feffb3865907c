package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxErrBodySize caps the amount of response body read when
// building an error for an unexpected status code. This prevents
// unbounded memory usage when a large response arrives with a
// wrong status.
const maxErrBodySize = 4 << 10 // 4KB

// execFn represents a func to operate on a response.
type execFn func(response *http.Response) error

// Handler consumes the response of an enqueued [Call]. It runs on the
// worker goroutine after the status code has been validated and the body
// wrapper, if any, has been installed.
type Handler func(ctx context.Context, resp *http.Response) error

// BodyWrapper returns the body a [Handler] reads in place of resp.Body.
// It is the interception point for observing bytes as they leave the
// network layer; resp carries the headers needed to size the transfer.
type BodyWrapper func(resp *http.Response) io.ReadCloser

var (
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
	// ErrShutdown is returned by calls that were still waiting for a
	// worker slot when [Client.Shutdown] was called.
	ErrShutdown = errors.New("client dispatcher shut down")
)

// UnexpectedStatusError is returned when the HTTP response status code
// does not match the expected value.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}
