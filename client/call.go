package client

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Call represents an in-flight or completed enqueued request.
type Call struct {
	id     uuid.UUID
	tag    any
	req    *http.Request
	done   chan struct{}
	err    error
	cancel context.CancelFunc
}

// ID returns the unique identifier assigned when the call was enqueued.
func (c *Call) ID() uuid.UUID { return c.id }

// Tag returns the token given with [WithTag], or nil.
func (c *Call) Tag() any { return c.tag }

// Request returns the request bound to the call's context.
func (c *Call) Request() *http.Request { return c.req }

// Done returns a channel that is closed when the call completes.
func (c *Call) Done() <-chan struct{} { return c.done }

// Err blocks until the call completes and returns its error.
func (c *Call) Err() error {
	<-c.done
	return c.err
}

// Cancel cancels the call's context. A call waiting for a worker slot
// never sends its request; a running call aborts at its next read.
func (c *Call) Cancel() {
	c.cancel()
}
