package download

import (
	"github.com/google/uuid"

	"github.com/adamwoolhether/resumer/client"
)

// Handle tracks one enqueued download.
type Handle struct {
	call *client.Call
	path string
	err  error
}

// ID returns the identifier of the underlying HTTP call.
func (h *Handle) ID() uuid.UUID { return h.call.ID() }

// Tag returns the token given with [WithTag], or nil.
func (h *Handle) Tag() any { return h.call.Tag() }

// Path returns the resolved destination file.
func (h *Handle) Path() string { return h.path }

// Cancel aborts the download at its next read. The callback then
// receives an error matching [ErrCancelled].
func (h *Handle) Cancel() { h.call.Cancel() }

// Done returns a channel closed after the terminal callback returned.
func (h *Handle) Done() <-chan struct{} { return h.call.Done() }

// Wait blocks until the download finished and returns the error given to
// OnFailure, or nil after OnSuccess.
func (h *Handle) Wait() error {
	<-h.call.Done()
	return h.err
}
