// Package resumer exposes constructors for the HTTP client and the
// resumable download executor built on it.
package resumer

import (
	"fmt"

	"github.com/adamwoolhether/resumer/client"
	"github.com/adamwoolhether/resumer/client/download"
)

// NewClient instantiates a new *Client with the provided options.
// If not specified, the default http.Client and http.Transport are used.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}

// NewExecutor builds a client from clientOpts and a download executor
// dispatching through it.
func NewExecutor(clientOpts []client.Option, opts ...download.Option) (*download.Executor, error) {
	c, err := client.Build(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("building client: %w", err)
	}

	return download.NewExecutor(c, opts...)
}
