package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// dispatcher is the worker pool behind [Client.Enqueue]. Every call runs
// on its own goroutine, gated by an optional semaphore.
type dispatcher struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	sem      chan struct{}
	shutdown atomic.Bool
	running  map[uuid.UUID]*Call
}

// newDispatcher creates a dispatcher with the given concurrency limit.
// If maxConcurrent <= 0, concurrency is unlimited.
func newDispatcher(maxConcurrent int) *dispatcher {
	d := &dispatcher{
		running: make(map[uuid.UUID]*Call),
	}
	if maxConcurrent > 0 {
		d.sem = make(chan struct{}, maxConcurrent)
	}
	return d
}

// Enqueue schedules req on the Client's worker pool and returns immediately.
// Once a worker slot is free the request is sent, its status code checked
// against [WithExpectedStatus] (200 by default), the body wrapped by
// [WithBodyWrapper] and handed to fn. The call context derives from
// req.Context(); cancelling either aborts the call.
//
// Option errors do not schedule any work: the returned Call is already
// done and carries the error.
func (c *Client) Enqueue(req *http.Request, fn Handler, optFns ...CallOption) *Call {
	opts := callOpts{expCodes: []int{http.StatusOK}}
	var optErr error
	for _, opt := range optFns {
		if err := opt(&opts); err != nil && optErr == nil {
			optErr = fmt.Errorf("applying call option: %w", err)
		}
	}

	if optErr != nil {
		call := &Call{
			id:     uuid.New(),
			tag:    opts.tag,
			req:    req,
			done:   make(chan struct{}),
			err:    optErr,
			cancel: func() {},
		}
		if opts.onComplete != nil {
			opts.onComplete(optErr)
		}
		close(call.done)
		return call
	}

	ctx, cancel := context.WithCancel(req.Context())
	call := &Call{
		id:     uuid.New(),
		tag:    opts.tag,
		req:    req.WithContext(ctx),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	d := c.queue
	d.track(call)
	d.wg.Add(1)
	go func() {
		defer func() {
			cancel()
			d.untrack(call)
			close(call.done)
			d.wg.Done()
		}()

		call.err = c.run(ctx, call, fn, opts)
		if opts.onComplete != nil {
			opts.onComplete(call.err)
		}
	}()

	return call
}

// run waits for a worker slot and executes the call.
func (c *Client) run(ctx context.Context, call *Call, fn Handler, opts callOpts) error {
	d := c.queue
	if d.sem != nil {
		select {
		case d.sem <- struct{}{}:
			defer func() {
				<-d.sem
			}()
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if d.shutdown.Load() {
		return ErrShutdown
	}

	return c.exec(call.req, opts.expCodes, func(resp *http.Response) error {
		if opts.wrap != nil {
			resp.Body = opts.wrap(resp)
		}

		return fn(ctx, resp)
	})
}

// CancelTag cancels every in-flight or queued call carrying tag and
// reports how many calls were cancelled.
func (c *Client) CancelTag(tag any) int {
	if tag == nil {
		return 0
	}

	d := c.queue
	d.mu.Lock()
	var matched []*Call
	for _, call := range d.running {
		if call.tag == tag {
			matched = append(matched, call)
		}
	}
	d.mu.Unlock()

	for _, call := range matched {
		call.Cancel()
	}

	if len(matched) > 0 {
		c.logger.Debug("cancelled calls by tag", "tag", tag, "count", len(matched))
	}

	return len(matched)
}

// Wait blocks until every enqueued call has finished.
func (c *Client) Wait() {
	c.queue.wg.Wait()
}

// Shutdown prevents calls still waiting for a worker slot from executing.
// Calls already running are unaffected.
func (c *Client) Shutdown() {
	c.queue.shutdown.Store(true)
}

func (d *dispatcher) track(call *Call) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running[call.id] = call
}

func (d *dispatcher) untrack(call *Call) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.running, call.id)
}
