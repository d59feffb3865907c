package download

import (
	"context"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"reflect"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/resumer/client"
	"github.com/adamwoolhether/resumer/client/throttle"
)

// Executor runs resumable downloads on the worker pool of a
// [client.Client].
type Executor struct {
	client *client.Client
	logger *slog.Logger
	tracer trace.Tracer
	opts   options
}

// NewExecutor builds an Executor dispatching through c.
func NewExecutor(c *client.Client, optFns ...Option) (*Executor, error) {
	if c == nil {
		return nil, errors.New("client must not be nil")
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying download option: %w", err)
		}
	}

	e := &Executor{
		client: c,
		logger: c.Logger(),
		tracer: noop.NewTracerProvider().Tracer("no-op tracer"),
		opts:   opts,
	}

	if opts.logger != nil {
		e.logger = opts.logger
	}

	if opts.tracer != nil {
		e.tracer = opts.tracer
	}

	return e, nil
}

// Enqueue validates r and schedules it on the client's worker pool.
//
// Validation runs on the calling goroutine: the URL, the destination and
// the filesystem are checked and the Range header negotiated before any
// network activity. If any of that fails, cb.OnFailure is called before
// Enqueue returns and the returned Handle is nil.
//
// Otherwise the transfer continues in the background. cb receives
// progress as bytes arrive, then exactly one OnSuccess or OnFailure.
// Partial data is left on disk when a transfer fails.
func (e *Executor) Enqueue(ctx context.Context, r Request, cb Callback) *Handle {
	if cb == nil {
		cb = Callbacks{}
	}

	u, path, headers, err := e.preflight(r)
	if err != nil {
		e.logger.Warn("download rejected", "url", r.url, "error", err)
		cb.OnFailure(err)
		return nil
	}

	ctx, span := e.tracer.Start(ctx, "download", trace.WithAttributes(
		attribute.String("url", r.url),
		attribute.String("path", path),
		attribute.Int64("completed", r.completedBytes),
	))

	hdr := make(map[string][]string, len(headers))
	for _, h := range headers {
		hdr[h.Name] = append(hdr[h.Name], h.Value)
	}

	req, err := client.Request(ctx, u, http.MethodGet, client.WithHeaders(hdr))
	if err != nil {
		err = &Error{Err: ErrInvalidURL, Detail: err.Error()}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		cb.OnFailure(err)
		return nil
	}

	t := &transfer{
		exec:      e,
		cb:        cb,
		url:       r.url,
		path:      path,
		completed: r.completedBytes,
		newHash:   r.newHash,
		checksum:  r.checksum,
	}
	h := &Handle{path: path}

	callOpts := []client.CallOption{
		client.WithExpectedStatus(http.StatusOK, http.StatusPartialContent),
		client.WithBodyWrapper(t.wrap),
		client.WithOnComplete(func(callErr error) {
			h.err = t.finish(ctx, callErr)
			if h.err != nil {
				span.RecordError(h.err)
				span.SetStatus(codes.Error, h.err.Error())
			}
			span.End()
		}),
	}
	if r.tag != nil {
		callOpts = append(callOpts, client.WithTag(r.tag))
	}

	e.logger.Debug("download enqueued", "url", r.url, "path", path, "completed", r.completedBytes)
	h.call = e.client.Enqueue(req, t.handle, callOpts...)

	return h
}

// CancelTag cancels every download enqueued with tag and reports how
// many were cancelled.
func (e *Executor) CancelTag(tag any) int {
	return e.client.CancelTag(tag)
}

// preflight performs every synchronous check, returning the parsed URL,
// the resolved destination and the final header list.
func (e *Executor) preflight(r Request) (*url.URL, string, []Header, error) {
	if r.url == "" {
		return nil, "", nil, ErrMissingURL
	}

	u, err := url.Parse(r.url)
	if err != nil {
		return nil, "", nil, &Error{Err: ErrInvalidURL, Detail: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, "", nil, &Error{Err: ErrInvalidURL, Detail: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return nil, "", nil, &Error{Err: ErrInvalidURL, Detail: "missing host"}
	}

	if r.tag != nil && !reflect.TypeOf(r.tag).Comparable() {
		return nil, "", nil, &Error{Err: ErrInvalidTag, Detail: fmt.Sprintf("%T", r.tag)}
	}

	path := r.Destination()
	if path == "" {
		return nil, "", nil, ErrMissingDestination
	}

	if err := ValidateDestination(path, r.completedBytes); err != nil {
		return nil, "", nil, err
	}

	return u, path, mergeRange(r.headers, r.completedBytes, e.logger), nil
}

// transfer is the state of one download once it has left the caller.
// It is used only from the worker goroutine.
type transfer struct {
	exec      *Executor
	cb        Callback
	url       string
	path      string
	completed int64
	newHash   func() hash.Hash
	checksum  string

	progress *progressReader
	written  int64
	err      error
}

// wrap installs the progress decorator around the response body.
func (t *transfer) wrap(resp *http.Response) io.ReadCloser {
	var logger *slog.Logger
	if t.exec.opts.progressLog {
		logger = t.exec.logger
	}

	t.progress = newProgressReader(resp, t.completed, t.cb, logger)

	return t.progress
}

// handle streams the response into the destination file.
func (t *transfer) handle(ctx context.Context, resp *http.Response) error {
	t.err = t.copy(ctx, resp)
	return t.err
}

func (t *transfer) copy(ctx context.Context, resp *http.Response) error {
	e := t.exec
	resuming := t.completed > 0

	if resuming && resp.StatusCode != http.StatusPartialContent {
		if e.opts.strictResume {
			return &Error{
				Err:    ErrRangeNotHonored,
				Detail: fmt.Sprintf("status %d for range starting at %d", resp.StatusCode, t.completed),
			}
		}
		e.logger.Warn("server ignored range request", "url", t.url, "status", resp.StatusCode)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if resuming {
		flags = os.O_WRONLY | os.O_APPEND
	}

	file, err := os.OpenFile(t.path, flags, 0o644)
	if err != nil {
		return &Error{Err: ErrIOFailure, Detail: err.Error()}
	}
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			e.logger.Error("defer closing download file", "path", t.path, "error", err)
		}
	}()

	var verifier *checksumVerifier
	if t.newHash != nil {
		verifier = &checksumVerifier{hash: t.newHash(), expected: t.checksum}
		if resuming {
			if err := verifier.seed(t.path, t.completed); err != nil {
				return &Error{Err: ErrIOFailure, Detail: err.Error()}
			}
		}
	}

	if e.opts.checkpoints != nil {
		t.saveCheckpoint(ctx, t.completed, t.progress.total)
	}

	var body io.Reader = &contextReader{ctx: ctx, r: resp.Body}
	if e.opts.bandwidth > 0 {
		if body, err = throttle.NewReader(ctx, body, e.opts.bandwidth); err != nil {
			return fmt.Errorf("configuring bandwidth: %w", err)
		}
	}

	var writer io.Writer = fileWriter{w: file}
	if verifier != nil {
		writer = io.MultiWriter(writer, verifier)
	}

	t.written, err = io.Copy(writer, body)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, ErrIOFailure) {
			return fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
		}
		return err
	}

	if resp.ContentLength >= 0 && t.written != resp.ContentLength {
		return &Error{
			Err:    ErrContentLengthMismatch,
			Detail: fmt.Sprintf("expected %d bytes, got %d", resp.ContentLength, t.written),
		}
	}

	if err := file.Sync(); err != nil {
		return &Error{Err: ErrIOFailure, Detail: fmt.Sprintf("syncing file: %s", err)}
	}
	if err := file.Close(); err != nil {
		return &Error{Err: ErrIOFailure, Detail: fmt.Sprintf("closing file: %s", err)}
	}

	return verifier.Verify()
}

// finish classifies the outcome of the call, updates the checkpoint and
// fires the terminal notification. It returns the error reported to the
// callback.
func (t *transfer) finish(ctx context.Context, callErr error) error {
	e := t.exec

	err := t.err
	if err == nil {
		err = callErr
	}
	err = classify(err)

	if err != nil {
		e.logger.Error("download failed", "url", t.url, "path", t.path, "error", err)
		if e.opts.checkpoints != nil && t.progress != nil {
			t.saveCheckpoint(ctx, t.onDisk(), t.progress.total)
		}
		t.cb.OnFailure(err)
		return err
	}

	e.logger.Info("download complete", "url", t.url, "path", t.path, "bytes", t.written+t.completed)
	if cp := e.opts.checkpoints; cp != nil {
		if err := cp.Delete(context.WithoutCancel(ctx), t.path); err != nil {
			e.logger.Error("deleting checkpoint", "path", t.path, "error", err)
		}
	}
	t.cb.OnSuccess(t.path)

	return nil
}

func (t *transfer) saveCheckpoint(ctx context.Context, completed, total int64) {
	cp := Checkpoint{
		URL:            t.url,
		Path:           t.path,
		CompletedBytes: completed,
		TotalBytes:     total,
	}

	if err := t.exec.opts.checkpoints.Save(context.WithoutCancel(ctx), cp); err != nil {
		t.exec.logger.Error("saving checkpoint", "path", t.path, "error", err)
	}
}

// onDisk reports the size of the destination file, falling back to the
// bytes known to be written.
func (t *transfer) onDisk() int64 {
	info, err := os.Stat(t.path)
	if err != nil {
		return t.completed + t.written
	}

	return info.Size()
}

// classify maps a transfer error onto the package's failure kinds.
func classify(err error) error {
	switch {
	case err == nil:
		return nil

	case errors.Is(err, ErrCancelled),
		errors.Is(err, ErrIOFailure),
		errors.Is(err, ErrNetworkFailure),
		errors.Is(err, ErrChecksumMismatch),
		errors.Is(err, ErrContentLengthMismatch),
		errors.Is(err, ErrRangeNotHonored):
		return err

	case errors.Is(err, context.Canceled), errors.Is(err, client.ErrShutdown):
		return fmt.Errorf("%w: %w", ErrCancelled, err)

	default:
		return fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}
}
