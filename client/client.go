package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/adamwoolhether/resumer/client/throttle"
)

// Client issues HTTP requests through a configurable [http.Client].
// Requests run either synchronously with [Client.Do] or on the
// Client's worker pool with [Client.Enqueue].
type Client struct {
	c      *http.Client
	logger *slog.Logger
	queue  *dispatcher
}

// Build constructs a Client from optFns. Without options it uses a fresh
// [http.Client] over [http.DefaultTransport], logs to [slog.Default] and
// runs enqueued calls without a concurrency limit.
func Build(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	c := &Client{
		c:      opts.client,
		logger: opts.logger,
		queue:  newDispatcher(opts.maxConcurrent),
	}
	if c.c == nil {
		c.c = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	if opts.timeout != nil {
		c.c.Timeout = *opts.timeout
	}
	if opts.noFollowRedirects {
		c.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	transport, err := c.transport(opts)
	if err != nil {
		return nil, err
	}
	c.c.Transport = transport

	return c, nil
}

// transport layers the user agent and throttle round trippers over the
// base transport, innermost first.
func (c *Client) transport(opts options) (http.RoundTripper, error) {
	base := opts.rt
	if base == nil && opts.client != nil {
		base = opts.client.Transport
	}
	if base == nil {
		base = http.DefaultTransport
	}

	if opts.userAgent != "" {
		base = userAgent{value: opts.userAgent, base: base}
	}

	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(opts.throttle.RPS, opts.throttle.Burst, c.Logger, base)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		base = rt
	}

	return base, nil
}

// Logger returns the logger the Client was built with.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// Do sends req and checks the response status against expCode. With
// [WithDestination] the body is decoded as JSON into the given value,
// otherwise it is discarded.
func (c *Client) Do(req *http.Request, expCode int, opts ...DoOption) error {
	var settings doOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return err
		}
	}

	return c.exec(req, []int{expCode}, func(resp *http.Response) error {
		if settings.responseBody == nil {
			return nil
		}

		dec := json.NewDecoder(resp.Body)
		if settings.useJSONNum {
			dec.UseNumber()
		}
		if err := dec.Decode(settings.responseBody); err != nil {
			return fmt.Errorf("decoding body: %w", err)
		}

		return nil
	})
}

// Request is a convenience method wrapping [Request].
func (c *Client) Request(ctx context.Context, reqURL *url.URL, method string, opts ...RequestOption) (*http.Request, error) {
	return Request(ctx, reqURL, method, opts...)
}

// URL is a convenience method wrapping [URL].
func (c *Client) URL(scheme, host, path string, opts ...URLOption) *url.URL {
	return URL(scheme, host, path, opts...)
}

// exec sends req and, when the status is one of expCodes, hands the
// response to fn. The body is drained and closed afterwards unless fn
// failed part way through it.
func (c *Client) exec(req *http.Request, expCodes []int, fn execFn) error {
	start := time.Now()
	resp, err := c.c.Do(req)
	if err != nil {
		return fmt.Errorf("exec http do: %w", err)
	}

	c.logger.Debug("http response", "method", req.Method, "url", req.URL.Redacted(), "status", resp.StatusCode, "took", time.Since(start).String())

	drain := true
	defer func() {
		if drain {
			if _, err := io.Copy(io.Discard, resp.Body); err != nil {
				c.logger.Error("failed to discard unused body", "error", err)
			}
		}
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	if !slices.Contains(expCodes, resp.StatusCode) {
		return newStatusError(resp)
	}

	if err := fn(resp); err != nil {
		drain = false
		return fmt.Errorf("exec fn: %w", err)
	}

	return nil
}

// newStatusError reads at most maxErrBodySize bytes of resp's body into an
// [UnexpectedStatusError].
func newStatusError(resp *http.Response) error {
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
	if err != nil {
		b = []byte("unable to read body")
	}

	statusErr := ErrUnexpectedStatusCode
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		statusErr = fmt.Errorf("%w: %w", ErrAuthFailure, ErrUnexpectedStatusCode)
	}

	return &UnexpectedStatusError{
		StatusCode: resp.StatusCode,
		Body:       string(b),
		Err:        statusErr,
	}
}

// Request builds an *http.Request for method and reqURL. A payload set with
// [WithPayload] is JSON encoded and sent as application/json unless
// [WithContentType] says otherwise; requests without a payload carry no
// body and no Content-Type unless one is given.
func Request(ctx context.Context, reqURL *url.URL, method string, opts ...RequestOption) (*http.Request, error) {
	var settings requestOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return nil, err
		}
	}

	body := io.Reader(http.NoBody)
	contentType := ""
	if settings.body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(settings.body); err != nil {
			return nil, fmt.Errorf("encoding request payload: %w", err)
		}
		body = &buf
		contentType = "application/json"
	}
	if settings.contentType != nil {
		contentType = *settings.contentType
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vals := range settings.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	for _, cookie := range settings.cookies {
		req.AddCookie(cookie)
	}

	return req, nil
}

// URL assembles a [url.URL] from its parts and any [URLOption].
func URL(scheme, host, path string, opts ...URLOption) *url.URL {
	var settings urlOpts
	for _, opt := range opts {
		opt(&settings)
	}

	if settings.port != nil {
		host = fmt.Sprintf("%s:%d", host, *settings.port)
	}

	u := &url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   path,
	}

	if len(settings.queryStrings) > 0 {
		q := make(url.Values, len(settings.queryStrings))
		for k, v := range settings.queryStrings {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	return u
}
