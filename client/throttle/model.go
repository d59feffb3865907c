package throttle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

var (
	// ErrMustNotBeZero rejects non-positive rates and bursts.
	ErrMustNotBeZero = errors.New("must be greater than zero")
	// ErrWaitingFailed wraps limiter errors, including deadlines that
	// would expire before a token is available.
	ErrWaitingFailed = errors.New("limiter waiting failed")
	// ErrContextEnded is returned when the context ended before waiting.
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config holds the request rate of a throttled transport.
type Config struct {
	RPS   int
	Burst int
}

// throttle gates every request sent through next on a token bucket.
type throttle struct {
	limiter *rate.Limiter
	next    http.RoundTripper
	logFn   func() *slog.Logger
}

// reader is an io.Reader whose throughput is capped by a token bucket
// holding one token per byte.
type reader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}
