package throttle

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// NewRoundTripper returns an http.RoundTripper allowing at most rps requests
// per second through to next, with bursts of up to burst requests. logFn is
// resolved on every request so the logger can be set after construction; when
// it returns nil, throttled requests are not logged.
func NewRoundTripper(rps, burst int, logFn func() *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, ErrMustNotBeZero)
	}
	if logFn == nil {
		logFn = func() *slog.Logger { return nil }
	}

	return &throttle{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		next:    next,
		logFn:   logFn,
	}, nil
}

func (t *throttle) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	// Tokens does not consume, so a request is only reported when it will block.
	logger := t.logFn()
	if logger == nil || t.limiter.Tokens() >= 1 {
		if err := wait(ctx, t.limiter, 1); err != nil {
			return nil, err
		}
		return t.next.RoundTrip(r)
	}

	start := time.Now()
	logger.Info("request throttled", "host", r.URL.Host, "limit", float64(t.limiter.Limit()), "burst", t.limiter.Burst())
	if err := wait(ctx, t.limiter, 1); err != nil {
		logger.Info("throttled request abandoned", "host", r.URL.Host, "waited", time.Since(start).String(), "error", err)
		return nil, err
	}
	logger.Info("throttled request released", "host", r.URL.Host, "waited", time.Since(start).String())

	return t.next.RoundTrip(r)
}

// wait blocks until n tokens are available from l.
func wait(ctx context.Context, l *rate.Limiter, n int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w before wait: %w", ErrContextEnded, err)
	}

	if err := l.WaitN(ctx, n); err != nil {
		return fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	return nil
}
