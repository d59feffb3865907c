package throttle

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/time/rate"
)

// NewReader wraps r so that at most bytesPerSec bytes are read per second.
// Reads larger than one second's worth of tokens are shortened rather than
// rejected. Waiting for tokens honours ctx.
func NewReader(ctx context.Context, r io.Reader, bytesPerSec int) (io.Reader, error) {
	if bytesPerSec <= 0 {
		return nil, fmt.Errorf("bytesPerSec[%d] %w", bytesPerSec, ErrMustNotBeZero)
	}

	return &reader{
		ctx:     ctx,
		r:       r,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec),
	}, nil
}

func (tr *reader) Read(p []byte) (int, error) {
	if burst := tr.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}

	n, err := tr.r.Read(p)
	if n <= 0 {
		return n, err
	}

	if werr := wait(tr.ctx, tr.limiter, n); werr != nil {
		return n, werr
	}

	return n, err
}
