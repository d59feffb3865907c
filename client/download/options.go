package download

import (
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Option configures an [Executor].
type Option func(*options) error

type options struct {
	logger       *slog.Logger
	progressLog  bool
	strictResume bool
	bandwidth    int
	checkpoints  Checkpointer
	tracer       trace.Tracer
}

// WithLogger injects a custom [slog.Logger]. Defaults to the HTTP
// client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		opts.logger = logger
		return nil
	}
}

// WithProgressLog logs transfer progress at most once per second.
func WithProgressLog() Option {
	return func(opts *options) error {
		opts.progressLog = true
		return nil
	}
}

// WithStrictResume fails a resumed download with [ErrRangeNotHonored]
// when the server answers with anything but 206 Partial Content. By
// default the server is trusted and the body is appended.
func WithStrictResume() Option {
	return func(opts *options) error {
		opts.strictResume = true
		return nil
	}
}

// WithBandwidth caps each download at bytesPerSec.
func WithBandwidth(bytesPerSec int) Option {
	return func(opts *options) error {
		if bytesPerSec <= 0 {
			return fmt.Errorf("bandwidth[%d] must be greater than zero", bytesPerSec)
		}
		opts.bandwidth = bytesPerSec
		return nil
	}
}

// WithCheckpoints records resume offsets in cp so an interrupted download
// can be picked up later.
func WithCheckpoints(cp Checkpointer) Option {
	return func(opts *options) error {
		if cp == nil {
			return errors.New("checkpointer must not be nil")
		}
		opts.checkpoints = cp
		return nil
	}
}

// WithTracer injects the tracer used to span each download. Defaults to
// a no-op tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(opts *options) error {
		opts.tracer = tracer
		return nil
	}
}
