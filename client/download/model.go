package download

import (
	"errors"
	"fmt"
)

// Pre-flight failures. These are reported synchronously by
// [Executor.Enqueue] and never reach the network.
var (
	ErrMissingURL            = errors.New("url can not be empty")
	ErrInvalidURL            = errors.New("invalid url")
	ErrMissingDestination    = errors.New("file path can not be empty")
	ErrResumeTargetMissing   = errors.New("no exist the filePath")
	ErrInvalidDestination    = errors.New("invalid destination")
	ErrDirectoryCreateFailed = errors.New("create dir err")
	ErrInvalidTag            = errors.New("tag must be comparable")
)

// Transfer failures, reported from the worker goroutine.
var (
	ErrNetworkFailure        = errors.New("network failure")
	ErrIOFailure             = errors.New("io failure")
	ErrCancelled             = errors.New("download cancelled")
	ErrContentLengthMismatch = errors.New("content length mismatch")
	ErrChecksumMismatch      = errors.New("checksum mismatch")
	ErrRangeNotHonored       = errors.New("range not honored")
)

// Error pairs one of the package's sentinel errors with a detail message.
// Its message reads "<sentinel>: <detail>".
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}
