package download

import (
	"context"
	"io"
)

// contextReader aborts a copy at the next read once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}

// fileWriter tags write failures as [ErrIOFailure] so they can be told
// apart from network read failures after io.Copy returns.
type fileWriter struct {
	w io.Writer
}

func (fw fileWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if err != nil {
		return n, &Error{Err: ErrIOFailure, Detail: err.Error()}
	}

	return n, nil
}
