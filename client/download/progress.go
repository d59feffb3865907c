package download

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// progressReader wraps a response body, reporting every chunk read to
// the callback as the bytes leave the network layer. When a logger is
// set it also logs the transfer at most once per second.
type progressReader struct {
	body        io.ReadCloser
	cb          Callback
	completed   int64
	total       int64
	transferred int64

	logger    *slog.Logger
	startTime time.Time
	lastLog   time.Time
}

func newProgressReader(resp *http.Response, completed int64, cb Callback, logger *slog.Logger) *progressReader {
	now := time.Now()

	return &progressReader{
		body:      resp.Body,
		cb:        cb,
		completed: completed,
		total:     expectedTotal(resp, completed),
		logger:    logger,
		startTime: now,
		lastLog:   now,
	}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.body.Read(p)
	if n > 0 {
		pr.transferred += int64(n)
		pr.cb.OnProgress(pr.transferred+pr.completed, pr.total)

		if pr.logger != nil && time.Since(pr.lastLog) >= time.Second {
			pr.lastLog = time.Now()
			pr.log("downloading")
		}
	}

	return n, err
}

func (pr *progressReader) Close() error {
	return pr.body.Close()
}

func (pr *progressReader) log(msg string) {
	elapsed := time.Since(pr.startTime)
	attrs := []any{
		"elapsed", elapsed.Round(time.Millisecond),
		"transferred", pr.transferred + pr.completed,
		"total", pr.total,
		"mbps", fmt.Sprintf("%.2f", float64(pr.transferred)/elapsed.Seconds()/(1024*1024)),
	}
	if pr.total > 0 {
		attrs = append(attrs, "progress", fmt.Sprintf("%.1f%%", float64(pr.transferred+pr.completed)/float64(pr.total)*100))
	}

	pr.logger.Info(msg, attrs...)
}

// expectedTotal returns the full size of the resource, or -1 if unknown.
// A Content-Range total is authoritative; otherwise the declared length
// is added to the bytes already on disk.
func expectedTotal(resp *http.Response, completed int64) int64 {
	if total, ok := contentRangeTotal(resp.Header.Get("Content-Range")); ok {
		return total
	}

	if resp.ContentLength < 0 {
		return -1
	}

	return resp.ContentLength + completed
}

// contentRangeTotal parses the complete length from a
// "bytes <first>-<last>/<total>" header.
func contentRangeTotal(value string) (int64, bool) {
	unit, rest, ok := strings.Cut(value, " ")
	if !ok || unit != "bytes" {
		return 0, false
	}

	_, size, ok := strings.Cut(rest, "/")
	if !ok || size == "*" {
		return 0, false
	}

	total, err := strconv.ParseInt(size, 10, 64)
	if err != nil || total < 0 {
		return 0, false
	}

	return total, true
}
