package download

import (
	"hash"
	"os"
	"slices"
	"strings"
)

// Header is a single request header entry.
type Header struct {
	Name  string
	Value string
}

// Request describes one file download. It is immutable once built by
// [NewRequest]; the zero value has no URL and no destination.
type Request struct {
	url            string
	headers        []Header
	filePath       string
	fileDir        string
	fileName       string
	completedBytes int64
	tag            any
	newHash        func() hash.Hash
	checksum       string
}

// RequestOption configures a [Request].
type RequestOption func(*Request)

// NewRequest builds a download request for rawURL. Validation is deferred
// to [Executor.Enqueue], so an invalid request still builds.
func NewRequest(rawURL string, optFns ...RequestOption) Request {
	r := Request{url: rawURL}
	for _, opt := range optFns {
		opt(&r)
	}

	return r
}

// WithHeader appends a single header. Entries keep their insertion order.
func WithHeader(name, value string) RequestOption {
	return func(r *Request) {
		r.headers = append(r.headers, Header{Name: name, Value: value})
	}
}

// WithHeaders appends every entry of headers, in sorted key order.
func WithHeaders(headers map[string]string) RequestOption {
	return func(r *Request) {
		keys := make([]string, 0, len(headers))
		for k := range headers {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		for _, k := range keys {
			r.headers = append(r.headers, Header{Name: k, Value: headers[k]})
		}
	}
}

// WithFilePath sets the full destination path. It takes precedence over
// [WithFileDir] and [WithFileName].
func WithFilePath(path string) RequestOption {
	return func(r *Request) {
		r.filePath = path
	}
}

// WithFileDir sets the destination directory, used with [WithFileName].
func WithFileDir(dir string) RequestOption {
	return func(r *Request) {
		r.fileDir = dir
	}
}

// WithFileName sets the destination file name, used with [WithFileDir].
func WithFileName(name string) RequestOption {
	return func(r *Request) {
		r.fileName = name
	}
}

// WithCompletedBytes marks the request as a resume of a file that already
// holds n bytes. Values <= 0 are ignored.
func WithCompletedBytes(n int64) RequestOption {
	return func(r *Request) {
		if n > 0 {
			r.completedBytes = n
		}
	}
}

// WithTag attaches an opaque token used to identify and cancel the
// download through [client.Client.CancelTag]. The tag must be comparable.
func WithTag(tag any) RequestOption {
	return func(r *Request) {
		r.tag = tag
	}
}

func (r Request) URL() string           { return r.url }
func (r Request) CompletedBytes() int64 { return r.completedBytes }
func (r Request) Tag() any              { return r.tag }

// Headers returns a copy of the request headers in insertion order.
func (r Request) Headers() []Header {
	return slices.Clone(r.headers)
}

// Destination resolves the file the download writes to. An explicit path
// wins; otherwise dir and name are joined, adding a separator only when
// dir lacks one. It returns "" when no destination is configured.
func (r Request) Destination() string {
	if r.filePath != "" {
		return r.filePath
	}

	if r.fileDir == "" || r.fileName == "" {
		return ""
	}

	if strings.HasSuffix(r.fileDir, string(os.PathSeparator)) || strings.HasSuffix(r.fileDir, "/") {
		return r.fileDir + r.fileName
	}

	return r.fileDir + string(os.PathSeparator) + r.fileName
}

// WithChecksum verifies the complete file against expected, a hex
// encoded digest produced by newHash. On resume the bytes already on
// disk are hashed first. A nil newHash or empty expected is ignored.
func WithChecksum(newHash func() hash.Hash, expected string) RequestOption {
	return func(r *Request) {
		if newHash == nil || expected == "" {
			return
		}
		r.newHash = newHash
		r.checksum = expected
	}
}
