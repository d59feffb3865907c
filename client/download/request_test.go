package download

import (
	"crypto/sha256"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRequest_Destination(t *testing.T) {
	sep := string(os.PathSeparator)

	testCases := map[string]struct {
		opts []RequestOption
		exp  string
	}{
		"none":             {exp: ""},
		"dirOnly":          {opts: []RequestOption{WithFileDir("/tmp")}, exp: ""},
		"nameOnly":         {opts: []RequestOption{WithFileName("file.bin")}, exp: ""},
		"explicitPath":     {opts: []RequestOption{WithFilePath("/data/a.bin")}, exp: "/data/a.bin"},
		"dirWithSeparator": {opts: []RequestOption{WithFileDir("/tmp" + sep), WithFileName("file.bin")}, exp: "/tmp" + sep + "file.bin"},
		"dirNoSeparator":   {opts: []RequestOption{WithFileDir("/tmp"), WithFileName("file.bin")}, exp: "/tmp" + sep + "file.bin"},
		"pathWins": {
			opts: []RequestOption{WithFileDir("/tmp"), WithFileName("file.bin"), WithFilePath("/data/a.bin")},
			exp:  "/data/a.bin",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			r := NewRequest("http://x/file.bin", tc.opts...)
			if got := r.Destination(); got != tc.exp {
				t.Errorf("exp destination %q; got %q", tc.exp, got)
			}
		})
	}
}

func TestRequest_Headers(t *testing.T) {
	r := NewRequest("http://x/file.bin",
		WithHeader("X-First", "1"),
		WithHeaders(map[string]string{"B": "b", "A": "a"}),
		WithHeader("X-First", "2"),
	)

	exp := []Header{
		{Name: "X-First", Value: "1"},
		{Name: "A", Value: "a"},
		{Name: "B", Value: "b"},
		{Name: "X-First", Value: "2"},
	}

	if diff := cmp.Diff(exp, r.Headers()); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}

	got := r.Headers()
	got[0].Value = "mutated"
	if r.Headers()[0].Value != "1" {
		t.Error("Headers must return a copy")
	}
}

func TestRequest_CompletedBytes(t *testing.T) {
	testCases := map[string]struct {
		n   int64
		exp int64
	}{
		"positive": {n: 400, exp: 400},
		"zero":     {n: 0, exp: 0},
		"negative": {n: -5, exp: 0},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			r := NewRequest("http://x", WithCompletedBytes(tc.n))
			if got := r.CompletedBytes(); got != tc.exp {
				t.Errorf("exp %d completed bytes; got %d", tc.exp, got)
			}
		})
	}
}

func TestRequest_WithChecksumIgnoresIncomplete(t *testing.T) {
	if r := NewRequest("http://x", WithChecksum(nil, "abc")); r.newHash != nil {
		t.Error("exp nil hash to be ignored")
	}
	if r := NewRequest("http://x", WithChecksum(sha256.New, "")); r.newHash != nil {
		t.Error("exp empty digest to be ignored")
	}
}
