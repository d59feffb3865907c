package client_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/resumer/client"
	"github.com/adamwoolhether/resumer/client/throttle"
)

type test struct {
	*client.Client

	server    *httptest.Server
	serverURL *url.URL
	teardown  func()
}

type payload struct {
	Body string `json:"body"`
}

// roundTripFunc adapts a function into an http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestBuild_Validation(t *testing.T) {
	testCases := map[string]struct {
		opts   []client.Option
		expErr error
		fail   bool
	}{
		"nilClient":       {opts: []client.Option{client.WithClient(nil)}, fail: true},
		"nilTransport":    {opts: []client.Option{client.WithTransport(nil)}, fail: true},
		"negativeTimeout": {opts: []client.Option{client.WithTimeout(-1)}, fail: true},
		"zeroThrottle":    {opts: []client.Option{client.WithThrottle(0, 10)}, fail: true, expErr: throttle.ErrMustNotBeZero},
		"zeroTimeout":     {opts: []client.Option{client.WithTimeout(0)}},
		"maxConcurrent":   {opts: []client.Option{client.WithMaxConcurrent(2)}},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := client.Build(tc.opts...)
			if tc.fail != (err != nil) {
				t.Fatalf("exp failure %t; got err: %v", tc.fail, err)
			}
			if tc.expErr != nil && !errors.Is(err, tc.expErr) {
				t.Errorf("exp err %v; got %v", tc.expErr, err)
			}
		})
	}
}

func TestBuild_OptionComposition(t *testing.T) {
	const expectedUA = "resumer-test/1.0"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != expectedUA {
			t.Errorf("expected User-Agent %q, got %q", expectedUA, ua)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	testURL, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("failed to parse test server URL: %v", err)
	}

	var transportCalled bool
	custom := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		transportCalled = true
		return http.DefaultTransport.RoundTrip(r)
	})

	orders := map[string][]client.Option{
		"transportFirst": {client.WithTransport(custom), client.WithUserAgent(expectedUA), client.WithThrottle(100, 10)},
		"throttleFirst":  {client.WithThrottle(100, 10), client.WithTransport(custom), client.WithUserAgent(expectedUA)},
		"agentFirst":     {client.WithUserAgent(expectedUA), client.WithThrottle(100, 10), client.WithTransport(custom)},
		"providedClient": {client.WithClient(&http.Client{Transport: custom}), client.WithUserAgent(expectedUA)},
	}

	for name, opts := range orders {
		t.Run(name, func(t *testing.T) {
			transportCalled = false

			c, err := client.Build(opts...)
			if err != nil {
				t.Fatalf("failed to create client: %v", err)
			}

			req, err := c.Request(t.Context(), testURL, http.MethodGet)
			if err != nil {
				t.Fatalf("failed to create request: %v", err)
			}

			if err := c.Do(req, http.StatusOK); err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
			if !transportCalled {
				t.Error("custom transport was not called")
			}
		})
	}
}

func TestBuild_WithTimeoutWinsOverClient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	testURL, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("failed to parse test server URL: %v", err)
	}

	for _, opts := range [][]client.Option{
		{client.WithClient(&http.Client{Timeout: time.Millisecond}), client.WithTimeout(5 * time.Second)},
		{client.WithTimeout(5 * time.Second), client.WithClient(&http.Client{Timeout: time.Millisecond})},
	} {
		c, err := client.Build(opts...)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		req, err := c.Request(t.Context(), testURL, http.MethodGet)
		if err != nil {
			t.Fatalf("failed to create request: %v", err)
		}

		if err := c.Do(req, http.StatusOK); err != nil {
			t.Errorf("expected no error (WithTimeout should win), got: %v", err)
		}
	}
}

func TestBuild_WithNoFollowRedirects(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/redirect" {
			http.Redirect(w, r, "/target", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	testURL, err := url.Parse(ts.URL + "/redirect")
	if err != nil {
		t.Fatalf("failed to parse test server URL: %v", err)
	}

	c, err := client.Build(client.WithClient(&http.Client{}), client.WithNoFollowRedirects())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	req, err := c.Request(t.Context(), testURL, http.MethodGet)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if err := c.Do(req, http.StatusFound); err != nil {
		t.Errorf("expected 302 response without following, got: %v", err)
	}
}

func TestClient_Do(t *testing.T) {
	test := mockServer(t)
	defer test.teardown()

	testCases := map[string]struct {
		path        string
		method      string
		expStatus   int
		payload     *payload
		captureResp *payload
		captureRaw  *map[string]any
		useJSONNumb bool
		checkRaw    func(t *testing.T, raw map[string]any)
		err         error
	}{
		"basicGet": {
			method:    http.MethodGet,
			expStatus: http.StatusOK,
		},
		"unexpectedStatus": {
			method:    http.MethodGet,
			expStatus: http.StatusAccepted,
			err:       client.ErrUnexpectedStatusCode,
		},
		"expectedAccepted": {
			path:      "/expstatus",
			method:    http.MethodGet,
			expStatus: http.StatusAccepted,
		},
		"authFailure": {
			path:      "/forbidden",
			method:    http.MethodGet,
			expStatus: http.StatusOK,
			err:       client.ErrAuthFailure,
		},
		"postEcho": {
			path:        "/echo",
			method:      http.MethodPost,
			expStatus:   http.StatusOK,
			payload:     &payload{Body: "hey there"},
			captureResp: new(payload),
		},
		"withJSONNumb": {
			path:        "/number",
			method:      http.MethodGet,
			expStatus:   http.StatusOK,
			captureRaw:  &map[string]any{},
			useJSONNumb: true,
			checkRaw: func(t *testing.T, raw map[string]any) {
				t.Helper()
				n, ok := raw["id"].(json.Number)
				if !ok {
					t.Fatalf("expected json.Number, got %T", raw["id"])
				}
				if n.String() != "12345678901234567" {
					t.Errorf("expected 12345678901234567, got %s", n.String())
				}
			},
		},
		"withoutJSONNumb": {
			path:       "/number",
			method:     http.MethodGet,
			expStatus:  http.StatusOK,
			captureRaw: &map[string]any{},
			checkRaw: func(t *testing.T, raw map[string]any) {
				t.Helper()
				if _, ok := raw["id"].(float64); !ok {
					t.Fatalf("expected float64 without UseNumber, got %T", raw["id"])
				}
			},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var reqOpts []client.RequestOption
			if tc.payload != nil {
				reqOpts = append(reqOpts, client.WithPayload(*tc.payload))
			}

			var opts []client.DoOption
			if tc.captureResp != nil {
				opts = append(opts, client.WithDestination(tc.captureResp))
			}
			if tc.captureRaw != nil {
				opts = append(opts, client.WithDestination(tc.captureRaw))
			}
			if tc.useJSONNumb {
				opts = append(opts, client.WithJSONNumb())
			}

			u := *test.serverURL
			u.Path = tc.path

			req, err := test.Request(t.Context(), &u, tc.method, reqOpts...)
			if err != nil {
				t.Fatalf("generating req: %v", err)
			}

			err = test.Do(req, tc.expStatus, opts...)
			if !errors.Is(err, tc.err) {
				t.Errorf("exp err: %v, got: %v", tc.err, err)
			}

			if tc.captureResp != nil && tc.payload != nil {
				if diff := cmp.Diff(tc.payload, tc.captureResp); diff != "" {
					t.Errorf("echo body mismatch (-want +got):\n%s", diff)
				}
			}

			if tc.checkRaw != nil {
				tc.checkRaw(t, *tc.captureRaw)
			}
		})
	}
}

func TestClient_Do_ErrorBodyCapped(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(strings.Repeat("x", 64<<10)))
	}))
	defer ts.Close()

	c, err := client.Build()
	if err != nil {
		t.Fatal(err)
	}

	testURL, _ := url.Parse(ts.URL)
	req, err := c.Request(t.Context(), testURL, http.MethodGet)
	if err != nil {
		t.Fatal(err)
	}

	err = c.Do(req, http.StatusOK)

	var statusErr *client.UnexpectedStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("exp UnexpectedStatusError; got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("exp status 500; got %d", statusErr.StatusCode)
	}
	if len(statusErr.Body) != 4<<10 {
		t.Errorf("exp error body capped at %d bytes; got %d", 4<<10, len(statusErr.Body))
	}
}

func TestClient_Request(t *testing.T) {
	target := client.URL("https", "localhost", "/", client.WithPort(8888))

	testCases := map[string]struct {
		method      string
		payload     *payload
		contentType string
		headers     map[string][]string
		cookies     []*http.Cookie
	}{
		"basic":                 {method: http.MethodGet},
		"withPayload":           {method: http.MethodPost, payload: &payload{Body: "hey there"}},
		"withCustomContentType": {method: http.MethodGet, contentType: "text/html"},
		"withHeaders": {
			method: http.MethodPost,
			headers: map[string][]string{
				"Single-Val": {"value"},
				"Multi-Val":  {"value", "value2"},
			},
		},
		"withCookies": {
			method: http.MethodGet,
			cookies: []*http.Cookie{
				{Name: "session", Value: "abc123"},
				{Name: "theme", Value: "dark"},
			},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var opts []client.RequestOption
			if tc.payload != nil {
				opts = append(opts, client.WithPayload(*tc.payload))
			}
			if tc.contentType != "" {
				opts = append(opts, client.WithContentType(tc.contentType))
			}
			if tc.headers != nil {
				opts = append(opts, client.WithHeaders(tc.headers))
			}
			if tc.cookies != nil {
				opts = append(opts, client.WithCookies(tc.cookies...))
			}

			req, err := client.Request(t.Context(), target, tc.method, opts...)
			if err != nil {
				t.Fatalf("create request exp nil err; got: %v", err)
			}

			if tc.payload != nil {
				var got payload
				if err := json.NewDecoder(req.Body).Decode(&got); err != nil {
					t.Fatalf("reading req body: %v", err)
				}
				if got != *tc.payload {
					t.Errorf("exp req body: %v, got: %v", *tc.payload, got)
				}
			}

			var expContentType string
			switch {
			case tc.contentType != "":
				expContentType = tc.contentType
			case tc.payload != nil:
				expContentType = "application/json"
			}
			if got := req.Header.Get("Content-Type"); got != expContentType {
				t.Errorf("exp content type %q, got %q", expContentType, got)
			}

			for k, v := range tc.headers {
				if diff := cmp.Diff(v, req.Header[k]); diff != "" {
					t.Errorf("header %s mismatch (-want +got):\n%s", k, diff)
				}
			}

			if tc.cookies != nil {
				got := req.Cookies()
				if len(got) != len(tc.cookies) {
					t.Fatalf("exp %d cookies, got %d", len(tc.cookies), len(got))
				}
				for i, exp := range tc.cookies {
					if got[i].Name != exp.Name || got[i].Value != exp.Value {
						t.Errorf("cookie[%d]: exp %s=%s, got %s=%s", i, exp.Name, exp.Value, got[i].Name, got[i].Value)
					}
				}
			}
		})
	}
}

func TestClient_URL(t *testing.T) {
	testCases := map[string]struct {
		port int
		path string
		qs   map[string]string
		exp  string
	}{
		"basic":          {port: 8888, path: "/", exp: "https://localhost:8888/"},
		"noPort":         {path: "/file.bin", exp: "https://localhost/file.bin"},
		"withQS":         {port: 8888, path: "/somepath", qs: map[string]string{"key": "value"}, exp: "https://localhost:8888/somepath?key=value"},
		"withMultipleQS": {port: 8888, path: "/somepath", qs: map[string]string{"key": "value", "key2": "value2"}, exp: "https://localhost:8888/somepath?key=value&key2=value2"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var opts []client.URLOption
			if tc.qs != nil {
				opts = append(opts, client.WithQueryStrings(tc.qs))
			}
			if tc.port != 0 {
				opts = append(opts, client.WithPort(tc.port))
			}

			if got := client.URL("https", "localhost", tc.path, opts...).String(); got != tc.exp {
				t.Errorf("exp generated url %q, got %q", tc.exp, got)
			}
		})
	}
}

func mockServer(t *testing.T) *test {
	t.Helper()

	testClient, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create testClient: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(payload{Body: "success"})
	})
	mux.HandleFunc("/expstatus", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		var decoded payload
		if err := json.NewDecoder(r.Body).Decode(&decoded); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(decoded)
	})
	mux.HandleFunc("/number", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":12345678901234567}`))
	})
	server := httptest.NewServer(mux)

	testURL, err := url.ParseRequestURI(server.URL)
	if err != nil {
		t.Fatal("parsing test server URL")
	}

	return &test{
		Client:    testClient,
		server:    server,
		serverURL: testURL,
		teardown:  server.Close,
	}
}
