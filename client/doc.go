// Package client provides the HTTP facility the download engine is built
// on: a configurable wrapper around [net/http].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithTimeout(10 * time.Second),
//		client.WithUserAgent("myapp/1.0"),
//		client.WithMaxConcurrent(4),
//	)
//
// # Synchronous Requests
//
// Construct a [URL] and [Request], then execute with [Client.Do]:
//
//	u := client.URL("https", "api.example.com", "/v1/resource")
//	req, err := client.Request(ctx, u, http.MethodGet)
//	err = c.Do(req, http.StatusOK, client.WithDestination(&result))
//
// # Enqueued Requests
//
// [Client.Enqueue] hands a request to the Client's worker pool and returns
// a [Call] straight away. The [Handler] receives the response once its
// status has been validated:
//
//	call := c.Enqueue(req, func(ctx context.Context, resp *http.Response) error {
//		_, err := io.Copy(dst, resp.Body)
//		return err
//	},
//		client.WithTag(jobID),
//		client.WithExpectedStatus(http.StatusOK, http.StatusPartialContent),
//		client.WithBodyWrapper(observe),
//	)
//
// Calls can be cancelled one at a time with [Call.Cancel] or in bulk with
// [Client.CancelTag]. The resumable download engine in
// [github.com/adamwoolhether/resumer/client/download] is built on Enqueue.
package client
