// Package throttle limits outbound traffic using the token-bucket
// algorithm from [golang.org/x/time/rate].
//
// [NewRoundTripper] caps the number of requests per second leaving an
// [http.Client]:
//
//	rt, err := throttle.NewRoundTripper(
//		10,  // requests per second
//		5,   // burst capacity
//		func() *slog.Logger { return slog.Default() },
//		http.DefaultTransport,
//	)
//	httpClient := &http.Client{Transport: rt}
//
// [NewReader] caps the bytes per second read from a stream, which is how
// downloads are bandwidth limited:
//
//	r, err := throttle.NewReader(ctx, resp.Body, 512<<10)
//
// In both cases callers block until tokens are available or the context
// is cancelled.
package throttle
