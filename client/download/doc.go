// Package download implements resumable file downloads with streaming
// progress on top of the [github.com/adamwoolhether/resumer/client]
// HTTP facility.
//
// A [Request] names the URL and the destination, plus the number of bytes
// already on disk when resuming:
//
//	req := download.NewRequest("https://example.com/file.bin",
//		download.WithFileDir("/tmp/"),
//		download.WithFileName("file.bin"),
//		download.WithCompletedBytes(400),
//	)
//
// [Executor.Enqueue] checks the destination and negotiates the Range
// header synchronously, then streams the body into the file on the
// client's worker pool. Progress and the outcome are reported through a
// [Callback]:
//
//	h := exec.Enqueue(ctx, req, download.Callbacks{
//		Progress: func(n, total int64) { ... },
//		Success:  func(path string) { ... },
//		Failure:  func(err error) { ... },
//	})
//
// A resumed download appends to the existing file; a fresh one truncates
// it. Failures leave the partial file in place so it can be resumed. All
// failures can be matched with [errors.Is] against the package's Err*
// values.
package download
