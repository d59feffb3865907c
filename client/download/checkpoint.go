package download

import "context"

// Checkpoint is the resume state of one destination file.
type Checkpoint struct {
	URL            string
	Path           string
	CompletedBytes int64
	TotalBytes     int64
}

// Checkpointer persists resume state between runs. Errors are logged by
// the [Executor] and never fail a download.
type Checkpointer interface {
	Save(ctx context.Context, cp Checkpoint) error
	Delete(ctx context.Context, path string) error
}
