package download

// Callback receives the notifications of one download. OnProgress may be
// called any number of times, including zero, with non-decreasing values.
// Exactly one of OnSuccess or OnFailure follows, after the last
// OnProgress. Calls for a single download never overlap.
//
// total is -1 when the server did not declare the size.
type Callback interface {
	OnProgress(transferred, total int64)
	OnSuccess(path string)
	OnFailure(err error)
}

// Callbacks adapts plain functions to [Callback]. Nil fields are skipped.
type Callbacks struct {
	Progress func(transferred, total int64)
	Success  func(path string)
	Failure  func(err error)
}

func (c Callbacks) OnProgress(transferred, total int64) {
	if c.Progress != nil {
		c.Progress(transferred, total)
	}
}

func (c Callbacks) OnSuccess(path string) {
	if c.Success != nil {
		c.Success(path)
	}
}

func (c Callbacks) OnFailure(err error) {
	if c.Failure != nil {
		c.Failure(err)
	}
}
