package docstore

// FetchError is returned when reading a collection fails. Only Message is
// shown to users; Status is 0 when the request never got a response.
type FetchError struct {
	Message string
	Status  int
	Err     error
}

func (e *FetchError) Error() string { return e.Message }

func (e *FetchError) Unwrap() error { return e.Err }

// WriteError is returned when a create, update, put or delete fails.
type WriteError struct {
	Message string
	Status  int
	Err     error
}

func (e *WriteError) Error() string { return e.Message }

func (e *WriteError) Unwrap() error { return e.Err }
