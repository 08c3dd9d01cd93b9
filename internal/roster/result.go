package roster

import (
	"context"
	"sync"
)

// Phase is where an intent's result stands.
type Phase int

const (
	PhasePending Phase = iota
	PhaseFulfilled
	PhaseRejected
)

func (p Phase) String() string {
	switch p {
	case PhaseFulfilled:
		return "fulfilled"
	case PhaseRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Result is the outcome of an intent: pending until the remote call settles,
// then either a value or an error.
type Result[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newResult[T any]() *Result[T] {
	return &Result[T]{done: make(chan struct{})}
}

func rejected[T any](err error) *Result[T] {
	r := newResult[T]()
	var zero T
	r.settle(zero, err)
	return r
}

func (r *Result[T]) settle(v T, err error) {
	r.once.Do(func() {
		r.value, r.err = v, err
		close(r.done)
	})
}

// Done is closed once the result has settled.
func (r *Result[T]) Done() <-chan struct{} { return r.done }

// Phase reports the current state without blocking.
func (r *Result[T]) Phase() Phase {
	select {
	case <-r.done:
		if r.err != nil {
			return PhaseRejected
		}
		return PhaseFulfilled
	default:
		return PhasePending
	}
}

// Wait blocks until the result settles or ctx ends. Giving up on ctx does not
// cancel the intent; the store still commits its outcome.
func (r *Result[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-r.done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
