package registry

import (
	"context"
	"errors"
	"sync"
)

// ErrPending is returned by Future.Err before the operation completes
var ErrPending = errors.New("operation still pending")

// Future is the completion signal of an asynchronous fetch
type Future struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Failed returns a future already completed with err
func Failed(err error) *Future {
	f := newFuture()
	f.resolve(err)
	return f
}

func (f *Future) resolve(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done is closed when the operation completes
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the operation completes or ctx is done
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the outcome, or ErrPending if the operation has not completed
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return ErrPending
	}
}
