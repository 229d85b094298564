package evasion

import (
	"context"
	"sync"
)

// OneShot is a value that is set exactly once and can be awaited.
type OneShot[T any] struct {
	mu    sync.Mutex
	done  chan struct{}
	value T
}

// NewOneShot returns an unset OneShot.
func NewOneShot[T any]() *OneShot[T] {
	return &OneShot[T]{done: make(chan struct{})}
}

// Set resolves the value. Only the first call has an effect; it reports whether this call did.
func (o *OneShot[T]) Set(value T) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	select {
	case <-o.done:
		return false
	default:
	}
	o.value = value
	close(o.done)
	return true
}

// Done is closed once the value is set.
func (o *OneShot[T]) Done() <-chan struct{} {
	return o.done
}

// Get returns the value if it is set.
func (o *OneShot[T]) Get() (T, bool) {
	select {
	case <-o.done:
		o.mu.Lock()
		defer o.mu.Unlock()
		return o.value, true
	default:
		var zero T
		return zero, false
	}
}

// Wait blocks until the value is set or ctx is done.
func (o *OneShot[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-o.done:
		v, _ := o.Get()
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
