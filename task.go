package assets

import (
	"context"
	"sync"
)

// Task is the shared handle to one asset production. It settles exactly
// once; every holder observes the same value afterwards.
//
// Dropping a Task never cancels the work it stands for.
type Task[T any] struct {
	done chan struct{}

	mu        sync.Mutex
	value     T
	settled   bool
	callbacks []func(T)
	keys      map[any]struct{}
}

func newTask[T any]() *Task[T] {
	return &Task[T]{done: make(chan struct{})}
}

// Ready returns a task already settled with v.
func Ready[T any](v T) *Task[T] {
	t := newTask[T]()
	t.settle(v)
	return t
}

// settle stores v and wakes waiters. Later calls are ignored.
func (t *Task[T]) settle(v T) bool {
	t.mu.Lock()
	if t.settled {
		t.mu.Unlock()
		return false
	}
	t.value = v
	t.settled = true
	callbacks := t.callbacks
	t.callbacks = nil
	t.keys = nil
	close(t.done)
	t.mu.Unlock()

	for _, fn := range callbacks {
		fn(v)
	}
	return true
}

// Poll returns the value if the task has settled. It never blocks.
func (t *Task[T]) Poll() (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.settled
}

// Await blocks until the task settles or ctx is done. A done context
// abandons the wait only; production continues.
func (t *Task[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		v, _ := t.Poll()
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel closed when the task settles.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// OnSettle arranges for fn to be called with the value once the task
// settles. If it already has, fn runs immediately on the calling goroutine;
// otherwise it runs on the goroutine that settles the task.
func (t *Task[T]) OnSettle(fn func(T)) {
	t.mu.Lock()
	if !t.settled {
		t.callbacks = append(t.callbacks, fn)
		t.mu.Unlock()
		return
	}
	v := t.value
	t.mu.Unlock()
	fn(v)
}

// onSettleOnce is OnSettle deduplicated by key: while the task is pending,
// a registration whose key equals an earlier one is dropped. key must be
// comparable.
func (t *Task[T]) onSettleOnce(key any, fn func(T)) {
	t.mu.Lock()
	if !t.settled {
		if _, dup := t.keys[key]; !dup {
			if t.keys == nil {
				t.keys = make(map[any]struct{})
			}
			t.keys[key] = struct{}{}
			t.callbacks = append(t.callbacks, fn)
		}
		t.mu.Unlock()
		return
	}
	v := t.value
	t.mu.Unlock()
	fn(v)
}
