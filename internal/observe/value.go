// Package observe implements a minimal observable value: subscribers are
// plain callbacks on an explicit listener list. Every state transition is
// delivered to all current subscribers in transition order; a late subscriber
// receives only the latest value, not history.
package observe

import "sync"

// Value holds a T and broadcasts every change to subscribed listeners.
//
// Listeners are invoked synchronously while the internal lock is held, which
// is what guarantees transition ordering. A listener must not call back into
// Set or Subscribe on the same Value.
type Value[T any] struct {
	mu        sync.Mutex
	value     T
	nextID    int
	listeners map[int]func(T)
}

// NewValue returns a Value initialized to initial. No notification is emitted
// for the initial value; subscribers pick it up on Subscribe.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		value:     initial,
		listeners: make(map[int]func(T)),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set stores val and delivers it to every current subscriber.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = val
	for _, fn := range v.listeners {
		fn(val)
	}
}

// Subscribe registers fn and immediately invokes it with the current value.
// The returned cancel func removes the subscription; it is safe to call more
// than once.
func (v *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	current := v.value
	fn(current)
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.listeners, id)
			v.mu.Unlock()
		})
	}
}
