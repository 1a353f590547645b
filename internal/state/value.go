package state

import "sync/atomic"

// Value publishes immutable snapshots of T. One goroutine stores whole
// records; any number of readers load them without locking. A reader
// always sees a record from a single Store call.
type Value[T any] struct {
	p atomic.Pointer[T]
}

// NewValue returns a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	v := &Value[T]{}
	v.Store(initial)
	return v
}

// Load returns the current snapshot, or the zero T if nothing was stored.
func (v *Value[T]) Load() T {
	if p := v.p.Load(); p != nil {
		return *p
	}
	var zero T
	return zero
}

// Store replaces the snapshot. The caller must not mutate snap afterwards
// through shared references (slices, maps, images).
func (v *Value[T]) Store(snap T) {
	v.p.Store(&snap)
}

// Update derives the next snapshot from the current one. Writers must be
// serialized by the caller; concurrent writers would lose updates.
func (v *Value[T]) Update(fn func(T) T) {
	v.Store(fn(v.Load()))
}
