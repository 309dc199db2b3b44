package model

// Rel holds an optionally loaded relation of an aggregate.  The zero
// value means the relation was not loaded by the repository; callers
// must treat that as "no data" rather than as an error.
type Rel[T any] struct {
    value  T
    loaded bool
}

// Loaded wraps v as a present relation.
func Loaded[T any](v T) Rel[T] { return Rel[T]{value: v, loaded: true} }

// Get returns the relation value and whether it was loaded.
func (r Rel[T]) Get() (T, bool) { return r.value, r.loaded }

// IsLoaded reports whether the relation was loaded.
func (r Rel[T]) IsLoaded() bool { return r.loaded }

// OrZero returns the value, or the zero T when not loaded.
func (r Rel[T]) OrZero() T { return r.value }
