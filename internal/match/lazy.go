package match

import "sync"

// Lazy builds a reference set on first use and shares it afterwards.
// Concurrent first calls block until the single build finishes.
type Lazy[T any] struct {
	get func() (T, error)
}

// NewLazy wraps build so it runs at most once.
func NewLazy[T any](build func() (T, error)) *Lazy[T] {
	return &Lazy[T]{get: sync.OnceValues(build)}
}

// Get returns the built value, building it if needed. A failed build is
// remembered and returned on every call.
func (l *Lazy[T]) Get() (T, error) {
	return l.get()
}
