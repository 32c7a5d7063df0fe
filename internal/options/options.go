// Package options implements the functional-option plumbing shared by
// the package constructors.
package options

// Constructor produces the default option set for a component.
type Constructor[T any] func() T

// Callback mutates one option value.
type Callback[T any] func(*T)

// Apply builds an option set from its defaults and the caller's callbacks.
func Apply[T any](constructor Constructor[T], cbs []Callback[T]) T {
	var opts T

	if constructor != nil {
		opts = constructor()
	}

	for _, cb := range cbs {
		cb(&opts)
	}

	return opts
}
