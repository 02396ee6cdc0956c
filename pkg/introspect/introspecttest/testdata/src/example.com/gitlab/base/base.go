// Package base holds the shared infrastructure of the client library.
package base

// RESTObject is the generic result of every retrieval.
type RESTObject interface {
	Attrs() map[string]any
}

// RequestOption customizes one API call.
type RequestOption func(headers map[string]string)

// RESTManager is the root of every manager. It lives in the shared base
// package and is never checked itself.
type RESTManager struct {
	Path string
}

// Optional holds a value that may be absent.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some returns a present Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}
