package models

// Result is the outcome of a backend call: a value, or the reason it
// could not be produced.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps a failure reason
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// OK reports whether the call succeeded
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Done is the result of calls that carry no value
type Done = Result[struct{}]
