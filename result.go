package jotai

// Result carries exactly one outcome obtained from a source: a delivered
// value or a source-reported error. A Result with a nil Err is the value arm.
// Results are immutable once constructed.
type Result[T any] struct {
	Value T
	Err   error
}

// ValueResult wraps a successful value.
func ValueResult[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// ErrResult wraps a source-reported error. err must be non-nil.
func ErrResult[T any](err error) Result[T] {
	if err == nil {
		panic("jotai: ErrResult requires a non-nil error")
	}
	return Result[T]{Err: err}
}

// Failed reports whether the Result carries an error.
func (r Result[T]) Failed() bool {
	return r.Err != nil
}

// Unpack returns the value and error as ordinary Go multi-returns.
func (r Result[T]) Unpack() (T, error) {
	if r.Err != nil {
		var zero T
		return zero, r.Err
	}
	return r.Value, nil
}
