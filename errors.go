package jotai

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrStoreDisposed is returned for operations against a disposed store.
var ErrStoreDisposed = errors.New("store is disposed")

// ResolveError wraps a failure during atom resolution.
type ResolveError struct {
	Atom       AnyAtom
	Cause      error
	Context    string
	StackTrace []byte
}

func (e *ResolveError) Error() string {
	name := nameTag.GetOrDefault(e.Atom, fmt.Sprintf("%p", e.Atom))
	if e.Context != "" {
		return fmt.Sprintf("resolve error in atom %s during %s: %v", name, e.Context, e.Cause)
	}
	return fmt.Sprintf("resolve error in atom %s: %v", name, e.Cause)
}

func (e *ResolveError) Unwrap() error {
	return e.Cause
}

func newResolveError(atom AnyAtom, cause error, context string) *ResolveError {
	return &ResolveError{
		Atom:       atom,
		Cause:      cause,
		Context:    context,
		StackTrace: debug.Stack(),
	}
}

// SafeTypeAssertion performs safe type assertion with a proper error
func SafeTypeAssertion[T any](value any) (T, error) {
	if value == nil {
		var zero T
		return zero, nil
	}

	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("type assertion error: expected %T, got %T (value: %v)", zero, value, value)
	}

	return typed, nil
}
