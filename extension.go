package jotai

import "context"

// Extension provides hooks into store operations
type Extension interface {
	// Name returns the extension's name
	Name() string

	// Order determines extension execution order (lower = earlier)
	Order() int

	// Init is called when the extension is registered to a store
	Init(store *Store) error

	// Wrap intercepts operations (resolve, update)
	Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error)

	// OnError handles errors during resolution
	OnError(err error, op *Operation, store *Store)

	// OnCleanupError handles cleanup failures
	// Returns true if the error was handled, false to use default behavior
	OnCleanupError(err *CleanupError) bool

	// Dispose is called when the store is disposed
	Dispose(store *Store) error
}

// CleanupError contains information about a cleanup failure
type CleanupError struct {
	Atom    AnyAtom
	Err     error
	Context string // "reactive", "release" or "dispose"
}

// BaseExtension provides default implementations for Extension methods
type BaseExtension struct {
	name string
}

// NewBaseExtension creates a new base extension with the given name
func NewBaseExtension(name string) BaseExtension {
	return BaseExtension{name: name}
}

func (e *BaseExtension) Name() string {
	return e.name
}

func (e *BaseExtension) Order() int {
	return 100
}

func (e *BaseExtension) Init(store *Store) error {
	return nil
}

func (e *BaseExtension) Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error) {
	return next()
}

func (e *BaseExtension) OnError(err error, op *Operation, store *Store) {
}

func (e *BaseExtension) OnCleanupError(err *CleanupError) bool {
	return false
}

func (e *BaseExtension) Dispose(store *Store) error {
	return nil
}

// Operation describes what operation is happening
type Operation struct {
	Kind  OperationKind
	Atom  AnyAtom
	Store *Store
}

// OperationKind represents the type of operation
type OperationKind string

const (
	// OpResolve indicates an atom resolution
	OpResolve OperationKind = "resolve"
	// OpUpdate indicates an atom update
	OpUpdate OperationKind = "update"
)
