package jotai

// Atom represents a unit of reactive state with explicit dependencies.
type Atom[T any] struct {
	factory  func(*ReadCtx) (T, error)
	deps     []Dependency
	tags     map[any]any
	observes []ObserveHook
	write    func(*Store, T) error
}

// ObserveHook is called when an atom gains its first watcher. The returned
// function, if non-nil, is called when the last watcher detaches.
type ObserveHook func(s *Store) (unobserve func())

// AnyAtom is a type-erased handle used for dependency tracking and
// extension callbacks.
type AnyAtom interface {
	resolveAny(*ReadCtx) (any, error)
	getDeps() []Dependency
	observeHooks() []ObserveHook

	// GetTag retrieves a raw tag value; prefer the Tag API.
	GetTag(tag any) (any, bool)
	// SetTag stores a raw tag value; prefer the Tag API.
	SetTag(tag any, val any)
}

func (a *Atom[T]) getDeps() []Dependency {
	return a.deps
}

func (a *Atom[T]) GetTag(tag any) (any, bool) {
	val, ok := a.tags[tag]
	return val, ok
}

func (a *Atom[T]) SetTag(tag any, val any) {
	a.tags[tag] = val
}

func (a *Atom[T]) resolveAny(rc *ReadCtx) (any, error) {
	return a.factory(rc)
}

func (a *Atom[T]) observeHooks() []ObserveHook {
	return a.observes
}

// OnObserve registers a hook fired when the atom transitions from zero to
// one watcher in a store. Hooks run in registration order; their unobserve
// functions run in reverse order.
func (a *Atom[T]) OnObserve(hook ObserveHook) *Atom[T] {
	a.observes = append(a.observes, hook)
	return a
}

// OnWrite installs a write interceptor. Update calls on the atom route
// through fn instead of storing a value.
func (a *Atom[T]) OnWrite(fn func(*Store, T) error) *Atom[T] {
	a.write = fn
	return a
}

// DependencyMode defines how a dependency behaves
type DependencyMode string

const (
	// ModeStatic resolves once and caches forever
	ModeStatic DependencyMode = "static"
	// ModeReactive invalidates when dependency changes
	ModeReactive DependencyMode = "reactive"
	// ModeLazy defers resolution until explicitly requested
	ModeLazy DependencyMode = "lazy"
)

// Dependency represents an atom with its resolution mode
type Dependency interface {
	Atom() AnyAtom
	Mode() DependencyMode
}

// dependencyWrapper wraps an atom with a specific mode
type dependencyWrapper struct {
	atom AnyAtom
	mode DependencyMode
}

func (d *dependencyWrapper) Atom() AnyAtom {
	return d.atom
}

func (d *dependencyWrapper) Mode() DependencyMode {
	return d.mode
}

// Atom implements Dependency (default: static mode)
func (a *Atom[T]) Atom() AnyAtom {
	return a
}

func (a *Atom[T]) Mode() DependencyMode {
	return ModeStatic
}

// Reactive returns a reactive dependency variant
func (a *Atom[T]) Reactive() Dependency {
	return &dependencyWrapper{atom: a, mode: ModeReactive}
}

// Lazy returns a lazy dependency variant
func (a *Atom[T]) Lazy() Dependency {
	return &dependencyWrapper{atom: a, mode: ModeLazy}
}

// AtomOption is a modifier for atoms
type AtomOption func(AnyAtom)

// WithTag returns an option that sets a tag on an atom
func WithTag[T any](tag Tag[T], val T) AtomOption {
	return func(a AnyAtom) {
		tag.Set(a, val)
	}
}

// WithName tags the atom with a human-readable name used by diagnostics.
func WithName(name string) AtomOption {
	return WithTag(nameTag, name)
}

// Provide creates an atom with no dependencies
func Provide[T any](factory func(*ReadCtx) (T, error), opts ...AtomOption) *Atom[T] {
	a := &Atom[T]{
		factory: factory,
		deps:    nil,
		tags:    make(map[any]any),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Stored creates an atom seeded with a literal value. It resolves to the
// initial value until Update replaces it.
func Stored[T any](initial T, opts ...AtomOption) *Atom[T] {
	return Provide(func(*ReadCtx) (T, error) {
		return initial, nil
	}, opts...)
}
