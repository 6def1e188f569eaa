package jotai

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Store manages the lifecycle and resolution of atoms
type Store struct {
	mu              sync.RWMutex
	cache           SyncCache[AnyAtom, any]
	graph           *ReactiveGraph
	extensions      []Extension
	presets         map[AnyAtom]preset
	inflight        map[AnyAtom]*inflightResolve
	cleanupRegistry map[AnyAtom][]cleanupEntry
	cleanupMu       sync.RWMutex
	watchMu         sync.Mutex
	watchers        map[AnyAtom][]*watcher
	observed        map[AnyAtom][]func()
	tags            sync.Map
	disposed        atomic.Bool
}

type watcher struct {
	fn func(any)
}

type inflightResolve struct {
	done chan struct{}
	val  any
	err  error
}

type preset struct {
	value   any
	atom    AnyAtom
	isValue bool
}

// StoreOption is a modifier for stores
type StoreOption func(*Store)

// WithStoreTag returns an option that sets a tag on a store
func WithStoreTag[T any](tag Tag[T], val T) StoreOption {
	return func(s *Store) {
		tag.SetOnStore(s, val)
	}
}

// WithExtension returns an option that registers an extension to a store
func WithExtension(ext Extension) StoreOption {
	return func(s *Store) {
		if err := s.UseExtension(ext); err != nil {
			panic(err)
		}
	}
}

// WithPreset returns an option that sets a preset for an atom
func WithPreset[T any](original *Atom[T], replacement any) StoreOption {
	return func(s *Store) {
		switch r := replacement.(type) {
		case T:
			s.presets[original] = preset{
				value:   r,
				isValue: true,
			}
		case *Atom[T]:
			s.presets[original] = preset{
				atom:    r,
				isValue: false,
			}
		default:
			panic(fmt.Sprintf("preset must be value of type %T or *Atom[%T]", *new(T), *new(T)))
		}
	}
}

// NewStore creates a new store with optional configuration
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		graph:           NewReactiveGraph(),
		extensions:      []Extension{},
		presets:         make(map[AnyAtom]preset),
		inflight:        make(map[AnyAtom]*inflightResolve),
		cleanupRegistry: make(map[AnyAtom][]cleanupEntry),
		watchers:        make(map[AnyAtom][]*watcher),
		observed:        make(map[AnyAtom][]func()),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Accessor creates a controller for an atom
func Accessor[T any](s *Store, a *Atom[T]) *Controller[T] {
	return &Controller[T]{
		atom:  a,
		store: s,
	}
}

// Resolve resolves an atom's value (lazily, with caching)
func Resolve[T any](s *Store, a *Atom[T]) (T, error) {
	return ResolveContext(context.Background(), s, a)
}

// ResolveContext resolves an atom's value, honoring ctx in blocking
// factories such as observable bridges awaiting their first value.
func ResolveContext[T any](ctx context.Context, s *Store, a *Atom[T]) (T, error) {
	val, err := s.resolveAny(ctx, a)
	if err != nil {
		var zero T
		return zero, err
	}
	return SafeTypeAssertion[T](val)
}

func (s *Store) resolveAny(ctx context.Context, a AnyAtom) (any, error) {
	if s.disposed.Load() {
		return nil, ErrStoreDisposed
	}

	if val, ok := s.cache.Load(a); ok {
		return val, nil
	}

	s.mu.Lock()
	if val, ok := s.cache.Load(a); ok {
		s.mu.Unlock()
		return val, nil
	}
	if fl, running := s.inflight[a]; running {
		s.mu.Unlock()
		select {
		case <-fl.done:
			return fl.val, fl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	fl := &inflightResolve{done: make(chan struct{})}
	s.inflight[a] = fl
	s.mu.Unlock()

	fl.val, fl.err = s.resolveSlow(ctx, a)

	s.mu.Lock()
	delete(s.inflight, a)
	s.mu.Unlock()
	close(fl.done)

	return fl.val, fl.err
}

func (s *Store) resolveSlow(ctx context.Context, a AnyAtom) (any, error) {
	// Wire the reactive graph before computing
	for _, dep := range a.getDeps() {
		if dep.Mode() == ModeReactive {
			s.graph.AddDependency(a, dep.Atom())
		}
	}

	s.mu.RLock()
	pre, hasPreset := s.presets[a]
	exts := make([]Extension, len(s.extensions))
	copy(exts, s.extensions)
	s.mu.RUnlock()

	if hasPreset {
		if pre.isValue {
			s.cache.Store(a, pre.value)
			return pre.value, nil
		}

		val, err := s.resolveAny(ctx, pre.atom)
		if err != nil {
			return nil, err
		}

		s.cache.Store(a, val)
		return val, nil
	}

	// Resolve dependencies first (skip lazy dependencies)
	for _, dep := range a.getDeps() {
		if dep.Mode() == ModeLazy {
			continue
		}
		if _, err := s.resolveAny(ctx, dep.Atom()); err != nil {
			return nil, newResolveError(a, err, "resolving dependency")
		}
	}

	op := &Operation{
		Kind:  OpResolve,
		Atom:  a,
		Store: s,
	}

	rc := &ReadCtx{store: s, ctx: ctx, atom: a}

	// Chain extensions (middleware pattern)
	next := func() (any, error) {
		return a.resolveAny(rc)
	}

	// Apply extensions in reverse order (last registered wraps first)
	for i := len(exts) - 1; i >= 0; i-- {
		ext := exts[i]
		currentNext := next
		next = func() (any, error) {
			return ext.Wrap(ctx, currentNext, op)
		}
	}

	result, err := next()
	if err != nil {
		for _, ext := range exts {
			ext.OnError(err, op, s)
		}
		return nil, err
	}

	s.registerCleanups(a, rc.takeCleanups())
	s.cache.Store(a, result)

	return result, nil
}

// Update changes an atom's cached value and propagates to reactive
// dependents. Atoms with a write interceptor route through it instead.
func Update[T any](s *Store, a *Atom[T], newVal T) error {
	return UpdateContext(context.Background(), s, a, newVal)
}

// UpdateContext is Update with an explicit context for watcher refreshes.
func UpdateContext[T any](ctx context.Context, s *Store, a *Atom[T], newVal T) error {
	if s.disposed.Load() {
		return ErrStoreDisposed
	}

	if a.write != nil {
		return a.write(s, newVal)
	}

	return s.setValue(ctx, a, newVal)
}

func (s *Store) setValue(ctx context.Context, a AnyAtom, newVal any) error {
	s.mu.RLock()
	exts := make([]Extension, len(s.extensions))
	copy(exts, s.extensions)
	s.mu.RUnlock()

	op := &Operation{
		Kind:  OpUpdate,
		Atom:  a,
		Store: s,
	}

	next := func() (any, error) {
		dependents := s.graph.FindDependents(a)

		for _, dependent := range dependents {
			s.cleanupAtom(dependent, "reactive")
		}

		s.cache.Store(a, newVal)

		for _, dependent := range dependents {
			s.cache.Delete(dependent)
		}

		s.notifyWatchers(ctx, a, newVal, dependents)
		return nil, nil
	}

	for i := len(exts) - 1; i >= 0; i-- {
		ext := exts[i]
		currentNext := next
		next = func() (any, error) {
			return ext.Wrap(ctx, currentNext, op)
		}
	}

	_, err := next()
	return err
}

func (s *Store) notifyWatchers(ctx context.Context, a AnyAtom, newVal any, dependents []AnyAtom) {
	s.watchMu.Lock()
	direct := make([]*watcher, len(s.watchers[a]))
	copy(direct, s.watchers[a])
	var stale []AnyAtom
	for _, dependent := range dependents {
		if len(s.watchers[dependent]) > 0 {
			stale = append(stale, dependent)
		}
	}
	s.watchMu.Unlock()

	for _, w := range direct {
		w.fn(newVal)
	}

	if len(stale) == 0 {
		return
	}

	// Refreshing a dependent may block (an observable bridge waits for its
	// first value), so it runs off the updating goroutine.
	refreshCtx := context.WithoutCancel(ctx)
	go func() {
		for _, dependent := range stale {
			val, err := s.resolveAny(refreshCtx, dependent)
			if err != nil {
				continue
			}

			s.watchMu.Lock()
			ws := make([]*watcher, len(s.watchers[dependent]))
			copy(ws, s.watchers[dependent])
			s.watchMu.Unlock()

			for _, w := range ws {
				w.fn(val)
			}
		}
	}()
}

// Watch registers fn to observe value changes of a. The first watcher marks
// the atom observed and fires its observe hooks; removing the last watcher
// runs the hooks' unobserve functions. Watching never resolves the atom.
func Watch[T any](s *Store, a *Atom[T], fn func(T)) (stop func()) {
	if s.disposed.Load() {
		return func() {}
	}

	w := &watcher{fn: func(v any) {
		if typed, ok := v.(T); ok {
			fn(typed)
		}
	}}

	s.watchMu.Lock()
	s.watchers[a] = append(s.watchers[a], w)
	first := len(s.watchers[a]) == 1
	s.watchMu.Unlock()

	if first {
		var teardowns []func()
		for _, hook := range a.observeHooks() {
			if td := hook(s); td != nil {
				teardowns = append(teardowns, td)
			}
		}
		s.watchMu.Lock()
		s.observed[a] = teardowns
		s.watchMu.Unlock()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.watchMu.Lock()
			ws := s.watchers[a]
			for i, cur := range ws {
				if cur == w {
					s.watchers[a] = append(ws[:i], ws[i+1:]...)
					break
				}
			}
			var teardowns []func()
			if len(s.watchers[a]) == 0 {
				delete(s.watchers, a)
				teardowns = s.observed[a]
				delete(s.observed, a)
			}
			s.watchMu.Unlock()

			for i := len(teardowns) - 1; i >= 0; i-- {
				teardowns[i]()
			}
		})
	}
}

// UseExtension registers an extension to the store
func (s *Store) UseExtension(ext Extension) error {
	s.mu.Lock()
	s.extensions = append(s.extensions, ext)
	sort.SliceStable(s.extensions, func(i, j int) bool {
		return s.extensions[i].Order() < s.extensions[j].Order()
	})
	s.mu.Unlock()

	return ext.Init(s)
}

func (s *Store) registerCleanups(a AnyAtom, entries []cleanupEntry) {
	if len(entries) == 0 {
		return
	}

	s.cleanupMu.Lock()
	defer s.cleanupMu.Unlock()
	s.cleanupRegistry[a] = entries
}

func (s *Store) cleanupAtom(a AnyAtom, cleanupContext string) {
	s.cleanupMu.Lock()
	entries := s.cleanupRegistry[a]
	delete(s.cleanupRegistry, a)
	s.cleanupMu.Unlock()

	if len(entries) == 0 {
		return
	}

	s.runCleanups(entries, a, cleanupContext)
}

func (s *Store) runCleanups(entries []cleanupEntry, a AnyAtom, cleanupContext string) {
	s.mu.RLock()
	exts := make([]Extension, len(s.extensions))
	copy(exts, s.extensions)
	s.mu.RUnlock()

	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]

		if err := entry.fn(); err != nil {
			cleanupErr := &CleanupError{
				Atom:    a,
				Err:     err,
				Context: cleanupContext,
			}

			for _, ext := range exts {
				if ext.OnCleanupError(cleanupErr) {
					break
				}
			}
		}
	}
}

// release runs the atom's cleanups and drops its cached value.
func (s *Store) release(a AnyAtom) {
	s.cleanupAtom(a, "release")
	s.cache.Delete(a)
}

// invalidate drops the cached value without running cleanups.
func (s *Store) invalidate(a AnyAtom) {
	s.cache.Delete(a)
}

// Dispose cleans up the store, its observers, and all its extensions
func (s *Store) Dispose() error {
	if s.disposed.Swap(true) {
		return nil
	}

	// Detach observers first so subscriptions release before cleanups run
	s.watchMu.Lock()
	var teardowns []func()
	for _, tds := range s.observed {
		teardowns = append(teardowns, tds...)
	}
	s.observed = make(map[AnyAtom][]func())
	s.watchers = make(map[AnyAtom][]*watcher)
	s.watchMu.Unlock()

	for i := len(teardowns) - 1; i >= 0; i-- {
		teardowns[i]()
	}

	s.cleanupMu.Lock()
	allEntries := make([]struct {
		atom    AnyAtom
		entries []cleanupEntry
	}, 0, len(s.cleanupRegistry))

	for a, entries := range s.cleanupRegistry {
		allEntries = append(allEntries, struct {
			atom    AnyAtom
			entries []cleanupEntry
		}{a, entries})
	}
	s.cleanupRegistry = make(map[AnyAtom][]cleanupEntry)
	s.cleanupMu.Unlock()

	for i := len(allEntries) - 1; i >= 0; i-- {
		s.runCleanups(allEntries[i].entries, allEntries[i].atom, "dispose")
	}

	s.mu.RLock()
	exts := make([]Extension, len(s.extensions))
	copy(exts, s.extensions)
	s.mu.RUnlock()

	for _, ext := range exts {
		if err := ext.Dispose(s); err != nil {
			return fmt.Errorf("disposing extension %s: %w", ext.Name(), err)
		}
	}

	return nil
}

// GetTag retrieves a tag value from the store
func (s *Store) GetTag(tag any) (any, bool) {
	return s.tags.Load(tag)
}

// SetTag stores a tag value on the store
func (s *Store) SetTag(tag any, val any) {
	s.tags.Store(tag, val)
}

// ExportDependencyGraph returns a snapshot of the reactive dependency
// adjacency list, keyed by dependency.
func (s *Store) ExportDependencyGraph() map[AnyAtom][]AnyAtom {
	return s.graph.Export()
}
