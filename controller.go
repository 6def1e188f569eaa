package jotai

import "context"

// Controller provides lifecycle control for an atom's value
type Controller[T any] struct {
	atom  *Atom[T]
	store *Store
}

// Get retrieves the latest value (resolves if not cached)
func (c *Controller[T]) Get() (T, error) {
	return Resolve(c.store, c.atom)
}

// GetContext is Get with an explicit context for blocking resolutions
func (c *Controller[T]) GetContext(ctx context.Context) (T, error) {
	return ResolveContext(ctx, c.store, c.atom)
}

// Peek retrieves the cached value without resolving
func (c *Controller[T]) Peek() (T, bool) {
	val, ok := c.store.cache.Load(c.atom)
	if !ok {
		var zero T
		return zero, false
	}
	typed, err := SafeTypeAssertion[T](val)
	if err != nil {
		var zero T
		return zero, false
	}
	return typed, true
}

// Update sets a new value and propagates to reactive dependents
func (c *Controller[T]) Update(newVal T) error {
	return Update(c.store, c.atom, newVal)
}

// Set is an alias for Update
func (c *Controller[T]) Set(newVal T) error {
	return c.Update(newVal)
}

// Watch registers fn to observe value changes
func (c *Controller[T]) Watch(fn func(T)) (stop func()) {
	return Watch(c.store, c.atom, fn)
}

// Release runs the atom's cleanups and invalidates the cached value
func (c *Controller[T]) Release() error {
	c.store.release(c.atom)
	return nil
}

// Reload invalidates and immediately re-resolves
func (c *Controller[T]) Reload() (T, error) {
	if err := c.Release(); err != nil {
		var zero T
		return zero, err
	}
	return c.Get()
}

// IsCached checks if the value is currently cached
func (c *Controller[T]) IsCached() bool {
	_, ok := c.store.cache.Load(c.atom)
	return ok
}
