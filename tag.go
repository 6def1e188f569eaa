package jotai

// Tag is a type-safe key for metadata
type Tag[T any] struct {
	key string
}

// NewTag creates a new tag with the given key
func NewTag[T any](key string) Tag[T] {
	return Tag[T]{key: key}
}

// Key returns the tag's key (for debugging)
func (t Tag[T]) Key() string {
	return t.key
}

// Get retrieves the tag value from an atom
func (t Tag[T]) Get(a AnyAtom) (T, bool) {
	val, ok := a.GetTag(t)
	if !ok {
		var zero T
		return zero, false
	}
	return val.(T), true
}

// MustGet retrieves the tag value or panics if not found
func (t Tag[T]) MustGet(a AnyAtom) T {
	val, ok := t.Get(a)
	if !ok {
		panic("tag " + t.key + " not found")
	}
	return val
}

// GetOrDefault retrieves the tag value or returns a default
func (t Tag[T]) GetOrDefault(a AnyAtom, defaultVal T) T {
	if val, ok := t.Get(a); ok {
		return val
	}
	return defaultVal
}

// Set stores the tag value on an atom
func (t Tag[T]) Set(a AnyAtom, val T) {
	a.SetTag(t, val)
}

// GetFromStore retrieves the tag value from a store
func (t Tag[T]) GetFromStore(s *Store) (T, bool) {
	val, ok := s.GetTag(t)
	if !ok {
		var zero T
		return zero, false
	}
	return val.(T), true
}

// SetOnStore stores the tag value on a store
func (t Tag[T]) SetOnStore(s *Store, val T) {
	s.SetTag(t, val)
}

var nameTag = NewTag[string]("atom.name")

// NameTag returns the tag used by WithName and the diagnostic extensions.
func NameTag() Tag[string] {
	return nameTag
}
