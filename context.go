package jotai

import (
	"context"
	"sync"
)

type cleanupEntry struct {
	fn    func() error
	order int
}

// ReadCtx provides context for atom factories.
type ReadCtx struct {
	store     *Store
	ctx       context.Context
	atom      AnyAtom
	cleanups  []cleanupEntry
	cleanupMu sync.Mutex
}

// Store returns the store driving this resolution.
func (rc *ReadCtx) Store() *Store {
	return rc.store
}

// Context returns the context the resolution was started with. Blocking
// factories should honor it.
func (rc *ReadCtx) Context() context.Context {
	if rc.ctx != nil {
		return rc.ctx
	}
	return context.Background()
}

// OnCleanup registers a cleanup function to run when the atom's cached value
// is invalidated (reactive update, release, or store dispose). Cleanups run
// in LIFO order.
func (rc *ReadCtx) OnCleanup(fn func() error) {
	rc.cleanupMu.Lock()
	defer rc.cleanupMu.Unlock()

	entry := cleanupEntry{
		fn:    fn,
		order: len(rc.cleanups),
	}
	rc.cleanups = append(rc.cleanups, entry)
}

func (rc *ReadCtx) takeCleanups() []cleanupEntry {
	rc.cleanupMu.Lock()
	defer rc.cleanupMu.Unlock()

	entries := rc.cleanups
	rc.cleanups = nil
	return entries
}

// GetTag retrieves a raw tag value from the store.
func (rc *ReadCtx) GetTag(tag any) (any, bool) {
	return rc.store.GetTag(tag)
}

// GetTag retrieves a typed tag value from the store.
func GetTag[T any](rc *ReadCtx, tag Tag[T]) (T, bool) {
	return tag.GetFromStore(rc.store)
}

// GetTagOrDefault retrieves a typed tag or returns a default value.
func GetTagOrDefault[T any](rc *ReadCtx, tag Tag[T], defaultVal T) T {
	if val, ok := tag.GetFromStore(rc.store); ok {
		return val
	}
	return defaultVal
}
