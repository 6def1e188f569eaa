package jotai

import (
	"sync"
)

// ReactiveGraph tracks reactive dependency relationships with safe,
// iterative traversal.
type ReactiveGraph struct {
	downstream map[AnyAtom][]AnyAtom
	upstream   map[AnyAtom][]AnyAtom
	mu         sync.RWMutex
}

// NewReactiveGraph creates a new reactive dependency graph
func NewReactiveGraph() *ReactiveGraph {
	return &ReactiveGraph{
		downstream: make(map[AnyAtom][]AnyAtom),
		upstream:   make(map[AnyAtom][]AnyAtom),
	}
}

// AddDependency adds a reactive dependency relationship
func (g *ReactiveGraph) AddDependency(dependent AnyAtom, dependency AnyAtom) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.downstream[dependency] = appendUnique(g.downstream[dependency], dependent)
	g.upstream[dependent] = appendUnique(g.upstream[dependent], dependency)
}

// RemoveDependency removes a reactive dependency relationship
func (g *ReactiveGraph) RemoveDependency(dependent AnyAtom, dependency AnyAtom) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.downstream[dependency] = removeElement(g.downstream[dependency], dependent)
	if len(g.downstream[dependency]) == 0 {
		delete(g.downstream, dependency)
	}

	g.upstream[dependent] = removeElement(g.upstream[dependent], dependency)
	if len(g.upstream[dependent]) == 0 {
		delete(g.upstream, dependent)
	}
}

// FindDependents returns all transitive reactive dependents of start, using
// an explicit stack instead of recursion.
func (g *ReactiveGraph) FindDependents(start AnyAtom) []AnyAtom {
	g.mu.RLock()
	defer g.mu.RUnlock()

	stack := make([]AnyAtom, 0, 32)
	stack = append(stack, start)

	dependents := make([]AnyAtom, 0, 32)
	visited := make(map[AnyAtom]bool, 32)

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[current] {
			continue
		}
		visited[current] = true

		if current != start {
			dependents = append(dependents, current)
		}

		for _, dep := range g.downstream[current] {
			if !visited[dep] {
				stack = append(stack, dep)
			}
		}
	}

	return dependents
}

// GetDirectDependents returns only direct dependents (no traversal)
func (g *ReactiveGraph) GetDirectDependents(atom AnyAtom) []AnyAtom {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if deps, exists := g.downstream[atom]; exists {
		result := make([]AnyAtom, len(deps))
		copy(result, deps)
		return result
	}
	return nil
}

// Export returns a copy of the downstream adjacency list, keyed by
// dependency.
func (g *ReactiveGraph) Export() map[AnyAtom][]AnyAtom {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[AnyAtom][]AnyAtom, len(g.downstream))
	for dep, dependents := range g.downstream {
		copied := make([]AnyAtom, len(dependents))
		copy(copied, dependents)
		out[dep] = copied
	}
	return out
}

func appendUnique[T comparable](slice []T, item T) []T {
	for _, existing := range slice {
		if existing == item {
			return slice
		}
	}
	return append(slice, item)
}

func removeElement[T comparable](slice []T, item T) []T {
	for i, existing := range slice {
		if existing == item {
			return append(slice[:i], slice[i+1:]...)
		}
	}
	return slice
}
