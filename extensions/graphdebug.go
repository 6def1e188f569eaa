package extensions

import (
	"log/slog"

	"github.com/m1gwings/treedrawer/tree"

	jotai "github.com/dakom/jotai"
)

// GraphDebugExtension logs a drawing of the reactive dependency graph when a
// resolution fails, so a broken chain can be read at a glance.
//
// Usage:
//
//	handler := slog.NewTextHandler(os.Stderr, nil)
//	ext := extensions.NewGraphDebugExtension(handler)
//	store := jotai.NewStore(jotai.WithExtension(ext))
type GraphDebugExtension struct {
	jotai.BaseExtension
	logger *slog.Logger
}

// NewGraphDebugExtension creates a graph debug extension backed by the given
// slog.Handler.
func NewGraphDebugExtension(handler slog.Handler) *GraphDebugExtension {
	return &GraphDebugExtension{
		BaseExtension: jotai.NewBaseExtension("graph-debug"),
		logger:        slog.New(handler),
	}
}

func (e *GraphDebugExtension) OnError(err error, op *jotai.Operation, store *jotai.Store) {
	e.logger.Error("atom resolution failed",
		"atom", atomName(op.Atom),
		"operation", string(op.Kind),
		"error", err.Error(),
		"dependency_graph", e.drawGraph(store, op.Atom),
	)
}

// drawGraph renders the store's reactive adjacency list as a tree rooted at
// the store, one branch per tracked dependency.
func (e *GraphDebugExtension) drawGraph(store *jotai.Store, failed jotai.AnyAtom) string {
	graph := store.ExportDependencyGraph()
	if len(graph) == 0 {
		return "(no reactive dependencies tracked)"
	}

	root := tree.NewTree(tree.NodeString("store"))
	i := 0
	for dependency, dependents := range graph {
		root.AddChild(tree.NodeString(e.label(dependency, failed)))
		branch, err := root.Child(i)
		i++
		if err != nil {
			continue
		}
		for _, dependent := range dependents {
			branch.AddChild(tree.NodeString(e.label(dependent, failed)))
		}
	}

	return "\n" + root.String()
}

func (e *GraphDebugExtension) label(a jotai.AnyAtom, failed jotai.AnyAtom) string {
	name := atomName(a)
	if a == failed {
		return name + " [FAILED]"
	}
	return name
}
