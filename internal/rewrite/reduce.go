package rewrite

import (
	"sort"

	"github.com/starford/semconv/internal/deptree"
	"github.com/starford/semconv/internal/relation"
)

// reduce makes the primary edges form a tree rooted at position 0: it orders
// each token's incoming edges so the primary one comes first, attaches
// orphans, and breaks cycles. Secondary edges stay in place, flagged remote.
func reduce(g *deptree.Graph, dir Direction) (cycles, orphans int) {
	for _, n := range g.Tokens() {
		if dir == ToDependency {
			sort.SliceStable(n.Incoming, func(i, j int) bool {
				a, b := n.Incoming[i], n.Incoming[j]
				if a.Remote != b.Remote {
					return !a.Remote
				}
				return relation.Priority(a.Rel) < relation.Priority(b.Rel)
			})
		}
		for i, e := range n.Incoming {
			e.Remote = i > 0
		}
	}

	for _, n := range g.Tokens() {
		if len(n.Incoming) == 0 {
			attachToRoot(g, g.AddEdge(deptree.RootPosition, n.Position, relation.Root))
			orphans++
		}
	}

	return breakCycles(g), orphans
}

// breakCycles follows primary heads from every token; a walk that comes
// back onto itself is cut by re-attaching the node where it closed.
func breakCycles(g *deptree.Graph) int {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make([]int, len(g.Nodes))
	state[deptree.RootPosition] = done
	broken := 0

	for _, start := range g.Tokens() {
		var path []int
		cur := start.Position
		for state[cur] == unvisited {
			state[cur] = onPath
			path = append(path, cur)
			cur = g.Nodes[cur].Incoming[0].Head
		}
		if state[cur] == onPath {
			attachToRoot(g, g.Nodes[cur].Incoming[0])
			broken++
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return broken
}

// attachToRoot points e at the sentence's main predicate, or at the root
// itself when there is none yet.
func attachToRoot(g *deptree.Graph, e *deptree.Edge) {
	for _, n := range g.Tokens() {
		if n.Position == e.Dependent || len(n.Incoming) == 0 {
			continue
		}
		if p := n.Incoming[0]; p.Head == deptree.RootPosition && p != e {
			e.Head = n.Position
			if e.Rel == relation.Root {
				e.Rel = "dep"
			}
			return
		}
	}
	e.Head = deptree.RootPosition
	e.Rel = relation.Root
}
