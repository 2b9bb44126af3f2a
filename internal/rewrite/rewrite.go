// Package rewrite relocates dependency edges so that the structure matches
// the target annotation convention before a semantic graph is built from it,
// or before a dependency tree is emitted from a semantic graph.
package rewrite

import (
	"github.com/starford/semconv/internal/deptree"
	"github.com/starford/semconv/internal/relation"
)

// Direction selects which way a sentence is being converted.
type Direction int

const (
	// ToSemantic prepares a dependency tree for graph building.
	ToSemantic Direction = iota
	// ToDependency prepares a graph-derived structure for tree emission.
	ToDependency
)

func (d Direction) String() string {
	if d == ToSemantic {
		return "semantic"
	}
	return "dependency"
}

// Options tune the rewrite.
type Options struct {
	// SemanticLabels is set when the dependency side already uses the
	// semantic label names; the flat/punctuation relabel is then skipped on
	// the way back to dependencies.
	SemanticLabels bool
}

// Stats counts what a pass changed.
type Stats struct {
	HighAttached int
	Reparented   int
	CyclesBroken int
	Orphans      int
}

// Preprocess rewrites g in place. The steps run in a fixed order: label
// normalization, format relabeling, high attachment, punctuation
// re-parenting (ToDependency only), structural reduction, and finally, for
// ToDependency, recording the enhanced string and collapsing every token to
// its single primary head.
//
// g must have passed deptree.Graph.Validate.
func Preprocess(g *deptree.Graph, dir Direction, opts Options) Stats {
	var st Stats

	relabel(g, dir, opts)
	st.HighAttached = highAttach(g, dir)
	if dir == ToDependency {
		st.Reparented = reparentPunctuation(g)
	}
	st.CyclesBroken, st.Orphans = reduce(g, dir)

	if dir == ToDependency {
		for _, n := range g.Tokens() {
			if len(n.Incoming) == 0 {
				continue
			}
			n.Enhanced = deptree.FormatEnhanced(n)
			n.Incoming = n.Incoming[:1]
		}
	}
	return st
}

// relabel strips relation subtypes and swaps the labels that the two formats
// name differently.
func relabel(g *deptree.Graph, dir Direction, opts Options) {
	swap := dir == ToSemantic || !opts.SemanticLabels
	for _, n := range g.Nodes {
		for _, e := range n.Incoming {
			e.Rel = relation.Normalize(e.Rel)
			if swap {
				e.Rel = relation.Swap(e.Rel, dir == ToSemantic)
			}
		}
	}
}

// highAttach moves coordination and subordination markers to the head
// reachable through their trigger relation. Nodes are visited right to left
// so later moves see earlier ones.
func highAttach(g *deptree.Graph, dir Direction) int {
	span := g.MaxPosition() + 1
	moved := 0
	for i := len(g.Nodes) - 1; i >= 0; i-- {
		dep := g.Nodes[i]
		for _, e := range dep.Incoming {
			targets := relation.HighAttachTargets(e.Rel)
			if len(targets) == 0 || e.Rel == relation.Root {
				continue
			}
			head := g.Nodes[e.Head]
			if len(head.Incoming) == 0 {
				continue
			}

			candidates := head.Incoming
			if dir == ToDependency {
				candidates = g.Outgoing(head.Position)
			}
			target, ok := nearestForward(candidates, targets, dir, dep.Position, span)
			if !ok || target == dep.Position || target == e.Head {
				continue
			}
			if hasOutgoing(g, target, e.Rel) {
				continue
			}
			e.Head = target
			moved++
		}
	}
	return moved
}

// nearestForward picks, among candidate edges labelled with one of targets,
// the endpoint closest going rightwards from pos, wrapping around the
// sentence: endpoints left of pos are pushed back by span.
func nearestForward(candidates []*deptree.Edge, targets []string, dir Direction, pos, span int) (int, bool) {
	best, bestKey := -1, 0
	for _, c := range candidates {
		if !relation.In(c.Rel, targets...) {
			continue
		}
		endpoint := c.Head
		if dir == ToDependency {
			endpoint = c.Dependent
		}
		key := endpoint
		if endpoint < pos {
			key += span
		}
		if best < 0 || key < bestKey {
			best, bestKey = endpoint, key
		}
	}
	return best, best >= 0
}

func hasOutgoing(g *deptree.Graph, head int, rel string) bool {
	for _, e := range g.Outgoing(head) {
		if e.Rel == rel {
			return true
		}
	}
	return false
}
