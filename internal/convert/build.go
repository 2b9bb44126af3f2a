package convert

import (
	"fmt"

	"github.com/starford/semconv/internal/annotate"
	"github.com/starford/semconv/internal/apperr"
	"github.com/starford/semconv/internal/deptree"
	"github.com/starford/semconv/internal/relation"
	"github.com/starford/semconv/internal/rewrite"
	"github.com/starford/semconv/internal/semgraph"
)

// LabelEdge returns the semantic label of a dependency edge.
func LabelEdge(e *deptree.Edge) string {
	if e.Rel == relation.Root {
		return relation.ParallelScene
	}
	return e.Rel
}

// Build rewrites g toward the semantic convention and constructs its graph.
// g is modified in place. On failure no partial graph is returned.
func (c *Converter) Build(g *deptree.Graph) (*semgraph.Graph, error) {
	if err := g.Validate(); err != nil {
		return nil, fail(g.ID, err)
	}

	var doc [][]annotate.Tuple
	if c.annotate {
		doc = annotate.ByParagraph(g)
	}

	c.rewrite(g, rewrite.ToSemantic)

	g.ResetHandles()
	defer g.ResetHandles()

	sg := semgraph.New(g.ID)
	for _, n := range g.Tokens() {
		n.Terminal = sg.AddTerminal(n.Token.Text, n.Position, n.Token.Paragraph, n.Punct())
	}
	root := g.Root()
	root.Unit, root.Preterminal = sg.Root(), sg.Root()

	for _, e := range topDown(g) {
		if err := addFNode(sg, g, e); err != nil {
			return nil, fail(g.ID, err)
		}
	}
	for _, n := range g.Tokens() {
		if n.Preterminal == semgraph.NoNode {
			return nil, fail(g.ID, fmt.Errorf("%w: token %d is unreachable from the root", apperr.ErrMalformed, n.Position))
		}
		for _, e := range n.Incoming[1:] {
			if err := addRemote(sg, g, e); err != nil {
				return nil, fail(g.ID, err)
			}
		}
	}
	for _, n := range g.Tokens() {
		if err := sg.AddEdge(n.Preterminal, n.Terminal, terminalTag(n)); err != nil {
			return nil, fail(g.ID, err)
		}
	}

	if doc != nil {
		annotate.Attach(sg, doc)
	}
	return sg, nil
}

// topDown returns the primary edges breadth first from the root, each
// head's dependents in position order.
func topDown(g *deptree.Graph) []*deptree.Edge {
	children := make([][]*deptree.Edge, len(g.Nodes))
	for _, n := range g.Tokens() {
		if len(n.Incoming) > 0 {
			e := n.Incoming[0]
			children[e.Head] = append(children[e.Head], e)
		}
	}
	var order []*deptree.Edge
	queue := []int{deptree.RootPosition}
	for len(queue) > 0 {
		head := queue[0]
		queue = queue[1:]
		for _, e := range children[head] {
			order = append(order, e)
			queue = append(queue, e.Dependent)
		}
	}
	return order
}

func addFNode(sg *semgraph.Graph, g *deptree.Graph, e *deptree.Edge) error {
	head, dep := g.Node(e.Head), g.Node(e.Dependent)
	if head.Preterminal == semgraph.NoNode {
		return fmt.Errorf("%w: head %d of token %d has no anchor", apperr.ErrMalformed, e.Head, e.Dependent)
	}

	switch {
	case e.Rel == relation.Aux && e.Head != deptree.RootPosition:
		// The auxiliary and a fresh anchor for its head both go under the
		// head's current anchor. Later dependents of the head attach to the
		// fresh anchor.
		aux, err := sg.AddFNode(head.Preterminal, e.Rel)
		if err != nil {
			return err
		}
		dep.Unit, dep.Preterminal = aux, aux
		anchor, err := sg.AddFNode(head.Preterminal, LabelEdge(e))
		if err != nil {
			return err
		}
		head.Preterminal = anchor
	case relation.IsTopLevel(e.Rel):
		u, err := sg.AddFNode(sg.Root(), e.Rel)
		if err != nil {
			return err
		}
		dep.Unit, dep.Preterminal = u, u
	case relation.IsFlat(e.Rel) || relation.IsPunctuation(e.Rel):
		dep.Unit, dep.Preterminal = head.Preterminal, head.Preterminal
	default:
		u, err := sg.AddFNode(head.Preterminal, LabelEdge(e))
		if err != nil {
			return err
		}
		dep.Unit, dep.Preterminal = u, u
	}
	return nil
}

func addRemote(sg *semgraph.Graph, g *deptree.Graph, e *deptree.Edge) error {
	parent, child := g.Node(e.Head).Preterminal, g.Node(e.Dependent).Unit
	if parent == child || child == semgraph.NoNode {
		return nil
	}
	if parent == semgraph.NoNode {
		return fmt.Errorf("%w: remote head %d of token %d has no anchor", apperr.ErrMalformed, e.Head, e.Dependent)
	}
	return sg.AddRemote(parent, child, LabelEdge(e))
}

func terminalTag(n *deptree.Node) string {
	if len(n.Incoming) > 0 && relation.IsPunctuation(n.Incoming[0].Rel) {
		return relation.Punctuation
	}
	return relation.Terminal
}
