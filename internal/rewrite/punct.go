package rewrite

import (
	"github.com/starford/semconv/internal/deptree"
	"github.com/starford/semconv/internal/relation"
)

// reparentPunctuation attaches punctuation inside a coordination to the
// conjunct that follows it, or failing that to the head of an apposition
// spanning it. The conjunction host is tried first.
func reparentPunctuation(g *deptree.Graph) int {
	moved := 0
	for _, n := range g.Tokens() {
		for _, e := range n.Incoming {
			if !relation.IsPunctuation(e.Rel) {
				continue
			}
			host, ok := conjunctionHost(g, n)
			if !ok {
				host, ok = appositionHost(g, n)
			}
			if !ok || host == n.Position || host == e.Head {
				continue
			}
			e.Head = host
			moved++
		}
	}
	return moved
}

// conjunctionHost finds the first conjunct whose conj edge spans n and that
// has no punctuation or coordinator dependent between n and itself.
func conjunctionHost(g *deptree.Graph, n *deptree.Node) (int, bool) {
	for _, d := range g.Nodes {
		if !spans(n, d.Incoming, relation.Conj) {
			continue
		}
		if separated(g, n, d) {
			continue
		}
		return d.Position, true
	}
	return 0, false
}

// appositionHost finds the first node heading an appos edge that spans n.
func appositionHost(g *deptree.Graph, n *deptree.Node) (int, bool) {
	for _, d := range g.Nodes {
		if spans(n, g.Outgoing(d.Position), relation.Appos) {
			return d.Position, true
		}
	}
	return 0, false
}

// spans reports whether any edge labelled with one of rels runs across n:
// head position < n < dependent position.
func spans(n *deptree.Node, edges []*deptree.Edge, rels ...string) bool {
	for _, e := range edges {
		if relation.In(e.Rel, rels...) && e.Head < n.Position && n.Position < e.Dependent {
			return true
		}
	}
	return false
}

func separated(g *deptree.Graph, n, d *deptree.Node) bool {
	for _, e := range g.Outgoing(d.Position) {
		if (relation.IsPunctuation(e.Rel) || e.Rel == relation.CC) &&
			n.Position < e.Dependent && e.Dependent < d.Position {
			return true
		}
	}
	return false
}
