// Package deptree is the in-memory dependency structure of one sentence.
//
// Nodes live in a dense slice indexed by position; index 0 is the implicit
// root. Edges refer to their endpoints by index, so the root is just the
// reserved index 0 and bounds checks are plain integer comparisons.
package deptree

import (
	"fmt"
	"strings"

	"github.com/starford/semconv/internal/apperr"
	"github.com/starford/semconv/internal/semgraph"
)

// RootPosition is the index of the implicit root node.
const RootPosition = 0

// Token carries the lexical columns of a surface row. The rewrite engine
// never looks inside it.
type Token struct {
	Text       string
	Lemma      string
	Tag        string
	POS        string
	Feats      string
	Misc       string
	Paragraph  int
	SpaceAfter bool
}

// Edge is a labelled dependency from Head to Dependent.
type Edge struct {
	Head      int
	Dependent int
	Rel       string
	Remote    bool
}

// HeadIndex returns the head position as written in the HEAD column.
func (e *Edge) HeadIndex() int { return e.Head }

// Node is one token (or the root).
type Node struct {
	Position int
	Token    Token
	Incoming []*Edge
	Enhanced string

	// Handles into the semantic graph, valid only while it is being built.
	Terminal    semgraph.NodeID
	Unit        semgraph.NodeID
	Preterminal semgraph.NodeID
}

// Graph is the dependency structure of one sentence.
type Graph struct {
	ID    string
	Nodes []*Node

	defects []error
}

// New returns a graph holding only the root node.
func New(id string) *Graph {
	g := &Graph{ID: id}
	g.Nodes = append(g.Nodes, newNode(RootPosition, Token{}))
	return g
}

func newNode(pos int, tok Token) *Node {
	return &Node{
		Position:    pos,
		Token:       tok,
		Terminal:    semgraph.NoNode,
		Unit:        semgraph.NoNode,
		Preterminal: semgraph.NoNode,
	}
}

// AddNode appends a token node at the next position and returns it.
func (g *Graph) AddNode(tok Token) *Node {
	n := newNode(len(g.Nodes), tok)
	g.Nodes = append(g.Nodes, n)
	return n
}

// AddEdge appends an incoming edge to dependent. Endpoints are not checked
// here; Validate reports dangling references.
func (g *Graph) AddEdge(head, dependent int, rel string) *Edge {
	e := &Edge{Head: head, Dependent: dependent, Rel: rel}
	if dependent >= 0 && dependent < len(g.Nodes) {
		n := g.Nodes[dependent]
		e.Remote = len(n.Incoming) > 0
		n.Incoming = append(n.Incoming, e)
	}
	return e
}

// Root returns the root node.
func (g *Graph) Root() *Node { return g.Nodes[RootPosition] }

// Tokens returns the non-root nodes in position order.
func (g *Graph) Tokens() []*Node { return g.Nodes[1:] }

// Node returns the node at position i.
func (g *Graph) Node(i int) *Node { return g.Nodes[i] }

// MaxPosition returns the largest token position (0 for an empty sentence).
func (g *Graph) MaxPosition() int { return len(g.Nodes) - 1 }

// Outgoing returns the edges whose head is position i, in dependent order.
func (g *Graph) Outgoing(i int) []*Edge {
	var out []*Edge
	for _, n := range g.Nodes {
		for _, e := range n.Incoming {
			if e.Head == i {
				out = append(out, e)
			}
		}
	}
	return out
}

// HeadOf returns the head node of the first incoming edge of n, or nil.
func (g *Graph) HeadOf(n *Node) *Node {
	if len(n.Incoming) == 0 {
		return nil
	}
	return g.Nodes[n.Incoming[0].Head]
}

// Validate checks structural references: every edge must point at an
// existing node, the root must have no incoming edge, and no edge may be a
// self-loop.
func (g *Graph) Validate() error {
	if len(g.defects) > 0 {
		return g.defects[0]
	}
	if len(g.Nodes) == 0 || g.Nodes[0].Position != RootPosition {
		return fmt.Errorf("%w: missing root node", apperr.ErrMalformed)
	}
	if len(g.Root().Incoming) > 0 {
		return fmt.Errorf("%w: root has incoming edges", apperr.ErrMalformed)
	}
	for i, n := range g.Nodes {
		if n.Position != i {
			return fmt.Errorf("%w: node %d has position %d", apperr.ErrMalformed, i, n.Position)
		}
		for _, e := range n.Incoming {
			if e.Head < 0 || e.Head >= len(g.Nodes) {
				return fmt.Errorf("%w: token %d refers to head %d outside 0..%d",
					apperr.ErrMalformed, i, e.Head, len(g.Nodes)-1)
			}
			if e.Dependent != i {
				return fmt.Errorf("%w: edge on token %d names dependent %d", apperr.ErrMalformed, i, e.Dependent)
			}
			if e.Head == i {
				return fmt.Errorf("%w: token %d is its own head", apperr.ErrMalformed, i)
			}
		}
	}
	return nil
}

// FormatEnhanced renders the incoming edges of n as "head:rel|head:rel".
func FormatEnhanced(n *Node) string {
	parts := make([]string, 0, len(n.Incoming))
	for _, e := range n.Incoming {
		parts = append(parts, fmt.Sprintf("%d:%s", e.HeadIndex(), e.Rel))
	}
	return strings.Join(parts, "|")
}

// ResetHandles clears every semantic-graph handle.
func (g *Graph) ResetHandles() {
	for _, n := range g.Nodes {
		n.Terminal, n.Unit, n.Preterminal = semgraph.NoNode, semgraph.NoNode, semgraph.NoNode
	}
}
