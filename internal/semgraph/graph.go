// Package semgraph holds a two-layer semantic graph: layer 0 carries one
// terminal per token, layer 1 carries the units ("fnodes") and labelled
// edges between them. Nodes live in a dense table and are referred to by
// NodeID handles, so callers can keep and reassign references cheaply.
package semgraph

import (
	"fmt"
)

// Layer identifiers.
const (
	Layer0 = "0"
	Layer1 = "1"
)

// Node tags.
const (
	TagWord        = "Word"
	TagPunctuation = "Punctuation"
	TagUnit        = "FN"
)

// NodeID is a handle into Graph's node table.
type NodeID int

// NoNode is the zero handle: it never refers to a node.
const NoNode NodeID = -1

// Node is a terminal (layer 0) or unit (layer 1).
type Node struct {
	ID        NodeID
	Layer     string
	Tag       string
	Text      string // terminals only
	Position  int    // terminals only, 1-based
	Paragraph int    // terminals only

	incoming []int
	outgoing []int
}

// Edge connects a parent unit to a child unit or terminal.
type Edge struct {
	Parent NodeID
	Child  NodeID
	Tag    string
	Remote bool
}

// Graph is a layered semantic graph for one sentence or passage.
type Graph struct {
	ID string

	// Layer0Extra carries auxiliary payloads attached to the terminal layer.
	Layer0Extra map[string]any

	nodes []Node
	edges []Edge
	root  NodeID
	terms []NodeID
}

// New returns a graph containing only the layer-1 root unit.
func New(id string) *Graph {
	g := &Graph{ID: id, Layer0Extra: map[string]any{}}
	g.root = g.addNode(Node{Layer: Layer1, Tag: TagUnit})
	return g
}

func (g *Graph) addNode(n Node) NodeID {
	n.ID = NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	return n.ID
}

// Root returns the layer-1 root unit.
func (g *Graph) Root() NodeID { return g.root }

// Len returns the number of nodes, terminals included.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node behind id. It panics on an invalid handle.
func (g *Graph) Node(id NodeID) *Node {
	return &g.nodes[id]
}

// Valid reports whether id refers to a node in g.
func (g *Graph) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// AddTerminal appends a terminal for the token at position.
func (g *Graph) AddTerminal(text string, position, paragraph int, punct bool) NodeID {
	tag := TagWord
	if punct {
		tag = TagPunctuation
	}
	id := g.addNode(Node{Layer: Layer0, Tag: tag, Text: text, Position: position, Paragraph: paragraph})
	g.terms = append(g.terms, id)
	return id
}

// AddFNode creates a unit under parent, connected by an edge tagged tag.
func (g *Graph) AddFNode(parent NodeID, tag string) (NodeID, error) {
	if !g.Valid(parent) || g.nodes[parent].Layer != Layer1 {
		return NoNode, fmt.Errorf("semgraph: add fnode: invalid parent %d", parent)
	}
	id := g.addNode(Node{Layer: Layer1, Tag: TagUnit})
	g.link(parent, id, tag, false)
	return id, nil
}

// AddEdge connects parent to an existing child.
func (g *Graph) AddEdge(parent, child NodeID, tag string) error {
	return g.addEdge(parent, child, tag, false)
}

// AddRemote adds a remote (secondary) edge from parent to child.
func (g *Graph) AddRemote(parent, child NodeID, tag string) error {
	return g.addEdge(parent, child, tag, true)
}

func (g *Graph) addEdge(parent, child NodeID, tag string, remote bool) error {
	if !g.Valid(parent) || !g.Valid(child) {
		return fmt.Errorf("semgraph: add edge: invalid endpoints %d -> %d", parent, child)
	}
	if parent == child {
		return fmt.Errorf("semgraph: add edge: self loop on %d", parent)
	}
	if g.nodes[parent].Layer != Layer1 {
		return fmt.Errorf("semgraph: add edge: parent %d is a terminal", parent)
	}
	g.link(parent, child, tag, remote)
	return nil
}

func (g *Graph) link(parent, child NodeID, tag string, remote bool) {
	e := len(g.edges)
	g.edges = append(g.edges, Edge{Parent: parent, Child: child, Tag: tag, Remote: remote})
	g.nodes[parent].outgoing = append(g.nodes[parent].outgoing, e)
	g.nodes[child].incoming = append(g.nodes[child].incoming, e)
}

// Outgoing returns the edges leaving id in insertion order.
func (g *Graph) Outgoing(id NodeID) []Edge {
	out := make([]Edge, 0, len(g.nodes[id].outgoing))
	for _, e := range g.nodes[id].outgoing {
		out = append(out, g.edges[e])
	}
	return out
}

// Incoming returns the edges entering id in insertion order.
func (g *Graph) Incoming(id NodeID) []Edge {
	out := make([]Edge, 0, len(g.nodes[id].incoming))
	for _, e := range g.nodes[id].incoming {
		out = append(out, g.edges[e])
	}
	return out
}

// Primary returns the first non-remote edge entering id.
func (g *Graph) Primary(id NodeID) (Edge, bool) {
	for _, e := range g.nodes[id].incoming {
		if !g.edges[e].Remote {
			return g.edges[e], true
		}
	}
	return Edge{}, false
}

// ParentOf returns the primary parent of id, or NoNode for the root.
func (g *Graph) ParentOf(id NodeID) NodeID {
	if e, ok := g.Primary(id); ok {
		return e.Parent
	}
	return NoNode
}

// Terminals returns the terminals in position order.
func (g *Graph) Terminals() []NodeID {
	return append([]NodeID(nil), g.terms...)
}

// Units returns every layer-1 node, root first.
func (g *Graph) Units() []NodeID {
	var out []NodeID
	for i := range g.nodes {
		if g.nodes[i].Layer == Layer1 {
			out = append(out, NodeID(i))
		}
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Name returns the conventional "<layer>.<n>" identifier of id, numbering
// each layer from 1 in creation order.
func (g *Graph) Name(id NodeID) string {
	layer := g.nodes[id].Layer
	n := 0
	for i := 0; i <= int(id); i++ {
		if g.nodes[i].Layer == layer {
			n++
		}
	}
	return fmt.Sprintf("%s.%d", layer, n)
}

// checkAcyclic fails when following primary parents from some node leads
// back to that node.
func (g *Graph) checkAcyclic() error {
	const (
		unseen = iota
		onPath
		done
	)
	state := make([]uint8, len(g.nodes))
	for i := range g.nodes {
		var path []NodeID
		for id := NodeID(i); state[id] == unseen; {
			state[id] = onPath
			path = append(path, id)
			p := g.ParentOf(id)
			if p == NoNode {
				break
			}
			if state[p] == onPath {
				return fmt.Errorf("primary edges form a cycle through %s", g.Name(p))
			}
			id = p
		}
		for _, id := range path {
			state[id] = done
		}
	}
	return nil
}
