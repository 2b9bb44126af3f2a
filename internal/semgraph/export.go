package semgraph

import (
	"fmt"
	"sort"
)

// Document is the serialisable form of a Graph used by the API, the MCP
// server and the index.
type Document struct {
	ID        string         `json:"id"`
	Terminals []TerminalDoc  `json:"terminals"`
	Units     []string       `json:"units"`
	Edges     []EdgeDoc      `json:"edges"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// TerminalDoc describes one layer-0 node.
type TerminalDoc struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Position  int    `json:"position"`
	Paragraph int    `json:"paragraph,omitempty"`
	Punct     bool   `json:"punct,omitempty"`
}

// EdgeDoc describes one edge by node names.
type EdgeDoc struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
	Tag    string `json:"tag"`
	Remote bool   `json:"remote,omitempty"`
}

// Export converts g into a Document.
func (g *Graph) Export() Document {
	names := make([]string, len(g.nodes))
	counts := map[string]int{}
	for i := range g.nodes {
		counts[g.nodes[i].Layer]++
		names[i] = fmt.Sprintf("%s.%d", g.nodes[i].Layer, counts[g.nodes[i].Layer])
	}

	doc := Document{ID: g.ID, Terminals: []TerminalDoc{}, Units: []string{}, Edges: []EdgeDoc{}}
	for i, n := range g.nodes {
		if n.Layer == Layer0 {
			doc.Terminals = append(doc.Terminals, TerminalDoc{
				ID:        names[i],
				Text:      n.Text,
				Position:  n.Position,
				Paragraph: n.Paragraph,
				Punct:     n.Tag == TagPunctuation,
			})
		} else {
			doc.Units = append(doc.Units, names[i])
		}
	}
	for _, e := range g.edges {
		doc.Edges = append(doc.Edges, EdgeDoc{
			Parent: names[e.Parent],
			Child:  names[e.Child],
			Tag:    e.Tag,
			Remote: e.Remote,
		})
	}
	if len(g.Layer0Extra) > 0 {
		doc.Extra = g.Layer0Extra
	}
	return doc
}

// Import rebuilds a Graph from a Document. Units must list the root first and
// primary edges must not form a cycle.
func Import(doc Document) (*Graph, error) {
	if len(doc.Units) == 0 {
		return nil, fmt.Errorf("semgraph: import %q: no root unit", doc.ID)
	}
	g := New(doc.ID)
	ids := map[string]NodeID{doc.Units[0]: g.root}

	terms := append([]TerminalDoc(nil), doc.Terminals...)
	sort.SliceStable(terms, func(i, j int) bool { return terms[i].Position < terms[j].Position })
	for _, t := range terms {
		if _, dup := ids[t.ID]; dup {
			return nil, fmt.Errorf("semgraph: import %q: duplicate node %s", doc.ID, t.ID)
		}
		ids[t.ID] = g.AddTerminal(t.Text, t.Position, t.Paragraph, t.Punct)
	}
	for _, u := range doc.Units[1:] {
		if _, dup := ids[u]; dup {
			return nil, fmt.Errorf("semgraph: import %q: duplicate node %s", doc.ID, u)
		}
		ids[u] = g.addNode(Node{Layer: Layer1, Tag: TagUnit})
	}
	for _, e := range doc.Edges {
		parent, ok := ids[e.Parent]
		if !ok {
			return nil, fmt.Errorf("semgraph: import %q: unknown parent %s", doc.ID, e.Parent)
		}
		child, ok := ids[e.Child]
		if !ok {
			return nil, fmt.Errorf("semgraph: import %q: unknown child %s", doc.ID, e.Child)
		}
		if err := g.addEdge(parent, child, e.Tag, e.Remote); err != nil {
			return nil, fmt.Errorf("semgraph: import %q: %w", doc.ID, err)
		}
	}
	if err := g.checkAcyclic(); err != nil {
		return nil, fmt.Errorf("semgraph: import %q: %w", doc.ID, err)
	}
	for k, v := range doc.Extra {
		g.Layer0Extra[k] = v
	}
	return g, nil
}
