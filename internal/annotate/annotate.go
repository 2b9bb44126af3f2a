// Package annotate captures per-token lexical attributes of a dependency
// structure so they survive conversion into a semantic graph.
package annotate

import (
	"github.com/starford/semconv/internal/deptree"
	"github.com/starford/semconv/internal/semgraph"
)

// DocKey is the layer-0 extra key under which tuples are stored.
const DocKey = "doc"

// Attr is one captured attribute kind.
type Attr int

// Attributes, in tuple order.
const (
	Dep Attr = iota
	Head
	Tag
	POS
	Lemma
	Orth

	NumAttrs = 6
)

var attrNames = [NumAttrs]string{"dep", "head", "tag", "pos", "lemma", "orth"}

func (a Attr) String() string {
	if a < 0 || int(a) >= NumAttrs {
		return "unknown"
	}
	return attrNames[a]
}

// Attrs lists every attribute in tuple order.
var Attrs = [NumAttrs]Attr{Dep, Head, Tag, POS, Lemma, Orth}

// Unknown is returned for attribute kinds without an accessor.
var Unknown any

// Tuple holds one token's attributes in Attrs order.
type Tuple [NumAttrs]any

// Get returns attribute a of node n in g. Dep is nil when n has no incoming
// edge. Head is 0 when n has no incoming edge or hangs off the root.
func Get(g *deptree.Graph, n *deptree.Node, a Attr) any {
	switch a {
	case Dep:
		if len(n.Incoming) == 0 {
			return nil
		}
		return n.Incoming[0].Rel
	case Head:
		if len(n.Incoming) == 0 || n.Incoming[0].Head == deptree.RootPosition {
			return 0
		}
		return g.Node(n.Incoming[0].Head).Position - n.Position
	case Tag:
		return n.Token.Tag
	case POS:
		return n.Token.POS
	case Lemma:
		return n.Token.Lemma
	case Orth:
		return n.Token.Text
	default:
		return Unknown
	}
}

// Extract returns one tuple per token in position order. It must run before
// the structure is rewritten.
func Extract(g *deptree.Graph) []Tuple {
	out := make([]Tuple, 0, len(g.Tokens()))
	for _, n := range g.Tokens() {
		var t Tuple
		for i, a := range Attrs {
			t[i] = Get(g, n, a)
		}
		out = append(out, t)
	}
	return out
}

// ByParagraph extracts tuples and groups them by the tokens' 1-based
// paragraph numbers. Index p-1 holds paragraph p; paragraphs without tokens
// are empty lists, and the result always has at least one entry.
func ByParagraph(g *deptree.Graph) [][]Tuple {
	doc := [][]Tuple{{}}
	for i, t := range Extract(g) {
		p := g.Tokens()[i].Token.Paragraph
		if p < 1 {
			p = 1
		}
		for len(doc) < p {
			doc = append(doc, []Tuple{})
		}
		doc[p-1] = append(doc[p-1], t)
	}
	return doc
}

// Attach stores doc on sg's terminal layer under DocKey.
func Attach(sg *semgraph.Graph, doc [][]Tuple) {
	sg.Layer0Extra[DocKey] = doc
}

// FromGraph returns the tuples stored on sg, if any. Graphs decoded from
// JSON carry them as nested []any and are converted back.
func FromGraph(sg *semgraph.Graph) ([][]Tuple, bool) {
	switch doc := sg.Layer0Extra[DocKey].(type) {
	case [][]Tuple:
		return doc, true
	case []any:
		return decode(doc)
	}
	return nil, false
}

func decode(raw []any) ([][]Tuple, bool) {
	doc := make([][]Tuple, 0, len(raw))
	for _, p := range raw {
		items, ok := p.([]any)
		if !ok {
			return nil, false
		}
		para := make([]Tuple, 0, len(items))
		for _, item := range items {
			vals, ok := item.([]any)
			if !ok || len(vals) != NumAttrs {
				return nil, false
			}
			var t Tuple
			copy(t[:], vals)
			if f, ok := t[Head].(float64); ok {
				t[Head] = int(f)
			}
			para = append(para, t)
		}
		doc = append(doc, para)
	}
	return doc, true
}
