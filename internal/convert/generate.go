package convert

import (
	"fmt"
	"strings"

	"github.com/starford/semconv/internal/annotate"
	"github.com/starford/semconv/internal/apperr"
	"github.com/starford/semconv/internal/conllu"
	"github.com/starford/semconv/internal/deptree"
	"github.com/starford/semconv/internal/relation"
	"github.com/starford/semconv/internal/semgraph"
)

const spaceAfterNo = "SpaceAfter=No"

// Hybrid derives a dependency structure from sg: one node per terminal,
// each attached to the head terminal of the unit above it. The result still
// uses semantic labels and may carry several heads per token; run
// rewrite.Preprocess toward dependencies before emitting it.
func Hybrid(sg *semgraph.Graph) (*deptree.Graph, error) {
	h := &hybrid{sg: sg, g: deptree.New(sg.ID), pos: map[semgraph.NodeID]int{}, heads: map[semgraph.NodeID]semgraph.NodeID{}}

	tuples := flatten(annotate.FromGraph(sg))
	terms := sg.Terminals()
	for i, t := range terms {
		n := sg.Node(t)
		tok := deptree.Token{Text: n.Text, Paragraph: n.Paragraph, SpaceAfter: true}
		if n.Tag == semgraph.TagPunctuation {
			tok.POS = relation.PunctTag
		}
		if len(tuples) == len(terms) {
			tok.Tag, _ = tuples[i][annotate.Tag].(string)
			tok.POS, _ = tuples[i][annotate.POS].(string)
			tok.Lemma, _ = tuples[i][annotate.Lemma].(string)
		}
		h.pos[t] = h.g.AddNode(tok).Position
	}

	h.rootUnit = h.mainUnit()
	for _, t := range terms {
		if err := h.attach(t); err != nil {
			return nil, err
		}
	}
	for _, e := range sg.Edges() {
		if e.Remote {
			h.remote(e)
		}
	}
	return h.g, nil
}

type hybrid struct {
	sg       *semgraph.Graph
	g        *deptree.Graph
	pos      map[semgraph.NodeID]int
	heads    map[semgraph.NodeID]semgraph.NodeID
	rootUnit semgraph.NodeID
}

// mainUnit is the first parallel scene under the root, or the first unit
// when there is none.
func (h *hybrid) mainUnit() semgraph.NodeID {
	first := semgraph.NoNode
	for _, e := range h.sg.Outgoing(h.sg.Root()) {
		if e.Remote || h.sg.Node(e.Child).Layer != semgraph.Layer1 {
			continue
		}
		if e.Tag == relation.ParallelScene {
			return e.Child
		}
		if first == semgraph.NoNode {
			first = e.Child
		}
	}
	return first
}

// headTerminal returns the terminal heading unit u: its first Terminal child,
// else the head of its last aux child unit, else the head of its first child
// unit, else any terminal child. The last aux child is the fresh anchor the
// auxiliary rule moved the predicate into.
func (h *hybrid) headTerminal(u semgraph.NodeID) semgraph.NodeID {
	if t, ok := h.heads[u]; ok {
		return t
	}
	h.heads[u] = semgraph.NoNode // guards against cycles through malformed input
	head := semgraph.NoNode
	fallback := semgraph.NoNode
	var units []semgraph.Edge
	for _, e := range h.sg.Outgoing(u) {
		if e.Remote {
			continue
		}
		if h.sg.Node(e.Child).Layer == semgraph.Layer1 {
			units = append(units, e)
			continue
		}
		if e.Tag == relation.Terminal {
			head = e.Child
			break
		}
		if fallback == semgraph.NoNode {
			fallback = e.Child
		}
	}
	if head == semgraph.NoNode {
		for i := len(units) - 1; i >= 0; i-- {
			if units[i].Tag == relation.Aux {
				head = h.headTerminal(units[i].Child)
				break
			}
		}
	}
	if head == semgraph.NoNode {
		for _, e := range units {
			if t := h.headTerminal(e.Child); t != semgraph.NoNode {
				head = t
				break
			}
		}
	}
	if head == semgraph.NoNode {
		head = fallback
	}
	h.heads[u] = head
	return head
}

func (h *hybrid) attach(t semgraph.NodeID) error {
	e, ok := h.sg.Primary(t)
	if !ok {
		// Unattached terminals are left for the rewrite to hang off the root.
		return nil
	}
	dep := h.pos[t]
	if ht := h.headTerminal(e.Parent); ht != t {
		if ht == semgraph.NoNode {
			return fmt.Errorf("%w: unit %s has no head terminal", apperr.ErrMalformed, h.sg.Name(e.Parent))
		}
		h.g.AddEdge(h.pos[ht], dep, e.Tag)
		return nil
	}

	// t heads its unit: climb until a unit is headed by another terminal.
	seen := map[semgraph.NodeID]bool{}
	for u := e.Parent; ; {
		if seen[u] {
			return fmt.Errorf("%w: unit cycle through %s", apperr.ErrMalformed, h.sg.Name(u))
		}
		seen[u] = true
		ue, ok := h.sg.Primary(u)
		if !ok {
			h.g.AddEdge(deptree.RootPosition, dep, relation.Root)
			return nil
		}
		if ue.Parent == h.sg.Root() {
			h.attachTopLevel(u, ue.Tag, dep)
			return nil
		}
		ph := h.headTerminal(ue.Parent)
		if ph == t {
			u = ue.Parent
			continue
		}
		if ph == semgraph.NoNode {
			return fmt.Errorf("%w: unit %s has no head terminal", apperr.ErrMalformed, h.sg.Name(ue.Parent))
		}
		h.g.AddEdge(h.pos[ph], dep, ue.Tag)
		return nil
	}
}

func (h *hybrid) attachTopLevel(u semgraph.NodeID, tag string, dep int) {
	main := semgraph.NoNode
	if h.rootUnit != semgraph.NoNode {
		main = h.headTerminal(h.rootUnit)
	}
	if u == h.rootUnit || main == semgraph.NoNode || h.pos[main] == dep {
		h.g.AddEdge(deptree.RootPosition, dep, relation.Root)
		return
	}
	if tag == relation.ParallelScene {
		tag = relation.Parataxis
	}
	h.g.AddEdge(h.pos[main], dep, tag)
}

func (h *hybrid) remote(e semgraph.Edge) {
	parent := h.headTerminal(e.Parent)
	child := e.Child
	if h.sg.Node(child).Layer == semgraph.Layer1 {
		child = h.headTerminal(child)
	}
	if parent == semgraph.NoNode || child == semgraph.NoNode || parent == child {
		return
	}
	h.g.AddEdge(h.pos[parent], h.pos[child], e.Tag).Remote = true
}

func flatten(doc [][]annotate.Tuple, ok bool) []annotate.Tuple {
	if !ok {
		return nil
	}
	var out []annotate.Tuple
	for _, p := range doc {
		out = append(out, p...)
	}
	return out
}

// Generate emits one row per token of g, which must already be rewritten
// toward dependencies. The DEPS column is filled when enhanced is set.
func Generate(g *deptree.Graph, enhanced bool) []conllu.Row {
	rows := make([]conllu.Row, 0, len(g.Tokens()))
	for _, n := range g.Tokens() {
		r := conllu.Row{
			ID:    n.Position,
			Form:  n.Token.Text,
			Lemma: n.Token.Lemma,
			UPOS:  n.Token.POS,
			XPOS:  n.Token.Tag,
			Feats: n.Token.Feats,
			Head:  conllu.NoHead,
			Misc:  n.Token.Misc,
		}
		if len(n.Incoming) > 0 {
			r.Head = n.Incoming[0].HeadIndex()
			r.DepRel = n.Incoming[0].Rel
		}
		if enhanced {
			r.Deps = n.Enhanced
		}
		if !n.Token.SpaceAfter && r.SpaceAfter() {
			if r.Misc == "" {
				r.Misc = spaceAfterNo
			} else {
				r.Misc += "|" + spaceAfterNo
			}
		}
		rows = append(rows, r)
	}
	return rows
}

// Text reconstructs the sentence text, joining tokens with a space unless
// the token has SpaceAfter=No.
func Text(g *deptree.Graph) string {
	var b strings.Builder
	for _, n := range g.Tokens() {
		b.WriteString(n.Token.Text)
		if n.Token.SpaceAfter {
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

// HeaderLines returns the comment lines written before a sentence's rows.
// A document id is derived from sentence ids of the form "<doc>.<n>".
func HeaderLines(g *deptree.Graph) []string {
	var lines []string
	if g.ID != "" {
		lines = append(lines, "# sent_id = "+g.ID)
	}
	lines = append(lines, "# text = "+Text(g))
	if i := strings.LastIndex(g.ID, "."); i >= 0 {
		lines = append(lines, "# doc_id = "+g.ID[:i])
	}
	return lines
}
