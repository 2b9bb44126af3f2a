package deptree

import (
	"fmt"

	"github.com/starford/semconv/internal/apperr"
	"github.com/starford/semconv/internal/conllu"
	"github.com/starford/semconv/internal/relation"
)

// FromSentence builds the dependency model of s. When enhanced is set, heads
// listed in the DEPS column beyond the basic one become additional incoming
// edges. Inconsistencies (ids out of sequence, bad DEPS) are recorded and
// reported by Validate rather than here.
func FromSentence(s *conllu.Sentence, enhanced bool) *Graph {
	g := New(s.ID)
	for i, r := range s.Rows {
		n := g.AddNode(Token{
			Text:       r.Form,
			Lemma:      r.Lemma,
			Tag:        r.XPOS,
			POS:        r.UPOS,
			Feats:      r.Feats,
			Misc:       r.Misc,
			Paragraph:  s.Paragraph,
			SpaceAfter: r.SpaceAfter(),
		})
		n.Enhanced = r.Deps
		if r.ID != i+1 {
			g.defects = append(g.defects, fmt.Errorf("%w: row %d has id %d", apperr.ErrMalformed, i+1, r.ID))
		}
	}
	for i, r := range s.Rows {
		pos := i + 1
		if r.Head != conllu.NoHead {
			g.AddEdge(r.Head, pos, r.DepRel)
		}
		if !enhanced || r.Deps == "" {
			continue
		}
		deps, err := conllu.ParseDeps(r.Deps)
		if err != nil {
			g.defects = append(g.defects, fmt.Errorf("token %d: %w", pos, err))
			continue
		}
		for _, d := range deps {
			if d.Head == r.Head && relation.Normalize(d.Rel) == relation.Normalize(r.DepRel) {
				continue
			}
			g.AddEdge(d.Head, pos, d.Rel)
		}
	}
	return g
}

// Punct reports whether n is a punctuation token.
func (n *Node) Punct() bool {
	return n.Token.POS == relation.PunctTag
}
