package annotate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/semconv/internal/deptree"
	"github.com/starford/semconv/internal/semgraph"
)

func sentence() *deptree.Graph {
	g := deptree.New("s1")
	g.AddNode(deptree.Token{Text: "John", Lemma: "John", Tag: "NNP", POS: "PROPN", Paragraph: 1})
	g.AddNode(deptree.Token{Text: "ate", Lemma: "eat", Tag: "VBD", POS: "VERB", Paragraph: 1})
	g.AddNode(deptree.Token{Text: "apples", Lemma: "apple", Tag: "NNS", POS: "NOUN", Paragraph: 1})
	g.AddNode(deptree.Token{Text: ".", Lemma: ".", Tag: ".", POS: "PUNCT", Paragraph: 1})
	g.AddEdge(2, 1, "nsubj")
	g.AddEdge(0, 2, "root")
	g.AddEdge(2, 3, "obj")
	g.AddEdge(2, 4, "punct")
	return g
}

func TestExtract_OrderAndShape(t *testing.T) {
	got := Extract(sentence())

	require.Len(t, got, 4)
	assert.Equal(t, Tuple{"nsubj", 1, "NNP", "PROPN", "John", "John"}, got[0])
	assert.Equal(t, Tuple{"root", 0, "VBD", "VERB", "eat", "ate"}, got[1])
	assert.Equal(t, Tuple{"obj", -1, "NNS", "NOUN", "apple", "apples"}, got[2])
	assert.Equal(t, Tuple{"punct", -2, ".", "PUNCT", ".", "."}, got[3])
}

func TestGet_NoIncomingEdge(t *testing.T) {
	g := deptree.New("s")
	n := g.AddNode(deptree.Token{Text: "x"})

	assert.Nil(t, Get(g, n, Dep))
	assert.Equal(t, 0, Get(g, n, Head))
	assert.Equal(t, Unknown, Get(g, n, Attr(42)))
}

func TestGet_RootHeadOffsetIsZero(t *testing.T) {
	g := sentence()

	assert.Equal(t, 0, Get(g, g.Node(2), Head))
	assert.Equal(t, 1, Get(g, g.Node(1), Head))
	assert.Equal(t, -2, Get(g, g.Node(4), Head))
}

func TestByParagraph_FillsGaps(t *testing.T) {
	g := deptree.New("s")
	g.AddNode(deptree.Token{Text: "a", Paragraph: 1})
	g.AddNode(deptree.Token{Text: "b", Paragraph: 3})
	g.AddEdge(0, 1, "root")
	g.AddEdge(1, 2, "dep")

	doc := ByParagraph(g)
	require.Len(t, doc, 3)
	assert.Len(t, doc[0], 1)
	assert.Empty(t, doc[1])
	assert.NotNil(t, doc[1])
	require.Len(t, doc[2], 1)
	assert.Equal(t, "b", doc[2][0][Orth])
}

func TestByParagraph_EmptySentence(t *testing.T) {
	doc := ByParagraph(deptree.New("s"))
	require.Len(t, doc, 1)
	assert.Empty(t, doc[0])
}

func TestAttach(t *testing.T) {
	sg := semgraph.New("s1")
	Attach(sg, ByParagraph(sentence()))

	doc, ok := FromGraph(sg)
	require.True(t, ok)
	require.Len(t, doc, 1)
	assert.Len(t, doc[0], 4)
}

func TestFromGraph_DecodedJSON(t *testing.T) {
	sg := semgraph.New("s1")
	Attach(sg, ByParagraph(sentence()))

	raw, err := json.Marshal(sg.Export())
	require.NoError(t, err)
	var doc semgraph.Document
	require.NoError(t, json.Unmarshal(raw, &doc))
	back, err := semgraph.Import(doc)
	require.NoError(t, err)

	got, ok := FromGraph(back)
	require.True(t, ok)
	require.Len(t, got, 1)
	require.Len(t, got[0], 4)
	assert.Equal(t, Tuple{"root", 0, "VBD", "VERB", "eat", "ate"}, got[0][1])
}

func TestFromGraph_Missing(t *testing.T) {
	_, ok := FromGraph(semgraph.New("s"))
	assert.False(t, ok)
}

func TestAttrString(t *testing.T) {
	assert.Equal(t, "dep", Dep.String())
	assert.Equal(t, "orth", Orth.String())
	assert.Equal(t, "unknown", Attr(9).String())
}
