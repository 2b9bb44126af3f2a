package convert

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/semconv/internal/annotate"
	"github.com/starford/semconv/internal/apperr"
	"github.com/starford/semconv/internal/conllu"
	"github.com/starford/semconv/internal/deptree"
	"github.com/starford/semconv/internal/relation"
	"github.com/starford/semconv/internal/rewrite"
	"github.com/starford/semconv/internal/semgraph"
)

func sentence(t *testing.T, text string) *conllu.Sentence {
	t.Helper()
	sents, err := conllu.ReadAll(strings.NewReader(text))
	require.NoError(t, err)
	require.Len(t, sents, 1)
	return sents[0]
}

func heads(rows []conllu.Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.Head
	}
	return out
}

func rels(rows []conllu.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.DepRel
	}
	return out
}

func roundTrip(t *testing.T, c *Converter, text string) *conllu.Sentence {
	t.Helper()
	sg, err := c.FromSentence(sentence(t, text))
	require.NoError(t, err)
	out, err := c.ToConllu(sg)
	require.NoError(t, err)
	return out
}

const plain = "# sent_id = doc1.3\n" +
	"1\tJohn\tJohn\tPROPN\tNNP\t_\t2\tnsubj\t_\t_\n" +
	"2\tate\teat\tVERB\tVBD\t_\t0\troot\t_\t_\n" +
	"3\tred\tred\tADJ\tJJ\t_\t4\tamod\t_\t_\n" +
	"4\tapples\tapple\tNOUN\tNNS\t_\t2\tobj\t_\t_\n"

const coordination = "# sent_id = c1\n" +
	"1\tJohn\tJohn\tPROPN\tNNP\t_\t2\tnsubj\t2:nsubj|4:nsubj\t_\n" +
	"2\tate\teat\tVERB\tVBD\t_\t0\troot\t0:root\t_\n" +
	"3\tand\tand\tCCONJ\tCC\t_\t4\tcc\t4:cc\t_\n" +
	"4\tdrank\tdrink\tVERB\tVBD\t_\t2\tconj\t2:conj\t_\n"

func TestBuild_OneUnitPerEdge(t *testing.T) {
	sg, err := New().FromSentence(sentence(t, plain))
	require.NoError(t, err)

	assert.Len(t, sg.Terminals(), 4)
	assert.Len(t, sg.Units(), 5)

	ate := sg.Terminals()[1]
	scene := sg.ParentOf(ate)
	e, ok := sg.Primary(scene)
	require.True(t, ok)
	assert.Equal(t, sg.Root(), e.Parent)
	assert.Equal(t, relation.ParallelScene, e.Tag)
}

func TestBuild_FlatAndPunctuationShareAnchor(t *testing.T) {
	text := "1\tNew\tNew\tPROPN\t_\t_\t0\troot\t_\t_\n" +
		"2\tYork\tYork\tPROPN\t_\t_\t1\tflat\t_\t_\n" +
		"3\t.\t.\tPUNCT\t_\t_\t1\tpunct\t_\t_\n"
	sg, err := New().FromSentence(sentence(t, text))
	require.NoError(t, err)

	terms := sg.Terminals()
	require.Len(t, terms, 3)
	assert.Equal(t, sg.ParentOf(terms[0]), sg.ParentOf(terms[1]))
	assert.Equal(t, sg.ParentOf(terms[0]), sg.ParentOf(terms[2]))
	assert.Equal(t, semgraph.TagPunctuation, sg.Node(terms[2]).Tag)

	e, _ := sg.Primary(terms[2])
	assert.Equal(t, relation.Punctuation, e.Tag)
	e, _ = sg.Primary(terms[1])
	assert.Equal(t, relation.Terminal, e.Tag)
}

func TestBuild_AuxiliaryAddsTwoUnits(t *testing.T) {
	build := func(rel string) *semgraph.Graph {
		g := deptree.New("a1")
		g.AddNode(deptree.Token{Text: "John"})
		g.AddNode(deptree.Token{Text: "has"})
		g.AddNode(deptree.Token{Text: "eaten"})
		g.AddEdge(3, 1, "nsubj")
		g.AddEdge(3, 2, rel)
		g.AddEdge(0, 3, "root")
		sg, err := New().Build(g)
		require.NoError(t, err)
		return sg
	}

	withDet := build("det")
	withAux := build("aux")
	assert.Len(t, withAux.Units(), len(withDet.Units())+1)

	terms := withAux.Terminals()
	has, eaten := withAux.ParentOf(terms[1]), withAux.ParentOf(terms[2])
	assert.NotEqual(t, has, eaten)

	// Both new units sit side by side under the predicate's original anchor,
	// which keeps the subject.
	scene := withAux.ParentOf(withAux.ParentOf(terms[0]))
	assert.Equal(t, scene, withAux.ParentOf(has))
	assert.Equal(t, scene, withAux.ParentOf(eaten))
	assert.Equal(t, withAux.Root(), withAux.ParentOf(scene))

	e, _ := withAux.Primary(has)
	assert.Equal(t, "aux", e.Tag)
	e, _ = withAux.Primary(eaten)
	assert.Equal(t, "aux", e.Tag)
}

func TestBuild_ConversionError(t *testing.T) {
	text := "# sent_id = bad.7\n" +
		"1\ta\t_\tX\t_\t_\t0\troot\t_\t_\n" +
		"2\tb\t_\tX\t_\t_\t9\tdep\t_\t_\n"
	sg, err := New().FromSentence(sentence(t, text))

	require.Error(t, err)
	assert.Nil(t, sg)
	assert.ErrorIs(t, err, apperr.ErrConversion)
	assert.ErrorIs(t, err, apperr.ErrMalformed)

	var convErr *Error
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "bad.7", convErr.SentenceID)
	assert.True(t, strings.HasPrefix(err.Error(), `conversion failed for sentence "bad.7": `))
}

func TestBuild_AnnotationsCapturedBeforeRewrite(t *testing.T) {
	sg, err := New(WithAnnotations(true)).FromSentence(sentence(t, coordination))
	require.NoError(t, err)

	doc, ok := annotate.FromGraph(sg)
	require.True(t, ok)
	require.Len(t, doc, 1)
	require.Len(t, doc[0], 4)
	// "and" still points at "drank", one to the right.
	assert.Equal(t, annotate.Tuple{"cc", 1, "CC", "CCONJ", "and", "and"}, doc[0][2])
	assert.Equal(t, annotate.Tuple{"root", 0, "VBD", "VERB", "eat", "ate"}, doc[0][1])
}

func TestBuild_WithoutAnnotations(t *testing.T) {
	sg, err := New().FromSentence(sentence(t, plain))
	require.NoError(t, err)
	_, ok := annotate.FromGraph(sg)
	assert.False(t, ok)
}

func TestRoundTrip_PlainTreeKeepsHeads(t *testing.T) {
	out := roundTrip(t, New(), plain)

	assert.Equal(t, []int{2, 0, 4, 2}, heads(out.Rows))
	assert.Equal(t, []string{"nsubj", "root", "amod", "obj"}, rels(out.Rows))
	assert.Equal(t, "doc1.3", out.ID)
}

func TestRoundTrip_CarriesLexicalColumnsFromAnnotations(t *testing.T) {
	out := roundTrip(t, New(WithAnnotations(true)), plain)
	require.Len(t, out.Rows, 4)
	assert.Equal(t, "eat", out.Rows[1].Lemma)
	assert.Equal(t, "VERB", out.Rows[1].UPOS)
	assert.Equal(t, "VBD", out.Rows[1].XPOS)
}

func TestRoundTrip_FlatAndPunctuation(t *testing.T) {
	text := "1\tNew\tNew\tPROPN\t_\t_\t0\troot\t_\t_\n" +
		"2\tYork\tYork\tPROPN\t_\t_\t1\tflat\t_\t_\n" +
		"3\t.\t.\tPUNCT\t_\t_\t1\tpunct\t_\t_\n"
	out := roundTrip(t, New(), text)

	assert.Equal(t, []int{0, 1, 1}, heads(out.Rows))
	assert.Equal(t, []string{"root", "flat", "punct"}, rels(out.Rows))
	assert.Equal(t, "PUNCT", out.Rows[2].UPOS)
}

func TestRoundTrip_Coordination(t *testing.T) {
	var stats []rewrite.Stats
	c := New(WithObserver(func(_ rewrite.Direction, st rewrite.Stats) {
		stats = append(stats, st)
	}))
	out := roundTrip(t, c, coordination)

	assert.Equal(t, []int{2, 0, 4, 2}, heads(out.Rows))
	assert.Equal(t, []string{"nsubj", "root", "cc", "conj"}, rels(out.Rows))
	require.Len(t, stats, 2)
	assert.Equal(t, 1, stats[0].HighAttached)
	assert.Equal(t, 1, stats[1].HighAttached)
}

func TestRoundTrip_Auxiliary(t *testing.T) {
	text := "# sent_id = aux.1\n" +
		"1\tJohn\tJohn\tPROPN\tNNP\t_\t3\tnsubj\t_\t_\n" +
		"2\thas\thave\tAUX\tVBZ\t_\t3\taux\t_\t_\n" +
		"3\teaten\teat\tVERB\tVBN\t_\t0\troot\t_\t_\n" +
		"4\tapples\tapple\tNOUN\tNNS\t_\t3\tobj\t_\t_\n"
	out := roundTrip(t, New(), text)

	assert.Equal(t, []int{3, 3, 0, 3}, heads(out.Rows))
	assert.Equal(t, []string{"nsubj", "aux", "root", "obj"}, rels(out.Rows))
}

func TestRoundTrip_StackedAuxiliaries(t *testing.T) {
	text := "1\tHe\the\tPRON\t_\t_\t4\tnsubj\t_\t_\n" +
		"2\twould\twould\tAUX\t_\t_\t4\taux\t_\t_\n" +
		"3\thave\thave\tAUX\t_\t_\t4\taux\t_\t_\n" +
		"4\teaten\teat\tVERB\t_\t_\t0\troot\t_\t_\n" +
		"5\tit\tit\tPRON\t_\t_\t4\tobj\t_\t_\n"
	out := roundTrip(t, New(), text)

	assert.Equal(t, []int{4, 4, 4, 0, 4}, heads(out.Rows))
	assert.Equal(t, []string{"nsubj", "aux", "aux", "root", "obj"}, rels(out.Rows))
}

func TestToConllu_PrimaryCycleThroughRootTerminates(t *testing.T) {
	sg := semgraph.New("loop")
	x := sg.AddTerminal("x", 1, 1, false)
	a, err := sg.AddFNode(sg.Root(), relation.ParallelScene)
	require.NoError(t, err)
	b, err := sg.AddFNode(a, "A")
	require.NoError(t, err)
	require.NoError(t, sg.AddEdge(b, x, relation.Terminal))
	// The root gains b as its primary parent: root -> a -> b -> root.
	require.NoError(t, sg.AddEdge(b, sg.Root(), "A"))

	done := make(chan error, 1)
	go func() {
		_, err := New().ToConllu(sg)
		done <- err
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ToConllu did not return on a primary cycle")
	}
}

func TestRoundTrip_EnhancedHeads(t *testing.T) {
	c := New(WithEnhanced(true))
	sg, err := c.FromSentence(sentence(t, coordination))
	require.NoError(t, err)

	remote := 0
	for _, e := range sg.Edges() {
		if e.Remote {
			remote++
			assert.Equal(t, "nsubj", e.Tag)
		}
	}
	assert.Equal(t, 1, remote)

	out, err := c.ToConllu(sg)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 4, 2}, heads(out.Rows))
	assert.Equal(t, "2:nsubj|4:nsubj", out.Rows[0].Deps)
	assert.Equal(t, "0:root", out.Rows[1].Deps)
	for _, r := range out.Rows {
		assert.NotEqual(t, conllu.NoHead, r.Head)
	}
}

func TestHeaderLines(t *testing.T) {
	g := deptree.New("doc1.3")
	g.AddNode(deptree.Token{Text: "Hello", SpaceAfter: false})
	g.AddNode(deptree.Token{Text: ",", SpaceAfter: true})
	g.AddNode(deptree.Token{Text: "world", SpaceAfter: true})

	assert.Equal(t, []string{
		"# sent_id = doc1.3",
		"# text = Hello, world",
		"# doc_id = doc1",
	}, HeaderLines(g))

	g.ID = "plain"
	assert.Equal(t, []string{"# sent_id = plain", "# text = Hello, world"}, HeaderLines(g))
}

func TestGenerate_SpaceAfterNo(t *testing.T) {
	g := deptree.New("s")
	g.AddNode(deptree.Token{Text: "Hi", SpaceAfter: false, Misc: "Translit=hi"})
	g.AddNode(deptree.Token{Text: "!", SpaceAfter: true})
	g.AddEdge(0, 1, "root")
	rewrite.Preprocess(g, rewrite.ToDependency, rewrite.Options{})

	rows := Generate(g, false)
	require.Len(t, rows, 2)
	assert.Equal(t, "Translit=hi|SpaceAfter=No", rows[0].Misc)
	assert.Equal(t, 1, rows[1].Head)
	assert.Empty(t, rows[0].Deps)
}

func TestLabelEdge(t *testing.T) {
	assert.Equal(t, "H", LabelEdge(&deptree.Edge{Rel: "root"}))
	assert.Equal(t, "nsubj", LabelEdge(&deptree.Edge{Rel: "nsubj"}))
}
