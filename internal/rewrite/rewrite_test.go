package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/semconv/internal/deptree"
)

type arc struct {
	head int
	rel  string
}

// tree builds a sentence whose token i+1 has the incoming edges arcs[i].
func tree(t *testing.T, arcs ...[]arc) *deptree.Graph {
	t.Helper()
	g := deptree.New("s1")
	for range arcs {
		g.AddNode(deptree.Token{Text: "w"})
	}
	for i, in := range arcs {
		for _, a := range in {
			g.AddEdge(a.head, i+1, a.rel)
		}
	}
	require.NoError(t, g.Validate())
	return g
}

func one(head int, rel string) []arc { return []arc{{head, rel}} }

func primary(g *deptree.Graph, pos int) *deptree.Edge {
	return g.Node(pos).Incoming[0]
}

func TestRelabel_ToSemantic(t *testing.T) {
	g := tree(t,
		one(0, "root"),
		one(1, "flat:name"),
		one(1, "punct"),
		one(1, "nsubj:pass"),
	)
	Preprocess(g, ToSemantic, Options{})

	assert.Equal(t, "root", primary(g, 1).Rel)
	assert.Equal(t, "Terminal", primary(g, 2).Rel)
	assert.Equal(t, "U", primary(g, 3).Rel)
	assert.Equal(t, "nsubj", primary(g, 4).Rel)
}

func TestRelabel_ToDependency(t *testing.T) {
	g := tree(t, one(0, "root"), one(1, "Terminal"), one(1, "U"))
	Preprocess(g, ToDependency, Options{})
	assert.Equal(t, "flat", primary(g, 2).Rel)
	assert.Equal(t, "punct", primary(g, 3).Rel)

	g = tree(t, one(0, "root"), one(1, "Terminal"), one(1, "U"))
	Preprocess(g, ToDependency, Options{SemanticLabels: true})
	assert.Equal(t, "Terminal", primary(g, 2).Rel)
	assert.Equal(t, "U", primary(g, 3).Rel)
}

func TestHighAttach_CoordinatorToSemantic(t *testing.T) {
	// John ate and drank
	g := tree(t,
		one(2, "nsubj"),
		one(0, "root"),
		one(4, "cc"),
		one(2, "conj"),
	)
	st := Preprocess(g, ToSemantic, Options{})

	assert.Equal(t, 1, st.HighAttached)
	assert.Equal(t, 2, primary(g, 3).Head)
}

func TestHighAttach_CoordinatorToDependency(t *testing.T) {
	g := tree(t,
		one(2, "nsubj"),
		one(0, "root"),
		one(2, "cc"),
		one(2, "conj"),
	)
	st := Preprocess(g, ToDependency, Options{})

	assert.Equal(t, 1, st.HighAttached)
	assert.Equal(t, 4, primary(g, 3).Head)
	assert.Equal(t, "cc", primary(g, 3).Rel)
}

func TestHighAttach_MarkerToSemantic(t *testing.T) {
	// said if rains
	g := tree(t, one(0, "root"), one(3, "mark"), one(1, "advcl"))
	Preprocess(g, ToSemantic, Options{})
	assert.Equal(t, 1, primary(g, 2).Head)
}

func TestHighAttach_PrefersNearestFollowingCandidate(t *testing.T) {
	// The coordinator at 5 hangs off 2, whose conjuncts are at 3 and 8.
	// Counting rightwards from 5 with wraparound, 8 comes before 3.
	g := tree(t,
		one(0, "root"),
		one(1, "obj"),
		one(2, "conj"),
		one(2, "dep"),
		one(2, "cc"),
		one(2, "dep"),
		one(2, "dep"),
		one(2, "conj"),
		one(2, "dep"),
	)
	Preprocess(g, ToDependency, Options{})
	assert.Equal(t, 8, primary(g, 5).Head)
}

func TestHighAttach_SkipsWhenTargetAlreadyHasRelation(t *testing.T) {
	g := tree(t,
		one(0, "root"),
		one(1, "cc"),
		one(4, "cc"),
		one(1, "conj"),
	)
	Preprocess(g, ToSemantic, Options{})
	assert.Equal(t, 4, primary(g, 3).Head)
}

func TestHighAttach_NoConjunctLeavesCoordinator(t *testing.T) {
	g := tree(t, one(0, "root"), one(1, "cc"))
	st := Preprocess(g, ToSemantic, Options{})
	assert.Zero(t, st.HighAttached)
	assert.Equal(t, 1, primary(g, 2).Head)
}

func TestHighAttach_SkipsRootHead(t *testing.T) {
	g := tree(t, one(0, "cc"), one(1, "conj"))
	st := Preprocess(g, ToSemantic, Options{})
	assert.Zero(t, st.HighAttached)
	assert.Equal(t, 0, primary(g, 1).Head)
}

func TestPunctuation_FollowsNextConjunct(t *testing.T) {
	// X A , B : the comma moves from A to B.
	g := tree(t,
		one(0, "root"),
		one(1, "conj"),
		one(2, "U"),
		one(2, "conj"),
	)
	st := Preprocess(g, ToDependency, Options{})

	assert.Equal(t, 1, st.Reparented)
	assert.Equal(t, 4, primary(g, 3).Head)
	assert.Equal(t, "punct", primary(g, 3).Rel)
}

func TestPunctuation_BlockedByInterveningCoordinator(t *testing.T) {
	// X A , and B : "and" sits between the comma and B.
	g := tree(t,
		one(0, "root"),
		one(1, "conj"),
		one(2, "punct"),
		one(5, "cc"),
		one(2, "conj"),
	)
	Preprocess(g, ToDependency, Options{SemanticLabels: true})
	assert.Equal(t, 2, primary(g, 3).Head)
}

func TestPunctuation_Apposition(t *testing.T) {
	// Y N , M : the comma hangs off the verb but sits inside N's apposition.
	g := tree(t,
		one(0, "root"),
		one(1, "nsubj"),
		one(1, "punct"),
		one(2, "appos"),
	)
	st := Preprocess(g, ToDependency, Options{})
	assert.Equal(t, 1, st.Reparented)
	assert.Equal(t, 2, primary(g, 3).Head)
}

func TestPunctuation_NotTouchedToSemantic(t *testing.T) {
	g := tree(t, one(0, "root"), one(1, "conj"), one(2, "punct"), one(2, "conj"))
	Preprocess(g, ToSemantic, Options{})
	assert.Equal(t, 2, primary(g, 3).Head)
}

func TestReduce_SingleHeadAndEnhanced(t *testing.T) {
	g := tree(t,
		one(0, "root"),
		[]arc{{3, "nsubj"}, {1, "nsubj"}},
		one(1, "conj"),
	)
	Preprocess(g, ToDependency, Options{})

	john := g.Node(2)
	require.Len(t, john.Incoming, 1)
	assert.Equal(t, 3, john.Incoming[0].Head)
	assert.False(t, john.Incoming[0].Remote)
	assert.Equal(t, "3:nsubj|1:nsubj", john.Enhanced)
	for _, n := range g.Tokens() {
		assert.Len(t, n.Incoming, 1)
	}
}

func TestReduce_PriorityChoosesPrimary(t *testing.T) {
	g := tree(t,
		one(0, "root"),
		one(1, "dep"),
		[]arc{{1, "dep"}, {2, "conj"}},
	)
	g.Node(3).Incoming[1].Remote = false
	Preprocess(g, ToDependency, Options{})

	assert.Equal(t, 2, primary(g, 3).Head)
	assert.Equal(t, "conj", primary(g, 3).Rel)
	assert.Equal(t, "2:conj|1:dep", g.Node(3).Enhanced)
}

func TestReduce_ToSemanticKeepsExtraHeadsAsRemote(t *testing.T) {
	g := tree(t,
		one(0, "root"),
		[]arc{{1, "nsubj"}, {3, "nsubj"}},
		one(1, "conj"),
	)
	Preprocess(g, ToSemantic, Options{})

	john := g.Node(2)
	require.Len(t, john.Incoming, 2)
	assert.False(t, john.Incoming[0].Remote)
	assert.True(t, john.Incoming[1].Remote)
	assert.Empty(t, john.Enhanced)
}

func TestReduce_BreaksCycles(t *testing.T) {
	g := tree(t, one(0, "root"), one(3, "dep"), one(2, "dep"))
	st := Preprocess(g, ToSemantic, Options{})

	assert.Equal(t, 1, st.CyclesBroken)
	assert.Equal(t, 1, primary(g, 2).Head)
	assert.Equal(t, 2, primary(g, 3).Head)
}

func TestReduce_AttachesOrphans(t *testing.T) {
	g := tree(t, one(0, "root"), nil)
	st := Preprocess(g, ToSemantic, Options{})

	assert.Equal(t, 1, st.Orphans)
	assert.Equal(t, 1, primary(g, 2).Head)
	assert.Equal(t, "dep", primary(g, 2).Rel)

	g = tree(t, nil)
	Preprocess(g, ToDependency, Options{})
	assert.Equal(t, 0, primary(g, 1).Head)
	assert.Equal(t, "root", primary(g, 1).Rel)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "semantic", ToSemantic.String())
	assert.Equal(t, "dependency", ToDependency.String())
}
