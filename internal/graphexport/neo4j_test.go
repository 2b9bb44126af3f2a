package graphexport

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/semconv/internal/semgraph"
)

type call struct {
	query  string
	params map[string]any
}

type fakeRunner struct {
	calls  []call
	failOn string
}

func (f *fakeRunner) Run(_ context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	f.calls = append(f.calls, call{query: query, params: params})
	if f.failOn != "" && strings.Contains(query, f.failOn) {
		return nil, errors.New("unavailable")
	}
	return &neo4j.EagerResult{}, nil
}

func sampleGraph(t *testing.T) *semgraph.Graph {
	t.Helper()
	g := semgraph.New("en.1")
	john := g.AddTerminal("John", 1, 1, false)
	ran := g.AddTerminal("ran", 2, 1, false)
	u1, err := g.AddFNode(g.Root(), "H")
	require.NoError(t, err)
	u2, err := g.AddFNode(u1, "A")
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(u1, ran, "Terminal"))
	require.NoError(t, g.AddEdge(u2, john, "Terminal"))
	return g
}

func TestExportFile_ReplacesThenCreates(t *testing.T) {
	r := &fakeRunner{}
	err := New(r).ExportFile(context.Background(), "en.conllu", []*semgraph.Graph{sampleGraph(t)})
	require.NoError(t, err)

	require.Len(t, r.calls, 3)
	assert.Equal(t, deleteFileCypher, r.calls[0].query)
	assert.Equal(t, "en.conllu", r.calls[0].params["file"])

	assert.Equal(t, createNodesCypher, r.calls[1].query)
	assert.Equal(t, "en.1", r.calls[1].params["id"])
	nodes := r.calls[1].params["nodes"].([]any)
	assert.Len(t, nodes, 5) // 2 terminals, root and 2 units
	first := nodes[0].(map[string]any)
	assert.Equal(t, "en.conllu#en.1#0.1", first["key"])
	assert.Equal(t, "John", first["text"])

	assert.Equal(t, createEdgesCypher, r.calls[2].query)
	edges := r.calls[2].params["edges"].([]any)
	assert.Len(t, edges, 4)
	for _, e := range edges {
		m := e.(map[string]any)
		assert.True(t, strings.HasPrefix(m["parent"].(string), "en.conllu#en.1#1."))
	}
}

func TestExportFile_NoGraphsOnlyDeletes(t *testing.T) {
	r := &fakeRunner{}
	require.NoError(t, New(r).ExportFile(context.Background(), "empty.conllu", nil))
	require.Len(t, r.calls, 1)
	assert.Equal(t, deleteFileCypher, r.calls[0].query)
}

func TestExportFile_PropagatesErrors(t *testing.T) {
	r := &fakeRunner{failOn: "UNWIND $edges"}
	err := New(r).ExportFile(context.Background(), "en.conllu", []*semgraph.Graph{sampleGraph(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "edges of en.1")
}

func TestDeleteFile_Error(t *testing.T) {
	r := &fakeRunner{failOn: "DETACH DELETE"}
	err := New(r).DeleteFile(context.Background(), "x.conllu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete x.conllu")
}
