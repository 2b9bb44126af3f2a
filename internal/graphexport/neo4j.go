// Package graphexport mirrors converted semantic graphs into Neo4j so they
// can be queried with Cypher alongside the SQLite index.
package graphexport

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/starford/semconv/internal/semgraph"
)

// Runner executes one Cypher query with parameters.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error)
}

// Executor is a Runner backed by the official driver.
type Executor struct {
	Driver neo4j.DriverWithContext
	DBName string
}

// NewExecutor creates a driver for uri with basic auth.
func NewExecutor(uri, username, password, dbName string) (*Executor, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("graphexport: create driver: %w", err)
	}
	return &Executor{Driver: driver, DBName: dbName}, nil
}

// Verify checks connectivity.
func (e *Executor) Verify(ctx context.Context) error {
	return e.Driver.VerifyConnectivity(ctx)
}

// Run executes query and buffers the whole result.
func (e *Executor) Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, e.Driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(e.DBName),
	)
	if err != nil {
		return nil, fmt.Errorf("graphexport: query: %w", err)
	}
	return result, nil
}

// Close releases the driver.
func (e *Executor) Close(ctx context.Context) error {
	return e.Driver.Close(ctx)
}

const (
	deleteFileCypher = `
MATCH (s:Sentence {file: $file})
OPTIONAL MATCH (s)-[:HAS_NODE]->(n:SemNode)
DETACH DELETE s, n`

	createNodesCypher = `
CREATE (s:Sentence {file: $file, id: $id})
WITH s
UNWIND $nodes AS n
CREATE (s)-[:HAS_NODE]->(:SemNode {key: n.key, name: n.name, layer: n.layer, text: n.text, position: n.position, punct: n.punct})`

	createEdgesCypher = `
UNWIND $edges AS e
MATCH (p:SemNode {key: e.parent}), (c:SemNode {key: e.child})
CREATE (p)-[:EDGE {tag: e.tag, remote: e.remote}]->(c)`
)

// Exporter writes graphs through a Runner. Each file is replaced as a
// whole: its previous sentences are detached and deleted first.
type Exporter struct {
	runner Runner
}

// New returns an Exporter using r.
func New(r Runner) *Exporter {
	return &Exporter{runner: r}
}

// ExportFile replaces the graphs stored for file.
func (x *Exporter) ExportFile(ctx context.Context, file string, graphs []*semgraph.Graph) error {
	if err := x.DeleteFile(ctx, file); err != nil {
		return err
	}
	for _, g := range graphs {
		if err := x.exportGraph(ctx, file, g.Export()); err != nil {
			return err
		}
	}
	return nil
}

// DeleteFile removes every sentence stored for file.
func (x *Exporter) DeleteFile(ctx context.Context, file string) error {
	if _, err := x.runner.Run(ctx, deleteFileCypher, map[string]any{"file": file}); err != nil {
		return fmt.Errorf("graphexport: delete %s: %w", file, err)
	}
	return nil
}

func (x *Exporter) exportGraph(ctx context.Context, file string, doc semgraph.Document) error {
	key := func(name string) string {
		return file + "#" + doc.ID + "#" + name
	}

	nodes := make([]any, 0, len(doc.Terminals)+len(doc.Units))
	for _, t := range doc.Terminals {
		nodes = append(nodes, map[string]any{
			"key": key(t.ID), "name": t.ID, "layer": semgraph.Layer0,
			"text": t.Text, "position": t.Position, "punct": t.Punct,
		})
	}
	for _, u := range doc.Units {
		nodes = append(nodes, map[string]any{
			"key": key(u), "name": u, "layer": semgraph.Layer1,
			"text": "", "position": 0, "punct": false,
		})
	}
	if _, err := x.runner.Run(ctx, createNodesCypher, map[string]any{
		"file": file, "id": doc.ID, "nodes": nodes,
	}); err != nil {
		return fmt.Errorf("graphexport: nodes of %s: %w", doc.ID, err)
	}

	if len(doc.Edges) == 0 {
		return nil
	}
	edges := make([]any, 0, len(doc.Edges))
	for _, e := range doc.Edges {
		edges = append(edges, map[string]any{
			"parent": key(e.Parent), "child": key(e.Child), "tag": e.Tag, "remote": e.Remote,
		})
	}
	if _, err := x.runner.Run(ctx, createEdgesCypher, map[string]any{"edges": edges}); err != nil {
		return fmt.Errorf("graphexport: edges of %s: %w", doc.ID, err)
	}
	return nil
}
