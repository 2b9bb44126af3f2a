// Package testutil provides shared test helpers for setting up corpora,
// databases and the service stack.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/semconv/internal/convert"
	"github.com/starford/semconv/internal/corpusservice"
	"github.com/starford/semconv/internal/index"
	"github.com/starford/semconv/internal/storage"
)

// SampleCoNLLU holds two well-formed sentences.
const SampleCoNLLU = `# sent_id = en.1
# text = John and Mary ran
1	John	John	PROPN	_	_	4	nsubj	_	_
2	and	and	CCONJ	_	_	3	cc	_	_
3	Mary	Mary	PROPN	_	_	1	conj	_	_
4	ran	run	VERB	_	_	0	root	_	_

# sent_id = en.2
# text = Dogs bark
1	Dogs	dog	NOUN	_	_	2	nsubj	_	_
2	bark	bark	VERB	_	_	0	root	_	_

`

// BrokenCoNLLU parses but its second sentence points at a missing head.
const BrokenCoNLLU = `# sent_id = bad.1
1	Cats	cat	NOUN	_	_	2	nsubj	_	_
2	purr	purr	VERB	_	_	0	root	_	_

# sent_id = bad.2
1	Birds	bird	NOUN	_	_	5	nsubj	_	_
2	sing	sing	VERB	_	_	0	root	_	_

`

// Quiet returns a logger that discards everything.
func Quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "semconv-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestCorpus creates a temporary corpus directory with a storage.Provider.
func TestCorpus(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// Stack is a fully wired service over a temporary corpus.
type Stack struct {
	Root    string
	Store   *storage.FS
	DB      *index.DB
	Indexer *index.Indexer
	Service *corpusservice.Service
}

// TestStack wires storage, index, indexer and service together.
func TestStack(t *testing.T) *Stack {
	t.Helper()
	root, store := TestCorpus(t)
	db := TestDB(t)
	conv := convert.New(convert.WithAnnotations(true))
	ix := index.NewIndexer(db, store, conv, index.WithLogger(Quiet()), index.WithWorkers(2))
	return &Stack{
		Root:    root,
		Store:   store,
		DB:      db,
		Indexer: ix,
		Service: corpusservice.NewService(store, db, ix, conv, 2, Quiet()),
	}
}
