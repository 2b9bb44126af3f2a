package index

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/starford/semconv/internal/models"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	ix, store, db := testIndexer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go ix.Watch(ctx, store.Root(), func(kind string, f models.CorpusFile) {
		mu.Lock()
		events = append(events, kind+":"+f.Path+":"+strconv.Itoa(f.Sentences))
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(store.Root(), "new.conllu"), []byte(twoSentences), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := db.GetSentence("en.2")
		return err == nil
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == EventCreated+":new.conllu:2" || e == EventUpdated+":new.conllu:2" {
				return true
			}
		}
		return false
	}, "expected callback for new.conllu")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	ix, store, db := testIndexer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ix.Watch(ctx, store.Root(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(store.Root(), "readme.md"), []byte(twoSentences), 0o644)
	_ = os.WriteFile(filepath.Join(store.Root(), "marker.conllu"), []byte(oneBroken), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("marker.conllu")
		return cs != ""
	}, "marker file not indexed")

	if cs, _ := db.GetChecksum("readme.md"); cs != "" {
		t.Error("non-corpus file was indexed")
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	ix, store, db := testIndexer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ix.Watch(ctx, store.Root(), nil)
	time.Sleep(100 * time.Millisecond)

	subDir := filepath.Join(store.Root(), "ud")
	_ = os.MkdirAll(subDir, 0o755)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(subDir, "deep.conllu"), []byte(twoSentences), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("ud/deep.conllu")
		return cs != ""
	}, "file in new subdir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	ix, store, db := testIndexer(t)

	_ = store.Write("del.conllu", []byte(twoSentences))
	if err := ix.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if cs, _ := db.GetChecksum("del.conllu"); cs == "" {
		t.Fatal("precondition: file should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ix.Watch(ctx, store.Root(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(store.Root(), "del.conllu"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("del.conllu")
		return cs == ""
	}, "deleted file still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	ix, store, db := testIndexer(t)

	_ = store.Write("old.conllu", []byte(twoSentences))
	if err := ix.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ix.Watch(ctx, store.Root(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(filepath.Join(store.Root(), "old.conllu"), filepath.Join(store.Root(), "renamed.conllu"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.GetChecksum("old.conllu")
		newCS, _ := db.GetChecksum("renamed.conllu")
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old path should be removed and new path indexed")
}
