package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/semconv/internal/models"
	"github.com/starford/semconv/internal/storage"
)

// Event kinds passed to EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

const reconcileDelay = 200 * time.Millisecond

// EventCallback is called after a watcher-driven index change. For
// deletions only f.Path is set.
type EventCallback func(kind string, f models.CorpusFile)

// Watch follows the corpus directory and reconverts .conllu files as they
// change until ctx is cancelled. cb, if non-nil, runs after each index
// mutation.
//
// Directories created at runtime join the watch list. Renames trigger a
// debounced reconciliation that drops entries whose files are gone.
func (ix *Indexer) Watch(ctx context.Context, root string, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	ix.logger.Info("watcher: started", slog.String("root", root))

	var (
		reconcileTimer *time.Timer
		reconcileCh    <-chan time.Time
	)
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	notify := func(kind string, f models.CorpusFile) {
		if cb != nil {
			cb(kind, f)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			ix.logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			ix.reconcile(ctx, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, abs); addErr != nil {
						ix.logger.Warn("watcher: add new dir failed",
							slog.String("path", abs),
							slog.String("error", addErr.Error()))
					}
					ix.indexDir(ctx, root, abs, notify)
					continue
				}
			}

			rel, relErr := filepath.Rel(root, abs)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if !storage.IsCorpusFile(rel) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := ix.store.Read(rel)
				if readErr != nil {
					ix.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				f, idxErr := ix.IndexFile(ctx, rel, data)
				if idxErr != nil {
					ix.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
					continue
				}
				kind := EventUpdated
				if ev.Op&fsnotify.Create != 0 {
					kind = EventCreated
				}
				ix.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
				notify(kind, f)

			case ev.Op&fsnotify.Remove != 0:
				if delErr := ix.RemoveFile(ctx, rel); delErr != nil {
					ix.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				notify(EventDeleted, models.CorpusFile{Path: rel})

			case ev.Op&fsnotify.Rename != 0:
				// Rename fires on the old path only; the new path arrives
				// as a Create if it stays inside a watched directory.
				if delErr := ix.RemoveFile(ctx, rel); delErr != nil {
					ix.logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					notify(EventDeleted, models.CorpusFile{Path: rel})
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			ix.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile removes entries whose files are gone and indexes files the
// index has not seen at their current checksum.
func (ix *Indexer) reconcile(ctx context.Context, notify EventCallback) {
	checksums, err := ix.db.AllChecksums()
	if err != nil {
		ix.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := ix.store.List("")
	if err != nil {
		ix.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := ix.RemoveFile(ctx, p); err == nil {
			notify(EventDeleted, models.CorpusFile{Path: p})
		}
	}

	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		data, err := ix.store.Read(p)
		if err != nil {
			continue
		}
		if f, err := ix.IndexFile(ctx, p, data); err == nil {
			notify(EventCreated, f)
		}
	}
}

// indexDir indexes the corpus files already present in a new directory.
func (ix *Indexer) indexDir(ctx context.Context, root, dir string, notify EventCallback) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !storage.IsCorpusFile(rel) {
			return nil
		}
		data, readErr := ix.store.Read(rel)
		if readErr != nil {
			return nil
		}
		if f, idxErr := ix.IndexFile(ctx, rel, data); idxErr == nil {
			notify(EventCreated, f)
		}
		return nil
	})
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
