package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/starford/semconv/internal/conllu"
	"github.com/starford/semconv/internal/convert"
	"github.com/starford/semconv/internal/models"
	"github.com/starford/semconv/internal/pipeline"
	"github.com/starford/semconv/internal/semgraph"
	"github.com/starford/semconv/internal/storage"
)

// Exporter mirrors converted graphs to an external store.
type Exporter interface {
	ExportFile(ctx context.Context, file string, graphs []*semgraph.Graph) error
	DeleteFile(ctx context.Context, file string) error
}

// Indexer converts corpus files and keeps the index in step with them.
type Indexer struct {
	db       CorpusIndex
	store    storage.Provider
	conv     *convert.Converter
	logger   *slog.Logger
	workers  int
	exporter Exporter
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) IndexerOption {
	return func(ix *Indexer) {
		ix.logger = l
	}
}

// WithWorkers bounds the number of sentences converted in parallel.
func WithWorkers(n int) IndexerOption {
	return func(ix *Indexer) {
		ix.workers = n
	}
}

// WithExporter mirrors every indexed file through e.
func WithExporter(e Exporter) IndexerOption {
	return func(ix *Indexer) {
		ix.exporter = e
	}
}

// NewIndexer returns an Indexer writing to db.
func NewIndexer(db CorpusIndex, store storage.Provider, conv *convert.Converter, opts ...IndexerOption) *Indexer {
	ix := &Indexer{db: db, store: store, conv: conv, logger: slog.Default()}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Sync walks the corpus and brings the index up to date:
//   - new/changed files are converted and stored
//   - files removed from disk are deleted from the index
func (ix *Indexer) Sync(ctx context.Context) error {
	metas, err := ix.store.List("")
	if err != nil {
		return err
	}

	checksums, err := ix.db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return err
		}
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := ix.store.Read(m.Path)
		if err != nil {
			ix.logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if f, err := ix.IndexFile(ctx, m.Path, data); err != nil {
			ix.logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			ix.logger.Debug("sync: indexed",
				slog.String("path", m.Path),
				slog.Int("sentences", f.Sentences),
				slog.Int("failed", f.Failed))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := ix.RemoveFile(ctx, p); err != nil {
				ix.logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				ix.logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexFile converts every sentence of data and replaces the file's entry.
// Sentences that fail to convert are stored as failures; only an
// unparsable file or a storage error is returned.
func (ix *Indexer) IndexFile(ctx context.Context, path string, data []byte) (models.CorpusFile, error) {
	sents, err := conllu.Parse(data)
	if err != nil {
		return models.CorpusFile{}, fmt.Errorf("index: parse %s: %w", path, err)
	}

	opts := pipeline.Options{
		Workers: ix.workers,
		Logger:  ix.logger.With(slog.String("file", path)),
		RunID:   uuid.New().String(),
	}
	built, err := pipeline.ToSemantic(ctx, sents, ix.conv, opts)
	if err != nil {
		return models.CorpusFile{}, err
	}
	graphs := pipeline.Values(built)
	rendered, err := pipeline.ToConllu(ctx, graphs, ix.conv, opts)
	if err != nil {
		return models.CorpusFile{}, err
	}

	var (
		sentences []models.Sentence
		failures  []models.Failure
	)
	next := 0
	for _, r := range built {
		if r.Err != nil {
			failures = append(failures, models.Failure{
				File: path, Ordinal: r.Index + 1, SentenceID: r.SentenceID, Error: r.Err.Error(),
			})
			continue
		}
		back := rendered[next]
		next++

		doc := r.Value.Export()
		s := models.Sentence{
			File:       path,
			Ordinal:    r.Index + 1,
			SentenceID: r.SentenceID,
			Text:       sents[r.Index].Text,
			Tokens:     len(r.Value.Terminals()),
			Units:      len(r.Value.Units()),
			Graph:      &doc,
		}
		if back.Err != nil {
			failures = append(failures, models.Failure{
				File: path, Ordinal: r.Index + 1, SentenceID: r.SentenceID, Error: back.Err.Error(),
			})
		} else {
			out, err := conllu.Format([]*conllu.Sentence{back.Value})
			if err != nil {
				return models.CorpusFile{}, fmt.Errorf("index: render %s: %w", r.SentenceID, err)
			}
			s.CoNLLU = string(out)
			if s.Text == "" {
				s.Text = back.Value.Text
			}
		}
		sentences = append(sentences, s)
	}

	f := models.CorpusFile{
		Path:      path,
		Checksum:  storage.Checksum(data),
		Sentences: len(sentences),
		Failed:    len(failures),
		RunID:     opts.RunID,
	}
	if err := ix.db.ReplaceFile(f, sentences, failures); err != nil {
		return models.CorpusFile{}, err
	}

	if ix.exporter != nil {
		if err := ix.exporter.ExportFile(ctx, path, graphs); err != nil {
			ix.logger.Warn("export failed", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	return f, nil
}

// RemoveFile drops a file from the index and the exporter.
func (ix *Indexer) RemoveFile(ctx context.Context, path string) error {
	if err := ix.db.DeleteFile(path); err != nil {
		return err
	}
	if ix.exporter != nil {
		if err := ix.exporter.DeleteFile(ctx, path); err != nil {
			ix.logger.Warn("export delete failed", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	return nil
}
