// Package corpusservice coordinates conversion, corpus storage and the
// index for the HTTP and MCP front ends.
package corpusservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/starford/semconv/internal/apperr"
	"github.com/starford/semconv/internal/conllu"
	"github.com/starford/semconv/internal/convert"
	"github.com/starford/semconv/internal/index"
	"github.com/starford/semconv/internal/models"
	"github.com/starford/semconv/internal/pipeline"
	"github.com/starford/semconv/internal/semgraph"
	"github.com/starford/semconv/internal/storage"
)

// FileDetail is the raw content of one corpus file.
type FileDetail struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Checksum string `json:"checksum"`
}

// ConvertedGraph is one sentence converted to a semantic graph.
type ConvertedGraph struct {
	Index      int                `json:"index"`
	SentenceID string             `json:"sentence_id"`
	Graph      *semgraph.Document `json:"graph,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// SemanticResult is the outcome of converting a CoNLL-U document.
type SemanticResult struct {
	RunID  string           `json:"run_id"`
	Graphs []ConvertedGraph `json:"graphs"`
	Failed int              `json:"failed"`
}

// ConvertedSentence is one graph converted back to CoNLL-U.
type ConvertedSentence struct {
	Index      int    `json:"index"`
	SentenceID string `json:"sentence_id"`
	CoNLLU     string `json:"conllu,omitempty"`
	Error      string `json:"error,omitempty"`
}

// DependencyResult is the outcome of converting graphs to CoNLL-U.
// CoNLLU joins every successful sentence into one document.
type DependencyResult struct {
	RunID     string              `json:"run_id"`
	Sentences []ConvertedSentence `json:"sentences"`
	CoNLLU    string              `json:"conllu"`
	Failed    int                 `json:"failed"`
}

// Service coordinates storage, conversion and index operations.
type Service struct {
	store   storage.Provider
	db      index.CorpusIndex
	ix      *index.Indexer
	conv    *convert.Converter
	workers int
	logger  *slog.Logger
}

// NewService creates a new corpus service.
func NewService(store storage.Provider, db index.CorpusIndex, ix *index.Indexer, conv *convert.Converter, workers int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, db: db, ix: ix, conv: conv, workers: workers, logger: logger}
}

func (s *Service) opts() pipeline.Options {
	return pipeline.Options{Workers: s.workers, Logger: s.logger}
}

// ConvertToSemantic parses a CoNLL-U document and builds a graph for each
// sentence. Unparsable input returns apperr.ErrMalformed; sentences that
// fail to convert are reported per item.
func (s *Service) ConvertToSemantic(ctx context.Context, data []byte) (*SemanticResult, error) {
	sents, err := conllu.Parse(data)
	if err != nil {
		return nil, err
	}
	if len(sents) == 0 {
		return nil, fmt.Errorf("%w: no sentences", apperr.ErrMalformed)
	}

	opts := s.opts()
	opts.RunID = uuid.New().String()
	results, err := pipeline.ToSemantic(ctx, sents, s.conv, opts)
	if err != nil {
		return nil, err
	}

	out := &SemanticResult{RunID: opts.RunID, Graphs: make([]ConvertedGraph, len(results))}
	for i, r := range results {
		item := ConvertedGraph{Index: r.Index, SentenceID: r.SentenceID}
		if r.Err != nil {
			item.Error = r.Err.Error()
			out.Failed++
		} else {
			doc := r.Value.Export()
			item.Graph = &doc
		}
		out.Graphs[i] = item
	}
	return out, nil
}

// ConvertToDependency converts graph documents to CoNLL-U. A document that
// cannot be imported is reported as a failed item like any other.
func (s *Service) ConvertToDependency(ctx context.Context, docs []semgraph.Document) (*DependencyResult, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no graphs", apperr.ErrMalformed)
	}

	out := &DependencyResult{Sentences: make([]ConvertedSentence, len(docs))}
	var (
		graphs []*semgraph.Graph
		slots  []int
	)
	for i, doc := range docs {
		out.Sentences[i] = ConvertedSentence{Index: i, SentenceID: doc.ID}
		g, err := semgraph.Import(doc)
		if err != nil {
			out.Sentences[i].Error = fmt.Errorf("%w: %v", apperr.ErrMalformed, err).Error()
			out.Failed++
			continue
		}
		graphs = append(graphs, g)
		slots = append(slots, i)
	}

	opts := s.opts()
	opts.RunID = uuid.New().String()
	out.RunID = opts.RunID
	results, err := pipeline.ToConllu(ctx, graphs, s.conv, opts)
	if err != nil {
		return nil, err
	}

	var ok []*conllu.Sentence
	for j, r := range results {
		item := &out.Sentences[slots[j]]
		if r.Err != nil {
			item.Error = r.Err.Error()
			out.Failed++
			continue
		}
		text, err := conllu.Format([]*conllu.Sentence{r.Value})
		if err != nil {
			return nil, err
		}
		item.CoNLLU = string(text)
		ok = append(ok, r.Value)
	}
	doc, err := conllu.Format(ok)
	if err != nil {
		return nil, err
	}
	out.CoNLLU = string(doc)
	return out, nil
}

// GetFile reads a corpus file.
func (s *Service) GetFile(_ context.Context, path string) (*FileDetail, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	return &FileDetail{Path: path, Content: string(data), Checksum: storage.Checksum(data)}, nil
}

// CreateFile writes a new corpus file and indexes it.
func (s *Service) CreateFile(ctx context.Context, path string, content []byte) (*models.CorpusFile, error) {
	if err := checkCorpusPath(path); err != nil {
		return nil, err
	}
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if _, err := conllu.Parse(content); err != nil {
		return nil, err
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	f, err := s.ix.IndexFile(ctx, path, content)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateFile replaces a corpus file. A non-empty ifMatch must equal the
// checksum of the current content.
func (s *Service) UpdateFile(ctx context.Context, path string, content []byte, ifMatch string) (*models.CorpusFile, error) {
	existing, err := s.read(path)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != storage.Checksum(existing) {
		return nil, apperr.ErrConflict
	}
	if _, err := conllu.Parse(content); err != nil {
		return nil, err
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	f, err := s.ix.IndexFile(ctx, path, content)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// DeleteFile removes a corpus file from storage and index.
func (s *Service) DeleteFile(ctx context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	return s.ix.RemoveFile(ctx, path)
}

// MoveFile renames a corpus file and reindexes it under the new path.
func (s *Service) MoveFile(ctx context.Context, from, to string) (*models.CorpusFile, error) {
	if err := checkCorpusPath(to); err != nil {
		return nil, err
	}
	if _, err := s.read(from); err != nil {
		return nil, err
	}
	if _, err := s.store.Read(to); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Move(from, to); err != nil {
		return nil, err
	}
	if err := s.ix.RemoveFile(ctx, from); err != nil {
		return nil, err
	}
	data, err := s.store.Read(to)
	if err != nil {
		return nil, err
	}
	f, err := s.ix.IndexFile(ctx, to, data)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFiles returns every indexed file.
func (s *Service) ListFiles(_ context.Context) ([]models.CorpusFile, error) {
	files, err := s.db.ListFiles()
	return nonNilSlice(files), err
}

// ListSentences returns a page of sentence summaries.
func (s *Service) ListSentences(_ context.Context, file string, limit, offset int) ([]models.Sentence, int, error) {
	items, total, err := s.db.ListSentences(file, limit, offset)
	return nonNilSlice(items), total, err
}

// GetSentence returns one converted sentence.
func (s *Service) GetSentence(_ context.Context, sentenceID string) (*models.Sentence, error) {
	return s.db.GetSentence(sentenceID)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]models.SearchHit, error) {
	hits, err := s.db.Search(query, limit)
	return nonNilSlice(hits), err
}

// Failures returns recorded conversion failures.
func (s *Service) Failures(_ context.Context, file string, limit int) ([]models.Failure, error) {
	fails, err := s.db.Failures(file, limit)
	return nonNilSlice(fails), err
}

func (s *Service) read(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func checkCorpusPath(path string) error {
	if !storage.IsCorpusFile(path) {
		return fmt.Errorf("%w: %q is not a %s file", apperr.ErrMalformed, path, storage.Extension)
	}
	return nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
