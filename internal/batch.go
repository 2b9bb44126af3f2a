package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/starford/semconv/internal/apperr"
	"github.com/starford/semconv/internal/conllu"
	"github.com/starford/semconv/internal/convert"
	"github.com/starford/semconv/internal/pipeline"
	"github.com/starford/semconv/internal/semgraph"
)

// Conversion targets accepted by ConvertStream.
const (
	TargetSemantic   = "semantic"
	TargetDependency = "dependency"
)

// ConvertRequest describes one offline conversion.
type ConvertRequest struct {
	// To is TargetSemantic (CoNLL-U in, JSON graphs out) or
	// TargetDependency (JSON graphs in, CoNLL-U out).
	To      string
	In      io.Reader
	Out     io.Writer
	Workers int
}

// ConvertSummary counts the sentences of a finished conversion.
type ConvertSummary struct {
	RunID     string
	Sentences int
	Failed    int
}

// ConvertStream converts a whole document from req.In to req.Out. Sentences
// that fail are logged and left out of the output.
func ConvertStream(ctx context.Context, conv *convert.Converter, req ConvertRequest, logger *slog.Logger) (ConvertSummary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := pipeline.Options{Workers: req.Workers, Logger: logger, RunID: uuid.New().String()}
	sum := ConvertSummary{RunID: opts.RunID}

	switch req.To {
	case TargetSemantic:
		sents, err := conllu.ReadAll(req.In)
		if err != nil {
			return sum, err
		}
		results, err := pipeline.ToSemantic(ctx, sents, conv, opts)
		if err != nil {
			return sum, err
		}
		docs := make([]semgraph.Document, 0, len(results))
		for _, g := range pipeline.Values(results) {
			docs = append(docs, g.Export())
		}
		sum.Sentences = len(results)
		sum.Failed = len(results) - len(docs)

		enc := json.NewEncoder(req.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(docs); err != nil {
			return sum, fmt.Errorf("write graphs: %w", err)
		}
		return sum, nil

	case TargetDependency:
		var docs []semgraph.Document
		if err := json.NewDecoder(req.In).Decode(&docs); err != nil {
			return sum, fmt.Errorf("%w: graphs must be a JSON array: %v", apperr.ErrMalformed, err)
		}
		sum.Sentences = len(docs)

		graphs := make([]*semgraph.Graph, 0, len(docs))
		for _, doc := range docs {
			g, err := semgraph.Import(doc)
			if err != nil {
				logger.Warn("graph import failed", slog.String("sentence_id", doc.ID), slog.String("error", err.Error()))
				sum.Failed++
				continue
			}
			graphs = append(graphs, g)
		}

		results, err := pipeline.ToConllu(ctx, graphs, conv, opts)
		if err != nil {
			return sum, err
		}
		w := conllu.NewWriter(req.Out)
		for _, r := range results {
			if r.Err != nil {
				sum.Failed++
				continue
			}
			if err := w.Write(r.Value); err != nil {
				return sum, err
			}
		}
		return sum, w.Flush()
	}
	return sum, fmt.Errorf("unknown conversion target %q", req.To)
}
