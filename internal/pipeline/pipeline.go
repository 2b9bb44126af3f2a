// Package pipeline converts batches of sentences in parallel. Sentences are
// independent, so workers share nothing but the converter; one failing
// sentence is recorded and the batch carries on.
package pipeline

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/starford/semconv/internal/conllu"
	"github.com/starford/semconv/internal/convert"
	"github.com/starford/semconv/internal/metrics"
	"github.com/starford/semconv/internal/rewrite"
	"github.com/starford/semconv/internal/semgraph"
)

// Result is the outcome of converting one sentence. Index is the
// sentence's position in the input batch.
type Result[T any] struct {
	Index      int
	SentenceID string
	Value      T
	Err        error
}

// Options tune a batch run.
type Options struct {
	// Workers bounds parallelism; zero means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
	// RunID tags log lines; a random one is generated when empty.
	RunID string
}

func (o Options) normalize() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.RunID == "" {
		o.RunID = uuid.New().String()
	}
	return o
}

// ToSemantic builds a semantic graph for every sentence. Results keep input
// order. The error is non-nil only when ctx is cancelled.
func ToSemantic(ctx context.Context, sentences []*conllu.Sentence, conv *convert.Converter, opts Options) ([]Result[*semgraph.Graph], error) {
	return run(ctx, rewrite.ToSemantic, sentences, opts,
		func(s *conllu.Sentence) string { return s.ID },
		conv.FromSentence)
}

// ToConllu generates a CoNLL-U sentence for every graph. Results keep input
// order. The error is non-nil only when ctx is cancelled.
func ToConllu(ctx context.Context, graphs []*semgraph.Graph, conv *convert.Converter, opts Options) ([]Result[*conllu.Sentence], error) {
	return run(ctx, rewrite.ToDependency, graphs, opts,
		func(g *semgraph.Graph) string { return g.ID },
		conv.ToConllu)
}

func run[In, Out any](
	ctx context.Context,
	dir rewrite.Direction,
	items []In,
	opts Options,
	id func(In) string,
	fn func(In) (Out, error),
) ([]Result[Out], error) {
	opts = opts.normalize()
	logger := opts.Logger.With(slog.String("run_id", opts.RunID), slog.String("direction", dir.String()))
	start := time.Now()

	results := make([]Result[Out], len(items))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i, item := range items {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			began := time.Now()
			out, err := fn(item)
			metrics.RecordSentence(dir, err, time.Since(began).Seconds())
			results[i] = Result[Out]{Index: i, SentenceID: id(item), Value: out, Err: err}
			if err != nil {
				logger.Warn("sentence conversion failed",
					slog.String("sentence_id", id(item)),
					slog.String("error", err.Error()))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info("batch converted",
		slog.Int("sentences", len(items)),
		slog.Int("failed", len(Failures(results))),
		slog.Duration("elapsed", time.Since(start)))
	return results, nil
}

// Failures returns the failed results.
func Failures[T any](results []Result[T]) []Result[T] {
	var out []Result[T]
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Values returns the successful values in input order.
func Values[T any](results []Result[T]) []T {
	out := make([]T, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Value)
		}
	}
	return out
}
