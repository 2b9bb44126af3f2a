// Package convert turns dependency trees into layered semantic graphs and
// back. Build and ToConllu are the two entry points; everything structural
// is delegated to the rewrite package first.
package convert

import (
	"fmt"

	"github.com/starford/semconv/internal/apperr"
	"github.com/starford/semconv/internal/conllu"
	"github.com/starford/semconv/internal/deptree"
	"github.com/starford/semconv/internal/rewrite"
	"github.com/starford/semconv/internal/semgraph"
)

// Error reports a sentence that could not be converted.
type Error struct {
	SentenceID string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("conversion failed for sentence %q: %v", e.SentenceID, e.Err)
}

// Unwrap exposes both apperr.ErrConversion and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	return []error{apperr.ErrConversion, e.Err}
}

func fail(id string, err error) error {
	return &Error{SentenceID: id, Err: err}
}

// Observer receives the rewrite statistics of every converted sentence.
type Observer func(dir rewrite.Direction, st rewrite.Stats)

// Option configures a Converter.
type Option func(*Converter)

// WithAnnotations stores per-token attribute tuples on built graphs.
func WithAnnotations(on bool) Option {
	return func(c *Converter) {
		c.annotate = on
	}
}

// WithEnhanced reads the DEPS column as additional heads and writes it back.
func WithEnhanced(on bool) Option {
	return func(c *Converter) {
		c.enhanced = on
	}
}

// WithSemanticLabels marks dependency input that already uses semantic
// label names for flat and punctuation relations.
func WithSemanticLabels(on bool) Option {
	return func(c *Converter) {
		c.semanticLabels = on
	}
}

// WithObserver registers fn to be called after every rewrite pass.
func WithObserver(fn Observer) Option {
	return func(c *Converter) {
		c.observe = fn
	}
}

// Converter converts sentences in both directions. It holds no per-sentence
// state and is safe for concurrent use.
type Converter struct {
	annotate       bool
	enhanced       bool
	semanticLabels bool
	observe        Observer
}

// New returns a Converter configured by opts.
func New(opts ...Option) *Converter {
	c := &Converter{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enhanced reports whether the converter reads and writes enhanced heads.
func (c *Converter) Enhanced() bool { return c.enhanced }

func (c *Converter) rewrite(g *deptree.Graph, dir rewrite.Direction) {
	st := rewrite.Preprocess(g, dir, rewrite.Options{SemanticLabels: c.semanticLabels})
	if c.observe != nil {
		c.observe(dir, st)
	}
}

// FromSentence builds the semantic graph of one CoNLL-U sentence.
func (c *Converter) FromSentence(s *conllu.Sentence) (*semgraph.Graph, error) {
	return c.Build(deptree.FromSentence(s, c.enhanced))
}

// ToConllu generates the CoNLL-U sentence for sg, header comments included.
func (c *Converter) ToConllu(sg *semgraph.Graph) (*conllu.Sentence, error) {
	g, err := Hybrid(sg)
	if err != nil {
		return nil, fail(sg.ID, err)
	}
	if err := g.Validate(); err != nil {
		return nil, fail(sg.ID, err)
	}
	c.rewrite(g, rewrite.ToDependency)
	return &conllu.Sentence{
		ID:       g.ID,
		Text:     Text(g),
		Comments: HeaderLines(g),
		Rows:     Generate(g, c.enhanced),
	}, nil
}
