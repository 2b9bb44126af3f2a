package conllu

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// Writer emits sentences in CoNLL-U format.
type Writer struct {
	w *bufio.Writer
}

// NewWriter returns a Writer over w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write emits the comment lines, then the rows, then a blank line.
func (w *Writer) Write(s *Sentence) error {
	for _, c := range s.Comments {
		if _, err := fmt.Fprintln(w.w, c); err != nil {
			return fmt.Errorf("conllu: write: %w", err)
		}
	}
	for _, r := range s.Rows {
		if _, err := fmt.Fprintln(w.w, r.String()); err != nil {
			return fmt.Errorf("conllu: write: %w", err)
		}
	}
	if _, err := fmt.Fprintln(w.w); err != nil {
		return fmt.Errorf("conllu: write: %w", err)
	}
	return nil
}

// Flush writes any buffered data.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Format renders sentences into a single CoNLL-U document.
func Format(sentences []*Sentence) ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, s := range sentences {
		if err := w.Write(s); err != nil {
			return nil, err
		}
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
