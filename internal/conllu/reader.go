package conllu

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Reader yields sentences from a CoNLL-U stream.
type Reader struct {
	sc        *bufio.Scanner
	line      int
	count     int
	paragraph int
	docSeen   bool
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 16384), 1<<20)
	return &Reader{sc: sc, paragraph: 1}
}

// Next returns the next sentence, or io.EOF when the stream is exhausted.
// Sentences without a sent_id comment are numbered from 1.
func (r *Reader) Next() (*Sentence, error) {
	var cur *Sentence
	for r.sc.Scan() {
		r.line++
		line := strings.TrimRight(r.sc.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			if cur != nil && len(cur.Rows) > 0 {
				return r.finish(cur), nil
			}
			continue
		}
		if cur == nil {
			cur = &Sentence{Line: r.line}
		}

		if strings.HasPrefix(line, "#") {
			r.comment(cur, line)
			continue
		}

		row, ok, err := ParseRow(strings.Split(line, fieldSeparator))
		if err != nil {
			return nil, fmt.Errorf("conllu: line %d: %w", r.line, err)
		}
		if ok {
			cur.Rows = append(cur.Rows, row)
		}
	}
	if err := r.sc.Err(); err != nil {
		return nil, fmt.Errorf("conllu: read: %w", err)
	}
	if cur != nil && len(cur.Rows) > 0 {
		return r.finish(cur), nil
	}
	return nil, io.EOF
}

func (r *Reader) comment(cur *Sentence, line string) {
	body := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	key, value, hasValue := strings.Cut(body, "=")
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch {
	case key == "sent_id" && hasValue:
		cur.ID = value
		return
	case key == "text" && hasValue:
		cur.Text = value
		return
	case strings.HasPrefix(key, "newdoc"):
		r.paragraph = 1
		r.docSeen = false
	case strings.HasPrefix(key, "newpar"):
		if r.docSeen {
			r.paragraph++
		}
	}
	cur.Comments = append(cur.Comments, line)
}

func (r *Reader) finish(s *Sentence) *Sentence {
	r.count++
	r.docSeen = true
	if s.ID == "" {
		s.ID = strconv.Itoa(r.count)
	}
	s.Paragraph = r.paragraph
	return s
}

// ReadAll reads every sentence from rd.
func ReadAll(rd io.Reader) ([]*Sentence, error) {
	r := NewReader(rd)
	var out []*Sentence
	for {
		s, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
}

// Parse reads every sentence from data.
func Parse(data []byte) ([]*Sentence, error) {
	return ReadAll(bytes.NewReader(data))
}
