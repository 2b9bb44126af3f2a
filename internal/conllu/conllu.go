// Package conllu reads and writes the CoNLL-U surface format.
// See https://universaldependencies.org/format.html
package conllu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/semconv/internal/apperr"
)

const (
	fieldSeparator = "\t"
	numFields      = 10
	empty          = "_"
	depsSeparator  = "|"
	depSeparator   = ":"
	spaceAfterNo   = "SpaceAfter=No"
)

// NoHead is the Head value of a row whose HEAD column is "_".
const NoHead = -1

// Row is a single word line of a sentence.
type Row struct {
	ID     int
	Form   string
	Lemma  string
	UPOS   string
	XPOS   string
	Feats  string
	Head   int
	DepRel string
	Deps   string
	Misc   string
}

// String renders the row as a tab-separated line; empty fields become "_".
func (r Row) String() string {
	head := empty
	if r.Head != NoHead {
		head = strconv.Itoa(r.Head)
	}
	fields := []string{
		strconv.Itoa(r.ID),
		r.Form,
		r.Lemma,
		r.UPOS,
		r.XPOS,
		r.Feats,
		head,
		r.DepRel,
		r.Deps,
		r.Misc,
	}
	for i, f := range fields {
		if f == "" {
			fields[i] = empty
		}
	}
	return strings.Join(fields, fieldSeparator)
}

// SpaceAfter reports whether the token is followed by whitespace.
func (r Row) SpaceAfter() bool {
	for _, item := range strings.Split(r.Misc, depsSeparator) {
		if item == spaceAfterNo {
			return false
		}
	}
	return true
}

// Sentence is one block of comment and word lines.
type Sentence struct {
	ID        string
	Text      string
	Comments  []string
	Rows      []Row
	Paragraph int
	Line      int // line number of the first line, 1-based
}

// Dep is one entry of the DEPS column.
type Dep struct {
	Head int
	Rel  string
}

func parseInt(value string) (int, error) {
	if value == empty {
		return NoHead, nil
	}
	i, err := strconv.Atoi(value)
	return i, err
}

func parseString(value string) string {
	if value == empty {
		return ""
	}
	return value
}

// ParseRow parses the ten columns of a word line. ok is false for
// multiword-token ranges ("1-2") and empty nodes ("1.1"), which carry no
// dependency of their own.
func ParseRow(record []string) (row Row, ok bool, err error) {
	if len(record) != numFields {
		return row, false, fmt.Errorf("%w: expected %d fields, got %d", apperr.ErrMalformed, numFields, len(record))
	}
	if strings.ContainsAny(record[0], "-.") {
		return row, false, nil
	}
	id, err := strconv.Atoi(record[0])
	if err != nil {
		return row, false, fmt.Errorf("%w: ID field %q: %v", apperr.ErrMalformed, record[0], err)
	}
	head, err := parseInt(record[6])
	if err != nil {
		return row, false, fmt.Errorf("%w: HEAD field %q: %v", apperr.ErrMalformed, record[6], err)
	}
	upos := parseString(record[3])
	form := parseString(record[1])
	if upos == "PUNCT" || upos == "SYM" {
		// Symbols are taken as is, "_" included.
		form = record[1]
	}
	return Row{
		ID:     id,
		Form:   form,
		Lemma:  parseString(record[2]),
		UPOS:   upos,
		XPOS:   parseString(record[4]),
		Feats:  parseString(record[5]),
		Head:   head,
		DepRel: parseString(record[7]),
		Deps:   parseString(record[8]),
		Misc:   parseString(record[9]),
	}, true, nil
}

// ParseDeps splits a DEPS value such as "2:nsubj|4:nsubj:xsubj". Entries
// pointing at empty nodes ("3.1:obj") are skipped.
func ParseDeps(value string) ([]Dep, error) {
	value = parseString(value)
	if value == "" {
		return nil, nil
	}
	var out []Dep
	for _, item := range strings.Split(value, depsSeparator) {
		head, rel, found := strings.Cut(item, depSeparator)
		if !found {
			return nil, fmt.Errorf("%w: DEPS entry %q", apperr.ErrMalformed, item)
		}
		if strings.Contains(head, ".") {
			continue
		}
		h, err := strconv.Atoi(head)
		if err != nil {
			return nil, fmt.Errorf("%w: DEPS head %q: %v", apperr.ErrMalformed, head, err)
		}
		out = append(out, Dep{Head: h, Rel: rel})
	}
	return out, nil
}
