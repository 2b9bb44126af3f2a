// Package models defines the domain types shared by the corpus layers.
package models

import (
	"time"

	"github.com/starford/semconv/internal/semgraph"
)

// FileMetadata is a lightweight representation returned by list operations.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CorpusFile summarises one indexed .conllu file.
type CorpusFile struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Sentences int       `json:"sentences"`
	Failed    int       `json:"failed"`
	RunID     string    `json:"run_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sentence is one converted sentence.
type Sentence struct {
	File       string             `json:"file"`
	Ordinal    int                `json:"ordinal"`
	SentenceID string             `json:"sentence_id"`
	Text       string             `json:"text"`
	Tokens     int                `json:"tokens"`
	Units      int                `json:"units"`
	Graph      *semgraph.Document `json:"graph,omitempty"`
	CoNLLU     string             `json:"conllu,omitempty"`
}

// Failure records a sentence that could not be converted.
type Failure struct {
	File       string `json:"file"`
	Ordinal    int    `json:"ordinal"`
	SentenceID string `json:"sentence_id"`
	Error      string `json:"error"`
}

// SearchHit is one full-text match.
type SearchHit struct {
	File       string `json:"file"`
	SentenceID string `json:"sentence_id"`
	Snippet    string `json:"snippet"`
}
