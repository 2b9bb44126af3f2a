package api

import (
	"github.com/starford/semconv/internal/corpusservice"
	"github.com/starford/semconv/internal/models"
	"github.com/starford/semconv/internal/semgraph"
)

// ConvertSemanticRequest is the JSON form of POST /convert/semantic. The
// endpoint also accepts the CoNLL-U document as a plain-text body.
type ConvertSemanticRequest struct {
	CoNLLU string `json:"conllu" example:"# sent_id = 1\n1\tHi\thi\tINTJ\t_\t_\t0\troot\t_\t_\n" validate:"required"`
}

// ConvertDependencyRequest is the request body of POST /convert/dependency.
type ConvertDependencyRequest struct {
	Graphs []semgraph.Document `json:"graphs" validate:"required"`
}

// CreateFileRequest is the request body for creating a corpus file.
type CreateFileRequest struct {
	Path    string `json:"path" example:"ud/en_ewt-dev.conllu" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// UpdateFileRequest is the request body for replacing a corpus file.
type UpdateFileRequest struct {
	Content string `json:"content" validate:"required"`
}

// MoveFileRequest is the request body of PATCH /files/{path}.
type MoveFileRequest struct {
	Path string `json:"path" example:"ud/renamed.conllu" validate:"required"`
}

// SemanticResult is the conversion response (aliased from the domain layer).
type SemanticResult = corpusservice.SemanticResult

// DependencyResult is the conversion response (aliased from the domain layer).
type DependencyResult = corpusservice.DependencyResult

// FileDetail is the raw file response (aliased from the domain layer).
type FileDetail = corpusservice.FileDetail

// FileListResponse wraps the corpus file listing.
type FileListResponse struct {
	Files []models.CorpusFile `json:"files" validate:"required"`
}

// SentenceListResponse wraps paginated sentence listings.
type SentenceListResponse struct {
	Sentences []models.Sentence `json:"sentences" validate:"required"`
	Total     int               `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.SearchHit `json:"results" validate:"required"`
}

// FailureListResponse wraps recorded conversion failures.
type FailureListResponse struct {
	Failures []models.Failure `json:"failures" validate:"required"`
}
