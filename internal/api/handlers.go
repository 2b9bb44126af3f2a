package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/semconv/internal/corpusservice"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *corpusservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *corpusservice.Service) *Handler {
	return &Handler{svc: svc}
}

// filePath extracts the corpus path from the URL (everything after /api/files/).
// Supports encoded slashes from OpenAPI clients (e.g. ud%2Fen.conllu).
func filePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func intParam(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

// ListFiles handles GET /api/files.
//
//	@Summary		List indexed corpus files
//	@Tags			files
//	@Produce		json
//	@Success		200	{object}	FileListResponse
//	@Security		BearerAuth
//	@Router			/files [get]
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.ListFiles(r.Context())
	if err != nil {
		writeError(w, "list files", err)
		return
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: files})
}

// GetFile handles GET /api/files/*.
//
//	@Summary		Get the raw content of a corpus file
//	@Tags			files
//	@Produce		json
//	@Param			path	path		string	true	"File path"
//	@Success		200		{object}	FileDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [get]
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	f, err := h.svc.GetFile(r.Context(), path)
	if err != nil {
		writeError(w, "get file", err, slog.String("path", path))
		return
	}
	w.Header().Set("ETag", `"`+f.Checksum+`"`)
	writeJSON(w, http.StatusOK, f)
}

// CreateFile handles POST /api/files.
//
//	@Summary		Create a corpus file and convert it
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateFileRequest	true	"File to create"
//	@Success		201		{object}	models.CorpusFile
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files [post]
func (h *Handler) CreateFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CreateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and content are required"))
		return
	}
	f, err := h.svc.CreateFile(r.Context(), req.Path, []byte(req.Content))
	if err != nil {
		writeError(w, "create file", err, slog.String("path", req.Path))
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// UpdateFile handles PUT /api/files/*.
//
//	@Summary		Replace a corpus file with optimistic concurrency
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			path		path	string				true	"File path"
//	@Param			If-Match	header	string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	UpdateFileRequest	true	"Updated content"
//	@Success		200		{object}	models.CorpusFile
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [put]
func (h *Handler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	var req UpdateFileRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	f, err := h.svc.UpdateFile(r.Context(), path, []byte(req.Content), ifMatch)
	if err != nil {
		writeError(w, "update file", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// MoveFile handles PATCH /api/files/*.
//
//	@Summary		Rename a corpus file
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string			true	"Current path"
//	@Param			body	body		MoveFileRequest	true	"New path"
//	@Success		200		{object}	models.CorpusFile
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [patch]
func (h *Handler) MoveFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	path := filePath(r)
	var req MoveFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if path == "" || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("source and target paths are required"))
		return
	}
	f, err := h.svc.MoveFile(r.Context(), path, req.Path)
	if err != nil {
		writeError(w, "move file", err, slog.String("from", path), slog.String("to", req.Path))
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// DeleteFile handles DELETE /api/files/*.
//
//	@Summary		Delete a corpus file
//	@Tags			files
//	@Param			path	path	string	true	"File path"
//	@Success		204		"File deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [delete]
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteFile(r.Context(), path); err != nil {
		writeError(w, "delete file", err, slog.String("path", path))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSentences handles GET /api/sentences.
//
//	@Summary		List converted sentences
//	@Tags			sentences
//	@Produce		json
//	@Param			file	query		string	false	"Restrict to one file"
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	SentenceListResponse
//	@Security		BearerAuth
//	@Router			/sentences [get]
func (h *Handler) ListSentences(w http.ResponseWriter, r *http.Request) {
	items, total, err := h.svc.ListSentences(r.Context(), r.URL.Query().Get("file"), intParam(r, "limit"), intParam(r, "offset"))
	if err != nil {
		writeError(w, "list sentences", err)
		return
	}
	writeJSON(w, http.StatusOK, SentenceListResponse{Sentences: items, Total: total})
}

// GetSentence handles GET /api/sentences/{id}.
//
//	@Summary		Get one sentence with its semantic graph
//	@Tags			sentences
//	@Produce		json
//	@Param			id	path		string	true	"Sentence id"
//	@Success		200	{object}	models.Sentence
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sentences/{id} [get]
func (h *Handler) GetSentence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.svc.GetSentence(r.Context(), id)
	if err != nil {
		writeError(w, "get sentence", err, slog.String("sentence_id", id))
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetSentenceConllu handles GET /api/sentences/{id}/conllu.
//
//	@Summary		Get the regenerated CoNLL-U of one sentence
//	@Tags			sentences
//	@Produce		plain
//	@Param			id	path		string	true	"Sentence id"
//	@Success		200	{string}	string
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sentences/{id}/conllu [get]
func (h *Handler) GetSentenceConllu(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.svc.GetSentence(r.Context(), id)
	if err != nil {
		writeError(w, "get sentence", err, slog.String("sentence_id", id))
		return
	}
	if s.CoNLLU == "" {
		writeJSON(w, http.StatusNotFound, errorBody("sentence has no dependency rendering"))
		return
	}
	writeText(w, http.StatusOK, s.CoNLLU)
}

// Failures handles GET /api/failures.
//
//	@Summary		List sentences that failed to convert
//	@Tags			sentences
//	@Produce		json
//	@Param			file	query		string	false	"Restrict to one file"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	FailureListResponse
//	@Security		BearerAuth
//	@Router			/failures [get]
func (h *Handler) Failures(w http.ResponseWriter, r *http.Request) {
	fails, err := h.svc.Failures(r.Context(), r.URL.Query().Get("file"), intParam(r, "limit"))
	if err != nil {
		writeError(w, "failures", err)
		return
	}
	writeJSON(w, http.StatusOK, FailureListResponse{Failures: fails})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across sentence text
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	results, err := h.svc.Search(r.Context(), q, intParam(r, "limit"))
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
