package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/starford/semconv/internal/apperr"
)

// ConvertSemantic handles POST /api/convert/semantic.
//
// The body is either a CoNLL-U document (any non-JSON content type) or a
// ConvertSemanticRequest.
//
//	@Summary		Convert CoNLL-U to semantic graphs
//	@Tags			convert
//	@Accept			plain,json
//	@Produce		json
//	@Param			body	body		ConvertSemanticRequest	true	"CoNLL-U document"
//	@Success		200		{object}	SemanticResult
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/convert/semantic [post]
func (h *Handler) ConvertSemantic(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	if isJSON(r) {
		var req ConvertSemanticRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
		body = []byte(req.CoNLLU)
	}

	res, err := h.svc.ConvertToSemantic(r.Context(), body)
	if err != nil {
		writeError(w, "convert to semantic", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ConvertDependency handles POST /api/convert/dependency.
//
// With ?format=conllu the joined CoNLL-U document is returned as text and
// per-sentence failures are reported in the X-Failed-Sentences header.
//
//	@Summary		Convert semantic graphs to CoNLL-U
//	@Tags			convert
//	@Accept			json
//	@Produce		json,plain
//	@Param			body	body		ConvertDependencyRequest	true	"Graphs"
//	@Param			format	query		string						false	"Response format"	Enums(json, conllu)
//	@Success		200		{object}	DependencyResult
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/convert/dependency [post]
func (h *Handler) ConvertDependency(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req ConvertDependencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Graphs) == 0 {
		writeError(w, "convert to dependency", apperr.ErrMalformed)
		return
	}

	res, err := h.svc.ConvertToDependency(r.Context(), req.Graphs)
	if err != nil {
		writeError(w, "convert to dependency", err)
		return
	}
	if r.URL.Query().Get("format") == "conllu" {
		w.Header().Set("X-Failed-Sentences", strconv.Itoa(res.Failed))
		writeText(w, http.StatusOK, res.CoNLLU)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}
