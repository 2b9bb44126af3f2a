package api

import (
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

const maxUploadBytes = 50 << 20 // 50 MB

// Upload handles POST /api/files/upload (multipart/form-data, field "file").
// An optional "dir" field places the file in a corpus subdirectory.
//
//	@Summary		Upload a CoNLL-U file and convert it
//	@Tags			files
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"CoNLL-U file"
//	@Param			dir		formData	string	false	"Target directory"
//	@Success		201		{object}	models.CorpusFile
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name, ok := uploadName(header.Filename)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid filename: "+header.Filename))
		return
	}
	if dir := strings.Trim(r.FormValue("dir"), "/"); dir != "" {
		name = path.Join(dir, name)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to read upload"))
		return
	}

	f, err := h.svc.CreateFile(r.Context(), name, data)
	if err != nil {
		writeError(w, "upload", err, slog.String("path", name))
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// uploadName accepts plain file names only: no separators, no traversal.
// Storage re-validates the joined path against the corpus root.
func uploadName(name string) (string, bool) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", false
	}
	return name, true
}
