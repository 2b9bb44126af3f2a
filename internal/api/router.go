package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/semconv/internal/corpusservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *corpusservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Stateless conversion.
	r.Post("/convert/semantic", h.ConvertSemantic)
	r.Post("/convert/dependency", h.ConvertDependency)

	// Corpus files.
	r.Get("/files", h.ListFiles)
	r.Post("/files", h.CreateFile)
	r.Post("/files/upload", h.Upload)
	r.Get("/files/*", h.GetFile)
	r.Put("/files/*", h.UpdateFile)
	r.Patch("/files/*", h.MoveFile)
	r.Delete("/files/*", h.DeleteFile)

	// Indexed sentences.
	r.Get("/sentences", h.ListSentences)
	r.Get("/sentences/{id}", h.GetSentence)
	r.Get("/sentences/{id}/conllu", h.GetSentenceConllu)
	r.Get("/failures", h.Failures)
	r.Get("/search", h.Search)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
