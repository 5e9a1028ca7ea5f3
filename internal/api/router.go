package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ledger/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sessions, if non-nil, backs GET/PUT /session.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, sessions SessionStore, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Vault.
	r.Get("/vault", h.GetVault)
	r.Post("/vault/open", h.OpenVault)
	r.Post("/vault/rescan", h.RescanVault)

	// Files.
	r.Get("/files", h.ListFiles)
	r.Post("/files", h.CreateFile)
	r.Get("/files/*", h.ReadFile)
	r.Put("/files/*", h.WriteFile)
	r.Delete("/files/*", h.DeleteFile)

	// Engines.
	r.Post("/parse", h.Parse)
	r.Post("/query", h.Query)
	r.Get("/search", h.Search)
	r.Post("/search", h.SearchPost)

	// Session and client logs.
	if sessions != nil {
		sh := NewSessionHandler(sessions)
		r.Get("/session", sh.Get)
		r.Put("/session", sh.Put)
	}
	r.Post("/log", Log)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
