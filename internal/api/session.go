package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/ledger/internal/session"
)

// SessionStore loads and saves the persisted session. *session.Store
// satisfies it.
type SessionStore interface {
	Load(ctx context.Context) (session.Data, error)
	Save(ctx context.Context, d session.Data) error
}

// SessionHandler serves the session and client log endpoints.
type SessionHandler struct {
	store SessionStore
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(store SessionStore) *SessionHandler {
	return &SessionHandler{store: store}
}

// Get handles GET /api/session.
//
//	@Summary		Get the persisted session
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Security		BearerAuth
//	@Router			/session [get]
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.store.Load(r.Context())
	if err != nil {
		writeError(w, "load session", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Put handles PUT /api/session. Fields left out are not changed.
//
//	@Summary		Update session fields
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SessionResponse	true	"Fields to update"
//	@Success		200		{object}	SessionResponse
//	@Security		BearerAuth
//	@Router			/session [put]
func (h *SessionHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req session.Data
	if !decode(w, r, &req) {
		return
	}
	if err := h.store.Save(r.Context(), req); err != nil {
		writeError(w, "save session", err)
		return
	}
	d, err := h.store.Load(r.Context())
	if err != nil {
		writeError(w, "load session", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Log handles POST /api/log.
//
//	@Summary		Forward a client log line to the server log
//	@Tags			log
//	@Accept			json
//	@Param			body	body	LogRequest	true	"Log line"
//	@Success		204		"Logged"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/log [post]
func Log(w http.ResponseWriter, r *http.Request) {
	var req LogRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("message is required"))
		return
	}
	attrs := []any{slog.String("source", "client")}
	if req.Payload != nil {
		attrs = append(attrs, slog.Any("payload", req.Payload))
	}
	slog.Log(r.Context(), clientLevel(req.Level), req.Message, attrs...)
	w.WriteHeader(http.StatusNoContent)
}

// clientLevel maps a client level name to a slog level. Unknown names log
// at info.
func clientLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug", "trace":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
