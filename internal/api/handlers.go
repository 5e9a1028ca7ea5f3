package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ledger/internal/checksum"
	"github.com/starford/ledger/internal/noteservice"
)

const maxBody = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// filePath extracts the file path from the URL (everything after /api/files/).
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
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

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// OpenVault handles POST /api/vault/open.
//
//	@Summary		Open a directory as the current vault
//	@Tags			vault
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenVaultRequest	true	"Vault directory"
//	@Success		200		{object}	VaultResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vault/open [post]
func (h *Handler) OpenVault(w http.ResponseWriter, r *http.Request) {
	var req OpenVaultRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	snap, err := h.svc.OpenVault(r.Context(), req.Path)
	if err != nil {
		writeError(w, "open vault", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetVault handles GET /api/vault.
//
//	@Summary		Get the open vault
//	@Tags			vault
//	@Produce		json
//	@Success		200	{object}	VaultResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vault [get]
func (h *Handler) GetVault(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context())
	if err != nil {
		writeError(w, "get vault", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// RescanVault handles POST /api/vault/rescan.
//
//	@Summary		Rebuild the file list from disk
//	@Tags			vault
//	@Produce		json
//	@Success		200	{object}	VaultResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vault/rescan [post]
func (h *Handler) RescanVault(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Rescan(r.Context())
	if err != nil {
		writeError(w, "rescan vault", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ListFiles handles GET /api/files.
//
//	@Summary		List markdown files of the open vault
//	@Tags			files
//	@Produce		json
//	@Success		200	{object}	FileListResponse
//	@Failure		409	{object}	errResponse
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

// ReadFile handles GET /api/files/*.
//
//	@Summary		Read a file by path
//	@Tags			files
//	@Produce		json
//	@Param			path	path		string	true	"File path"
//	@Success		200		{object}	FileContent
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [get]
func (h *Handler) ReadFile(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	fc, err := h.svc.ReadFile(r.Context(), path)
	if err != nil {
		writeError(w, "read file", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(fc.Checksum))
	writeJSON(w, http.StatusOK, fc)
}

// CreateFile handles POST /api/files.
//
//	@Summary		Create a new empty markdown file
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateFileRequest	true	"File to create"
//	@Success		201		{object}	PathResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files [post]
func (h *Handler) CreateFile(w http.ResponseWriter, r *http.Request) {
	var req CreateFileRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	rel, err := h.svc.CreateFile(r.Context(), req.Path)
	if err != nil {
		writeError(w, "create file", err)
		return
	}
	writeJSON(w, http.StatusCreated, PathResponse{Path: rel})
}

// WriteFile handles PUT /api/files/*.
//
//	@Summary		Replace a file's content with optional optimistic concurrency
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			path		path	string				true	"File path"
//	@Param			If-Match	header	string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	WriteFileRequest	true	"New content"
//	@Success		200		{object}	FileContent
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [put]
func (h *Handler) WriteFile(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req WriteFileRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Content == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	ifMatch := checksum.FromETag(r.Header.Get("If-Match"))

	fc, err := h.svc.WriteFile(r.Context(), path, *req.Content, ifMatch)
	if err != nil {
		writeError(w, "write file", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(fc.Checksum))
	writeJSON(w, http.StatusOK, fc)
}

// DeleteFile handles DELETE /api/files/*.
//
//	@Summary		Delete a file
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
	if _, err := h.svc.DeleteFile(r.Context(), path); err != nil {
		writeError(w, "delete file", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Parse handles POST /api/parse.
//
//	@Summary		Parse markdown list items into a forest
//	@Tags			parse
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ParseRequest	true	"Markdown content"
//	@Success		200		{object}	ParseResponse
//	@Security		BearerAuth
//	@Router			/parse [post]
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, ParseResponse{Nodes: h.svc.ParseFile(r.Context(), req.Content)})
}

// Query handles POST /api/query.
//
//	@Summary		Find list items by tag, optionally under a scope node
//	@Tags			query
//	@Accept			json
//	@Produce		json
//	@Param			body	body		QueryRequest	true	"Tag query"
//	@Success		200		{object}	QueryResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/query [post]
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decode(w, r, &req) {
		return
	}
	scope, err := noteservice.ParseScope(req.Scope)
	if err != nil {
		writeError(w, "query", err)
		return
	}
	matches, err := h.svc.QueryByTag(r.Context(), req.Tags, scope, req.Files)
	if err != nil {
		writeError(w, "query", err)
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Matches: matches})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across vault files
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			fuzzy	query		bool	false	"Omit match offsets"
//	@Param			files	query		[]string	false	"Restrict to these files"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("q") == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	fuzzy, _ := strconv.ParseBool(q.Get("fuzzy"))
	h.search(w, r, SearchRequest{Query: q.Get("q"), Files: q["files"], Fuzzy: fuzzy})
}

// SearchPost handles POST /api/search.
//
//	@Summary		Full-text search across vault files
//	@Tags			search
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SearchRequest	true	"Search request"
//	@Success		200		{object}	SearchResponse
//	@Security		BearerAuth
//	@Router			/search [post]
func (h *Handler) SearchPost(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decode(w, r, &req) {
		return
	}
	h.search(w, r, req)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request, req SearchRequest) {
	results, err := h.svc.SearchFullText(r.Context(), req.Query, req.Files, req.Fuzzy)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
