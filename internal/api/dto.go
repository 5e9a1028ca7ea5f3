package api

import (
	"github.com/starford/ledger/internal/models"
	"github.com/starford/ledger/internal/noteservice"
	"github.com/starford/ledger/internal/session"
	"github.com/starford/ledger/internal/vault"
)

// OpenVaultRequest is the request body for opening a vault.
type OpenVaultRequest struct {
	Path string `json:"path" example:"/home/me/notes" validate:"required"`
}

// VaultResponse is the open vault's root and file list (aliased from the vault layer).
type VaultResponse = vault.Snapshot

// FileListResponse wraps the vault's markdown files.
type FileListResponse struct {
	Files []string `json:"files" validate:"required"`
}

// CreateFileRequest is the request body for creating a file.
type CreateFileRequest struct {
	Path string `json:"path" example:"notes/hello.md" validate:"required"`
}

// PathResponse carries the vault-relative path affected by a mutation.
type PathResponse struct {
	Path string `json:"path" example:"notes/hello.md" validate:"required"`
}

// WriteFileRequest is the request body for replacing a file's content.
type WriteFileRequest struct {
	Content *string `json:"content" example:"- item #tag" validate:"required"`
}

// FileContent is a file body with its checksum (aliased from the domain layer).
type FileContent = noteservice.FileContent

// ParseRequest is the request body for parsing markdown.
type ParseRequest struct {
	Content string `json:"content" example:"- a\n  - b"`
}

// ParseResponse wraps the parsed list forest.
type ParseResponse struct {
	Nodes []models.Node `json:"nodes" validate:"required"`
}

// QueryRequest is the request body for a tag query. Files left out means
// every file of the open vault.
type QueryRequest struct {
	Tags  []string `json:"tags" example:"task,decision" validate:"required"`
	Scope any      `json:"scope,omitempty" example:"0"`
	Files []string `json:"files,omitempty"`
}

// QueryResponse wraps tag query matches.
type QueryResponse struct {
	Matches []models.QueryMatch `json:"matches" validate:"required"`
}

// SearchRequest is the request body for POST /search.
type SearchRequest struct {
	Query string   `json:"query" example:"hello"`
	Files []string `json:"files,omitempty"`
	Fuzzy bool     `json:"fuzzy"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.SearchMatch `json:"results" validate:"required"`
}

// SessionResponse is the persisted session (aliased from the session layer).
type SessionResponse = session.Data

// LogRequest is a log line forwarded by a UI client.
type LogRequest struct {
	Level   string `json:"level" example:"warn"`
	Message string `json:"message" example:"editor crashed" validate:"required"`
	Payload any    `json:"payload,omitempty"`
}
