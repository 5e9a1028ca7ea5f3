// Package noteservice is the command layer shared by the HTTP API and the
// MCP server. It owns no state besides the vault handle it is given.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/ledger/internal/apperr"
	"github.com/starford/ledger/internal/checksum"
	"github.com/starford/ledger/internal/models"
	"github.com/starford/ledger/internal/parser"
	"github.com/starford/ledger/internal/query"
	"github.com/starford/ledger/internal/search"
	"github.com/starford/ledger/internal/session"
	"github.com/starford/ledger/internal/vault"
)

// Event kinds passed to an EventFunc.
const (
	KindOpened    = "opened"
	KindRescanned = "rescanned"
	KindCreated   = "created"
	KindWritten   = "written"
	KindDeleted   = "deleted"
)

// EventFunc is called after a successful mutation. path is the vault root
// for KindOpened and KindRescanned and a relative file path otherwise.
type EventFunc func(kind, path string)

// SessionSaver records session fields. *session.Store satisfies it.
type SessionSaver interface {
	Save(ctx context.Context, d session.Data) error
}

// FileContent is a file body with its checksum.
type FileContent struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Checksum string `json:"checksum"`
}

// Service coordinates the vault index, storage and the engines.
type Service struct {
	vault    *vault.Vault
	sessions SessionSaver
	onEvent  EventFunc
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSessions records the vault path on every successful open.
func WithSessions(s SessionSaver) Option {
	return func(svc *Service) { svc.sessions = s }
}

// WithEvents registers a callback for mutations.
func WithEvents(fn EventFunc) Option {
	return func(svc *Service) { svc.onEvent = fn }
}

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) { svc.logger = l }
}

// NewService creates a new command layer over v.
func NewService(v *vault.Vault, opts ...Option) *Service {
	s := &Service{vault: v, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) emit(kind, path string) {
	if s.onEvent != nil {
		s.onEvent(kind, path)
	}
}

// OpenVault makes path the current vault and returns its file list.
func (s *Service) OpenVault(ctx context.Context, path string) (*vault.Snapshot, error) {
	snap, err := s.vault.Open(path)
	if err != nil {
		return nil, err
	}
	s.logger.Info("vault opened",
		slog.String("root", snap.RootPath),
		slog.Int("files", len(snap.FilePaths)))

	if s.sessions != nil {
		root := snap.RootPath
		if err := s.sessions.Save(ctx, session.Data{LastVaultPath: &root}); err != nil {
			s.logger.Warn("session: record vault failed", slog.String("error", err.Error()))
		}
	}
	s.emit(KindOpened, snap.RootPath)
	return &snap, nil
}

// Rescan rebuilds the file list of the open vault from disk.
func (s *Service) Rescan(_ context.Context) (*vault.Snapshot, error) {
	snap, err := s.vault.Rescan()
	if err != nil {
		return nil, err
	}
	s.emit(KindRescanned, snap.RootPath)
	return &snap, nil
}

// Snapshot returns the open vault's state.
func (s *Service) Snapshot(_ context.Context) (*vault.Snapshot, error) {
	snap, err := s.vault.Snapshot()
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListFiles returns the relative markdown paths of the open vault.
func (s *Service) ListFiles(_ context.Context) ([]string, error) {
	return s.vault.Files()
}

// ReadFile returns the content of a vault file.
func (s *Service) ReadFile(_ context.Context, path string) (*FileContent, error) {
	store, err := s.vault.Storage()
	if err != nil {
		return nil, err
	}
	data, err := store.Read(path)
	if err != nil {
		return nil, err
	}
	return &FileContent{Path: path, Content: string(data), Checksum: checksum.Sum(data)}, nil
}

// WriteFile replaces the content of a vault file. A non-empty ifMatch must
// equal the checksum of the current content.
func (s *Service) WriteFile(_ context.Context, path, content, ifMatch string) (*FileContent, error) {
	store, err := s.vault.Storage()
	if err != nil {
		return nil, err
	}
	if ifMatch != "" {
		existing, err := store.Read(path)
		if err != nil && !errors.Is(err, apperr.ErrPathNotFound) {
			return nil, err
		}
		if err != nil || !checksum.Matches(existing, ifMatch) {
			return nil, fmt.Errorf("noteservice: write %s: %w", path, apperr.ErrConflict)
		}
	}
	data := []byte(content)
	if err := store.Write(path, data); err != nil {
		return nil, err
	}
	s.logger.Info("file written", slog.String("path", path), slog.Int("bytes", len(data)))
	s.emit(KindWritten, path)
	return &FileContent{Path: path, Content: content, Checksum: checksum.Sum(data)}, nil
}

// CreateFile makes a new empty markdown file and adds it to the index.
func (s *Service) CreateFile(_ context.Context, path string) (string, error) {
	store, err := s.vault.Storage()
	if err != nil {
		return "", err
	}
	rel, err := store.Create(path)
	if err != nil {
		return "", err
	}
	s.vault.RecordCreated(store.Root(), rel)
	s.logger.Info("file created", slog.String("path", rel))
	s.emit(KindCreated, rel)
	return rel, nil
}

// DeleteFile removes a file and drops it from the index.
func (s *Service) DeleteFile(_ context.Context, path string) (string, error) {
	store, err := s.vault.Storage()
	if err != nil {
		return "", err
	}
	rel, err := store.Delete(path)
	if err != nil {
		return "", err
	}
	s.vault.RecordDeleted(store.Root(), rel)
	s.logger.Info("file deleted", slog.String("path", rel))
	s.emit(KindDeleted, rel)
	return rel, nil
}

// ParseFile returns the list forest of content. It needs no open vault.
func (s *Service) ParseFile(_ context.Context, content string) []models.Node {
	return parser.Parse(content)
}

// QueryByTag runs a tag query. A nil files list means every file of the
// open vault.
func (s *Service) QueryByTag(ctx context.Context, tags []string, scope *int, files []string) ([]models.QueryMatch, error) {
	store, files, err := s.candidates(ctx, files)
	if err != nil {
		return nil, err
	}
	return query.ByTag(store, query.Request{Tags: tags, Scope: scope, Files: files}), nil
}

// SearchFullText runs a line search. A nil files list means every file of
// the open vault.
func (s *Service) SearchFullText(ctx context.Context, q string, files []string, fuzzy bool) ([]models.SearchMatch, error) {
	store, files, err := s.candidates(ctx, files)
	if err != nil {
		return nil, err
	}
	return search.FullText(store, search.Request{Query: q, Files: files, Fuzzy: fuzzy}), nil
}

// candidates returns the reader for the open vault and the files to visit.
func (s *Service) candidates(_ context.Context, files []string) (query.Reader, []string, error) {
	store, err := s.vault.Storage()
	if err != nil {
		return nil, nil, err
	}
	if files == nil {
		if files, err = s.vault.Files(); err != nil {
			return nil, nil, err
		}
	}
	return store, files, nil
}
