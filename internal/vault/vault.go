// Package vault holds the currently open vault: its canonical root and the
// sorted set of markdown files beneath it.
package vault

import (
	"fmt"
	"sort"
	"sync"

	"github.com/starford/ledger/internal/apperr"
	"github.com/starford/ledger/internal/storage"
)

// Snapshot is a copy of the vault state handed to callers.
type Snapshot struct {
	RootPath  string   `json:"root_path"`
	FilePaths []string `json:"file_paths"`
}

// Vault is a lock-protected handle on the open vault. The zero value is
// usable and has no vault open.
type Vault struct {
	exclude []string

	mu    sync.Mutex
	store *storage.FS
	files []string
}

// New returns a Vault that applies the exclude globs to every scan.
func New(exclude ...string) *Vault {
	return &Vault{exclude: exclude}
}

// Scan walks the directory at path and returns its markdown files without
// touching any open vault.
func Scan(path string, exclude []string) (Snapshot, error) {
	store, files, err := scan(path, exclude)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{RootPath: store.Root(), FilePaths: files}, nil
}

func scan(path string, exclude []string) (*storage.FS, []string, error) {
	store, err := storage.NewFS(path, storage.WithExclude(exclude...))
	if err != nil {
		return nil, nil, fmt.Errorf("vault: open %s: %w", path, err)
	}
	files, err := store.List()
	if err != nil {
		return nil, nil, fmt.Errorf("vault: scan %s: %w", path, err)
	}
	return store, files, nil
}

// Open scans path and makes it the current vault. The walk runs outside the
// lock; only the swap is guarded.
func (v *Vault) Open(path string) (Snapshot, error) {
	store, files, err := scan(path, v.exclude)
	if err != nil {
		return Snapshot{}, err
	}

	v.mu.Lock()
	v.store = store
	v.files = files
	v.mu.Unlock()

	return Snapshot{RootPath: store.Root(), FilePaths: clone(files)}, nil
}

// Rescan re-opens the current root.
func (v *Vault) Rescan() (Snapshot, error) {
	snap, err := v.Snapshot()
	if err != nil {
		return Snapshot{}, err
	}
	return v.Open(snap.RootPath)
}

// Snapshot returns a copy of the current state.
func (v *Vault) Snapshot() (Snapshot, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.store == nil {
		return Snapshot{}, apperr.ErrNoVaultOpen
	}
	return Snapshot{RootPath: v.store.Root(), FilePaths: clone(v.files)}, nil
}

// Files returns a copy of the sorted relative markdown paths.
func (v *Vault) Files() ([]string, error) {
	snap, err := v.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.FilePaths, nil
}

// Storage returns guarded file access for the current root.
func (v *Vault) Storage() (storage.Provider, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.store == nil {
		return nil, apperr.ErrNoVaultOpen
	}
	return v.store, nil
}

// RecordCreated inserts rel into the file set. It is a no-op when rel is
// already present or when root is no longer the open vault.
func (v *Vault) RecordCreated(root, rel string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.store == nil || v.store.Root() != root {
		return
	}
	i := sort.SearchStrings(v.files, rel)
	if i < len(v.files) && v.files[i] == rel {
		return
	}
	v.files = append(v.files, "")
	copy(v.files[i+1:], v.files[i:])
	v.files[i] = rel
}

// RecordDeleted removes rel from the file set when root is still the open
// vault.
func (v *Vault) RecordDeleted(root, rel string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.store == nil || v.store.Root() != root {
		return
	}
	kept := v.files[:0]
	for _, f := range v.files {
		if f != rel {
			kept = append(kept, f)
		}
	}
	v.files = kept
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
