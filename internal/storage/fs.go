package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/starford/ledger/internal/apperr"
	"github.com/starford/ledger/internal/pathguard"
)

// TempPrefix starts the name of every in-flight atomic write.
const TempPrefix = ".ledger-tmp-"

const tmpPattern = TempPrefix + "*"

// FS implements Provider backed by the local file system.
type FS struct {
	root    string // canonical path to vault directory
	exclude []string
}

// Option configures an FS.
type Option func(*FS)

// WithExclude skips files and directories whose relative path matches any
// of the doublestar patterns during List.
func WithExclude(patterns ...string) Option {
	return func(f *FS) {
		f.exclude = append(f.exclude, patterns...)
	}
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string, opts ...Option) (*FS, error) {
	canon, err := pathguard.Canonical(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(canon)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", apperr.IO(err))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: %w: %s", apperr.ErrNotADirectory, root)
	}
	f := &FS{root: canon}
	for _, o := range opts {
		o(f)
	}
	for _, p := range f.exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("storage: bad exclude pattern %q", p)
		}
	}
	return f, nil
}

// Root returns the canonical vault directory.
func (f *FS) Root() string { return f.root }

// Resolve maps path to its canonical location inside the root.
func (f *FS) Resolve(path string) (string, error) {
	return pathguard.Resolve(f.root, path)
}

// List walks the root and returns every file whose extension is exactly
// ".md". Symlinked directories are not followed.
func (f *FS) List() ([]string, error) {
	out := []string{}
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == f.root {
			return nil
		}
		rel, err := pathguard.Rel(f.root, p)
		if err != nil {
			return err
		}
		if f.excluded(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !pathguard.IsMarkdown(d.Name()) {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", apperr.IO(err))
	}
	sort.Strings(out)
	return out, nil
}

func (f *FS) excluded(rel string) bool {
	for _, p := range f.exclude {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
	}
	return false
}

// Read returns the raw bytes of a vault file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.Resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, mapErr(err, abs))
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
// The parent directory must already exist.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.Resolve(path)
	if err != nil {
		return err
	}
	if info, err := os.Stat(abs); err == nil && !info.Mode().IsRegular() {
		return fmt.Errorf("storage: write %s: %w", path, apperr.ErrNotAFile)
	}
	dir := filepath.Dir(abs)

	tmp, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", apperr.IO(err))
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", apperr.IO(err))
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", apperr.IO(err))
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", apperr.IO(err))
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", apperr.IO(err))
	}
	success = true
	return nil
}

// Create makes an empty markdown file. It fails with ErrAlreadyExists when
// the file is already there and never creates missing directories.
func (f *FS) Create(name string) (string, error) {
	if err := pathguard.ValidateName(name, true); err != nil {
		return "", err
	}
	abs, err := f.Resolve(name)
	if err != nil {
		return "", err
	}
	file, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("storage: create %s: %w", name, apperr.ErrAlreadyExists)
		}
		return "", fmt.Errorf("storage: create %s: %w", name, apperr.IO(err))
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("storage: create %s: %w", name, apperr.IO(err))
	}
	return pathguard.Rel(f.root, abs)
}

// Delete removes a regular file from the vault.
func (f *FS) Delete(path string) (string, error) {
	abs, err := f.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("storage: delete %s: %w", path, apperr.ErrNotAFile)
		}
		return "", fmt.Errorf("storage: delete %s: %w", path, apperr.IO(err))
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("storage: delete %s: %w", path, apperr.ErrNotAFile)
	}
	if err := os.Remove(abs); err != nil {
		return "", fmt.Errorf("storage: delete %s: %w", path, apperr.IO(err))
	}
	return pathguard.Rel(f.root, abs)
}

func mapErr(err error, abs string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return apperr.ErrPathNotFound
	}
	if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
		return apperr.ErrNotAFile
	}
	return apperr.IO(err)
}
