// Package pathguard decides whether a candidate path stays inside a vault root.
//
// Every file-mutating operation resolves its target through Resolve before
// touching storage. The guard assumes POSIX-like path semantics; it compares
// canonical paths byte-wise and does not fold case.
package pathguard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/ledger/internal/apperr"
)

// MarkdownExt is the only extension treated as a note.
const MarkdownExt = ".md"

// HasTraversal reports whether p contains a ".." segment. Both slash styles
// are treated as separators so "a\..\b" is caught on every platform.
func HasTraversal(p string) bool {
	for _, seg := range strings.FieldsFunc(p, isSep) {
		if seg == ".." {
			return true
		}
	}
	return false
}

func isSep(r rune) bool { return r == '/' || r == '\\' }

// Within reports whether p equals root or lies beneath it.
// Both arguments must already be canonical.
func Within(root, p string) bool {
	if p == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	return strings.HasPrefix(p, prefix)
}

// IsMarkdown reports whether p has exactly the ".md" extension.
func IsMarkdown(p string) bool {
	return filepath.Ext(p) == MarkdownExt
}

// Canonical returns the absolute, symlink-free form of an existing path.
func Canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", apperr.IO(err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", apperr.ErrPathNotFound, p)
		}
		return "", apperr.IO(err)
	}
	return resolved, nil
}

// Resolve returns the canonical location of target inside root.
//
// target may be relative to root or absolute. An existing target is
// canonicalized in full; a missing one is accepted when its parent exists
// inside root, and the result is the canonical parent joined with the base
// name.
func Resolve(root, target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("%w: empty path", apperr.ErrInvalidPath)
	}
	if HasTraversal(target) {
		return "", fmt.Errorf("%w: path must not contain ..: %s", apperr.ErrInvalidPath, target)
	}

	rootCanon, err := Canonical(root)
	if err != nil {
		return "", err
	}

	full := target
	if !filepath.IsAbs(full) {
		full = filepath.Join(rootCanon, target)
	}

	if _, err := os.Stat(full); err == nil {
		canon, err := filepath.EvalSymlinks(full)
		if err != nil {
			return "", apperr.IO(err)
		}
		if !Within(rootCanon, canon) {
			return "", fmt.Errorf("%w: %s", apperr.ErrPathEscapesRoot, target)
		}
		return canon, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", apperr.IO(err)
	}

	parent := filepath.Dir(full)
	parentCanon, err := filepath.EvalSymlinks(parent)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", apperr.ErrParentNotFound, target)
		}
		return "", apperr.IO(err)
	}
	if !Within(rootCanon, parentCanon) {
		return "", fmt.Errorf("%w: %s", apperr.ErrPathEscapesRoot, target)
	}
	return filepath.Join(parentCanon, filepath.Base(full)), nil
}

// ValidateName checks a caller-supplied name for a file about to be created.
// Absolute names and traversal segments are rejected; requireMarkdown
// additionally demands the ".md" extension.
func ValidateName(name string, requireMarkdown bool) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty file name", apperr.ErrInvalidPath)
	}
	if filepath.IsAbs(name) || filepath.VolumeName(name) != "" || isSep(rune(name[0])) {
		return fmt.Errorf("%w: absolute paths not allowed: %s", apperr.ErrInvalidPath, name)
	}
	if HasTraversal(name) {
		return fmt.Errorf("%w: path must not contain ..: %s", apperr.ErrInvalidPath, name)
	}
	if requireMarkdown && !IsMarkdown(name) {
		return fmt.Errorf("%w: not a markdown file: %s", apperr.ErrInvalidPath, name)
	}
	return nil
}

// Rel returns the forward-slash path of abs relative to root.
func Rel(root, abs string) (string, error) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", apperr.IO(err)
	}
	return filepath.ToSlash(rel), nil
}
