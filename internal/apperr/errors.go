// Package apperr holds the sentinel errors shared by every layer of the vault engine.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPath     = errors.New("invalid path")
	ErrPathEscapesRoot = errors.New("path is outside vault")
	ErrParentNotFound  = errors.New("parent directory not found")
	ErrPathNotFound    = errors.New("path not found")
	ErrNotADirectory   = errors.New("not a directory")
	ErrAlreadyExists   = errors.New("already exists")
	ErrNotAFile        = errors.New("not a file")
	ErrNoVaultOpen     = errors.New("no vault open")
	ErrInvalidScope    = errors.New("invalid scope")
	ErrConflict        = errors.New("conflict")
	ErrIO              = errors.New("io error")
)

// IO marks err as an underlying OS failure. The result matches both ErrIO
// and err with errors.Is.
func IO(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrIO, err)
}
