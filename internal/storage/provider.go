// Package storage defines guarded file access over a vault root.
package storage

// Provider is the interface for vault file operations. Paths are relative
// to the vault root, or absolute paths inside it.
type Provider interface {
	// Root returns the canonical vault directory.
	Root() string
	// List returns the sorted, forward-slash relative paths of every
	// markdown file under the root.
	List() ([]string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the content of the file at path.
	Write(path string, content []byte) error
	// Create makes a new empty markdown file and returns its relative path.
	Create(name string) (string, error)
	// Delete removes the file at path and returns its relative path.
	Delete(path string) (string, error)
}

var _ Provider = (*FS)(nil)
