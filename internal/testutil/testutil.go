// Package testutil provides shared test helpers for setting up vaults.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/ledger/internal/vault"
)

// WriteFiles creates each relative path under dir with its content,
// making parent directories as needed.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// TestVault creates a temporary vault directory seeded with files and
// returns it together with an opened vault.Vault.
func TestVault(t *testing.T, files map[string]string) (string, *vault.Vault) {
	t.Helper()
	dir := t.TempDir()
	WriteFiles(t, dir, files)
	v := vault.New()
	if _, err := v.Open(dir); err != nil {
		t.Fatal(err)
	}
	return dir, v
}
