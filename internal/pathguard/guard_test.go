package pathguard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/ledger/internal/apperr"
)

func tempRoot(t *testing.T) string {
	t.Helper()
	root, err := Canonical(t.TempDir())
	require.NoError(t, err)
	return root
}

func TestResolve_TraversalRejectedBeforeFilesystem(t *testing.T) {
	// The root does not exist; traversal must still be reported as InvalidPath.
	missingRoot := filepath.Join(t.TempDir(), "nope")
	cases := []string{
		"../outside.md",
		"a/../../b.md",
		"..",
		`sub\..\..\x.md`,
		"/abs/../etc/passwd",
	}
	for _, p := range cases {
		_, err := Resolve(missingRoot, p)
		assert.ErrorIs(t, err, apperr.ErrInvalidPath, "path %q", p)
	}
}

func TestResolve_DotsInsideNameAllowed(t *testing.T) {
	root := tempRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a..b.md"), []byte("x"), 0o644))

	got, err := Resolve(root, "a..b.md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a..b.md"), got)
}

func TestResolve_ExistingFile(t *testing.T) {
	root := tempRoot(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "n.md"), []byte("x"), 0o644))

	got, err := Resolve(root, "sub/n.md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "sub", "n.md"), got)
}

func TestResolve_CreationCase(t *testing.T) {
	root := tempRoot(t)

	got, err := Resolve(root, "new.md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "new.md"), got)

	_, err = Resolve(root, "missing/dir/new.md")
	assert.ErrorIs(t, err, apperr.ErrParentNotFound)
}

func TestResolve_AbsoluteOutsideRoot(t *testing.T) {
	root := tempRoot(t)
	other := tempRoot(t)
	outside := filepath.Join(other, "x.md")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	_, err := Resolve(root, outside)
	assert.ErrorIs(t, err, apperr.ErrPathEscapesRoot)

	_, err = Resolve(root, filepath.Join(other, "new.md"))
	assert.ErrorIs(t, err, apperr.ErrPathEscapesRoot)
}

func TestResolve_SymlinkEscape(t *testing.T) {
	root := tempRoot(t)
	other := tempRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(other, "secret.md"), []byte("x"), 0o644))

	if err := os.Symlink(filepath.Join(other, "secret.md"), filepath.Join(root, "link.md")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	require.NoError(t, os.Symlink(other, filepath.Join(root, "outdir")))

	_, err := Resolve(root, "link.md")
	assert.ErrorIs(t, err, apperr.ErrPathEscapesRoot)

	// Creation under a symlinked directory that leaves the vault.
	_, err = Resolve(root, "outdir/new.md")
	assert.ErrorIs(t, err, apperr.ErrPathEscapesRoot)
}

func TestResolve_SymlinkInsideRoot(t *testing.T) {
	root := tempRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "target.md"), []byte("x"), 0o644))
	if err := os.Symlink(filepath.Join(root, "target.md"), filepath.Join(root, "alias.md")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got, err := Resolve(root, "alias.md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "target.md"), got)
}

func TestResolve_MissingRoot(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "gone"), "a.md")
	assert.ErrorIs(t, err, apperr.ErrPathNotFound)
}

func TestWithin(t *testing.T) {
	assert.True(t, Within("/v", "/v"))
	assert.True(t, Within("/v", "/v/a.md"))
	assert.False(t, Within("/v", "/vault/a.md"))
	assert.False(t, Within("/v", "/"))
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		md      bool
		wantErr bool
	}{
		{"note.md", true, false},
		{"dir/note.md", true, false},
		{"note.txt", true, true},
		{"note.txt", false, false},
		{"NOTE.MD", true, true},
		{"", true, true},
		{"/etc/note.md", true, true},
		{`\share\note.md`, true, true},
		{"../note.md", true, true},
		{"a/../note.md", false, true},
	}
	for _, tt := range tests {
		err := ValidateName(tt.name, tt.md)
		if tt.wantErr {
			assert.ErrorIs(t, err, apperr.ErrInvalidPath, "name %q", tt.name)
		} else {
			assert.NoError(t, err, "name %q", tt.name)
		}
	}
}

func TestIsMarkdown(t *testing.T) {
	assert.True(t, IsMarkdown("a/b.md"))
	assert.False(t, IsMarkdown("b.txt"))
	assert.False(t, IsMarkdown("b.markdown"))
	assert.False(t, IsMarkdown("md"))
}
