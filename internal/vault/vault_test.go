package vault

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/ledger/internal/apperr"
	"github.com/starford/ledger/internal/pathguard"
)

func seed(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func TestOpen_ListsMarkdownSorted(t *testing.T) {
	dir := seed(t, map[string]string{
		"b.md":           "b",
		"a.md":           "a",
		"assets/pic.png": "png",
	})

	v := New()
	snap, err := v.Open(dir)
	require.NoError(t, err)

	canon, err := pathguard.Canonical(dir)
	require.NoError(t, err)
	assert.Equal(t, canon, snap.RootPath)
	assert.Equal(t, []string{"a.md", "b.md"}, snap.FilePaths)
}

func TestOpen_BadInput(t *testing.T) {
	v := New()

	_, err := v.Open(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, apperr.ErrPathNotFound)

	f := filepath.Join(t.TempDir(), "file.md")
	require.NoError(t, os.WriteFile(f, nil, 0o644))
	_, err = v.Open(f)
	assert.ErrorIs(t, err, apperr.ErrNotADirectory)

	_, err = v.Snapshot()
	assert.ErrorIs(t, err, apperr.ErrNoVaultOpen)
}

func TestNoVaultOpen(t *testing.T) {
	var v Vault
	_, err := v.Files()
	assert.ErrorIs(t, err, apperr.ErrNoVaultOpen)
	_, err = v.Storage()
	assert.ErrorIs(t, err, apperr.ErrNoVaultOpen)
	_, err = v.Rescan()
	assert.ErrorIs(t, err, apperr.ErrNoVaultOpen)
}

func TestRecordCreatedAndDeleted(t *testing.T) {
	dir := seed(t, map[string]string{"b.md": "", "d.md": ""})
	v := New()
	snap, err := v.Open(dir)
	require.NoError(t, err)

	v.RecordCreated(snap.RootPath, "c.md")
	v.RecordCreated(snap.RootPath, "a.md")
	v.RecordCreated(snap.RootPath, "c.md")
	files, err := v.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "b.md", "c.md", "d.md"}, files)

	v.RecordDeleted(snap.RootPath, "b.md")
	v.RecordDeleted(snap.RootPath, "zzz.md")
	files, _ = v.Files()
	assert.Equal(t, []string{"a.md", "c.md", "d.md"}, files)
}

func TestRecordIgnoredForStaleRoot(t *testing.T) {
	first := seed(t, map[string]string{"one.md": ""})
	second := seed(t, map[string]string{"two.md": ""})
	v := New()

	old, err := v.Open(first)
	require.NoError(t, err)
	_, err = v.Open(second)
	require.NoError(t, err)

	v.RecordCreated(old.RootPath, "late.md")
	v.RecordDeleted(old.RootPath, "two.md")

	files, _ := v.Files()
	assert.Equal(t, []string{"two.md"}, files)
}

func TestSnapshotIsACopy(t *testing.T) {
	dir := seed(t, map[string]string{"a.md": ""})
	v := New()
	snap, err := v.Open(dir)
	require.NoError(t, err)

	snap.FilePaths[0] = "mutated.md"
	files, _ := v.Files()
	assert.Equal(t, []string{"a.md"}, files)
}

func TestRescanPicksUpDiskChanges(t *testing.T) {
	dir := seed(t, map[string]string{"a.md": ""})
	v := New()
	_, err := v.Open(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), nil, 0o644))
	require.NoError(t, os.Remove(filepath.Join(dir, "a.md")))

	snap, err := v.Rescan()
	require.NoError(t, err)
	assert.Equal(t, []string{"b.md"}, snap.FilePaths)
}

func TestExcludeApplied(t *testing.T) {
	dir := seed(t, map[string]string{"a.md": "", "archive/old.md": ""})
	v := New("archive/**")
	snap, err := v.Open(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md"}, snap.FilePaths)
}

func TestScanDoesNotOpen(t *testing.T) {
	dir := seed(t, map[string]string{"x.md": "", "sub/y.md": ""})
	snap, err := Scan(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"sub/y.md", "x.md"}, snap.FilePaths)
}

func TestConcurrentRecordAndRead(t *testing.T) {
	dir := seed(t, nil)
	v := New()
	snap, err := v.Open(dir)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			v.RecordCreated(snap.RootPath, "n.md")
		}()
		go func() {
			defer wg.Done()
			_, _ = v.Files()
		}()
	}
	wg.Wait()

	files, _ := v.Files()
	assert.Equal(t, []string{"n.md"}, files)
}
