package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapReader map[string]string

func (m mapReader) Read(path string) ([]byte, error) {
	s, ok := m[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(s), nil
}

const projects = "- Project A\n" +
	"  - Task 1 #task\n" +
	"  - Task 2\n" +
	"- Project B\n" +
	"  - Task 3 #task\n"

func ptr(i int) *int { return &i }

func TestByTag_ScopeExcludesSiblings(t *testing.T) {
	src := mapReader{"p.md": projects}

	got := ByTag(src, Request{Tags: []string{"task"}, Scope: ptr(0), Files: []string{"p.md"}})
	require.Len(t, got, 1)
	assert.Equal(t, "Task 1 #task", got[0].Node.Text)
	require.NotNil(t, got[0].ParentPath)
	assert.Equal(t, "Project A", *got[0].ParentPath)
	assert.Equal(t, "p.md", got[0].FilePath)
}

func TestByTag_NoScope(t *testing.T) {
	src := mapReader{"p.md": projects}

	got := ByTag(src, Request{Tags: []string{"task"}, Files: []string{"p.md"}})
	require.Len(t, got, 2)
	assert.Equal(t, "Task 1 #task", got[0].Node.Text)
	assert.Equal(t, "Task 3 #task", got[1].Node.Text)
	assert.Equal(t, "Project B", *got[1].ParentPath)
}

func TestByTag_ScopeNodeItselfMatches(t *testing.T) {
	src := mapReader{"p.md": "- Root #task\n  - Child #task\n- Other #task\n"}

	got := ByTag(src, Request{Tags: []string{"task"}, Scope: ptr(0), Files: []string{"p.md"}})
	require.Len(t, got, 2)
	assert.Nil(t, got[0].ParentPath)
	assert.Equal(t, 1, got[1].Node.ID)
}

func TestByTag_DeepBreadcrumb(t *testing.T) {
	src := mapReader{"d.md": "- a\n  - b\n    - c #x\n"}

	got := ByTag(src, Request{Tags: []string{"x"}, Files: []string{"d.md"}})
	require.Len(t, got, 1)
	assert.Equal(t, "a > b", *got[0].ParentPath)
	assert.Equal(t, 2, got[0].Node.Depth)
}

func TestByTag_AnyTagMatches(t *testing.T) {
	src := mapReader{"t.md": "- one #a\n- two #b\n- three #c\n"}

	got := ByTag(src, Request{Tags: []string{"a", "c"}, Files: []string{"t.md"}})
	require.Len(t, got, 2)
	assert.Equal(t, "one #a", got[0].Node.Text)
	assert.Equal(t, "three #c", got[1].Node.Text)
}

func TestByTag_FileOrderAndSkips(t *testing.T) {
	src := mapReader{
		"a.md": "- first #t\n",
		"b.md": "- second #t\n",
	}

	got := ByTag(src, Request{Tags: []string{"t"}, Files: []string{"b.md", "missing.md", "a.md"}})
	require.Len(t, got, 2)
	assert.Equal(t, "b.md", got[0].FilePath)
	assert.Equal(t, "a.md", got[1].FilePath)
}

func TestByTag_SkipsInvalidUTF8(t *testing.T) {
	src := mapReader{
		"bad.md":  "- broken \xff #t\n",
		"good.md": "- fine #t\n",
	}

	got := ByTag(src, Request{Tags: []string{"t"}, Files: []string{"bad.md", "good.md"}})
	require.Len(t, got, 1)
	assert.Equal(t, "good.md", got[0].FilePath)
}

func TestByTag_ScopeCoversChildOfBlankItem(t *testing.T) {
	src := mapReader{"b.md": "- a\n- <b></b>\n  - c #t\n- d #t\n"}

	got := ByTag(src, Request{Tags: []string{"t"}, Scope: ptr(0), Files: []string{"b.md"}})
	require.Len(t, got, 1)
	assert.Equal(t, "c #t", got[0].Node.Text)
	require.NotNil(t, got[0].ParentPath)
	assert.Equal(t, "a", *got[0].ParentPath)
}

func TestByTag_EmptyTags(t *testing.T) {
	src := mapReader{"p.md": projects}

	got := ByTag(src, Request{Files: []string{"p.md"}})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestByTag_ScopeOutOfRange(t *testing.T) {
	src := mapReader{"p.md": projects}

	got := ByTag(src, Request{Tags: []string{"task"}, Scope: ptr(42), Files: []string{"p.md"}})
	assert.Empty(t, got)
}
