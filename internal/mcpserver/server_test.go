package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ledger/internal/models"
	"github.com/starford/ledger/internal/noteservice"
	"github.com/starford/ledger/internal/testutil"
	"github.com/starford/ledger/internal/vault"
)

func testServer(t *testing.T, files map[string]string) (*Server, string) {
	t.Helper()
	dir, v := testutil.TestVault(t, files)
	srv := New(noteservice.NewService(v), "test")
	return srv, dir
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we test
	// through the tool handler functions directly.
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"open_vault":           srv.openVault,
		"list_files":           srv.listFiles,
		"read_file":            srv.readFile,
		"write_file":           srv.writeFile,
		"create_file":          srv.createFile,
		"delete_file":          srv.deleteFile,
		"parse_file":           srv.parseFile,
		"query_by_tag":         srv.queryByTag,
		"search_full_text":     srv.searchFullText,
		"get_outline_contract": srv.getOutlineContract,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateWriteAndReadFile(t *testing.T) {
	srv, _ := testServer(t, nil)

	r := callTool(t, srv, "create_file", map[string]any{"path": "test.md"})
	if text := resultText(r); text != "created: test.md" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "write_file", map[string]any{"path": "test.md", "content": "- Hello #x"})
	if r.IsError {
		t.Fatalf("write failed: %s", resultText(r))
	}

	r = callTool(t, srv, "read_file", map[string]any{"path": "test.md"})
	var fc noteservice.FileContent
	if err := json.Unmarshal([]byte(resultText(r)), &fc); err != nil {
		t.Fatalf("decode read result: %v", err)
	}
	if fc.Content != "- Hello #x" {
		t.Errorf("content = %q", fc.Content)
	}

	r = callTool(t, srv, "write_file", map[string]any{"path": "test.md", "content": "stale", "if_match": "nope"})
	if !r.IsError {
		t.Error("expected conflict for stale if_match")
	}
}

func TestCreateFile_RejectsNonMarkdown(t *testing.T) {
	srv, _ := testServer(t, nil)
	r := callTool(t, srv, "create_file", map[string]any{"path": "notes.txt"})
	if !r.IsError {
		t.Error("expected error for non-markdown file")
	}
}

func TestListAndDeleteFiles(t *testing.T) {
	srv, _ := testServer(t, map[string]string{"a.md": "a", "b.md": "b"})

	r := callTool(t, srv, "list_files", map[string]any{})
	if text := resultText(r); text != "a.md\nb.md" {
		t.Errorf("list = %q", text)
	}

	r = callTool(t, srv, "delete_file", map[string]any{"path": "a.md"})
	if text := resultText(r); text != "deleted: a.md" {
		t.Errorf("delete = %q", text)
	}
	r = callTool(t, srv, "list_files", map[string]any{})
	if text := resultText(r); text != "b.md" {
		t.Errorf("list after delete = %q", text)
	}
}

func TestReadFileMissing(t *testing.T) {
	srv, _ := testServer(t, nil)
	r := callTool(t, srv, "read_file", map[string]any{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing file")
	}
}

func TestReadFileTraversal(t *testing.T) {
	srv, _ := testServer(t, nil)
	r := callTool(t, srv, "read_file", map[string]any{"path": "../../etc/passwd"})
	if !r.IsError {
		t.Error("expected error for traversal")
	}
}

func TestOpenVault(t *testing.T) {
	srv, _ := testServer(t, nil)
	other := t.TempDir()
	testutil.WriteFiles(t, other, map[string]string{"x.md": ""})

	r := callTool(t, srv, "open_vault", map[string]any{"path": other})
	var snap vault.Snapshot
	if err := json.Unmarshal([]byte(resultText(r)), &snap); err != nil {
		t.Fatalf("decode: %v (%s)", err, resultText(r))
	}
	if len(snap.FilePaths) != 1 || snap.FilePaths[0] != "x.md" {
		t.Errorf("file_paths = %v", snap.FilePaths)
	}
}

func TestParseFile(t *testing.T) {
	srv, _ := testServer(t, nil)
	r := callTool(t, srv, "parse_file", map[string]any{"content": "- a\n  - b"})
	var nodes []models.Node
	if err := json.Unmarshal([]byte(resultText(r)), &nodes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(nodes) != 2 || nodes[1].ParentID == nil || *nodes[1].ParentID != 0 {
		t.Errorf("nodes = %+v", nodes)
	}
}

func TestQueryByTag(t *testing.T) {
	srv, _ := testServer(t, map[string]string{
		"p.md": "- Project A\n  - Task 1 #task\n  - Task 2\n- Project B\n  - Task 3 #task\n",
	})

	// JSON numbers arrive as float64.
	r := callTool(t, srv, "query_by_tag", map[string]any{"tags": []any{"task"}, "scope": float64(0)})
	var matches []models.QueryMatch
	if err := json.Unmarshal([]byte(resultText(r)), &matches); err != nil {
		t.Fatalf("decode: %v (%s)", err, resultText(r))
	}
	if len(matches) != 1 || matches[0].Node.Text != "Task 1 #task" {
		t.Errorf("matches = %+v", matches)
	}

	r = callTool(t, srv, "query_by_tag", map[string]any{"tags": []any{"task"}, "scope": 0.5})
	if !r.IsError {
		t.Error("expected error for fractional scope")
	}

	r = callTool(t, srv, "query_by_tag", map[string]any{"tags": []any{"task"}, "files": []any{}})
	if text := resultText(r); text != "[]" {
		t.Errorf("empty file list = %q, want []", text)
	}
}

func TestSearchFullText(t *testing.T) {
	srv, _ := testServer(t, map[string]string{"a.md": "Hello world\n"})

	r := callTool(t, srv, "search_full_text", map[string]any{"query": "hello", "fuzzy": true})
	var results []models.SearchMatch
	if err := json.Unmarshal([]byte(resultText(r)), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 1 || results[0].StartOffset != nil {
		t.Errorf("results = %+v", results)
	}
}

func TestOutlineContract(t *testing.T) {
	srv, _ := testServer(t, nil)
	r := callTool(t, srv, "get_outline_contract", map[string]any{})
	if !strings.Contains(resultText(r), "# Ledger Outline Format") {
		t.Error("contract text missing heading")
	}

	contents, err := srv.readOutlineFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
}
