// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the vault engine as tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ledger/internal/noteservice"
)

// OutlineFormatURI identifies the outline format resource.
const OutlineFormatURI = "ledger://outline-format"

// Server wraps the MCP server with vault tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all vault tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"ledger",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("open_vault",
		mcp.WithDescription("Open a directory as the current vault and list its markdown files."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path of the vault directory")),
	), s.openVault)

	s.mcp.AddTool(mcp.NewTool("list_files",
		mcp.WithDescription("List the markdown files of the open vault, relative to its root."),
	), s.listFiles)

	s.mcp.AddTool(mcp.NewTool("read_file",
		mcp.WithDescription("Read a vault file. Returns its content and SHA-256 checksum."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the file (e.g. folder/note.md)")),
	), s.readFile)

	s.mcp.AddTool(mcp.NewTool("write_file",
		mcp.WithDescription("Replace the content of a vault file. "+
			"Content SHOULD follow the outline format; read it via get_outline_contract "+
			"or the "+OutlineFormatURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the file")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New file content")),
		mcp.WithString("if_match", mcp.Description("Checksum from read_file; the write fails if the file changed since")),
	), s.writeFile)

	s.mcp.AddTool(mcp.NewTool("create_file",
		mcp.WithDescription("Create a new empty markdown file. The parent folder must exist."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new file (must end with .md)")),
	), s.createFile)

	s.mcp.AddTool(mcp.NewTool("delete_file",
		mcp.WithDescription("Delete a file from the vault."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the file")),
	), s.deleteFile)

	s.mcp.AddTool(mcp.NewTool("parse_file",
		mcp.WithDescription("Parse markdown list items into a forest of nodes with ids, depth, tags and parent/children links."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content to parse")),
	), s.parseFile)

	s.mcp.AddTool(mcp.NewTool("query_by_tag",
		mcp.WithDescription("Find list items carrying any of the given #tags across vault files. "+
			"With scope, only the node with that id and its descendants match."),
		mcp.WithArray("tags", mcp.Required(), mcp.WithStringItems(), mcp.Description("Tags without the leading #")),
		mcp.WithNumber("scope", mcp.Description("Optional node id restricting matches to its subtree")),
		mcp.WithArray("files", mcp.WithStringItems(), mcp.Description("Files to search; all vault files when omitted")),
	), s.queryByTag)

	s.mcp.AddTool(mcp.NewTool("search_full_text",
		mcp.WithDescription("Case-insensitive line search across vault files. Returns at most 100 matches."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithArray("files", mcp.WithStringItems(), mcp.Description("Files to search; all vault files when omitted")),
		mcp.WithBoolean("fuzzy", mcp.Description("Omit match offsets")),
	), s.searchFullText)

	s.mcp.AddTool(mcp.NewTool("get_outline_contract",
		mcp.WithDescription("Returns the outline format contract. "+
			"Call this before writing files to ensure correct structure."),
	), s.getOutlineContract)

	// Resource: outline format contract.
	s.mcp.AddResource(
		mcp.NewResource(OutlineFormatURI, "Outline Format Contract",
			mcp.WithResourceDescription("Markdown outline format understood by the list parser and tag queries."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readOutlineFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// optionalFiles returns nil when the caller left files out.
func optionalFiles(req mcp.CallToolRequest) []string {
	if _, ok := req.GetArguments()["files"]; !ok {
		return nil
	}
	return req.GetStringSlice("files", nil)
}

func (s *Server) openVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.svc.OpenVault(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(snap)
}

func (s *Server) listFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.svc.ListFiles(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.Join(files, "\n")), nil
}

func (s *Server) readFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fc, err := s.svc.ReadFile(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(fc)
}

func (s *Server) writeFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fc, err := s.svc.WriteFile(ctx, path, content, req.GetString("if_match", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("written: %s (%s)", fc.Path, fc.Checksum)), nil
}

func (s *Server) createFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rel, err := s.svc.CreateFile(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", rel)), nil
}

func (s *Server) deleteFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rel, err := s.svc.DeleteFile(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", rel)), nil
}

func (s *Server) parseFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.ParseFile(ctx, content))
}

func (s *Server) queryByTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := req.RequireStringSlice("tags")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	scope, err := noteservice.ParseScope(req.GetArguments()["scope"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	matches, err := s.svc.QueryByTag(ctx, tags, scope, optionalFiles(req))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(matches)
}

func (s *Server) searchFullText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.SearchFullText(ctx, query, optionalFiles(req), req.GetBool("fuzzy", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) getOutlineContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(OutlineFormatContract), nil
}

func (s *Server) readOutlineFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      OutlineFormatURI,
			MIMEType: "text/markdown",
			Text:     OutlineFormatContract,
		},
	}, nil
}
