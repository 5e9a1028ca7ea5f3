// Package models defines the domain types shared by the parser, the query
// and search engines, and the transports.
package models

// Node is one markdown list item. Nodes of a single parse form an arena:
// Node.ID is the index of the node in the returned slice, and ParentID and
// ChildrenIDs refer to positions in that same slice. Ids are meaningless
// across parses or across files.
type Node struct {
	ID          int      `json:"id"`
	Depth       int      `json:"depth"`
	Text        string   `json:"text"`
	Tags        []string `json:"tags"`
	ParentID    *int     `json:"parent_id"`
	ChildrenIDs []int    `json:"children_ids"`
}

// QueryMatch is a node that satisfied a tag query.
type QueryMatch struct {
	FilePath string `json:"file_path"`
	// ParentPath is the " > "-joined text of the node's ancestors, root first.
	// Nil for top-level items.
	ParentPath *string `json:"parent_path,omitempty"`
	Node       Node    `json:"node"`
}

// SearchMatch is one matching line from a full-text search.
type SearchMatch struct {
	FilePath    string `json:"file_path"`
	Line        string `json:"snippet_or_line"`
	LineNumber  int    `json:"line_number"`
	StartOffset *int   `json:"start_offset,omitempty"`
	EndOffset   *int   `json:"end_offset,omitempty"`
}
