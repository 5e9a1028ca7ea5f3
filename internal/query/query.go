// Package query selects list items by tag across a set of vault files.
package query

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/starford/ledger/internal/models"
	"github.com/starford/ledger/internal/parser"
)

// BreadcrumbSeparator joins ancestor texts in QueryMatch.ParentPath.
const BreadcrumbSeparator = " > "

// Reader reads a vault file by its root-relative path.
type Reader interface {
	Read(path string) ([]byte, error)
}

// Request describes a tag query.
type Request struct {
	// Tags are matched without the leading '#'. A node matches when it
	// carries at least one of them.
	Tags []string
	// Scope, when set, restricts matches to the node with this id and its
	// descendants. Ids are per-file, so the scope applies to every file.
	Scope *int
	// Files are root-relative paths, visited in order.
	Files []string
}

// ByTag returns every node in req.Files that matches req. Files that cannot
// be read are skipped. Results follow file order, then node order.
func ByTag(src Reader, req Request) []models.QueryMatch {
	out := []models.QueryMatch{}
	if len(req.Tags) == 0 {
		return out
	}
	want := make(map[string]struct{}, len(req.Tags))
	for _, t := range req.Tags {
		want[t] = struct{}{}
	}

	for _, path := range req.Files {
		data, err := src.Read(path)
		if err != nil {
			slog.Debug("query: skip file", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		if !utf8.Valid(data) {
			slog.Debug("query: skip non-UTF-8 file", slog.String("path", path))
			continue
		}
		nodes := parser.Parse(string(data))
		for _, n := range nodes {
			if !hasAnyTag(n.Tags, want) || !inScope(nodes, n, req.Scope) {
				continue
			}
			out = append(out, models.QueryMatch{
				FilePath:   path,
				ParentPath: breadcrumb(nodes, n),
				Node:       n,
			})
		}
	}
	return out
}

func hasAnyTag(tags []string, want map[string]struct{}) bool {
	for _, t := range tags {
		if _, ok := want[t]; ok {
			return true
		}
	}
	return false
}

// inScope reports whether n is the scope node or one of its descendants.
func inScope(nodes []models.Node, n models.Node, scope *int) bool {
	if scope == nil || n.ID == *scope {
		return true
	}
	for p := n.ParentID; p != nil; p = nodes[*p].ParentID {
		if *p == *scope {
			return true
		}
	}
	return false
}

// breadcrumb returns the ancestor texts of n, root first, or nil for a
// top-level node.
func breadcrumb(nodes []models.Node, n models.Node) *string {
	var chain []string
	for p := n.ParentID; p != nil; p = nodes[*p].ParentID {
		chain = append(chain, nodes[*p].Text)
	}
	if len(chain) == 0 {
		return nil
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	s := strings.Join(chain, BreadcrumbSeparator)
	return &s
}
