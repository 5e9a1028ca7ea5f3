// Package parser turns markdown list items into a forest of addressable nodes.
package parser

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/starford/ledger/internal/models"
)

var tagRe = regexp.MustCompile(`#([\p{L}\p{M}\p{Nd}\p{Pc}-]+)`)

// ExtractTags returns every #tag in s without the marker, in order of
// appearance. Duplicates are kept. Markers inside code spans or links are
// not special-cased.
func ExtractTags(s string) []string {
	matches := tagRe.FindAllStringSubmatch(s, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

// Parse returns the list items of content as an arena of nodes. It never
// fails: content without lists, or with irregular nesting, yields an empty
// or partial forest.
func Parse(content string) []models.Node {
	source := []byte(content)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	b := &builder{source: source, nodes: []models.Node{}}
	_ = ast.Walk(doc, b.visit)
	return b.nodes
}

// builder is a single-pass state machine over the enter/exit events of an
// AST walk.
type builder struct {
	source []byte
	nodes  []models.Node

	listDepth int
	stack     []int // ids of open ancestors, one per depth
	acc       strings.Builder
	// open is true while the current item's own inline text is being
	// collected. It ends at the item's first nested list or at its exit.
	open bool
}

func (b *builder) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n := n.(type) {
	case *ast.List:
		if entering {
			b.close()
			b.listDepth++
		} else if b.listDepth > 0 {
			b.listDepth--
		}
	case *ast.ListItem:
		if entering {
			b.acc.Reset()
			b.open = true
		} else {
			b.close()
		}
	case *ast.Text:
		if entering && b.open {
			b.acc.Write(n.Segment.Value(b.source))
			switch {
			case n.HardLineBreak():
				b.acc.WriteByte('\n')
			case n.SoftLineBreak():
				b.acc.WriteByte(' ')
			}
		}
	case *ast.String:
		if entering && b.open {
			b.acc.Write(n.Value)
		}
	case *ast.AutoLink:
		if entering && b.open {
			b.acc.Write(n.Label(b.source))
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering && b.open {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.acc.Write(seg.Value(b.source))
			}
		}
	}
	return ast.WalkContinue, nil
}

// close flushes the open item, if any, into a node. Blank items are dropped
// without consuming an id; their children attach to the nearest surviving
// ancestor on the stack.
func (b *builder) close() {
	if !b.open {
		return
	}
	b.open = false

	txt := strings.TrimSpace(b.acc.String())
	b.acc.Reset()
	if txt == "" {
		return
	}

	depth := max(b.listDepth-1, 0)
	b.stack = b.stack[:min(depth, len(b.stack))]

	id := len(b.nodes)
	var parentID *int
	if len(b.stack) > 0 {
		pid := b.stack[len(b.stack)-1]
		parentID = &pid
		b.nodes[pid].ChildrenIDs = append(b.nodes[pid].ChildrenIDs, id)
	}
	b.stack = append(b.stack, id)

	b.nodes = append(b.nodes, models.Node{
		ID:          id,
		Depth:       depth,
		Text:        txt,
		Tags:        ExtractTags(txt),
		ParentID:    parentID,
		ChildrenIDs: []int{},
	})
}
