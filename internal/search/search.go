// Package search implements bounded, case-insensitive, line-level search
// over vault files.
package search

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/ledger/internal/models"
)

// MaxResults caps the number of matches returned by FullText.
const MaxResults = 100

// Reader reads a vault file by its root-relative path.
type Reader interface {
	Read(path string) ([]byte, error)
}

// Request describes a full-text search.
type Request struct {
	Query string
	Files []string
	// Fuzzy omits match offsets. Matching itself is unchanged.
	Fuzzy bool
}

// FullText returns up to MaxResults lines containing req.Query, compared
// case-insensitively. Files that cannot be read are skipped.
func FullText(src Reader, req Request) []models.SearchMatch {
	out := []models.SearchMatch{}
	needle := []rune(strings.ToLower(req.Query))

	for _, path := range req.Files {
		data, err := src.Read(path)
		if err != nil {
			slog.Debug("search: skip file", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		if !utf8.Valid(data) {
			slog.Debug("search: skip non-UTF-8 file", slog.String("path", path))
			continue
		}
		for i, line := range Lines(string(data)) {
			start, end, ok := indexFold(line, needle)
			if !ok {
				continue
			}
			m := models.SearchMatch{
				FilePath:   path,
				Line:       line,
				LineNumber: i + 1,
			}
			if !req.Fuzzy {
				m.StartOffset, m.EndOffset = &start, &end
			}
			out = append(out, m)
			if len(out) >= MaxResults {
				return out
			}
		}
	}
	return out
}

// Lines splits content on "\n", strips a trailing "\r" from each line and
// drops the empty element after a final newline.
func Lines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// indexFold finds the first occurrence of the lower-cased needle in line and
// returns its byte range in line.
func indexFold(line string, needle []rune) (int, int, bool) {
	if len(needle) == 0 {
		return 0, 0, true
	}
	for start := 0; start < len(line); {
		if end, ok := hasPrefixFold(line[start:], needle); ok {
			return start, start + end, true
		}
		_, size := utf8.DecodeRuneInString(line[start:])
		start += size
	}
	return 0, 0, false
}

func hasPrefixFold(s string, needle []rune) (int, bool) {
	pos := 0
	for _, want := range needle {
		if pos >= len(s) {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(s[pos:])
		if unicode.ToLower(r) != want {
			return 0, false
		}
		pos += size
	}
	return pos, true
}
