package core

import "strings"

// LineIndex splits raw source on literal line-feed and exposes 1-based
// line access (spec §4.1). Indexing is 1-based externally, 0-based
// internally.
type LineIndex struct {
	lines []string
}

// NewLineIndex builds a LineIndex over content. A trailing empty line is
// retained so line numbers line up with editor conventions.
func NewLineIndex(content []byte) *LineIndex {
	return &LineIndex{lines: strings.Split(string(content), "\n")}
}

// LineCount returns the number of lines, including a trailing empty one.
func (idx *LineIndex) LineCount() int {
	return len(idx.lines)
}

// Text returns the raw (untrimmed) text of 1-based line n, or "" if out
// of range. Carriage returns are preserved.
func (idx *LineIndex) Text(n int) string {
	if n < 1 || n > len(idx.lines) {
		return ""
	}
	return idx.lines[n-1]
}

// Trimmed returns line n with leading/trailing whitespace and carriage
// returns normalized away. It does not affect the stored Text value.
func (idx *LineIndex) Trimmed(n int) string {
	return strings.TrimRight(strings.TrimSpace(idx.Text(n)), "\r")
}

var skippablePrefixes = []string{"//", "#", "/*", "*/", "*", "<"}

// IsSkippable reports whether trimmed line n begins with a comment marker
// or a markup open sigil. Skippable lines are never flagged but are still
// counted toward LineCount.
func (idx *LineIndex) IsSkippable(n int) bool {
	t := idx.Trimmed(n)
	if t == "" {
		return false
	}
	for _, p := range skippablePrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}
