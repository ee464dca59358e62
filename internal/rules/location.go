package rules

import (
	"fmt"
	"strings"
)

// SourceLocation pins a token or AST node to its origin within a source
// buffer. Nodes built by parsing always carry a non-zero location; nodes
// synthesised by the assembler outside of any parse (e.g. a default branch)
// may use SentinelLocation.
type SourceLocation struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Source string `json:"-"` // shared reference to the originating buffer
}

// SentinelLocation is used for synthetic nodes that have no source origin.
var SentinelLocation = SourceLocation{Line: 1, Column: 1}

func (l SourceLocation) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Excerpt renders the source line(s) around the location with a caret
// pointing at the offending column, +/- ctxLines lines of context.
func (l SourceLocation) Excerpt(ctxLines int) string {
	if l.Source == "" {
		return ""
	}
	lines := strings.Split(l.Source, "\n")
	start := l.Line - 1 - ctxLines
	if start < 0 {
		start = 0
	}
	end := l.Line - 1 + ctxLines
	if end >= len(lines) {
		end = len(lines) - 1
	}

	var b strings.Builder
	for i := start; i <= end && i < len(lines); i++ {
		lineNo := i + 1
		fmt.Fprintf(&b, "%4d | %s\n", lineNo, lines[i])
		if lineNo == l.Line {
			col := l.Column
			if col < 1 {
				col = 1
			}
			fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
		}
	}
	return b.String()
}
