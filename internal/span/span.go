// Package span provides source positions shared by tokens, diagnostics and AST nodes.
package span

import "fmt"

// Position is a 1-based line/column location in the source.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span represents a range in source code [Start, End).
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func (s Span) String() string {
	return fmt.Sprintf("%s..%s", s.Start, s.End)
}

// Line returns the line the span starts on.
func (s Span) Line() int {
	return s.Start.Line
}

// At returns an empty span positioned at line:col.
func At(line, col int) Span {
	p := Position{Line: line, Column: col}
	return Span{Start: p, End: p}
}

// Join returns the smallest span covering both a and b.
func Join(a, b Span) Span {
	return Span{Start: a.Start, End: b.End}
}
