package token

import "fmt"

// Position is a location in SQL source text.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset
}

// IsValid returns true if the position points into source (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a half-open range of source text.
type Span struct {
	Start Position
	End   Position
}

// IsValid returns true if both ends are valid.
func (s Span) IsValid() bool {
	return s.Start.IsValid() && s.End.IsValid()
}

// Text returns the source text covered by the span.
func (s Span) Text(src string) string {
	if !s.IsValid() || s.Start.Offset < 0 || s.End.Offset > len(src) || s.Start.Offset > s.End.Offset {
		return ""
	}
	return src[s.Start.Offset:s.End.Offset]
}
