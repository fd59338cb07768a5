// Package editor models the editor side of an inline completion: documents
// addressed in UTF-16 code units, positions, ranges and cancellation tokens.
package editor

import "fmt"

// Position is a zero-based line and a column measured in UTF-16 code units.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Compare returns -1 if p is before q, 1 if after, 0 if equal.
func (p Position) Compare(q Position) int {
	switch {
	case p.Line < q.Line:
		return -1
	case p.Line > q.Line:
		return 1
	case p.Character < q.Character:
		return -1
	case p.Character > q.Character:
		return 1
	}
	return 0
}

// Before reports whether p comes strictly before q.
func (p Position) Before(q Position) bool { return p.Compare(q) < 0 }

// Range is a span between two positions with Start <= End.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// NewRange orders a and b so the result always has Start <= End.
func NewRange(a, b Position) Range {
	if b.Before(a) {
		a, b = b, a
	}
	return Range{Start: a, End: b}
}

// IsEmpty reports whether the range covers no text.
func (r Range) IsEmpty() bool { return r.Start == r.End }

// Contains reports whether pos lies within r, bounds included.
func (r Range) Contains(pos Position) bool {
	return !pos.Before(r.Start) && !r.End.Before(pos)
}

func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}
