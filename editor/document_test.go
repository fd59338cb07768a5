package editor

import "testing"

func TestTextDocumentEmpty(t *testing.T) {
	d := NewTextDocument("", "go")
	if d.LineCount() != 1 {
		t.Errorf("expected 1 line for empty document, got %d", d.LineCount())
	}
	if got := d.PositionAt(0); got != (Position{}) {
		t.Errorf("expected 0:0, got %v", got)
	}
	if got := d.OffsetAt(Position{Line: 3, Character: 2}); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestTextDocumentPositionAt(t *testing.T) {
	d := NewTextDocument("line1\nline2\nline3", "plaintext")

	tests := []struct {
		offset int
		want   Position
	}{
		{0, Position{0, 0}},
		{5, Position{0, 5}},
		{6, Position{1, 0}},
		{11, Position{1, 5}},
		{12, Position{2, 0}},
		{17, Position{2, 5}},
		{99, Position{2, 5}},
		{-4, Position{0, 0}},
	}
	for _, tt := range tests {
		if got := d.PositionAt(tt.offset); got != tt.want {
			t.Errorf("PositionAt(%d) = %v, want %v", tt.offset, got, tt.want)
		}
	}
}

func TestTextDocumentOffsetAt(t *testing.T) {
	d := NewTextDocument("line1\nline2\nline3", "plaintext")

	tests := []struct {
		pos  Position
		want int
	}{
		{Position{0, 0}, 0},
		{Position{0, 5}, 5},
		{Position{0, 50}, 5},
		{Position{1, 0}, 6},
		{Position{2, 5}, 17},
		{Position{7, 0}, 17},
		{Position{-1, 3}, 0},
	}
	for _, tt := range tests {
		if got := d.OffsetAt(tt.pos); got != tt.want {
			t.Errorf("OffsetAt(%v) = %d, want %d", tt.pos, got, tt.want)
		}
	}
}

func TestTextDocumentCRLF(t *testing.T) {
	d := NewTextDocument("ab\r\ncd\rx", "plaintext")
	if d.LineCount() != 3 {
		t.Fatalf("expected 3 lines, got %d", d.LineCount())
	}
	if d.LineEnding() != "\r\n" {
		t.Errorf("expected CRLF line ending, got %q", d.LineEnding())
	}
	if got := d.OffsetAt(Position{1, 0}); got != 4 {
		t.Errorf("OffsetAt(1:0) = %d, want 4", got)
	}
	// Offset 3 sits between \r and \n.
	if got := d.PositionAt(3); got != (Position{0, 2}) {
		t.Errorf("PositionAt(3) = %v, want 0:2", got)
	}
	if got := d.OffsetAt(Position{2, 1}); got != 8 {
		t.Errorf("OffsetAt(2:1) = %d, want 8", got)
	}
}

func TestTextDocumentSurrogates(t *testing.T) {
	d := NewTextDocument("😀x\nab", "plaintext")
	if got := d.OffsetAt(Position{0, 2}); got != 2 {
		t.Errorf("OffsetAt(0:2) = %d, want 2", got)
	}
	if got := d.PositionAt(4); got != (Position{1, 0}) {
		t.Errorf("PositionAt(4) = %v, want 1:0", got)
	}
	if len(d.CodeUnits()) != 6 {
		t.Errorf("expected 6 code units, got %d", len(d.CodeUnits()))
	}
}

func TestTextDocumentFromUnitsLoneSurrogate(t *testing.T) {
	d := NewTextDocumentFromUnits([]uint16{'a', 0xD800, 'b'}, "plaintext")
	if d.Text() != "a�b" {
		t.Errorf("expected replacement character in text, got %q", d.Text())
	}
	if len(d.CodeUnits()) != 3 {
		t.Errorf("expected code units to be kept, got %d", len(d.CodeUnits()))
	}
}

func TestRangeOrdering(t *testing.T) {
	r := NewRange(Position{2, 1}, Position{0, 4})
	if r.Start != (Position{0, 4}) || r.End != (Position{2, 1}) {
		t.Errorf("NewRange did not order positions: %v", r)
	}
	if !r.Contains(Position{1, 0}) {
		t.Error("expected range to contain 1:0")
	}
	if r.Contains(Position{2, 2}) {
		t.Error("expected range not to contain 2:2")
	}
	if r.IsEmpty() {
		t.Error("expected non-empty range")
	}
}
