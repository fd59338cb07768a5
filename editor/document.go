package editor

import (
	"sort"
	"unicode/utf16"
)

// Document is a read-only view of editor text. Offsets are flat code-unit
// offsets into the whole text.
type Document interface {
	Text() string
	LanguageID() string
	PositionAt(offset int) Position
	OffsetAt(pos Position) int
}

// CodeUnitDocument is implemented by documents that already hold their text as
// UTF-16 code units, so callers can skip re-encoding.
type CodeUnitDocument interface {
	CodeUnits() []uint16
}

// Formatter is implemented by documents that carry their own indentation
// settings.
type Formatter interface {
	TabSize() int
	InsertSpaces() bool
}

// TextDocument is an immutable Document backed by UTF-16 code units with a
// line index. Line breaks are "\n", "\r\n" and a lone "\r".
type TextDocument struct {
	text     string
	language string
	units    []uint16
	lines    []lineInfo
	eol      string
}

type lineInfo struct {
	start int // code-unit offset of the first character
	len   int // length in code units, excluding the line break
}

// NewTextDocument creates a document from UTF-8 text.
func NewTextDocument(text, languageID string) *TextDocument {
	return newTextDocument(text, languageID, utf16.Encode([]rune(text)))
}

// NewTextDocumentFromUnits creates a document from raw code units. Unpaired
// surrogates are kept in the code units and surface as U+FFFD in Text.
func NewTextDocumentFromUnits(units []uint16, languageID string) *TextDocument {
	cp := make([]uint16, len(units))
	copy(cp, units)
	return newTextDocument(string(utf16.Decode(cp)), languageID, cp)
}

func newTextDocument(text, languageID string, units []uint16) *TextDocument {
	d := &TextDocument{
		text:     text,
		language: languageID,
		units:    units,
		eol:      "\n",
	}
	d.buildLineIndex()
	return d
}

func (d *TextDocument) buildLineIndex() {
	start := 0
	sawCRLF := false
	for i := 0; i < len(d.units); i++ {
		switch d.units[i] {
		case '\r':
			d.lines = append(d.lines, lineInfo{start: start, len: i - start})
			if i+1 < len(d.units) && d.units[i+1] == '\n' {
				sawCRLF = true
				i++
			}
			start = i + 1
		case '\n':
			d.lines = append(d.lines, lineInfo{start: start, len: i - start})
			start = i + 1
		}
	}
	d.lines = append(d.lines, lineInfo{start: start, len: len(d.units) - start})
	if sawCRLF {
		d.eol = "\r\n"
	}
}

// Text returns the document content as UTF-8.
func (d *TextDocument) Text() string { return d.text }

// LanguageID returns the editor language identifier.
func (d *TextDocument) LanguageID() string { return d.language }

// CodeUnits returns the document content as UTF-16 code units. The slice must
// not be modified.
func (d *TextDocument) CodeUnits() []uint16 { return d.units }

// LineCount returns the number of lines; an empty document has one.
func (d *TextDocument) LineCount() int { return len(d.lines) }

// LineEnding returns "\r\n" when the document contains one, otherwise "\n".
func (d *TextDocument) LineEnding() string { return d.eol }

// PositionAt converts a code-unit offset to a Position, clamping to the
// document bounds. An offset inside a line break maps to the end of that line.
func (d *TextDocument) PositionAt(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.units) {
		offset = len(d.units)
	}
	line := sort.Search(len(d.lines), func(i int) bool {
		return d.lines[i].start > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	info := d.lines[line]
	char := offset - info.start
	if char > info.len {
		char = info.len
	}
	return Position{Line: line, Character: char}
}

// OffsetAt converts a Position to a code-unit offset. Lines past the end map to
// the end of the document and columns are clamped to the line length.
func (d *TextDocument) OffsetAt(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(d.lines) {
		return len(d.units)
	}
	info := d.lines[pos.Line]
	char := pos.Character
	if char < 0 {
		char = 0
	}
	if char > info.len {
		char = info.len
	}
	return info.start + char
}

// FormattedDocument wraps a Document with explicit indentation settings.
type FormattedDocument struct {
	Document
	Tabs   int
	Spaces bool
}

// TabSize implements Formatter.
func (f *FormattedDocument) TabSize() int { return f.Tabs }

// InsertSpaces implements Formatter.
func (f *FormattedDocument) InsertSpaces() bool { return f.Spaces }
