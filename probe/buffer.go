package main

import (
	"unicode/utf8"

	"github.com/Paranoid-AF/ghostline/editor"
	"github.com/Paranoid-AF/ghostline/offset"
)

// lineBuffer is an editable UTF-8 line with a byte cursor that always sits
// on a rune boundary.
type lineBuffer struct {
	buf []byte
	pos int
}

func (l *lineBuffer) reset() {
	l.buf = l.buf[:0]
	l.pos = 0
}

func (l *lineBuffer) String() string { return string(l.buf) }

func (l *lineBuffer) insert(ch []byte) {
	l.buf = append(l.buf, make([]byte, len(ch))...)
	copy(l.buf[l.pos+len(ch):], l.buf[l.pos:len(l.buf)-len(ch)])
	copy(l.buf[l.pos:], ch)
	l.pos += len(ch)
}

func (l *lineBuffer) backspace() {
	if l.pos == 0 {
		return
	}
	size := prevRuneLen(l.buf, l.pos)
	copy(l.buf[l.pos-size:], l.buf[l.pos:])
	l.buf = l.buf[:len(l.buf)-size]
	l.pos -= size
}

func (l *lineBuffer) deleteForward() {
	if l.pos >= len(l.buf) {
		return
	}
	_, size := utf8.DecodeRune(l.buf[l.pos:])
	copy(l.buf[l.pos:], l.buf[l.pos+size:])
	l.buf = l.buf[:len(l.buf)-size]
}

func (l *lineBuffer) left() {
	l.pos -= prevRuneLen(l.buf, l.pos)
}

func (l *lineBuffer) right() {
	if l.pos < len(l.buf) {
		_, size := utf8.DecodeRune(l.buf[l.pos:])
		l.pos += size
	}
}

func (l *lineBuffer) home() { l.pos = 0 }

func (l *lineBuffer) end() { l.pos = len(l.buf) }

// tail returns the text right of the cursor.
func (l *lineBuffer) tail() []byte { return l.buf[l.pos:] }

// cursorPosition converts a byte cursor in a one-line text to an editor
// position, whose character counts UTF-16 code units.
func cursorPosition(text string, byteCursor int) editor.Position {
	return editor.Position{Line: 0, Character: offset.StringToCodeUnits(text, byteCursor)}
}

// prevRuneLen returns the byte size of the rune ending at pos.
func prevRuneLen(buf []byte, pos int) int {
	if pos <= 0 {
		return 0
	}
	i := pos - 1
	for i > 0 && !utf8.RuneStart(buf[i]) {
		i--
	}
	return pos - i
}

// utf8SeqLen returns the expected byte length of a UTF-8 sequence from its
// leading byte.
func utf8SeqLen(lead byte) int {
	switch {
	case lead < 0xC0:
		return 1
	case lead < 0xE0:
		return 2
	case lead < 0xF0:
		return 3
	}
	return 4
}
