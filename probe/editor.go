package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/term"
)

// ErrInterrupt is returned when the user presses Ctrl-C.
var ErrInterrupt = errors.New("interrupted")

// LineEditor is a minimal raw-mode line editor with cursor tracking.
// It reads from /dev/tty so it works even when stdout is redirected.
type LineEditor struct {
	tty      *os.File
	oldState *term.State
	line     lineBuffer
}

// NewLineEditor opens /dev/tty and switches to raw mode.
func NewLineEditor() (*LineEditor, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/tty: %w", err)
	}

	old, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		tty.Close()
		return nil, fmt.Errorf("raw mode: %w", err)
	}

	return &LineEditor{tty: tty, oldState: old}, nil
}

// Close restores terminal state and closes the tty fd.
func (e *LineEditor) Close() {
	term.Restore(int(e.tty.Fd()), e.oldState)
	e.tty.Close()
}

// Tty returns the tty file for writing prompts/UI.
func (e *LineEditor) Tty() *os.File {
	return e.tty
}

// ReadLine displays the prompt and reads a line. It returns the text and the
// cursor as a byte offset into it. Ctrl-D on an empty line returns io.EOF.
func (e *LineEditor) ReadLine(prompt string) (text string, cursor int, err error) {
	e.line.reset()
	e.redraw(prompt)

	for {
		b, err := e.readByte()
		if err != nil {
			return "", 0, err
		}

		switch b {
		case 3: // Ctrl-C
			fmt.Fprint(e.tty, "\r\n")
			return "", 0, ErrInterrupt
		case 4: // Ctrl-D
			if len(e.line.buf) == 0 {
				fmt.Fprint(e.tty, "\r\n")
				return "", 0, io.EOF
			}
		case 13, 10:
			fmt.Fprint(e.tty, "\r\n")
			return e.line.String(), e.line.pos, nil
		case 127, 8:
			e.line.backspace()
		case 1: // Ctrl-A
			e.line.home()
		case 5: // Ctrl-E
			e.line.end()
		case 21: // Ctrl-U
			e.line.reset()
		case 27:
			e.readEscape()
		default:
			if b >= 32 {
				ch := []byte{b}
				if b >= 0xC0 {
					rest := make([]byte, utf8SeqLen(b)-1)
					io.ReadFull(e.tty, rest)
					ch = append(ch, rest...)
				}
				e.line.insert(ch)
			}
		}

		e.redraw(prompt)
	}
}

func (e *LineEditor) readByte() (byte, error) {
	var b [1]byte
	if _, err := e.tty.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// readEscape consumes a CSI sequence and applies cursor keys.
func (e *LineEditor) readEscape() {
	if b, err := e.readByte(); err != nil || b != '[' {
		return
	}
	b, err := e.readByte()
	if err != nil {
		return
	}
	switch b {
	case 'D':
		e.line.left()
	case 'C':
		e.line.right()
	case 'H':
		e.line.home()
	case 'F':
		e.line.end()
	case '3': // \x1b[3~
		e.readByte()
		e.line.deleteForward()
	case '1': // \x1b[1~
		e.readByte()
		e.line.home()
	case '4': // \x1b[4~
		e.readByte()
		e.line.end()
	}
}

// redraw clears the current line and redraws prompt + buffer with cursor.
func (e *LineEditor) redraw(prompt string) {
	fmt.Fprintf(e.tty, "\r\x1b[K%s%s", prompt, e.line.String())
	if n := utf8.RuneCount(e.line.tail()); n > 0 {
		fmt.Fprintf(e.tty, "\x1b[%dD", n)
	}
}
