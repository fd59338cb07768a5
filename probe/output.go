package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/term"

	ghostline "github.com/Paranoid-AF/ghostline"
	"github.com/Paranoid-AF/ghostline/editor"
	"github.com/Paranoid-AF/ghostline/offset"
)

// termWriter wraps a file and converts \n to \r\n when the file is a terminal
// (needed because raw mode disables the kernel's NL→CRNL translation).
// When the file is redirected, \n passes through unchanged.
func termWriter(f *os.File) io.Writer {
	if term.IsTerminal(int(f.Fd())) {
		return &crlfWriter{w: f}
	}
	return f
}

type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	replaced := bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))
	_, err := c.w.Write(replaced)
	return len(p), err // report original length to caller
}

// entry is one request/response pair in the TOML log.
type entry struct {
	Request     requestEntry      `toml:"request"`
	Result      resultEntry       `toml:"result"`
	Completions []completionEntry `toml:"completions,omitempty"`
	Error       *errorEntry       `toml:"error,omitempty"`
}

type requestEntry struct {
	Timestamp  time.Time `toml:"timestamp"`
	Text       string    `toml:"text"`
	Language   string    `toml:"language"`
	Path       string    `toml:"path,omitempty"`
	CursorByte int       `toml:"cursor_byte"`
	Character  int       `toml:"character"`
}

type resultEntry struct {
	Status   string `toml:"status"`
	Message  string `toml:"message"`
	NoResult bool   `toml:"no_result"`
}

type completionEntry struct {
	ID    string `toml:"id"`
	Text  string `toml:"text"`
	Range string `toml:"range"`
	// Kind is "insert" for an empty range and "replace" otherwise.
	Kind string `toml:"kind"`
	// AtCursor is false when the range does not touch the cursor.
	AtCursor bool `toml:"at_cursor"`
	// Preview is the line as it reads after accepting the completion.
	Preview string `toml:"preview"`
}

type errorEntry struct {
	Code    string `toml:"code"`
	Message string `toml:"message"`
}

// newEntry builds the log entry for a request on a one-line text.
func newEntry(req *ghostline.Request, cursorByte int, resp *ghostline.Response) entry {
	e := entry{
		Request: requestEntry{
			Timestamp:  time.Now().UTC().Truncate(time.Second),
			Text:       req.Text,
			Language:   req.Language,
			Path:       req.Path,
			CursorByte: cursorByte,
			Character:  req.Character,
		},
		Result: resultEntry{
			Status:   resp.Status,
			Message:  resp.Message,
			NoResult: resp.NoResult,
		},
	}
	if resp.Error != nil {
		e.Error = &errorEntry{Code: resp.Error.Code, Message: resp.Error.Message}
	}
	cursor := editor.Position{Line: req.Line, Character: req.Character}
	for _, c := range resp.Completions {
		kind := "replace"
		if c.Range.IsEmpty() {
			kind = "insert"
		}
		e.Completions = append(e.Completions, completionEntry{
			ID:       c.CompletionID,
			Text:     c.Text,
			Range:    c.Range.String(),
			Kind:     kind,
			AtCursor: c.Range.Contains(cursor),
			Preview:  preview(req.Text, c),
		})
	}
	return e
}

// preview applies c to a one-line text. Range characters count UTF-16 code
// units and are converted back to byte offsets.
func preview(text string, c ghostline.Completion) string {
	if c.Range.Start.Line != 0 || c.Range.End.Line != 0 {
		return c.Text
	}
	start := offset.StringToBytes(text, c.Range.Start.Character)
	end := offset.StringToBytes(text, c.Range.End.Character)
	return text[:start] + c.Text + text[end:]
}

// writeEntry writes a single TOML-formatted entry to w.
func writeEntry(w io.Writer, e entry) error {
	fmt.Fprintf(w, "# %s\n\n", strings.Repeat("═", 60))
	if err := toml.NewEncoder(w).Encode(e); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}
