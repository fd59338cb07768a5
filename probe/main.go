// Command ghostline-probe is an interactive test console for ghostline
// completions. Each line typed becomes a one-line document; the raw-mode
// editor tracks the cursor natively and structured TOML results go to stdout.
//
// Usage:
//
//	./ghostline-probe -lang go             # interactive, TOML on screen
//	./ghostline-probe -lang go > log.toml  # prompt on screen, TOML to file
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ghostline "github.com/Paranoid-AF/ghostline"
	"github.com/Paranoid-AF/ghostline/engine"
)

const (
	prompt    = "> "
	sessionID = "probe"
)

func main() {
	lang := flag.String("lang", "plaintext", "editor language id of the typed document")
	path := flag.String("path", "", "document path; its directory supplies cross-file context")
	flag.Parse()

	ed, err := NewLineEditor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer ed.Close()

	tty := ed.Tty()
	if *path == "" {
		if cwd, err := os.Getwd(); err == nil {
			*path = filepath.Join(cwd, "probe.txt")
		}
	}

	fmt.Fprintf(tty, "\033[2J\033[H") // clear screen
	fmt.Fprintf(tty, "ghostline probe\r\n")
	fmt.Fprintf(tty, "language: %s  path: %s\r\n", *lang, *path)
	fmt.Fprintf(tty, "\r\ncommands:\r\n")
	fmt.Fprintf(tty, "  :lang <id>    set language\r\n")
	fmt.Fprintf(tty, "  :path <file>  set document path\r\n")
	fmt.Fprintf(tty, "  :accept <n>   accept the n-th completion of the last reply\r\n")
	fmt.Fprintf(tty, "  :quit         exit\r\n\r\n")

	eng := engine.NewEngine()
	defer eng.Close()
	eng.WarmContext(context.Background(), filepath.Dir(*path))

	// stdout writer: converts \n → \r\n when stdout is a terminal (raw mode),
	// passes \n through unchanged when redirected to a file.
	out := termWriter(os.Stdout)

	reqID := 0
	var last []ghostline.Completion

	for {
		text, cursor, err := ed.ReadLine(prompt)
		if err == io.EOF || err == ErrInterrupt {
			break
		}
		if err != nil {
			fmt.Fprintf(tty, "read error: %v\r\n", err)
			break
		}

		if text == "" {
			continue
		}
		if text == ":quit" || text == ":q" {
			break
		}

		if cmd, arg, ok := strings.Cut(text, " "); ok && strings.HasPrefix(cmd, ":") {
			arg = strings.TrimSpace(arg)
			switch cmd {
			case ":lang":
				*lang = arg
				fmt.Fprintf(tty, "language: %s\r\n\r\n", *lang)
				continue
			case ":path":
				*path = arg
				eng.WarmContext(context.Background(), filepath.Dir(*path))
				fmt.Fprintf(tty, "path: %s\r\n\r\n", *path)
				continue
			case ":accept":
				n, err := strconv.Atoi(arg)
				if err != nil || n < 1 || n > len(last) {
					fmt.Fprintf(tty, "error: no completion %q\r\n\r\n", arg)
					continue
				}
				if err := eng.Accept(sessionID, last[n-1].CompletionID); err != nil {
					fmt.Fprintf(tty, "error: %v\r\n\r\n", err)
				} else {
					fmt.Fprintf(tty, "accepted %s\r\n\r\n", last[n-1].CompletionID)
				}
				continue
			}
		}

		reqID++
		pos := cursorPosition(text, cursor)
		req := &ghostline.Request{
			RequestID: reqID,
			SessionID: sessionID,
			Path:      *path,
			Text:      text,
			Language:  *lang,
			Line:      pos.Line,
			Character: pos.Character,
		}

		resp := eng.Complete(context.Background(), req, nil)
		last = resp.Completions

		// Show brief summary on tty.
		switch {
		case resp.Error != nil:
			fmt.Fprintf(tty, "error [%s]: %s\r\n", resp.Error.Code, resp.Error.Message)
		case len(resp.Completions) == 0:
			fmt.Fprintf(tty, "(%s)\r\n", resp.Message)
		default:
			fmt.Fprintf(tty, "%s\r\n", resp.Message)
			for i, c := range resp.Completions {
				fmt.Fprintf(tty, "  %d. %s %q\r\n", i+1, c.Range, c.Text)
			}
		}
		fmt.Fprintf(tty, "\r\n")

		if err := writeEntry(out, newEntry(req, cursor, resp)); err != nil {
			slog.Warn("failed to write entry", "error", err)
		}
	}
}
