package engine

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Paranoid-AF/ghostline/index"
	"github.com/Paranoid-AF/ghostline/inline"
	"github.com/Paranoid-AF/ghostline/service"
)

// queryWindowBytes bounds the text on each side of the cursor used as the
// ranking query.
const queryWindowBytes = 1024

// contextDocuments selects the auxiliary documents for a request on path.
// cursor is the byte offset of the cursor in text.
func (e *Engine) contextDocuments(ctx context.Context, path, text string, cursor int) []service.Document {
	if path == "" || e.docs == nil {
		return nil
	}
	path = filepath.Clean(path)

	var candidates []Document
	for _, doc := range e.docs.Documents(ctx, filepath.Dir(path)) {
		if filepath.Clean(doc.Path) == path {
			continue
		}
		candidates = append(candidates, doc)
	}
	if len(candidates) == 0 {
		return nil
	}

	if e.ranker != nil {
		if ranked, err := e.rank(ctx, queryWindow(text, cursor), candidates); err != nil {
			slog.Warn("context ranking failed, using recency order", "error", err)
		} else if len(ranked) > 0 {
			candidates = ranked
		}
	}

	if len(candidates) > inline.MaxOtherDocuments {
		candidates = candidates[:inline.MaxOtherDocuments]
	}

	out := make([]service.Document, 0, len(candidates))
	for _, doc := range candidates {
		out = append(out, toServiceDocument(doc))
	}
	return out
}

func (e *Engine) rank(ctx context.Context, query string, docs []Document) ([]Document, error) {
	byPath := make(map[string]Document, len(docs))
	cands := make([]index.Candidate, len(docs))
	for i, doc := range docs {
		byPath[doc.Path] = doc
		cands[i] = index.Candidate{Key: doc.Path, Text: doc.Text}
	}

	ranked, err := e.ranker.Rank(ctx, query, cands, inline.MaxOtherDocuments)
	if err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, byPath[c.Key])
	}
	return out, nil
}

// queryWindow returns the text around cursor, cut at UTF-8 boundaries.
func queryWindow(text string, cursor int) string {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(text) {
		cursor = len(text)
	}
	start := cursor - queryWindowBytes
	if start < 0 {
		start = 0
	}
	for start > 0 && start < len(text) && text[start]&0xC0 == 0x80 {
		start++
	}
	end := cursor + queryWindowBytes
	if end > len(text) {
		end = len(text)
	}
	for end < len(text) && end > cursor && text[end]&0xC0 == 0x80 {
		end--
	}
	return text[start:end]
}

// toServiceDocument converts a workspace file into an auxiliary document.
// Shell scripts are redacted first.
func toServiceDocument(doc Document) service.Document {
	text := doc.Text
	if index.IsShell(doc.Language) {
		text = index.RedactShell(text)
	}
	return service.Document{
		Text:           text,
		EditorLanguage: doc.Language,
		Language:       service.LanguageFor(doc.Language),
		LineEnding:     detectLineEnding(text),
		Path:           doc.Path,
	}
}

func detectLineEnding(text string) string {
	if strings.Contains(text, "\r\n") {
		return "\r\n"
	}
	return "\n"
}
