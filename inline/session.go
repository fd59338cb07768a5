package inline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Paranoid-AF/ghostline/editor"
	"github.com/Paranoid-AF/ghostline/offset"
	"github.com/Paranoid-AF/ghostline/service"
)

// Result is the outcome of one completion session. Status and Message are
// the terminal values this session reported; they stay zero when the session
// was cancelled.
type Result struct {
	Items   []InlineCompletion
	OK      bool
	Status  Status
	Message string
}

// ProvideInlineCompletions requests completions for doc at pos. It returns
// false when there is no result: the request was cancelled, failed, or the
// service returned no items. A true result may hold an empty slice when every
// item was malformed.
//
// The request is aborted when ctx is done or token fires. Cancellation leaves
// the reported status untouched.
func (p *Provider) ProvideInlineCompletions(ctx context.Context, doc editor.Document, pos editor.Position, token *editor.CancellationToken) ([]InlineCompletion, bool) {
	res := p.Complete(ctx, doc, pos, token)
	return res.Items, res.OK
}

// Complete runs one completion session like ProvideInlineCompletions and also
// returns the status it settled on, independent of other sessions sharing
// the provider's reporter.
func (p *Provider) Complete(ctx context.Context, doc editor.Document, pos editor.Position, token *editor.CancellationToken) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("inline completion panicked", "panic", r)
			res = p.settle(Result{}, StatusError, MessageError)
		}
	}()

	p.reporter.processing()

	units := codeUnits(doc)
	req := p.buildRequest(doc, units, pos)

	ctx, abort := context.WithCancel(ctx)
	defer abort()
	// Hooked up before the call is issued, so a cancel that lands while the
	// call is in flight still reaches it.
	unregister := token.OnCancel(abort)
	defer unregister()

	slog.Debug("requesting completions",
		"session", p.sessionID,
		"language", req.Document.EditorLanguage,
		"cursor_offset", req.Document.CursorOffset,
		"other_documents", len(req.OtherDocuments),
	)

	resp, err := p.client.GetCompletions(ctx, req)
	if err != nil {
		if service.IsCanceled(err) || token.IsCancellationRequested() {
			slog.Debug("completion request canceled", "session", p.sessionID)
			return Result{}
		}
		slog.Error("completion request failed", "error", err)
		return p.settle(Result{}, StatusError, MessageError)
	}
	if token.IsCancellationRequested() {
		return Result{}
	}

	if resp == nil || len(resp.CompletionItems) == 0 {
		return p.settle(Result{}, StatusSuccess, MessageNoCompletions)
	}

	items := make([]InlineCompletion, 0, len(resp.CompletionItems))
	for i, item := range resp.CompletionItems {
		c, mapped := mapItem(item, doc, units)
		if !mapped {
			slog.Debug("dropping malformed completion item", "index", i)
			continue
		}
		items = append(items, c)
	}

	return p.settle(Result{Items: items, OK: true}, StatusSuccess, generatedMessage(len(items)))
}

// settle reports the terminal status and records it on res.
func (p *Provider) settle(res Result, status Status, message string) Result {
	p.reporter.set(status, message)
	res.Status = status
	res.Message = message
	return res
}

func (p *Provider) buildRequest(doc editor.Document, units []uint16, pos editor.Position) *service.GetCompletionsRequest {
	cursor := offset.CodeUnitsToBytes(units, doc.OffsetAt(pos))

	others := p.OtherDocuments()
	if len(others) > MaxOtherDocuments {
		slog.Warn("too many other documents, sending the first ones only",
			"count", len(others),
			"max", MaxOtherDocuments,
		)
		others = others[:MaxOtherDocuments]
	}

	tabSize, insertSpaces := p.tabSize, p.insertSpaces
	if f, ok := doc.(editor.Formatter); ok {
		tabSize, insertSpaces = f.TabSize(), f.InsertSpaces()
	}

	text := doc.Text()
	req := &service.GetCompletionsRequest{
		Metadata: p.metadata(),
		Document: service.Document{
			Text:           text,
			EditorLanguage: doc.LanguageID(),
			Language:       p.languageEnum(doc.LanguageID()),
			CursorOffset:   int64(cursor),
			LineEnding:     lineEnding(doc, text),
		},
		EditorOptions: service.EditorOptions{
			TabSize:      int64(tabSize),
			InsertSpaces: insertSpaces,
		},
		OtherDocuments: others,
	}
	if p.multilineThreshold != nil {
		req.MultilineConfig = &service.MultilineConfig{Threshold: *p.multilineThreshold}
	}
	return req
}

func codeUnits(doc editor.Document) []uint16 {
	if cu, ok := doc.(editor.CodeUnitDocument); ok {
		return cu.CodeUnits()
	}
	return offset.Units(doc.Text())
}

func lineEnding(doc editor.Document, text string) string {
	if le, ok := doc.(interface{ LineEnding() string }); ok {
		return le.LineEnding()
	}
	if strings.Contains(text, "\r\n") {
		return "\r\n"
	}
	return "\n"
}
