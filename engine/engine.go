// Package engine serves inline completion requests for the daemon: it keeps
// one provider per editor session and feeds it cross-file context gathered
// from the workspace.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jellydator/ttlcache/v3"

	ghostline "github.com/Paranoid-AF/ghostline"
	"github.com/Paranoid-AF/ghostline/editor"
	"github.com/Paranoid-AF/ghostline/index"
	"github.com/Paranoid-AF/ghostline/inline"
	"github.com/Paranoid-AF/ghostline/offset"
	"github.com/Paranoid-AF/ghostline/service"
)

// sessionTTL is how long an idle session keeps its provider.
const sessionTTL = 30 * time.Minute

// ErrUnknownSession is returned by Accept for a session with no provider.
var ErrUnknownSession = errors.New("unknown session")

// Engine turns daemon requests into provider calls.
type Engine struct {
	config    *ghostline.Config
	client    service.Client
	providers *ttlcache.Cache[string, *inline.Provider]
	docs      *DocCache
	ranker    *index.Ranker
}

// NewEngine creates an engine from the user's configuration.
func NewEngine() *Engine {
	cfg, err := ghostline.LoadConfig()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = ghostline.DefaultConfig()
	}

	var client service.Client
	if ghostline.ResolveAPIKey(cfg) != "" {
		client = service.NewHTTPClient(
			ghostline.ResolveBaseURL(cfg),
			service.WithTimeout(time.Duration(cfg.Service.TimeoutSeconds)*time.Second),
		)
	} else {
		slog.Warn("service API key not configured")
	}
	return New(cfg, client)
}

// New creates an engine that talks to client. A nil client leaves the engine
// unconfigured: every completion request fails with "not_configured".
func New(cfg *ghostline.Config, client service.Client) *Engine {
	if cfg == nil {
		cfg = ghostline.DefaultConfig()
	}

	providers := ttlcache.New[string, *inline.Provider](
		ttlcache.WithTTL[string, *inline.Provider](sessionTTL),
	)
	go providers.Start()

	e := &Engine{
		config:    cfg,
		client:    client,
		providers: providers,
	}

	if ghostline.ContextEnabled(cfg) {
		ttl := time.Duration(cfg.Context.TTLMinutes) * time.Minute
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		e.docs = NewDocCache(ttl, cfg.Context.MaxFiles, cfg.Context.MaxFileBytes)

		if ghostline.EmbeddingEnabled(cfg) {
			embedder := index.NewEmbedder(
				ghostline.ResolveEmbeddingBaseURL(cfg),
				ghostline.ResolveEmbeddingAPIKey(cfg),
				ghostline.ResolveEmbeddingModel(cfg),
			)
			e.ranker = index.NewRanker(embedder, ttl)
		}
	}
	return e
}

// Close releases resources held by the engine. Pending acceptance reports
// are allowed to finish.
func (e *Engine) Close() {
	for _, item := range e.providers.Items() {
		item.Value().Wait()
	}
	e.providers.Stop()
	if e.docs != nil {
		e.docs.Close()
	}
	if e.ranker != nil {
		e.ranker.Close()
	}
}

// WarmContext pre-populates the document cache for dir.
func (e *Engine) WarmContext(ctx context.Context, dir string) {
	if e.docs == nil {
		return
	}
	e.docs.Gather(ctx, dir)
}

// Complete serves one completion request. token aborts the request when the
// client supersedes it.
func (e *Engine) Complete(ctx context.Context, req *ghostline.Request, token *editor.CancellationToken) *ghostline.Response {
	if e.client == nil {
		return &ghostline.Response{
			Completions: []ghostline.Completion{},
			NoResult:    true,
			Error: &ghostline.Error{
				Code:    "not_configured",
				Message: "service API key not configured; set GHOSTLINE_API_KEY or edit " + ghostline.ConfigPath(),
			},
		}
	}
	text := editor.NewTextDocument(req.Text, req.Language)
	if req.Line < 0 || req.Character < 0 {
		return invalidRequest("line and character must not be negative")
	}
	if req.Line >= text.LineCount() {
		return invalidRequest(fmt.Sprintf("line %d is past the end of a %d-line document", req.Line, text.LineCount()))
	}

	p := e.provider(req.SessionID)

	var doc editor.Document = text
	if req.TabSize > 0 || req.InsertSpaces != nil {
		formatted := &editor.FormattedDocument{
			Document: text,
			Tabs:     e.config.Completion.TabSize,
			Spaces:   ghostline.InsertSpaces(e.config),
		}
		if req.TabSize > 0 {
			formatted.Tabs = req.TabSize
		}
		if req.InsertSpaces != nil {
			formatted.Spaces = *req.InsertSpaces
		}
		doc = formatted
	}

	pos := editor.Position{Line: req.Line, Character: req.Character}
	var others []service.Document
	if ghostline.ContextEnabled(e.config) && req.Path != "" {
		cursor := offset.CodeUnitsToBytes(text.CodeUnits(), text.OffsetAt(pos))
		others = e.contextDocuments(ctx, req.Path, req.Text, cursor)
	}
	// Always replaced so a pathless request never reuses another file's context.
	p.SetOtherDocuments(others)

	res := p.Complete(ctx, doc, pos, token)

	resp := &ghostline.Response{
		Completions: make([]ghostline.Completion, 0, len(res.Items)),
		NoResult:    !res.OK,
		Message:     res.Message,
	}
	if res.Status != inline.StatusIdle {
		resp.Status = res.Status.String()
	}
	for _, item := range res.Items {
		resp.Completions = append(resp.Completions, ghostline.Completion{
			Text:         item.Text,
			Range:        item.Range,
			CompletionID: item.CompletionID,
		})
	}
	return resp
}

func invalidRequest(message string) *ghostline.Response {
	return &ghostline.Response{
		Completions: []ghostline.Completion{},
		NoResult:    true,
		Error:       &ghostline.Error{Code: "invalid_request", Message: message},
	}
}

// Accept reports an accepted completion for the session's provider.
func (e *Engine) Accept(sessionID, completionID string) error {
	item := e.providers.Get(sessionID)
	if item == nil {
		return ErrUnknownSession
	}
	item.Value().AcceptedLastCompletion(completionID)
	return nil
}

// provider returns the provider for sessionID, creating it on first use.
func (e *Engine) provider(sessionID string) *inline.Provider {
	if item := e.providers.Get(sessionID); item != nil {
		return item.Value()
	}

	svc := e.config.Service
	p := inline.New(inline.Options{
		Client: e.client,
		Identity: inline.Identity{
			APIKey:           ghostline.ResolveAPIKey(e.config),
			IDEName:          svc.IDEName,
			IDEVersion:       svc.IDEVersion,
			ExtensionName:    svc.ExtensionName,
			ExtensionVersion: svc.ExtensionVersion,
		},
		TabSize:            e.config.Completion.TabSize,
		InsertSpaces:       ghostline.InsertSpaces(e.config),
		MultilineThreshold: e.config.Completion.MultilineThreshold,
		OnStatusChange: func(s inline.Status) {
			slog.Debug("status", "session", sessionID, "status", s)
		},
	})
	item, loaded := e.providers.GetOrSet(sessionID, p)
	if !loaded {
		slog.Debug("new provider", "session", sessionID, "service_session", p.SessionID())
	}
	return item.Value()
}
