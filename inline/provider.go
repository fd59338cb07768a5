// Package inline produces inline completions for an editor: it builds the
// GetCompletions request from a document and cursor, drives it against a
// cancellation token, maps the reply back to editor ranges and reports
// acceptances.
package inline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Paranoid-AF/ghostline/service"
)

// MaxOtherDocuments caps the auxiliary documents sent with a request.
const MaxOtherDocuments = 10

const defaultAcceptTimeout = 10 * time.Second

// Identity is the caller metadata sent with every request.
type Identity struct {
	APIKey           string
	IDEName          string
	IDEVersion       string
	ExtensionName    string
	ExtensionVersion string
}

// Options configures a Provider.
type Options struct {
	Client   service.Client
	Identity Identity

	// TabSize and InsertSpaces apply to documents that do not implement
	// editor.Formatter.
	TabSize      int
	InsertSpaces bool

	// MultilineThreshold is sent when non-nil.
	MultilineThreshold *float64

	// LanguageEnum maps editor language ids to the wire enum. Defaults to
	// service.LanguageFor.
	LanguageEnum func(editorLanguage string) service.Language

	OnStatusChange  func(Status)
	OnMessageChange func(string)

	// AcceptTimeout bounds a single acceptance report. Defaults to 10s.
	AcceptTimeout time.Duration
}

// Provider serves inline completions for one editor instance. Its session id
// is generated once and sent with every request it issues.
type Provider struct {
	client             service.Client
	identity           Identity
	sessionID          string
	tabSize            int
	insertSpaces       bool
	multilineThreshold *float64
	languageEnum       func(string) service.Language
	acceptTimeout      time.Duration
	reporter           *Reporter

	mu             sync.RWMutex
	otherDocuments []service.Document

	accepts sync.WaitGroup
}

// New creates a provider with a fresh session id.
func New(opts Options) *Provider {
	p := &Provider{
		client:        opts.Client,
		identity:      opts.Identity,
		sessionID:     uuid.NewString(),
		tabSize:       opts.TabSize,
		insertSpaces:  opts.InsertSpaces,
		languageEnum:  opts.LanguageEnum,
		acceptTimeout: opts.AcceptTimeout,
		reporter:      NewReporter(opts.OnStatusChange, opts.OnMessageChange),
	}
	if opts.MultilineThreshold != nil {
		threshold := *opts.MultilineThreshold
		p.multilineThreshold = &threshold
	}
	if p.tabSize <= 0 {
		p.tabSize = 4
	}
	if p.languageEnum == nil {
		p.languageEnum = service.LanguageFor
	}
	if p.acceptTimeout <= 0 {
		p.acceptTimeout = defaultAcceptTimeout
	}
	return p
}

// SessionID returns the id correlating this provider's requests.
func (p *Provider) SessionID() string { return p.sessionID }

// Reporter returns the status reporter shared by all sessions.
func (p *Provider) Reporter() *Reporter { return p.reporter }

// SetOtherDocuments replaces the cross-file context documents. Only the first
// MaxOtherDocuments are sent.
func (p *Provider) SetOtherDocuments(docs []service.Document) {
	cp := make([]service.Document, len(docs))
	copy(cp, docs)
	p.mu.Lock()
	p.otherDocuments = cp
	p.mu.Unlock()
}

// OtherDocuments returns a copy of the cross-file context documents.
func (p *Provider) OtherDocuments() []service.Document {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cp := make([]service.Document, len(p.otherDocuments))
	copy(cp, p.otherDocuments)
	return cp
}

// AcceptedLastCompletion reports in the background that the completion with
// the given id was accepted. Failures are logged and never retried.
func (p *Provider) AcceptedLastCompletion(completionID string) {
	p.accepts.Add(1)
	go func() {
		defer p.accepts.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.acceptTimeout)
		defer cancel()

		err := p.client.AcceptCompletion(ctx, &service.AcceptCompletionRequest{
			Metadata:     p.metadata(),
			CompletionID: completionID,
		})
		if err != nil {
			slog.Warn("failed to report accepted completion", "completion_id", completionID, "error", err)
			return
		}
		slog.Debug("reported accepted completion", "completion_id", completionID)
	}()
}

// Wait blocks until outstanding acceptance reports have finished.
func (p *Provider) Wait() {
	p.accepts.Wait()
}

func (p *Provider) metadata() service.Metadata {
	return service.Metadata{
		IDEName:          p.identity.IDEName,
		IDEVersion:       p.identity.IDEVersion,
		ExtensionName:    p.identity.ExtensionName,
		ExtensionVersion: p.identity.ExtensionVersion,
		APIKey:           p.identity.APIKey,
		SessionID:        p.sessionID,
	}
}
