// Package service is the client side of the remote completion service: the
// GetCompletions and AcceptCompletion wire types and an HTTP JSON transport.
package service

import "context"

// Client reaches the completion service.
type Client interface {
	// GetCompletions returns completion items for req. It must return promptly
	// once ctx is cancelled, with an error for which IsCanceled reports true.
	GetCompletions(ctx context.Context, req *GetCompletionsRequest) (*GetCompletionsResponse, error)
	// AcceptCompletion acknowledges that the user accepted a completion.
	AcceptCompletion(ctx context.Context, req *AcceptCompletionRequest) error
}

// Metadata identifies the caller and carries its credentials.
type Metadata struct {
	IDEName          string `json:"ideName"`
	IDEVersion       string `json:"ideVersion"`
	ExtensionName    string `json:"extensionName"`
	ExtensionVersion string `json:"extensionVersion"`
	APIKey           string `json:"apiKey"`
	SessionID        string `json:"sessionId"`
}

// Document is a document as sent on the wire. CursorOffset is in UTF-8 bytes.
type Document struct {
	Text           string   `json:"text"`
	EditorLanguage string   `json:"editorLanguage"`
	Language       Language `json:"language"`
	CursorOffset   int64    `json:"cursorOffset,omitempty"`
	LineEnding     string   `json:"lineEnding,omitempty"`
	// Path is informational; it helps the service label cross-file context.
	Path string `json:"absolutePath,omitempty"`
}

// EditorOptions carries indentation settings.
type EditorOptions struct {
	TabSize      int64 `json:"tabSize"`
	InsertSpaces bool  `json:"insertSpaces"`
}

// MultilineConfig tunes when the service may return multi-line completions.
type MultilineConfig struct {
	Threshold float64 `json:"threshold"`
}

// GetCompletionsRequest asks for completions at Document.CursorOffset.
type GetCompletionsRequest struct {
	Metadata        Metadata         `json:"metadata"`
	Document        Document         `json:"document"`
	EditorOptions   EditorOptions    `json:"editorOptions"`
	OtherDocuments  []Document       `json:"otherDocuments,omitempty"`
	MultilineConfig *MultilineConfig `json:"multilineConfig,omitempty"`
}

// Completion is the text of a completion item and its identifier.
type Completion struct {
	CompletionID string `json:"completionId"`
	Text         string `json:"text"`
}

// Range is a byte-offset span in the original document text.
type Range struct {
	StartOffset int64 `json:"startOffset"`
	EndOffset   int64 `json:"endOffset"`
}

// CompletionItem is one suggestion. Completion or Range may be absent in a
// malformed reply.
type CompletionItem struct {
	Completion *Completion `json:"completion,omitempty"`
	Range      *Range      `json:"range,omitempty"`
}

// GetCompletionsResponse holds zero or more completion items.
type GetCompletionsResponse struct {
	CompletionItems []CompletionItem `json:"completionItems"`
}

// AcceptCompletionRequest reports that CompletionID was accepted.
type AcceptCompletionRequest struct {
	Metadata     Metadata `json:"metadata"`
	CompletionID string   `json:"completionId"`
}
