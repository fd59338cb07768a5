// Package ghostline defines the request/response types for ghostline IPC.
// Messages are JSON-encoded and sent over a Unix domain socket, one per line.
package ghostline

import "github.com/Paranoid-AF/ghostline/editor"

// Request asks the daemon for inline completions.
type Request struct {
	// RequestID is a per-session incrementing identifier assigned by the client.
	// The daemon echoes it back in the response for ordering.
	RequestID int `json:"request_id"`
	// SessionID identifies the editor session. A new request on a session
	// cancels the one still in flight.
	SessionID string `json:"session_id"`
	// Path is the absolute path of the document, used to gather cross-file context.
	Path string `json:"path,omitempty"`
	// Text is the full document content.
	Text string `json:"text"`
	// Language is the editor language identifier (e.g. "go", "typescript").
	Language string `json:"language"`
	// Line and Character locate the cursor; Character counts UTF-16 code units.
	Line      int `json:"line"`
	Character int `json:"character"`
	// TabSize and InsertSpaces override the configured indentation.
	TabSize      int   `json:"tab_size,omitempty"`
	InsertSpaces *bool `json:"insert_spaces,omitempty"`
}

// Completion is a single inline completion.
type Completion struct {
	// Text replaces Range when the completion is accepted.
	Text  string       `json:"text"`
	Range editor.Range `json:"range"`
	// CompletionID is echoed back in an AcceptRequest.
	CompletionID string `json:"completion_id"`
}

// Response is sent from the daemon back to the client.
type Response struct {
	// RequestID is echoed from the request for ordering on the client side.
	RequestID int `json:"request_id"`
	// Completions is the list of completions in service order.
	Completions []Completion `json:"completions"`
	// NoResult is true when the service produced nothing to show, as opposed
	// to a successful reply whose items were all dropped.
	NoResult bool `json:"no_result,omitempty"`
	// Status and Message mirror the provider's status reporter.
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	// Error is set when the daemon cannot fulfill the request.
	Error *Error `json:"error,omitempty"`
}

// Error describes a daemon-side error returned to the client.
type Error struct {
	// Code is a machine-readable error identifier (e.g. "not_configured", "invalid_request").
	Code string `json:"code"`
	// Message is a human-readable error description.
	Message string `json:"message"`
}

// AcceptRequest reports that a completion was accepted.
type AcceptRequest struct {
	// Type is always "accept".
	Type         string `json:"type"`
	SessionID    string `json:"session_id"`
	CompletionID string `json:"completion_id"`
}

// ContextRequest is sent to warm the cross-file context cache for a directory.
type ContextRequest struct {
	// Type is always "context".
	Type string `json:"type"`
	// Dir is the directory to pre-cache documents for.
	Dir string `json:"dir"`
}

// AckResponse answers an AcceptRequest or a ContextRequest.
type AckResponse struct {
	// OK is true when the request was accepted.
	OK bool `json:"ok"`
	// Error is set when the operation fails.
	Error *Error `json:"error,omitempty"`
}

// ConfigRequest is sent from the client for configuration operations.
type ConfigRequest struct {
	// Action is the config operation: "get", "reload", "defaults", or "validate".
	Action string `json:"action"`
}

// ConfigResponse is sent from the daemon in response to a ConfigRequest.
type ConfigResponse struct {
	// Config is the current configuration (for "get", "reload", and "defaults" actions).
	Config *Config `json:"config,omitempty"`
	// Warnings contains configuration warnings (for "validate" action).
	Warnings []string `json:"warnings,omitempty"`
	// Error is set when the operation fails.
	Error *Error `json:"error,omitempty"`
}
