package inline

import (
	"fmt"
	"sync"
)

// Status is the progress state shown to the user.
type Status int

const (
	StatusIdle Status = iota
	StatusProcessing
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusProcessing:
		return "processing"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// User-facing messages.
const (
	MessageGenerating    = "Generating..."
	MessageNoCompletions = "No completions"
	MessageError         = "Something went wrong; please try again."
)

// generatedMessage reports how many completions survived mapping.
func generatedMessage(n int) string {
	if n == 1 {
		return "Generated 1 completion"
	}
	return fmt.Sprintf("Generated %d completions", n)
}

// Reporter forwards status and message updates to the injected callbacks.
// It is shared by every session of a Provider; updates are serialized so the
// callbacks never run concurrently. Callbacks must not call back into the
// Reporter.
type Reporter struct {
	mu        sync.Mutex
	status    Status
	message   string
	onStatus  func(Status)
	onMessage func(string)
}

// NewReporter creates a reporter in the idle state. Either callback may be nil.
func NewReporter(onStatus func(Status), onMessage func(string)) *Reporter {
	return &Reporter{onStatus: onStatus, onMessage: onMessage}
}

// Current returns the last reported status and message.
func (r *Reporter) Current() (Status, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status, r.message
}

func (r *Reporter) set(status Status, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
	r.message = message
	if r.onStatus != nil {
		r.onStatus(status)
	}
	if r.onMessage != nil {
		r.onMessage(message)
	}
}

func (r *Reporter) processing() { r.set(StatusProcessing, MessageGenerating) }
