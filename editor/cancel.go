package editor

import "sync"

// CancellationTokenSource signals cancellation to the token it hands out.
type CancellationTokenSource struct {
	token *CancellationToken
}

// NewCancellationTokenSource creates a source with a fresh token.
func NewCancellationTokenSource() *CancellationTokenSource {
	return &CancellationTokenSource{token: &CancellationToken{
		done:      make(chan struct{}),
		callbacks: make(map[int]func()),
	}}
}

// Token returns the token observed by the request.
func (s *CancellationTokenSource) Token() *CancellationToken { return s.token }

// Cancel fires the token. Registered callbacks run once, on the calling
// goroutine; later calls are no-ops.
func (s *CancellationTokenSource) Cancel() { s.token.cancel() }

// CancellationToken lets a request observe that its caller no longer wants
// the result. A nil token is never cancelled.
type CancellationToken struct {
	mu        sync.Mutex
	cancelled bool
	done      chan struct{}
	nextID    int
	callbacks map[int]func()
}

// IsCancellationRequested reports whether the token has fired.
func (t *CancellationToken) IsCancellationRequested() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Done returns a channel closed on cancellation. A nil token returns nil,
// which blocks forever in a select.
func (t *CancellationToken) Done() <-chan struct{} {
	if t == nil {
		return nil
	}
	return t.done
}

// OnCancel registers fn to run when the token fires. If the token already
// fired, fn runs immediately. The returned func unregisters fn; it is safe to
// call more than once.
func (t *CancellationToken) OnCancel(fn func()) (unregister func()) {
	if t == nil {
		return func() {}
	}
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		fn()
		return func() {}
	}
	id := t.nextID
	t.nextID++
	t.callbacks[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.callbacks, id)
		t.mu.Unlock()
	}
}

func (t *CancellationToken) cancel() {
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		return
	}
	t.cancelled = true
	close(t.done)
	fns := make([]func(), 0, len(t.callbacks))
	for id, fn := range t.callbacks {
		fns = append(fns, fn)
		delete(t.callbacks, id)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
