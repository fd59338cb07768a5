package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ghostline "github.com/Paranoid-AF/ghostline"
	"github.com/Paranoid-AF/ghostline/editor"
)

// stubCompleter returns a fixed response for testing.
type stubCompleter struct {
	resp *ghostline.Response

	mu       sync.Mutex
	accepted []string
	warmed   chan string
}

func (s *stubCompleter) Complete(_ context.Context, _ *ghostline.Request, _ *editor.CancellationToken) *ghostline.Response {
	// Return a copy to avoid race conditions when server sets RequestID
	return &ghostline.Response{
		Completions: s.resp.Completions,
		NoResult:    s.resp.NoResult,
		Status:      s.resp.Status,
		Message:     s.resp.Message,
		Error:       s.resp.Error,
	}
}

func (s *stubCompleter) Accept(sessionID, completionID string) error {
	if sessionID == "unknown" {
		return errors.New("unknown session")
	}
	s.mu.Lock()
	s.accepted = append(s.accepted, completionID)
	s.mu.Unlock()
	return nil
}

func (s *stubCompleter) WarmContext(_ context.Context, dir string) {
	if s.warmed != nil {
		s.warmed <- dir
	}
}

func (s *stubCompleter) Close() {}

func emptyStub() *stubCompleter {
	return &stubCompleter{resp: &ghostline.Response{Completions: []ghostline.Completion{}}}
}

var testSocketCounter atomic.Int64

func newTestServer(t *testing.T, completer Completer) *Server {
	t.Helper()
	// Use /tmp directly to avoid macOS 104-char Unix socket path limit
	n := testSocketCounter.Add(1)
	sockPath := fmt.Sprintf("/tmp/ghostline-t%d.sock", n)
	srv, err := NewServerWithCompleter(sockPath, completer)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { srv.Close() })
	go srv.Serve()
	return srv
}

// roundTrip sends one JSON line and decodes the single-line reply into out.
func roundTrip(t *testing.T, sockPath string, req, out any) string {
	t.Helper()
	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	conn.Write(append(data, '\n'))

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		t.Fatal("no response from server")
	}
	raw := scanner.Text()
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		t.Fatal(err)
	}
	return raw
}

func sendRequest(t *testing.T, sockPath string, req *ghostline.Request) *ghostline.Response {
	t.Helper()
	var resp ghostline.Response
	roundTrip(t, sockPath, req, &resp)
	return &resp
}

func TestHandleConnEchoesRequestID(t *testing.T) {
	srv := newTestServer(t, emptyStub())

	resp := sendRequest(t, srv.sockPath, &ghostline.Request{
		RequestID: 17,
		Text:      "fmt.",
		Character: 4,
	})

	if resp.RequestID != 17 {
		t.Errorf("expected request_id 17, got %d", resp.RequestID)
	}
}

func TestHandleConnCompletionsNotNull(t *testing.T) {
	srv := newTestServer(t, &stubCompleter{resp: &ghostline.Response{NoResult: true}})

	var resp ghostline.Response
	raw := roundTrip(t, srv.sockPath, &ghostline.Request{RequestID: 1, Text: "x"}, &resp)
	if !strings.Contains(raw, `"completions":[]`) {
		t.Errorf("expected completions:[] in raw JSON, got %s", raw)
	}
	if !strings.Contains(raw, `"no_result":true`) {
		t.Errorf("expected no_result in raw JSON, got %s", raw)
	}
}

func TestHandleConnSequentialIDs(t *testing.T) {
	srv := newTestServer(t, emptyStub())

	for _, id := range []int{1, 2, 3} {
		resp := sendRequest(t, srv.sockPath, &ghostline.Request{
			RequestID: id,
			Text:      "test",
		})
		if resp.RequestID != id {
			t.Errorf("expected request_id %d, got %d", id, resp.RequestID)
		}
	}
}

// slowCompleter blocks until its token is cancelled.
type slowCompleter struct {
	mu        sync.Mutex
	cancelled []int // request IDs whose tokens fired
}

func (s *slowCompleter) Complete(_ context.Context, req *ghostline.Request, token *editor.CancellationToken) *ghostline.Response {
	select {
	case <-token.Done():
	case <-time.After(2 * time.Second):
		return &ghostline.Response{}
	}
	s.mu.Lock()
	s.cancelled = append(s.cancelled, req.RequestID)
	s.mu.Unlock()
	return &ghostline.Response{NoResult: true}
}

func (s *slowCompleter) Accept(string, string) error { return nil }

func (s *slowCompleter) WarmContext(context.Context, string) {}

func (s *slowCompleter) Close() {}

func TestHandleConnCancelsOldSession(t *testing.T) {
	slow := &slowCompleter{}
	srv := newTestServer(t, slow)

	// Send first request (will block in Complete until cancelled).
	conn1, err := net.Dial("unix", srv.sockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer conn1.Close()

	req1, _ := json.Marshal(&ghostline.Request{
		RequestID: 1,
		Text:      "fmt.Pr",
		SessionID: "sess1",
	})
	conn1.Write(append(req1, '\n'))

	// Give the server time to start processing req1.
	time.Sleep(50 * time.Millisecond)

	conn2, err := net.Dial("unix", srv.sockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer conn2.Close()

	req2, _ := json.Marshal(&ghostline.Request{
		RequestID: 2,
		Text:      "fmt.Pri",
		SessionID: "sess1",
	})
	conn2.Write(append(req2, '\n'))

	// Give the server time to cancel req1.
	time.Sleep(50 * time.Millisecond)

	slow.mu.Lock()
	found := false
	for _, id := range slow.cancelled {
		if id == 1 {
			found = true
			break
		}
	}
	slow.mu.Unlock()

	if !found {
		t.Error("expected request 1 to be cancelled when request 2 arrived for the same session")
	}

	// The superseded request gets no reply: the server closes the connection.
	conn1.SetReadDeadline(time.Now().Add(time.Second))
	scanner := bufio.NewScanner(conn1)
	if scanner.Scan() {
		t.Errorf("expected no reply for a superseded request, got %s", scanner.Text())
	}
}

func sendConfigRequest(t *testing.T, sockPath string, req *ghostline.ConfigRequest) *ghostline.ConfigResponse {
	t.Helper()
	var resp ghostline.ConfigResponse
	roundTrip(t, sockPath, req, &resp)
	return &resp
}

func TestConfigDefaultsAction(t *testing.T) {
	srv := newTestServer(t, emptyStub())

	resp := sendConfigRequest(t, srv.sockPath, &ghostline.ConfigRequest{Action: "defaults"})

	if resp.Error != nil {
		t.Fatalf("unexpected error: %s", resp.Error.Message)
	}
	if resp.Config == nil {
		t.Fatal("expected non-nil config")
	}
	if resp.Config.Service.BaseURL == "" {
		t.Error("expected non-empty service base_url")
	}
	if resp.Config.Embedding.Model == "" {
		t.Error("expected non-empty embedding model")
	}
}

func TestConfigValidateAction(t *testing.T) {
	t.Setenv("GHOSTLINE_CONFIG_DIR", t.TempDir())
	t.Setenv("GHOSTLINE_API_KEY", "")
	srv := newTestServer(t, emptyStub())

	resp := sendConfigRequest(t, srv.sockPath, &ghostline.ConfigRequest{Action: "validate"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %s", resp.Error.Message)
	}
	if len(resp.Warnings) == 0 {
		t.Error("expected a warning about the missing api key")
	}
}

func TestConfigReloadKeepsStubCompleter(t *testing.T) {
	t.Setenv("GHOSTLINE_CONFIG_DIR", t.TempDir())
	stub := emptyStub()
	srv := newTestServer(t, stub)

	resp := sendConfigRequest(t, srv.sockPath, &ghostline.ConfigRequest{Action: "reload"})
	if resp.Error != nil || resp.Config == nil {
		t.Fatalf("unexpected reload response %+v", resp)
	}
	if srv.completer() != Completer(stub) {
		t.Error("reload without an engine factory must keep the completer")
	}
}

func TestConfigUnknownAction(t *testing.T) {
	srv := newTestServer(t, emptyStub())

	resp := sendConfigRequest(t, srv.sockPath, &ghostline.ConfigRequest{Action: "explode"})
	if resp.Error == nil || resp.Error.Code != "unknown_action" {
		t.Errorf("expected unknown_action error, got %+v", resp.Error)
	}
}

func TestHandleConnContextRequest(t *testing.T) {
	stub := emptyStub()
	stub.warmed = make(chan string, 1)
	srv := newTestServer(t, stub)

	var resp ghostline.AckResponse
	roundTrip(t, srv.sockPath, &ghostline.ContextRequest{Type: "context", Dir: "/tmp"}, &resp)

	if !resp.OK || resp.Error != nil {
		t.Errorf("expected OK, got %+v", resp)
	}
	select {
	case dir := <-stub.warmed:
		if dir != "/tmp" {
			t.Errorf("expected /tmp to be warmed, got %q", dir)
		}
	case <-time.After(time.Second):
		t.Error("expected context warm-up to run")
	}
}

func TestHandleConnContextRequestNoDir(t *testing.T) {
	srv := newTestServer(t, emptyStub())

	var resp ghostline.AckResponse
	roundTrip(t, srv.sockPath, &ghostline.ContextRequest{Type: "context"}, &resp)

	if resp.OK {
		t.Errorf("expected OK=false for empty dir")
	}
	if resp.Error == nil || resp.Error.Code != "invalid_request" {
		t.Errorf("expected invalid_request error, got %+v", resp.Error)
	}
}

func TestHandleConnAcceptRequest(t *testing.T) {
	stub := emptyStub()
	srv := newTestServer(t, stub)

	var resp ghostline.AckResponse
	roundTrip(t, srv.sockPath, &ghostline.AcceptRequest{Type: "accept", SessionID: "s", CompletionID: "c1"}, &resp)
	if !resp.OK {
		t.Fatalf("expected OK, got %+v", resp.Error)
	}
	stub.mu.Lock()
	got := append([]string(nil), stub.accepted...)
	stub.mu.Unlock()
	if len(got) != 1 || got[0] != "c1" {
		t.Errorf("expected c1 to be accepted, got %v", got)
	}

	resp = ghostline.AckResponse{}
	roundTrip(t, srv.sockPath, &ghostline.AcceptRequest{Type: "accept", SessionID: "unknown", CompletionID: "c2"}, &resp)
	if resp.OK || resp.Error == nil {
		t.Errorf("expected error for unknown session, got %+v", resp)
	}

	resp = ghostline.AckResponse{}
	roundTrip(t, srv.sockPath, &ghostline.AcceptRequest{Type: "accept", SessionID: "s"}, &resp)
	if resp.OK {
		t.Error("expected error for missing completion_id")
	}
}
