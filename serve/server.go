package main

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"

	ghostline "github.com/Paranoid-AF/ghostline"
	"github.com/Paranoid-AF/ghostline/editor"
	"github.com/Paranoid-AF/ghostline/engine"
)

// Completer serves the requests the daemon accepts.
type Completer interface {
	Complete(ctx context.Context, req *ghostline.Request, token *editor.CancellationToken) *ghostline.Response
	Accept(sessionID, completionID string) error
	WarmContext(ctx context.Context, dir string)
	Close()
}

// sessionEntry tracks a cancellable in-flight request for a session.
type sessionEntry struct {
	requestID int
	source    *editor.CancellationTokenSource
}

// envelope holds the fields used to route a request line.
type envelope struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

// Server listens on a Unix domain socket for completion requests.
type Server struct {
	listener  net.Listener
	sockPath  string
	newEngine func() Completer
	closeOnce sync.Once

	mu       sync.Mutex
	engine   Completer
	sessions map[string]sessionEntry
}

// NewServer creates a new IPC server bound to the given socket path.
func NewServer(sockPath string) (*Server, error) {
	newEngine := func() Completer { return engine.NewEngine() }
	srv, err := NewServerWithCompleter(sockPath, newEngine())
	if err != nil {
		return nil, err
	}
	srv.newEngine = newEngine
	return srv, nil
}

// NewServerWithCompleter creates a new IPC server with a custom Completer.
// Reloading keeps the same Completer.
func NewServerWithCompleter(sockPath string, completer Completer) (*Server, error) {
	// Remove stale socket file if it exists
	if err := os.Remove(sockPath); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, err
	}

	return &Server{
		listener: listener,
		sockPath: sockPath,
		engine:   completer,
		sessions: make(map[string]sessionEntry),
	}, nil
}

// Serve accepts connections and handles requests.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

// Close shuts down the server, the engine, and removes the socket file.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		for _, entry := range s.sessions {
			entry.source.Cancel()
		}
		eng := s.engine
		s.mu.Unlock()

		s.listener.Close()
		eng.Close()
		os.Remove(s.sockPath)
	})
}

func (s *Server) completer() Completer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !scanner.Scan() {
		return
	}

	raw := scanner.Bytes()
	slog.Debug("request", "bytes", len(raw))

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		slog.Warn("invalid request", "error", err)
		return
	}

	switch {
	case env.Type == "accept":
		var req ghostline.AcceptRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			slog.Warn("invalid accept request", "error", err)
			return
		}
		s.handleAcceptRequest(conn, &req)
	case env.Type == "context":
		var req ghostline.ContextRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			slog.Warn("invalid context request", "error", err)
			return
		}
		s.handleContextRequest(conn, &req)
	case env.Action != "":
		s.handleConfigRequest(conn, &ghostline.ConfigRequest{Action: env.Action})
	default:
		var req ghostline.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			slog.Warn("invalid request", "error", err)
			return
		}
		s.handleCompleteRequest(conn, &req)
	}
}

func (s *Server) handleCompleteRequest(conn net.Conn, req *ghostline.Request) {
	// Cancel any in-flight request for this session.
	source := editor.NewCancellationTokenSource()
	sid := req.SessionID
	reqID := req.RequestID
	if sid != "" {
		s.mu.Lock()
		if prev, ok := s.sessions[sid]; ok {
			prev.source.Cancel()
		}
		s.sessions[sid] = sessionEntry{requestID: reqID, source: source}
		s.mu.Unlock()
	}
	defer func() {
		if sid != "" {
			s.mu.Lock()
			if cur, ok := s.sessions[sid]; ok && cur.source == source {
				delete(s.sessions, sid)
			}
			s.mu.Unlock()
		}
	}()

	token := source.Token()
	resp := s.completer().Complete(context.Background(), req, token)

	// A superseded request gets no reply; the client has moved on.
	if token.IsCancellationRequested() {
		slog.Debug("request superseded", "session", sid, "request_id", reqID)
		return
	}

	resp.RequestID = req.RequestID
	if resp.Completions == nil {
		resp.Completions = []ghostline.Completion{}
	}
	writeJSON(conn, resp)
}

func (s *Server) handleAcceptRequest(conn net.Conn, req *ghostline.AcceptRequest) {
	resp := ghostline.AckResponse{OK: true}

	if req.CompletionID == "" {
		resp.OK = false
		resp.Error = &ghostline.Error{Code: "invalid_request", Message: "completion_id is required"}
	} else if err := s.completer().Accept(req.SessionID, req.CompletionID); err != nil {
		resp.OK = false
		resp.Error = &ghostline.Error{Code: "invalid_request", Message: err.Error()}
	}
	writeJSON(conn, resp)
}

func (s *Server) handleContextRequest(conn net.Conn, req *ghostline.ContextRequest) {
	resp := ghostline.AckResponse{OK: true}

	dir := strings.TrimRight(req.Dir, "\n")
	if dir == "" {
		resp.OK = false
		resp.Error = &ghostline.Error{Code: "invalid_request", Message: "dir is required"}
	} else {
		// Gather in background, respond immediately.
		go s.completer().WarmContext(context.Background(), dir)
	}
	writeJSON(conn, resp)
}

func (s *Server) handleConfigRequest(conn net.Conn, req *ghostline.ConfigRequest) {
	var resp ghostline.ConfigResponse

	switch req.Action {
	case "get":
		cfg, err := ghostline.LoadConfig()
		if err != nil {
			resp.Error = &ghostline.Error{
				Code:    "config_error",
				Message: err.Error(),
			}
		} else {
			resp.Config = cfg
		}

	case "reload":
		cfg, err := ghostline.LoadConfig()
		if err != nil {
			resp.Error = &ghostline.Error{
				Code:    "config_error",
				Message: err.Error(),
			}
			break
		}
		resp.Config = cfg
		s.reloadEngine()

	case "defaults":
		resp.Config = ghostline.DefaultConfig()

	case "validate":
		cfg, err := ghostline.LoadConfig()
		if err != nil {
			resp.Error = &ghostline.Error{
				Code:    "config_error",
				Message: err.Error(),
			}
		} else {
			resp.Warnings = ghostline.ValidateConfig(cfg)
		}

	default:
		resp.Error = &ghostline.Error{
			Code:    "unknown_action",
			Message: "unknown config action: " + req.Action,
		}
	}
	writeJSON(conn, resp)
}

// reloadEngine swaps in an engine built from the current config. In-flight
// requests finish on the old engine.
func (s *Server) reloadEngine() {
	if s.newEngine == nil {
		return
	}
	next := s.newEngine()

	s.mu.Lock()
	prev := s.engine
	s.engine = next
	s.mu.Unlock()

	go prev.Close()
	slog.Info("engine reloaded")
}

func writeJSON(conn net.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal response", "error", err)
		return
	}

	slog.Debug("response", "data", string(data))

	conn.Write(append(data, '\n'))
}
