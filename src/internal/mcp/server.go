// FILE: src/internal/mcp/server.go
package mcp

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"pgmoneta-mcp/src/internal/client"
	"pgmoneta-mcp/src/internal/config"
	ltls "pgmoneta-mcp/src/internal/tls"
	"pgmoneta-mcp/src/internal/version"

	"github.com/lixenwraith/log"
	"github.com/valyala/fasthttp"
)

const (
	// ProtocolVersion is the MCP revision this server speaks
	ProtocolVersion = "2024-11-05"
	// HeaderSessionID carries the session assigned at initialize
	HeaderSessionID = "Mcp-Session-Id"
	// EndpointPath serves every JSON-RPC message
	EndpointPath = "/mcp"

	maxRequestBodySize = 1 << 20
	instructions       = "This server provides capabilities to interact with pgmoneta, a backup/restore tool for PostgreSQL."
)

// InitializeResult answers initialize
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      Implementation `json:"serverInfo"`
	Instructions    string         `json:"instructions,omitempty"`
}

// Implementation names a client or server
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ClientInfo      Implementation `json:"clientInfo"`
}

// Server exposes the pgmoneta tools over JSON-RPC on HTTP POST
type Server struct {
	address  string
	backups  BackupInfoFetcher
	retry    client.RetryPolicy
	sessions *SessionManager
	auth     *Authenticator
	limiter  *RateLimiter
	tls      *tls.Config
	tools    []toolEntry
	logger   *log.Logger

	server   *fasthttp.Server
	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	startTime     time.Time
	totalRequests atomic.Uint64
	failedCalls   atomic.Uint64
}

// NewServer wires the endpoint; backups serves get_backup_info
func NewServer(cfg *config.Config, backups BackupInfoFetcher, logger *log.Logger) (*Server, error) {
	auth, err := NewAuthenticator(cfg.Auth, logger)
	if err != nil {
		return nil, err
	}
	tlsConfig, err := ltls.NewServerConfig(cfg.TLS, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		address:   net.JoinHostPort(cfg.Host, strconv.FormatInt(cfg.Port, 10)),
		backups:   backups,
		retry:     client.NewRetryPolicy(cfg.Retry),
		sessions:  NewSessionManager(time.Duration(cfg.SessionIdleMinutes)*time.Minute, logger),
		auth:      auth,
		limiter:   NewRateLimiter(cfg.RateLimit),
		tls:       tlsConfig,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
	s.registerTools()
	return s, nil
}

// Start binds the listener and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	if s.tls != nil {
		ln = tls.NewListener(ln, s.tls)
	}
	s.listener = ln

	s.server = &fasthttp.Server{
		Name:               version.Name,
		Handler:            s.Handler,
		MaxRequestBodySize: maxRequestBodySize,
		CloseOnShutdown:    true,
		Logger:             fasthttpLogger{s.logger},
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("msg", "MCP server starting",
			"component", "mcp_server",
			"address", ln.Addr().String(),
			"endpoint", EndpointPath,
			"tls", s.tls != nil)

		if err := s.server.Serve(ln); err != nil {
			s.logger.Error("msg", "MCP server failed",
				"component", "mcp_server",
				"address", s.address,
				"error", err)
		}
	}()
	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.address
	}
	return s.listener.Addr().String()
}

// Stop aborts in-flight tool calls and shuts the listener down
func (s *Server) Stop() {
	s.logger.Info("msg", "Stopping MCP server", "component", "mcp_server")
	s.cancel()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.server.ShutdownWithContext(ctx); err != nil {
			s.logger.Error("msg", "Error shutting down MCP server",
				"component", "mcp_server",
				"error", err)
		}
	}

	s.sessions.Stop()
	s.limiter.Stop()
	s.wg.Wait()

	s.logger.Info("msg", "MCP server stopped",
		"component", "mcp_server",
		"uptime", time.Since(s.startTime).Round(time.Second),
		"total_requests", s.totalRequests.Load(),
		"failed_calls", s.failedCalls.Load())
}

// Handler serves EndpointPath; usable directly as a fasthttp.RequestHandler
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	s.totalRequests.Add(1)

	if string(ctx.Path()) != EndpointPath {
		writeJSON(ctx, fasthttp.StatusNotFound, map[string]string{
			"error": "Not Found",
			"hint":  fmt.Sprintf("POST JSON-RPC requests to %s", EndpointPath),
		})
		return
	}

	remoteIP := ctx.RemoteIP().String()
	if !s.limiter.Allow(remoteIP) {
		ctx.Response.Header.Set("Retry-After", "1")
		writeJSON(ctx, fasthttp.StatusTooManyRequests, map[string]string{
			"error": "Rate limit exceeded",
		})
		return
	}

	principal, err := s.auth.Authenticate(string(ctx.Request.Header.Peek("Authorization")))
	if err != nil {
		s.logger.Warn("msg", "Authentication failed",
			"component", "mcp_server",
			"remote_addr", remoteIP,
			"error", err)
		ctx.Response.Header.Set("WWW-Authenticate", `Bearer realm="pgmoneta-mcp"`)
		writeJSON(ctx, fasthttp.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
		return
	}

	switch {
	case ctx.IsPost():
		s.handlePost(ctx, principal)
	case ctx.IsDelete():
		s.handleDelete(ctx)
	default:
		ctx.Response.Header.Set("Allow", "POST, DELETE")
		writeJSON(ctx, fasthttp.StatusMethodNotAllowed, map[string]string{
			"error": "Method Not Allowed",
		})
	}
}

func (s *Server) handlePost(ctx *fasthttp.RequestCtx, principal *Principal) {
	body := ctx.PostBody()

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		code, msg := CodeInvalidRequest, "invalid request"
		if !json.Valid(body) {
			code, msg = CodeParseError, "parse error"
		}
		writeRPC(ctx, fasthttp.StatusBadRequest, failure(nil, newError(code, msg)))
		return
	}
	if req.JSONRPC != jsonrpcVersion || req.Method == "" {
		writeRPC(ctx, fasthttp.StatusBadRequest, failure(req.ID, newError(CodeInvalidRequest, "invalid request")))
		return
	}

	if req.Method != "initialize" {
		sessionID := string(ctx.Request.Header.Peek(HeaderSessionID))
		if sessionID == "" {
			writeRPC(ctx, fasthttp.StatusBadRequest,
				failure(req.ID, newError(CodeInvalidRequest, "missing "+HeaderSessionID+" header")))
			return
		}
		if !s.sessions.Touch(sessionID) {
			writeRPC(ctx, fasthttp.StatusNotFound,
				failure(req.ID, newError(CodeInvalidRequest, "unknown or expired session")))
			return
		}
	}

	if req.IsNotification() {
		s.logger.Debug("msg", "Notification received",
			"component", "mcp_server",
			"method", req.Method)
		ctx.SetStatusCode(fasthttp.StatusAccepted)
		return
	}

	resp := s.dispatch(ctx, &req, principal)
	writeRPC(ctx, fasthttp.StatusOK, resp)
}

func (s *Server) handleDelete(ctx *fasthttp.RequestCtx) {
	sessionID := string(ctx.Request.Header.Peek(HeaderSessionID))
	if sessionID == "" || !s.sessions.Remove(sessionID) {
		writeJSON(ctx, fasthttp.StatusNotFound, map[string]string{
			"error": "unknown session",
		})
		return
	}
	s.logger.Info("msg", "Session terminated",
		"component", "mcp_server",
		"session_id", sessionID)
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (s *Server) dispatch(ctx *fasthttp.RequestCtx, req *Request, principal *Principal) *Response {
	switch req.Method {
	case "initialize":
		return s.initialize(ctx, req, principal)
	case "ping":
		return result(req.ID, map[string]any{})
	case "tools/list":
		tools := make([]Tool, len(s.tools))
		for i := range s.tools {
			tools[i] = s.tools[i].Tool
		}
		return result(req.ID, map[string]any{"tools": tools})
	case "tools/call":
		return s.callTool(req)
	default:
		return failure(req.ID, newError(CodeMethodNotFound, "method not found: "+req.Method))
	}
}

func (s *Server) initialize(ctx *fasthttp.RequestCtx, req *Request, principal *Principal) *Response {
	var params initializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return failure(req.ID, newError(CodeInvalidParams, fmt.Sprintf("invalid initialize params: %v", err)))
		}
	}

	session := s.sessions.Create(ctx.RemoteAddr().String(), params.ClientInfo.Name)
	ctx.Response.Header.Set(HeaderSessionID, session.ID)

	s.logger.Info("msg", "Client initialized",
		"component", "mcp_server",
		"session_id", session.ID,
		"client", params.ClientInfo.Name,
		"client_version", params.ClientInfo.Version,
		"requested_protocol", params.ProtocolVersion,
		"auth_method", principal.Method,
		"subject", principal.Subject)

	return result(req.ID, InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]any{"tools": map[string]any{}},
		ServerInfo:      Implementation{Name: version.Name, Version: version.Short()},
		Instructions:    instructions,
	})
}

func (s *Server) callTool(req *Request) *Response {
	var params callToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return failure(req.ID, newError(CodeInvalidParams, "tools/call requires a tool name"))
	}

	tool, ok := s.findTool(params.Name)
	if !ok {
		return failure(req.ID, newError(CodeInvalidParams, "unknown tool: "+params.Name))
	}

	start := time.Now()
	text, err := tool.call(s.ctx, params.Arguments)
	if err != nil {
		s.failedCalls.Add(1)
		s.logger.Warn("msg", "Tool call failed",
			"component", "mcp_server",
			"tool", params.Name,
			"duration", time.Since(start),
			"error", err)

		var rpcErr *Error
		if errors.As(err, &rpcErr) {
			return failure(req.ID, rpcErr)
		}
		return failure(req.ID, newError(errorCode(err), err.Error()))
	}

	s.logger.Info("msg", "Tool call complete",
		"component", "mcp_server",
		"tool", params.Name,
		"duration", time.Since(start))

	return result(req.ID, CallToolResult{
		Content: []Content{{Type: "text", Text: text}},
	})
}

func writeRPC(ctx *fasthttp.RequestCtx, status int, resp *Response) {
	writeJSON(ctx, status, resp)
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(buf.Bytes())
}

// fasthttpLogger routes fasthttp's internal messages to the structured logger
type fasthttpLogger struct {
	logger *log.Logger
}

func (l fasthttpLogger) Printf(format string, args ...any) {
	l.logger.Warn("msg", fmt.Sprintf(format, args...), "component", "fasthttp")
}
