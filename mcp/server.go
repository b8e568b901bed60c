package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rwa-tools/mcp-server-rwa/jsonrpc"
)

// ErrUnknownTool is matched by errors returned for calls to unregistered tools
var ErrUnknownTool = errors.New("unknown tool")

// UnknownToolError reports a call to a tool name that is not registered.
// It is a protocol fault and is never turned into a CallToolResult.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %q", e.Name)
}

func (e *UnknownToolError) Unwrap() error {
	return ErrUnknownTool
}

// requestKind enumerates the methods the server answers
type requestKind int

const (
	kindUnknown requestKind = iota
	kindInitialize
	kindPing
	kindListTools
	kindCallTool
)

func kindOf(method string) requestKind {
	switch method {
	case "initialize":
		return kindInitialize
	case "ping":
		return kindPing
	case "tools/list":
		return kindListTools
	case "tools/call":
		return kindCallTool
	default:
		return kindUnknown
	}
}

type methodHandler func(ctx context.Context, request jsonrpc.Request) jsonrpc.Response

// Server represents an MCP server that processes JSON-RPC requests
type Server struct {
	info         ServerInfo
	instructions string
	registry     *Registry
	logger       *slog.Logger
	methods      map[requestKind]methodHandler
}

// ServerOption configures a Server
type ServerOption func(*Server) error

// WithRegistry sets the tools the server exposes
func WithRegistry(registry *Registry) ServerOption {
	return func(s *Server) error {
		if registry == nil {
			return fmt.Errorf("registry cannot be nil")
		}
		s.registry = registry
		return nil
	}
}

// WithLogger sets the logger for the server
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// WithServerInfo sets the name and version reported by initialize
func WithServerInfo(name, version string) ServerOption {
	return func(s *Server) error {
		s.info = ServerInfo{Name: name, Version: version}
		return nil
	}
}

// WithInstructions sets the usage hint returned by initialize
func WithInstructions(instructions string) ServerOption {
	return func(s *Server) error {
		s.instructions = instructions
		return nil
	}
}

// NewServer creates a new MCP server instance
func NewServer(opts ...ServerOption) (*Server, error) {
	s := &Server{
		info:   ServerInfo{Name: "mcp-server-rwa", Version: "dev"},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.registry == nil {
		return nil, fmt.Errorf("no tool registry configured")
	}

	s.methods = map[requestKind]methodHandler{
		kindInitialize: s.handleInitialize,
		kindPing:       s.handlePing,
		kindListTools:  s.handleToolsList,
		kindCallTool:   s.handleToolsCall,
	}

	return s, nil
}

// Handle processes a single JSON-RPC request.
// It returns nil for notifications, which never get a response.
func (s *Server) Handle(ctx context.Context, request jsonrpc.Request) *jsonrpc.Response {
	if request.IsNotification() {
		s.logger.Debug("received notification", "method", request.Method)
		return nil
	}

	s.logger.Debug("handling request", "method", request.Method, "id", request.Id)

	handle, ok := s.methods[kindOf(request.Method)]
	if !ok {
		response := jsonrpc.NewResponse(request.Id, nil, jsonrpc.NewError(jsonrpc.ErrMethodNotFound, request.Method))
		return &response
	}

	response := handle(ctx, request)
	return &response
}

// Discover returns every registered tool definition in registration order
func (s *Server) Discover() ToolsListResponse {
	return ToolsListResponse{Tools: s.registry.List()}
}

// Invoke calls the named tool.
// An unregistered name yields an *UnknownToolError and no result; every other
// outcome, including a missing required argument, is a CallToolResult.
func (s *Server) Invoke(ctx context.Context, name string, args map[string]interface{}) (result CallToolResult, err error) {
	tool, ok := s.registry.Lookup(name)
	if !ok {
		return CallToolResult{}, &UnknownToolError{Name: name}
	}

	if missing, ok := missingRequired(tool.Tool.InputSchema, args); ok {
		return ErrorResult(fmt.Sprintf("Missing required argument: %s", missing)), nil
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tool handler panicked", "tool", name, "panic", r)
			result = ErrorResult(fmt.Sprintf("Tool %s failed unexpectedly", name))
		}
	}()

	result = tool.Handler(ctx, args)
	if len(result.Content) == 0 {
		result.Content = []Content{NewTextContent("")}
	}
	return result, nil
}

func (s *Server) handleInitialize(_ context.Context, request jsonrpc.Request) jsonrpc.Response {
	if len(request.Params) > 0 {
		var params InitializeRequest
		if err := json.Unmarshal(request.Params, &params); err != nil {
			return jsonrpc.NewResponse(request.Id, nil, jsonrpc.NewError(jsonrpc.ErrInvalidParams, err))
		}
		s.logger.Info("client connected",
			"client", params.ClientInfo.Name,
			"clientVersion", params.ClientInfo.Version,
			"protocolVersion", params.ProtocolVersion)
	}

	response := InitializeResponse{
		ProtocolVersion: Version,
		ServerInfo:      s.info,
		Instructions:    s.instructions,
	}
	response.Capabilities.Tools = &struct {
		ListChanged bool `json:"listChanged"`
	}{ListChanged: false}

	return jsonrpc.NewResponse(request.Id, response, nil)
}

func (s *Server) handlePing(_ context.Context, request jsonrpc.Request) jsonrpc.Response {
	return jsonrpc.NewResponse(request.Id, PingResponse{}, nil)
}

func (s *Server) handleToolsList(_ context.Context, request jsonrpc.Request) jsonrpc.Response {
	if len(request.Params) > 0 {
		var params ToolsListRequest
		if err := json.Unmarshal(request.Params, &params); err != nil {
			return jsonrpc.NewResponse(request.Id, nil, jsonrpc.NewError(jsonrpc.ErrInvalidParams, err))
		}
		if params.Cursor != "" {
			return jsonrpc.NewResponse(request.Id, nil, jsonrpc.NewError(jsonrpc.ErrInvalidParams, fmt.Errorf("invalid cursor %q", params.Cursor)))
		}
	}
	return jsonrpc.NewResponse(request.Id, s.Discover(), nil)
}

func (s *Server) handleToolsCall(ctx context.Context, request jsonrpc.Request) jsonrpc.Response {
	var params ToolCallRequest
	if err := json.Unmarshal(request.Params, &params); err != nil {
		return jsonrpc.NewResponse(request.Id, nil, jsonrpc.NewError(jsonrpc.ErrInvalidParams, err))
	}

	s.logger.Debug("calling tool", "tool", params.Name)

	result, err := s.Invoke(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("rejected tool call", "tool", params.Name, "error", err)
		return jsonrpc.NewResponse(request.Id, nil, jsonrpc.NewError(jsonrpc.ErrInvalidParams, err))
	}

	if result.IsError {
		s.logger.Debug("tool returned error", "tool", params.Name, "text", result.Text())
	}
	return jsonrpc.NewResponse(request.Id, result, nil)
}
