package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/richard-senior/podds/internal/logger"
	"github.com/richard-senior/podds/pkg/protocol"
	"github.com/richard-senior/podds/pkg/tools"
	"github.com/richard-senior/podds/pkg/transport"
)

const (
	serverName             = "podds"
	serverVersion          = "1.0.0"
	defaultProtocolVersion = "2024-11-05"
	toolPrefix             = "mcp___"
)

// HandlerFunc is a function that handles an MCP request
type HandlerFunc func(ctx context.Context, params any) (any, error)

// Server represents an MCP server
type Server struct {
	mu        sync.RWMutex
	transport transport.Transport
	handlers  map[string]HandlerFunc
	tools     []protocol.Tool
	toolFuncs map[string]tools.HandlerFunc
}

var _ transport.RequestHandler = (*Server)(nil)

// New creates a server with the protocol methods registered. t may be nil when the
// server is only driven through HandleRequest, as it is by the HTTP transport
func New(t transport.Transport) *Server {
	s := &Server{
		transport: t,
		handlers:  make(map[string]HandlerFunc),
		toolFuncs: make(map[string]tools.HandlerFunc),
	}
	s.handlers[string(protocol.MethodInitialize)] = s.handleInitialize
	s.handlers[string(protocol.MethodInitialized)] = s.handleInitialized
	s.handlers[string(protocol.MethodPing)] = s.handlePing
	s.handlers[string(protocol.MethodToolsList)] = s.handleToolsList
	s.handlers[string(protocol.MethodToolsCall)] = s.handleToolsCall
	return s
}

// RegisterTool registers a tool with the server
func (s *Server) RegisterTool(tool protocol.Tool, handler tools.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, tool)
	s.toolFuncs[tool.Name] = handler
	logger.Info("Registered tool:", tool.Name)
}

// RegisterTools registers every definition in defs
func (s *Server) RegisterTools(defs []tools.Definition) {
	for _, d := range defs {
		s.RegisterTool(d.Tool, d.Handler)
	}
}

// GetTools returns the list of registered tools
func (s *Server) GetTools() []protocol.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]protocol.Tool(nil), s.tools...)
}

// ProcessRequests reads from the transport until it is closed or ctx is done.
// A clean EOF from the client is not an error
func (s *Server) ProcessRequests(ctx context.Context) error {
	if s.transport == nil {
		return errors.New("server has no stream transport")
	}
	logger.Info("Starting MCP server")
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		req, err := s.transport.ReadRequest()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			// a bad message is answered, only a broken stream ends the loop
			var msgErr *transport.MessageError
			if errors.As(err, &msgErr) {
				if err := s.transport.WriteResponse(msgErr.Response()); err != nil {
					return err
				}
				continue
			}
			return err
		}

		// nil means no response is required
		resp := s.HandleRequest(ctx, req)
		if resp == nil {
			continue
		}
		if err := s.transport.WriteResponse(resp); err != nil {
			return err
		}
	}
}

// Start processes requests in the background and returns when ctx is cancelled or the
// transport fails
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.ProcessRequests(ctx)
	}()
	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down MCP server")
		return nil
	}
}

// HandleRequest processes a request and returns a response
func (s *Server) HandleRequest(ctx context.Context, req *protocol.JsonRpcRequest) *protocol.JsonRpcResponse {
	logger.Info(">> ", req.Method)

	// Handle notifications (no response required)
	if strings.HasPrefix(req.Method, "notifications/") {
		logger.Debug("Received notification:", req.Method)
		return nil
	}

	resp := &protocol.JsonRpcResponse{
		JsonRPC: protocol.JsonRpcVersion,
		ID:      req.ID,
	}

	var handler HandlerFunc
	var params any = req.Params

	if req.Method == string(protocol.MethodInvokeTool) {
		// invoke_tool carries {name, parameters}, the same call as tools/call
		var invokeParams struct {
			Name       string         `json:"name"`
			Parameters map[string]any `json:"parameters"`
		}
		if err := json.Unmarshal(req.Params, &invokeParams); err != nil || invokeParams.Name == "" {
			resp.Error = &protocol.JsonRpcError{
				Code:    protocol.ErrInvalidParams,
				Message: "invoke_tool needs a tool name",
			}
			return resp
		}
		handler = s.handleToolsCall
		params = toolCallParams{Name: invokeParams.Name, Arguments: invokeParams.Parameters}
	} else {
		handler = s.handlers[req.Method]
	}

	if handler == nil {
		resp.Error = &protocol.JsonRpcError{
			Code:    protocol.ErrMethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		}
		return resp
	}

	result, err := handler(ctx, params)
	if err == nil && result == nil {
		if req.ID == nil {
			return nil
		}
		result = struct{}{}
	}
	if err != nil {
		resp.Error = toJsonRpcError(err)
		logger.Warn("<< "+req.Method+" failed", err)
		return resp
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		resp.Error = &protocol.JsonRpcError{
			Code:    protocol.ErrInternal,
			Message: "Failed to marshal result: " + err.Error(),
		}
		return resp
	}
	resp.Result = resultBytes
	logger.Debug("<< "+req.Method, string(resultBytes))
	return resp
}

func toJsonRpcError(err error) *protocol.JsonRpcError {
	var rpcErr *protocol.JsonRpcError
	switch {
	case errors.As(err, &rpcErr):
		return rpcErr
	case errors.Is(err, tools.ErrInvalidParams):
		return &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: err.Error()}
	}
	return &protocol.JsonRpcError{Code: protocol.ErrToolExecutionFailed, Message: err.Error()}
}

// handleInitialize handles the initialize method
func (s *Server) handleInitialize(_ context.Context, params any) (any, error) {
	requestedProtocolVersion := defaultProtocolVersion
	if raw, ok := params.(json.RawMessage); ok && len(raw) > 0 {
		var p struct {
			ProtocolVersion string `json:"protocolVersion"`
		}
		if err := json.Unmarshal(raw, &p); err == nil && p.ProtocolVersion != "" {
			requestedProtocolVersion = p.ProtocolVersion
		}
	}
	logger.Info("Initializing with protocol version", requestedProtocolVersion, "and", len(s.GetTools()), "tools")

	type serverInfo struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	return struct {
		ProtocolVersion string         `json:"protocolVersion"`
		Capabilities    map[string]any `json:"capabilities"`
		ServerInfo      serverInfo     `json:"serverInfo"`
	}{
		ProtocolVersion: requestedProtocolVersion,
		Capabilities: map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		ServerInfo: serverInfo{Name: serverName, Version: serverVersion},
	}, nil
}

// handleInitialized does not require a response
func (s *Server) handleInitialized(_ context.Context, _ any) (any, error) {
	return nil, nil
}

func (s *Server) handlePing(_ context.Context, _ any) (any, error) {
	return struct{}{}, nil
}

// handleToolsList handles the tools/list method
func (s *Server) handleToolsList(_ context.Context, _ any) (any, error) {
	return protocol.ToolsResponse{Tools: s.GetTools()}, nil
}

type toolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (s *Server) handleToolsCall(ctx context.Context, params any) (any, error) {
	var call toolCallParams
	switch p := params.(type) {
	case toolCallParams:
		call = p
	case json.RawMessage:
		if err := json.Unmarshal(p, &call); err != nil {
			return nil, fmt.Errorf("%w: invalid tools/call parameters: %v", tools.ErrInvalidParams, err)
		}
	default:
		return nil, fmt.Errorf("%w: invalid tools/call parameters", tools.ErrInvalidParams)
	}

	s.mu.RLock()
	handler := s.toolFuncs[call.Name]
	// Some clients prefix tool names
	if handler == nil && strings.HasPrefix(call.Name, toolPrefix) {
		handler = s.toolFuncs[strings.TrimPrefix(call.Name, toolPrefix)]
	}
	s.mu.RUnlock()

	if handler == nil {
		return nil, &protocol.JsonRpcError{
			Code:    protocol.ErrMethodNotFound,
			Message: fmt.Sprintf("tool not found: %s", call.Name),
		}
	}
	logger.Info("Tool call requested for:", call.Name)

	if call.Arguments == nil {
		call.Arguments = map[string]any{}
	}
	result, err := handler(ctx, call.Arguments)
	if err != nil {
		return nil, fmt.Errorf("tool execution failed: %w", err)
	}
	return protocol.NewToolCallResult(result)
}
