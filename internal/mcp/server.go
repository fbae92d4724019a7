// Package mcp provides an MCP (Model Context Protocol) server for brag.
// MCP lets LLM agents maintain brag documents through a standardized protocol.
package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/aidanlsb/brag/internal/brag"
	"github.com/aidanlsb/brag/internal/buildinfo"
	"github.com/aidanlsb/brag/internal/commands"
)

const protocolVersion = "2024-11-05"

// Server is an MCP server that runs brag commands in-process.
type Server struct {
	svc    *brag.Service
	in     io.Reader
	out    io.Writer
	logger *zap.Logger
}

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      interface{}      `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  *json.RawMessage `json:"params,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ServerInfo contains server capability information.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerCapabilities defines what the server can do.
type ServerCapabilities struct {
	Tools     *ToolsCapability     `json:"tools,omitempty"`
	Resources *ResourcesCapability `json:"resources,omitempty"`
}

// ToolsCapability indicates tool support.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ResourcesCapability indicates resource support.
type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// InputSchema defines the JSON schema for tool input.
type InputSchema struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Required   []string               `json:"required,omitempty"`
}

// ToolResult represents the result of a tool call.
type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// ToolContent represents content in a tool result.
type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewServer creates a server on stdin/stdout.
func NewServer(svc *brag.Service, logger *zap.Logger) *Server {
	return NewServerWithIO(svc, logger, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server on the given streams.
func NewServerWithIO(svc *brag.Service, logger *zap.Logger, in io.Reader, out io.Writer) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{svc: svc, in: in, out: out, logger: logger}
}

// Run reads line-delimited requests until the input is closed.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	s.logger.Info("mcp server starting")

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		s.logger.Debug("received", zap.ByteString("request", line))

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("parse error", zap.Error(err))
			s.sendError(nil, -32700, "Parse error", err.Error())
			continue
		}

		s.handleRequest(&req)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read requests: %w", err)
	}
	s.logger.Info("mcp server shutting down")
	return nil
}

func (s *Server) handleRequest(req *Request) {
	isNotification := req.ID == nil

	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "initialized", "notifications/initialized", "notifications/cancelled":
		return
	case "tools/list":
		s.sendResult(req.ID, map[string]interface{}{"tools": GenerateToolSchemas()})
	case "tools/call":
		s.handleToolsCall(req)
	case "resources/list":
		s.sendResult(req.ID, map[string]interface{}{"resources": listResources()})
	case "resources/read":
		s.handleResourcesRead(req)
	case "ping":
		s.sendResult(req.ID, map[string]interface{}{})
	default:
		if !isNotification {
			s.sendError(req.ID, -32601, "Method not found", req.Method)
		}
	}
}

func (s *Server) handleInitialize(req *Request) {
	result := map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities": ServerCapabilities{
			Tools:     &ToolsCapability{},
			Resources: &ResourcesCapability{},
		},
		"serverInfo": ServerInfo{
			Name:    "brag-mcp",
			Version: buildinfo.Get().Version,
		},
	}
	s.sendResult(req.ID, result)
}

func (s *Server) handleToolsCall(req *Request) {
	var params struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if req.Params == nil {
		s.sendError(req.ID, -32602, "Invalid params", "missing params")
		return
	}
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		s.sendError(req.ID, -32602, "Invalid params", err.Error())
		return
	}

	text, isError := s.callTool(params.Name, params.Arguments)
	s.sendResult(req.ID, ToolResult{
		Content: []ToolContent{{Type: "text", Text: text}},
		IsError: isError,
	})
}

// callTool runs a tool and returns the JSON envelope.
func (s *Server) callTool(name string, args map[string]interface{}) (string, bool) {
	meta, ok := LookupTool(name)
	if !ok {
		return fmt.Sprintf(`{"ok":false,"error":{"code":"UNKNOWN_TOOL","message":"Unknown tool: %s"}}`, name), true
	}

	var resp commands.Response
	ref, in, err := BuildInput(meta, args)
	if err == nil {
		var out commands.Output
		out, err = commands.Execute(s.svc, ref, meta.Name, in)
		resp = commands.Success(out)
	}
	if err != nil {
		s.logger.Debug("tool failed", zap.String("tool", name), zap.Error(err))
		resp = commands.Failure(err)
	} else if meta.Mutating {
		s.logger.Info("tool applied", zap.String("tool", name), zap.String("full_name", ref.FullName), zap.Int("year", ref.Year))
	}

	data, mErr := json.MarshalIndent(resp, "", "  ")
	if mErr != nil {
		return fmt.Sprintf(`{"ok":false,"error":{"code":"INTERNAL_ERROR","message":%q}}`, mErr.Error()), true
	}
	return string(data), !resp.OK
}

func (s *Server) sendResult(id interface{}, result interface{}) {
	s.send(Response{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) sendError(id interface{}, code int, message, data string) {
	s.send(Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message, Data: data},
	})
}

func (s *Server) send(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("marshal response", zap.Error(err))
		return
	}
	fmt.Fprintln(s.out, string(data))
}
