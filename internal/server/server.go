package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/ironsheep/snaptext/internal/export"
	"github.com/ironsheep/snaptext/internal/imaging"
	"github.com/ironsheep/snaptext/internal/log"
	"github.com/ironsheep/snaptext/internal/ocr"
	"github.com/ironsheep/snaptext/internal/pipeline"
	"github.com/ironsheep/snaptext/internal/preset"
	"github.com/ironsheep/snaptext/internal/source"
)

// Deps are the collaborators the server drives. Optional features are nil
// when the matching capability is missing.
type Deps struct {
	Runner       *pipeline.Runner
	Resolver     *source.Resolver
	Capturer     source.Capturer
	Clipboard    *export.Clipboard
	Presets      *preset.Store
	Capabilities source.Capabilities

	// Config is the initial toggle set; preset_load and ocr_config change it.
	Config    imaging.PreprocessConfig
	Languages ocr.LanguageSet

	Logger  log.Logger
	Version string
}

// Server handles MCP protocol communication
type Server struct {
	deps   Deps
	logger log.Logger

	mu     sync.Mutex
	config imaging.PreprocessConfig

	outMu   sync.Mutex
	encoder *json.Encoder
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a new MCP server instance
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Nop
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	if deps.Resolver == nil {
		deps.Resolver = source.NewResolver(nil, logger)
	}
	return &Server{
		deps:   deps,
		logger: logger,
		config: deps.Config,
	}
}

// Run reads requests from in and writes responses to out until in is
// exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	s.outMu.Lock()
	s.encoder = json.NewEncoder(out)
	s.outMu.Unlock()

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warnw("failed to parse request", "error", err)
			s.write(s.errorResponse(nil, -32700, "Parse error", err.Error()))
			continue
		}

		if resp := s.handleRequest(ctx, &req); resp != nil {
			s.write(resp)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	return nil
}

// write encodes one frame. Progress notifications arrive from the batch
// worker, so frames are serialized.
func (s *Server) write(v interface{}) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if s.encoder == nil {
		return
	}
	if err := s.encoder.Encode(v); err != nil {
		s.logger.Errorw("failed to encode response", "error", err)
	}
}

func (s *Server) notify(method string, params interface{}) {
	s.write(&MCPNotification{JSONRPC: "2.0", Method: method, Params: params})
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "snaptext",
				"version": s.deps.Version,
			},
		},
	}
}

// handleToolsList returns the tools usable on this system.
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": AvailableTools(s.deps.Capabilities),
		},
	}
}

// currentConfig returns the session's toggle set.
func (s *Server) currentConfig() imaging.PreprocessConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

func (s *Server) setConfig(cfg imaging.PreprocessConfig) {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
}
