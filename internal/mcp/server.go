package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/asrsmcp/internal/telemetry"
	"github.com/Aman-CERP/asrsmcp/internal/tools"
	"github.com/Aman-CERP/asrsmcp/pkg/version"
)

// ServerName is the implementation name reported to MCP clients.
const ServerName = "asrsmcp"

// Server is the MCP server for asrsmcp.
// It exposes every registered tool and the read-only resources over MCP.
type Server struct {
	mcp        *mcp.Server
	dispatcher *tools.Dispatcher
	logger     *slog.Logger

	// Tool telemetry (optional, set via SetMetrics)
	metrics *telemetry.ToolMetrics

	mu sync.RWMutex
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the server's logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new MCP server routing tool calls to dispatcher.
func NewServer(dispatcher *tools.Dispatcher, opts ...ServerOption) (*Server, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}

	s := &Server{
		dispatcher: dispatcher,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil, // capabilities are inferred from registered tools/resources
	)

	s.registerTools()
	s.registerTaxonomyResource()

	return s, nil
}

// SetMetrics sets the tool metrics collector.
// When set, a tool_metrics resource is registered.
func (s *Server) SetMetrics(m *telemetry.ToolMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m

	if m != nil {
		s.registerToolMetricsResource()
	}
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return ServerName, version.Version
}

// CallTool invokes a tool by name without going through a transport.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) tools.Response {
	return s.dispatcher.Dispatch(ctx, name, args)
}

// registerTools registers every descriptor with the MCP server.
func (s *Server) registerTools() {
	s.logger.Debug("Registering MCP tools")

	descriptors := s.dispatcher.Registry().Descriptors()
	for _, d := range descriptors {
		s.mcp.AddTool(&mcp.Tool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: inputSchema(d),
		}, s.toolHandler(d.Name))
		s.logger.Debug("Registered tool", slog.String("name", d.Name))
	}

	s.logger.Info("MCP tools registered", slog.Int("count", len(descriptors)))
}

// toolHandler adapts the dispatcher to the SDK's raw tool handler.
func (s *Server) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var raw json.RawMessage
		if req != nil && req.Params != nil {
			raw = req.Params.Arguments
		}

		args, err := tools.DecodeParams(raw)
		if err != nil {
			return nil, MapError(err)
		}

		resp := s.dispatcher.Dispatch(ctx, name, args)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: resp.Text}},
			IsError: resp.IsError,
		}, nil
	}
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server",
		slog.String("transport", transport))

	switch transport {
	case "stdio":
		s.logger.Debug("Using stdio transport for JSON-RPC")
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}
