// Package server implements the cadenza MCP server: the two callable
// tools that validate caller input and delegate to the device bridge.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/dorcha-inc/cadenza/internal/core"
	"github.com/dorcha-inc/cadenza/internal/midi"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DeviceBridge is the handle the tool surface delegates to. It is injected
// at construction so tests can substitute a fake without touching process
// state; implementations must be safe for sequential reuse across calls.
type DeviceBridge interface {
	SubmitSequence(ctx context.Context, request *midi.SequenceRequest) (map[string]any, error)
	Status(ctx context.Context) (map[string]any, error)
	BaseURL() string
}

// LoadSequenceInput is the raw caller input for the load_sequence tool.
type LoadSequenceInput struct {
	Sequence []midi.Event `json:"sequence"`
	Channel  int          `json:"channel,omitempty"`
}

// GetStatusInput is the (empty) caller input for the get_status tool.
type GetStatusInput struct{}

// BridgeServer stores the state and dependencies for the cadenza MCP server.
type BridgeServer struct {
	bridge          DeviceBridge
	mcpServer       *mcp.Server
	httpHandler     *mcp.StreamableHTTPHandler
	registeredTools mapset.Set[string]
}

// New creates a BridgeServer around the given device bridge and registers
// its tools. A nil bridge is tolerated at construction; tool calls against
// it fail with an initialization-ordering error and never touch the network.
func New(bridge DeviceBridge) *BridgeServer {
	s := &BridgeServer{
		bridge:          bridge,
		registeredTools: mapset.NewSet[string](),
	}

	s.mcpServer = mcp.NewServer(
		&mcp.Implementation{Name: "cadenza", Version: "1.0.0"},
		nil,
	)

	s.registerTools()

	// Create HTTP handler that manages sessions, Origin validation, etc.
	s.httpHandler = mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server {
			return s.mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: false,
		},
	)

	return s
}

// RegisteredTools returns the names of the tools exposed by this server.
func (s *BridgeServer) RegisteredTools() []string {
	return s.registeredTools.ToSlice()
}

func (s *BridgeServer) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "load_sequence",
		Description: "Buffer a MIDI note sequence on the device for clock-synchronised playback.",
	}, s.handleLoadSequence)
	s.registeredTools.Add("load_sequence")

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_status",
		Description: "Read the device's current transport and network status.",
	}, s.handleGetStatus)
	s.registeredTools.Add("get_status")
}

// handleLoadSequence validates raw input into a sequence request and
// uploads it. Validation failures are reported without contacting the
// device; bridge failures keep their class-distinct messages.
func (s *BridgeServer) handleLoadSequence(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LoadSequenceInput,
) (result *mcp.CallToolResult, output map[string]any, err error) {
	// Panic recovery at the handler boundary since this is the single point
	// where we can return proper MCP error responses
	defer func() {
		if r := recover(); r != nil {
			core.LogPanicRecovery("load_sequence handler", r)
			result = errorResult(fmt.Sprintf("internal error: panic recovered in tool execution: %v", r))
			output = nil
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()

	if s.bridge == nil {
		return errorResult(midi.ErrNotInitialized.Error()), nil, nil
	}

	request, buildErr := midi.NewSequenceRequest(input.Channel, input.Sequence)
	if buildErr != nil {
		return errorResult(fmt.Sprintf("invalid sequence: %v", buildErr)), nil, nil
	}

	requestID := uuid.NewString()
	zap.L().Info("Uploading sequence to device",
		zap.String("request_id", requestID),
		zap.Int("events", len(request.Sequence)),
		zap.String("device", s.bridge.BaseURL()),
		zap.Int("channel", request.Channel))

	startTime := time.Now()
	deviceResult, submitErr := s.bridge.SubmitSequence(ctx, request)
	core.LogToolCall("load_sequence", time.Since(startTime).Seconds(), submitErr)

	if submitErr != nil {
		return errorResult(submitErr.Error()), nil, nil
	}

	zap.L().Debug("Device response",
		zap.String("request_id", requestID),
		zap.Any("result", deviceResult),
		zap.Strings("messages", messageStrings(request)))

	return nil, deviceResult, nil
}

// handleGetStatus delegates directly to the bridge and passes the device's
// status object through opaquely.
func (s *BridgeServer) handleGetStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GetStatusInput,
) (result *mcp.CallToolResult, output map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			core.LogPanicRecovery("get_status handler", r)
			result = errorResult(fmt.Sprintf("internal error: panic recovered in tool execution: %v", r))
			output = nil
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()

	if s.bridge == nil {
		return errorResult(midi.ErrNotInitialized.Error()), nil, nil
	}

	startTime := time.Now()
	status, statusErr := s.bridge.Status(ctx)
	core.LogToolCall("get_status", time.Since(startTime).Seconds(), statusErr)

	if statusErr != nil {
		return errorResult(statusErr.Error()), nil, nil
	}

	zap.L().Debug("Device status", zap.Any("status", status))

	return nil, status, nil
}

// errorResult builds a tool error response carrying a human-readable
// message for the caller.
func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// messageStrings renders the raw MIDI messages a request will produce, for
// debug traces.
func messageStrings(request *midi.SequenceRequest) []string {
	messages := request.Messages()
	rendered := make([]string, len(messages))
	for i, message := range messages {
		rendered[i] = message.String()
	}
	return rendered
}

// Handler returns the HTTP handler used in HTTP mode: the MCP endpoint
// plus a liveness probe, behind permissive CORS for browser-based clients.
func (s *BridgeServer) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.Handle("/mcp", s.httpHandler)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			zap.L().Debug("Failed to write healthz response", zap.Error(err))
		}
	}).Methods(http.MethodGet)

	return cors.Default().Handler(router)
}

// Serve starts the server on the given address using HTTP (Streamable HTTP
// transport per MCP spec). The StreamableHTTPHandler manages sessions,
// Origin validation, and HTTP protocol details.
func (s *BridgeServer) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	zap.L().Info("Server listening", zap.String("address", addr))

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("Server shutdown error", zap.Error(err))
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

// ServeStdio starts the server using stdio transport (per MCP spec)
func (s *BridgeServer) ServeStdio(ctx context.Context) error {
	transport := &mcp.StdioTransport{}
	return s.mcpServer.Run(ctx, transport)
}
