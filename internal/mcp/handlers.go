// ABOUTME: MCP tool handler implementations for the chunk pipeline server
// ABOUTME: Tool errors are returned as error results, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/chunkstream/internal/models"
)

// Controller is the part of the pipeline the tools drive
type Controller interface {
	AddTranscript(t models.Transcript)
	Flush() bool
	Clear()
	StartSession() string
	EndSession(ctx context.Context) error
	Status() models.Status
	ContextWindow() []models.ResearchResult
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	pipe   Controller
	logger *log.Logger
}

// NewHandlers builds handlers around a pipeline
func NewHandlers(pipe Controller, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	return &Handlers{pipe: pipe, logger: logger.WithPrefix("mcp")}
}

// AddFragment handles the add_fragment tool
func (h *Handlers) AddFragment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text argument is required and must be a string"), nil
	}

	kind := models.TranscriptKind(request.GetString("kind", string(models.TranscriptFinal)))
	if !kind.IsValid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown kind %q (want final, interim or system)", kind)), nil
	}

	t := models.Transcript{Kind: kind, Text: text}
	h.pipe.AddTranscript(t)

	return jsonResult(map[string]interface{}{
		"accepted": t.Accumulates(),
		"status":   h.pipe.Status(),
	})
}

// Flush handles the flush tool
func (h *Handlers) Flush(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	produced := h.pipe.Flush()
	return jsonResult(map[string]interface{}{
		"chunk_created": produced,
		"status":        h.pipe.Status(),
	})
}

// Clear handles the clear tool
func (h *Handlers) Clear(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.pipe.Clear()
	return jsonResult(map[string]interface{}{
		"success": true,
		"status":  h.pipe.Status(),
	})
}

// GetStatus handles the get_status tool
func (h *Handlers) GetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.pipe.Status())
}

// GetContextWindow handles the get_context_window tool
func (h *Handlers) GetContextWindow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	window := h.pipe.ContextWindow()
	if window == nil {
		window = []models.ResearchResult{}
	}
	return jsonResult(map[string]interface{}{
		"results": window,
	})
}

// StartSession handles the start_session tool
func (h *Handlers) StartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := h.pipe.StartSession()
	return jsonResult(map[string]interface{}{
		"session_id": id,
	})
}

// EndSession handles the end_session tool
func (h *Handlers) EndSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	timeout := request.GetInt("timeout_seconds", 60)
	if timeout <= 0 {
		return mcp.NewToolResultError("timeout_seconds must be positive"), nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	if err := h.pipe.EndSession(ctx); err != nil {
		h.logger.Warn("end_session did not complete", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to end session: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"success":        true,
		"context_window": h.pipe.ContextWindow(),
		"status":         h.pipe.Status(),
	})
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
