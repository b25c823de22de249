// ABOUTME: MCP tool definitions and registration for the chunk pipeline server
// ABOUTME: Defines JSON schemas for feeding fragments and inspecting pipeline state
package mcp

import (
	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, pipe Controller, logger *log.Logger) *Handlers {
	handlers := NewHandlers(pipe, logger)

	// 1. add_fragment - Feed one transcript fragment
	server.AddTool(mcp.Tool{
		Name:        "add_fragment",
		Description: "Add a transcript fragment to the pipeline. Final fragments are buffered and cut into chunks once enough words accumulate; interim and system fragments are ignored.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Transcript text",
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Fragment kind: final, interim or system (default: final)",
					"enum":        []string{"final", "interim", "system"},
					"default":     "final",
				},
			},
			Required: []string{"text"},
		},
	}, handlers.AddFragment)

	// 2. flush - Cut the buffer now
	server.AddTool(mcp.Tool{
		Name:        "flush",
		Description: "Cut whatever is buffered into a chunk immediately, regardless of word count.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.Flush)

	// 3. clear - Reset the pipeline
	server.AddTool(mcp.Tool{
		Name:        "clear",
		Description: "Discard the buffer, queued chunks and context window. Any in-flight enrichment is abandoned.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.Clear)

	// 4. get_status - Pipeline snapshot
	server.AddTool(mcp.Tool{
		Name:        "get_status",
		Description: "Get buffer word count, queue length, processing state and the last processed time.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.GetStatus)

	// 5. get_context_window - Recent research
	server.AddTool(mcp.Tool{
		Name:        "get_context_window",
		Description: "Get the most recent research summaries, oldest first.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.GetContextWindow)

	// 6. start_session - Begin a new session
	server.AddTool(mcp.Tool{
		Name:        "start_session",
		Description: "Clear all state and start a new session. Returns the new session ID.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.StartSession)

	// 7. end_session - Flush and drain
	server.AddTool(mcp.Tool{
		Name:        "end_session",
		Description: "Flush the buffer and wait until every queued chunk has been enriched.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"timeout_seconds": map[string]interface{}{
					"type":        "number",
					"description": "Maximum time to wait for the queue to drain (default: 60)",
					"default":     60,
				},
			},
		},
	}, handlers.EndSession)

	return handlers
}
