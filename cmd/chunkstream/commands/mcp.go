// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents feed transcripts and receive enrichment events via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/chunkstream/internal/config"
	"github.com/harper/chunkstream/internal/events"
	"github.com/harper/chunkstream/internal/llm"
	"github.com/harper/chunkstream/internal/mcp"
	"github.com/harper/chunkstream/internal/pipeline"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the chunk pipeline as an MCP (Model Context Protocol) server over
stdio. LLM agents add transcript fragments with tools and receive chunk,
topic, research and error events as notifications.

Logs go to stderr so stdout stays reserved for the protocol.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an agent host)
  chunkstream mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "chunkstream": {
  #       "command": "chunkstream",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(os.Stderr, cfg.LogLevel)

	client, err := llm.NewOpenAIClientWithConfig(llm.ConfigFrom(cfg))
	if err != nil {
		return fmt.Errorf("initializing OpenAI client: %w", err)
	}

	server, pipe, err := newMCPServer(cfg, client, logger)
	if err != nil {
		return err
	}
	defer pipe.Close()

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("MCP server starting on stdio", "session", pipe.SessionID())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}

// newMCPServer builds the MCP server and the pipeline behind its tools.
// Pipeline events are logged and broadcast to clients as notifications.
func newMCPServer(cfg *config.Config, client enricher, logger *log.Logger) (*mcpserver.MCPServer, *pipeline.Pipeline, error) {
	server := mcpserver.NewMCPServer(
		"chunkstream",
		versionInfo.Version,
		mcpserver.WithToolCapabilities(false),
	)

	var pipe *pipeline.Pipeline
	notifications := events.NewEnvelopePublisher(
		mcp.NewNotificationSender(server),
		func() string { return pipe.SessionID() },
		logger,
	)

	opts := pipeline.OptionsFromConfig(cfg)
	opts.Logger = logger
	pipe, err := pipeline.New(client, client, events.NewMulti(events.NewLogPublisher(logger), notifications), opts)
	if err != nil {
		return nil, nil, fmt.Errorf("creating pipeline: %w", err)
	}

	mcp.RegisterTools(server, pipe, logger)
	return server, pipe, nil
}
