// ABOUTME: Root command and global flags for the chunkstream CLI
// ABOUTME: Wires subcommands and builds the shared logger and configuration
package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/chunkstream/internal/config"
)

var (
	verbose      bool
	quiet        bool
	configPath   string
	outputFormat string
)

const banner = `
 ██████╗██╗  ██╗██╗   ██╗███╗   ██╗██╗  ██╗
██╔════╝██║  ██║██║   ██║████╗  ██║██║ ██╔╝
██║     ███████║██║   ██║██╔██╗ ██║█████╔╝
██║     ██╔══██║██║   ██║██║╚██╗██║██╔═██╗
╚██████╗██║  ██║╚██████╔╝██║ ╚████║██║  ██╗
 ╚═════╝╚═╝  ╚═╝ ╚═════╝ ╚═╝  ╚═══╝╚═╝  ╚═╝  stream`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunkstream",
		Short: "Turn live transcripts into enriched chunks",
		Long: banner + `

chunkstream buffers live transcript fragments into chunks, extracts
topics from each chunk and researches them one chunk at a time.
Results are streamed as events to the terminal, WebSocket clients,
NATS subjects or MCP clients.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default: $CHUNKSTREAM_CONFIG)")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Event output format: auto, text or json")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewRunCmd(),
		NewMCPCmd(),
		NewConfigCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads .env, then the YAML file and environment
func loadConfig() (*config.Config, error) {
	// .env is optional
	_ = godotenv.Load()

	path := configPath
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// newLogger builds the CLI logger. --verbose and --quiet override the
// configured level.
func newLogger(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	switch {
	case verbose:
		lvl = log.DebugLevel
	case quiet:
		lvl = log.ErrorLevel
	}
	logger.SetLevel(lvl)

	return logger
}

func validateFormat(format string) error {
	switch format {
	case "auto", "text", "json":
		return nil
	default:
		return fmt.Errorf("unknown format %q (want auto, text or json)", format)
	}
}
