// ABOUTME: Run command feeds a transcript stream through the chunk pipeline
// ABOUTME: Reads lines from a file or stdin and streams events to the terminal, WebSocket and NATS
package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/harper/chunkstream/internal/config"
	"github.com/harper/chunkstream/internal/events"
	"github.com/harper/chunkstream/internal/llm"
	"github.com/harper/chunkstream/internal/models"
	"github.com/harper/chunkstream/internal/pipeline"
)

var (
	runWSAddr  string
	runNATSURL string
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Chunk and enrich a transcript stream",
		Long: `Chunk and enrich a transcript stream.

Reads one fragment per line from a file, or stdin when no file is given.
Lines may be prefixed with "final:", "interim:" or "system:"; unprefixed
lines are treated as final text. Only final text is chunked.

Each chunk is sent for topic extraction and research one at a time.
Events are printed as they happen. At end of input the remaining buffer is
flushed and the command waits for every queued chunk to be enriched.`,
		Example: `  # Pipe live captions in
  whisper-stream | chunkstream run

  # Replay a saved transcript and stream events to a browser
  chunkstream run meeting.txt --ws-addr localhost:8787

  # Publish events to NATS as JSON
  chunkstream run meeting.txt --nats-url nats://localhost:4222 --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRun,
	}

	cmd.Flags().StringVar(&runWSAddr, "ws-addr", "", "Serve events over WebSocket at ws://<addr>/events")
	cmd.Flags().StringVar(&runNATSURL, "nats-url", "", "Publish events to NATS at this URL")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := validateFormat(outputFormat); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("ws-addr") {
		cfg.WebSocketAddr = runWSAddr
	}
	if cmd.Flags().Changed("nats-url") {
		cfg.NATSURL = runNATSURL
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	client, err := llm.NewOpenAIClientWithConfig(llm.ConfigFrom(cfg))
	if err != nil {
		return fmt.Errorf("initializing OpenAI client: %w", err)
	}

	in := cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening transcript: %w", err)
		}
		defer f.Close()
		in = f
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runStream(ctx, cfg, client, in, cmd.OutOrStdout(), logger)
}

// enricher is satisfied by *llm.OpenAIClient
type enricher interface {
	pipeline.TopicExtractor
	pipeline.ResearchFetcher
}

// runStream wires sinks around a pipeline and feeds it from in until EOF or
// ctx is done
func runStream(ctx context.Context, cfg *config.Config, client enricher, in io.Reader, out io.Writer, logger *log.Logger) error {
	var pipe *pipeline.Pipeline
	sessionID := func() string { return pipe.SessionID() }

	sinks := []events.Publisher{events.NewLogPublisher(logger.With("component", "events"))}
	if resolveFormat(outputFormat, out) == "json" {
		sinks = append(sinks, events.NewEnvelopePublisher(newJSONLines(out), sessionID, logger))
	} else {
		sinks = append(sinks, newTextPrinter(out))
	}

	if cfg.NATSURL != "" {
		nc, err := events.ConnectNATS(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer nc.Close()
		defer func() { _ = nc.Flush() }()
		sinks = append(sinks, events.NewEnvelopePublisher(events.NewNATSSender(nc, cfg.NATSPrefix), sessionID, logger))
		logger.Info("publishing events to NATS", "url", cfg.NATSURL, "prefix", cfg.NATSPrefix)
	}

	var hub *events.Hub
	if cfg.WebSocketAddr != "" {
		hub = events.NewHub(logger, 0)
		defer hub.Close()
		sinks = append(sinks, events.NewEnvelopePublisher(hub, sessionID, logger))
	}

	opts := pipeline.OptionsFromConfig(cfg)
	opts.Logger = logger
	var err error
	pipe, err = pipeline.New(client, client, events.NewMulti(sinks...), opts)
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}
	defer pipe.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if hub != nil {
		mux := http.NewServeMux()
		mux.Handle("/events", hub)
		mux.HandleFunc("/status", statusHandler(pipe))
		g.Go(func() error {
			return events.Serve(gctx, cfg.WebSocketAddr, mux, logger)
		})
	}

	g.Go(func() error {
		// Input is done: stop the event server too
		defer cancel()

		if err := feed(gctx, pipe, in); err != nil {
			return err
		}
		if err := pipe.EndSession(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	st := pipe.Status()
	logger.Info("session finished",
		"session", st.SessionID,
		"context_window", st.ContextWindowSize,
		"dropped", st.DroppedChunks,
		"last_enriched", formatTime(st.LastProcessed()))
	return nil
}

// feed reads transcript lines into the pipeline until EOF or ctx is done.
// The reader goroutine is abandoned on cancellation since reads cannot be
// interrupted.
func feed(ctx context.Context, pipe *pipeline.Pipeline, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("reading transcript: %w", err)
				}
				return nil
			}
			pipe.AddTranscript(models.ParseTranscriptLine(line))
		}
	}
}

func statusHandler(pipe *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pipe.Status())
	}
}
