// Command prior runs the chat agent: it serves the WebSocket bridge,
// connects the agent to it, and supervises the chat workflow until
// interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/Sangwon91/prior/agent"
	"github.com/Sangwon91/prior/bridge"
	"github.com/Sangwon91/prior/chat"
	"github.com/Sangwon91/prior/observability"
	"github.com/Sangwon91/prior/protocol"
	"github.com/Sangwon91/prior/workflow"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to config JSON file")
		model       = flag.String("model", "", "Model name (overrides config)")
		host        = flag.String("host", "", "Bridge server host (overrides config)")
		port        = flag.Int("port", 0, "Bridge server port; 0 picks a free port (overrides config)")
		projectRoot = flag.String("project-root", "", "Project root for file tree context (overrides config)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	cfg := DefaultConfig()
	if *configFile != "" {
		loaded, err := LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}

	if *model != "" {
		cfg.Agent.Model = *model
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port > 0 {
		cfg.Port = *port
	}
	if *projectRoot != "" {
		cfg.ProjectRoot = *projectRoot
	}
	if cfg.Agent.APIKey == "" {
		cfg.Agent.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("prior failed: %v", err)
	}
}

func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	b := bridge.New(ctx, cfg.BufferSize, logger)
	defer b.Shutdown()

	// Bind first so a port of 0 resolves before clients connect.
	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to bind bridge server: %w", err)
	}
	addr := listener.Addr().String()

	server := &http.Server{Handler: bridge.NewServer(b, logger).Handler()}
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.InfoContext(ctx, "bridge server listening",
		slog.String("addr", addr),
		slog.String("model", cfg.Agent.Model),
	)

	client := bridge.NewClient(fmt.Sprintf("ws://%s/ws/agent", addr))
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	deps := chat.Deps{
		Agent:       agent.New(cfg.Agent),
		Transport:   client,
		ProjectRoot: cfg.ProjectRoot,
	}

	graph, err := chat.NewChatGraph()
	if err != nil {
		return err
	}

	// A cancel command from a frontend stops the chat run.
	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()
	err = b.RegisterCommandHandler("chat", func(ctx context.Context, cmd protocol.ControlCommand) error {
		if cmd.Kind == protocol.CommandCancel {
			stopRun()
		}
		return nil
	})
	if err != nil {
		return err
	}

	observer := observability.NewMultiObserver(
		observability.NewSlogObserver(logger),
		bridge.NewEventObserver(b),
	)

	runner := chat.NewRunner[chat.State, chat.Deps, string](logger)
	result, err := runner.RunLoop(runCtx, graph, chat.ReceiveMessage{}, func() chat.State {
		return chat.State{}
	}, deps, workflow.WithObserver(observer))
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "chat workflow ended", slog.String("reason", result.Output))

	select {
	case err := <-serverErr:
		return err
	default:
		return nil
	}
}
