package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codefionn/agentwire/internal/config"
	"github.com/codefionn/agentwire/internal/logger"
	"github.com/codefionn/agentwire/internal/metric"
	"github.com/codefionn/agentwire/internal/protocol"
	"github.com/codefionn/agentwire/internal/sessionstore"
	"github.com/codefionn/agentwire/internal/wsclient"
	"github.com/codefionn/agentwire/internal/wsmanager"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	var (
		configPath  = flag.String("config", "", "path to the config file")
		serverURL   = flag.String("url", "", "WebSocket endpoint of the agent backend")
		contextKey  = flag.String("context", "", "workspace context key")
		logLevel    = flag.String("log-level", "", "log level (debug, info, warn, error, none)")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *contextKey != "" {
		cfg.ContextKey = *contextKey
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if cfg.ServerURL == "" {
		return fmt.Errorf("no server URL configured (use -url or AGENTWIRE_SERVER_URL)")
	}

	if err := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err != nil {
			logger.Error("Fatal error: %v", err)
		}
		if closeErr := logger.Global().Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close logger: %v\n", closeErr)
		}
	}()
	// Libraries speaking log/slog share the same log file.
	slog.SetDefault(slog.New(logger.NewSlogHandler(logger.Global())))

	if mkErr := os.MkdirAll(filepath.Dir(cfg.SessionDBPath), 0o755); mkErr != nil {
		logger.Warn("failed to create state directory: %v", mkErr)
	}
	store, err := sessionstore.NewSQLiteStore(cfg.SessionDBPath)
	if err != nil {
		// Session persistence is best effort; fall back to memory.
		logger.Warn("session database unavailable, sessions will not survive restarts: %v", err)
		store = nil
	} else {
		defer store.Close()
	}

	metrics := metric.New()
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		if err := metrics.Register(reg); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			logger.Info("serving metrics on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics server stopped: %v", err)
			}
		}()
	}

	clientCfg := wsclient.DefaultConfig()
	clientCfg.URL = cfg.ServerURL
	clientCfg.ClientType = cfg.ClientType
	clientCfg.Capabilities = cfg.Capabilities
	clientCfg.ReconnectAttempts = cfg.ReconnectAttempts
	clientCfg.ReconnectBaseDelay = cfg.ReconnectBaseDelay()
	clientCfg.ReconnectMaxDelay = cfg.ReconnectMaxDelay()
	clientCfg.HeartbeatInterval = cfg.HeartbeatInterval()
	clientCfg.QueueCapacity = cfg.QueueCapacity
	clientCfg.Metrics = metrics
	if store != nil {
		clientCfg.Store = store
	}
	clientCfg.Notify = func(severity, message string) {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", strings.ToUpper(severity), message)
	}

	manager := wsmanager.Default()
	defer func() {
		if disconnectErr := manager.DisconnectAll(); disconnectErr != nil {
			logger.Warn("shutdown: %v", disconnectErr)
		}
	}()

	client, err := manager.GetInstance(cfg.ContextKey, clientCfg)
	if err != nil {
		return err
	}

	registerOutput(client)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.Connect(ctx); err != nil {
		// Reconnection keeps running in the background; report and go on.
		fmt.Fprintf(os.Stderr, "initial connection failed, retrying: %v\n", err)
	}

	fmt.Printf("agentwire connected to %s (context %s, session %s)\n",
		cfg.ServerURL, cfg.ContextKey, client.SessionID())
	fmt.Println("type a message and press enter; ctrl-d or ctrl-c to quit")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nshutting down")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if err := client.Send(protocol.TypeUserMessage,
				&protocol.UserMessagePayload{Content: line}); err != nil {
				fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
			}
		}
	}
}

// registerOutput wires the message handlers that render backend traffic to
// the terminal.
func registerOutput(client *wsclient.Client) {
	client.OnMessage(protocol.TypeAssistantMessage, func(env *protocol.Envelope) error {
		var p protocol.AssistantMessagePayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		fmt.Printf("assistant: %s\n", p.Content)
		return nil
	})

	client.OnMessage(protocol.TypeStreamContent, func(env *protocol.Envelope) error {
		var p protocol.StreamContentPayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		fmt.Print(p.Content)
		if p.IsFinal {
			fmt.Println()
		}
		return nil
	})

	client.OnMessage(protocol.TypeSystemMessage, func(env *protocol.Envelope) error {
		var p protocol.SystemMessagePayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		fmt.Printf("system: %s\n", p.Content)
		return nil
	})

	client.OnMessage(protocol.TypeError, func(env *protocol.Envelope) error {
		var p protocol.ErrorPayload
		if err := env.Decode(&p); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "backend error [%s]: %s\n", p.Code, p.Detail)
		return nil
	})

	client.On(wsclient.EventStateChange, func(d wsclient.EventData) {
		logger.Info("connection state: %s -> %s", d.PrevState, d.State)
	})
}
