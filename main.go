// Command pairs starts the pairs game server.
//
// It supports three modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "events" – tails the celebration and state events published to NATS
//
// Every flag can also be set from the environment (a .env file is loaded
// first), including optional ngrok tunneling for easy external access during
// development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/pairs-game/api"
	"github.com/wricardo/pairs-game/game/config"
	"github.com/wricardo/pairs-game/game/engine"
	"github.com/wricardo/pairs-game/game/service"
	"github.com/wricardo/pairs-game/game/session"
	"github.com/wricardo/pairs-game/transport/events"
	"github.com/wricardo/pairs-game/transport/mcp"
	"github.com/wricardo/pairs-game/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Pairs Game Server"
)

const (
	sessionCleanupInterval = time.Hour
	sessionMaxAge          = 24 * time.Hour
)

// appConfig is the process configuration collected from flags and environment
type appConfig struct {
	Host          string
	Port          int
	ConfigDir     string
	MismatchDelay time.Duration
	NATSURL       string

	NgrokEnabled bool
	NgrokAuth    string
	NgrokDomain  string
}

// Addr returns the host:port the HTTP server binds to
func (c appConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

// newApp builds the command tree. Flags are shared by every subcommand.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "pairs",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.StringFlag{Name: "config-dir", Usage: "Directory of preset overrides (built-in presets only when empty)", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.DurationFlag{Name: "mismatch-delay", Value: engine.DefaultMismatchDelay, Usage: "How long a mismatched pair stays face-up", Sources: cli.EnvVars("MISMATCH_DELAY")},
			&cli.StringFlag{Name: "nats-url", Usage: "Publish game events to this NATS server", Sources: cli.EnvVars("NATS_URL")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Log level (debug, info, warn, error)", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
			&cli.BoolFlag{Name: "pretty", Usage: "Human friendly console logs", Sources: cli.EnvVars("LOG_PRETTY")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, setupLogging(cmd.String("log-level"), cmd.Bool("debug"), cmd.Bool("pretty"))
		},
		Action: runServerCommand,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runServerCommand,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStdioMCP(ctx, configFromCommand(cmd))
				},
			},
			{
				Name:  "events",
				Usage: "Print game events from NATS as JSON lines",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "session", Usage: "Only show events of this session"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runEvents(ctx, configFromCommand(cmd).NATSURL, cmd.String("session"), os.Stdout)
				},
			},
		},
	}
}

func runServerCommand(ctx context.Context, cmd *cli.Command) error {
	return runHTTPServer(ctx, configFromCommand(cmd))
}

// configFromCommand reads the shared flags
func configFromCommand(cmd *cli.Command) appConfig {
	return appConfig{
		Host:          cmd.String("host"),
		Port:          int(cmd.Int("port")),
		ConfigDir:     cmd.String("config-dir"),
		MismatchDelay: cmd.Duration("mismatch-delay"),
		NATSURL:       cmd.String("nats-url"),
		NgrokEnabled:  cmd.Bool("ngrok"),
		NgrokAuth:     cmd.String("ngrok-auth"),
		NgrokDomain:   cmd.String("ngrok-domain"),
	}
}

// setupLogging configures the global zerolog logger. Logs always go to
// stderr so the stdio MCP transport keeps stdout to itself.
func setupLogging(level string, debug, pretty bool) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

// services is everything a transport needs
type services struct {
	game     service.GameService
	hub      *websocket.Hub
	sessions *session.Manager
	nc       *nats.Conn
}

// Close releases the NATS connection, if any
func (s *services) Close() {
	if s.nc != nil {
		if err := s.nc.Drain(); err != nil {
			log.Warn().Err(err).Msg("failed to drain NATS connection")
		}
	}
}

// initializeServices wires session/config managers, the notifiers and the
// game service. The hub is returned but not started.
func initializeServices(cfg appConfig) (*services, error) {
	configManager, err := config.NewManager(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager()
	hub := websocket.NewHub()

	notifiers := service.MultiNotifier{hub, service.LogNotifier{}}

	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = events.Connect(cfg.NATSURL, AppName)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATSURL, err)
		}
		notifiers = append(notifiers, events.NewPublisher(nc))
		log.Info().Str("url", cfg.NATSURL).Msg("publishing game events to NATS")
	}

	gameService := service.NewGameService(sessionManager, configManager,
		service.WithNotifier(notifiers),
		service.WithMismatchDelay(cfg.MismatchDelay),
	)
	hub.SetGame(gameService)

	return &services{
		game:     gameService,
		hub:      hub,
		sessions: sessionManager,
		nc:       nc,
	}, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within maxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.Info().Int("removed", removed).Msg("cleaned up expired sessions")
			}
		}
	}
}

// mcpHandler serves single JSON-RPC MCP messages over HTTP POST
func mcpHandler(mcpServer *server.MCPServer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			w.WriteHeader(http.StatusAccepted)
			return
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
}

// newRootHandler combines the REST API and the /mcp endpoint
func newRootHandler(svcs *services, baseURL string) http.Handler {
	apiServer := api.NewServer(svcs.game, svcs.hub)
	mcpClient := mcp.NewClient(baseURL)

	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.Handle("/mcp", mcpHandler(mcpClient.GetMCPServer()))
	return mux
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an
// /mcp proxy endpoint. With ngrok enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, cfg appConfig) error {
	svcs, err := initializeServices(cfg)
	if err != nil {
		return err
	}
	defer svcs.Close()

	go svcs.hub.Run()

	addr := cfg.Addr()
	handler := newRootHandler(svcs, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		sessionCleanupRoutine(ctx, svcs.sessions, sessionCleanupInterval, sessionMaxAge)
	}()

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", addr).
			Str("version", Version).
			Msgf("REST API: http://%s/api | WebSocket: ws://%s/ws?session=<id> | MCP: http://%s/mcp", addr, addr, addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
		close(serverErr)
	}()

	if cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg, handler)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serverErr:
		if err != nil {
			cancel()
			wg.Wait()
			return err
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
	return nil
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done
func runNgrokTunnel(ctx context.Context, cfg appConfig, handler http.Handler) {
	if cfg.NgrokAuth == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuth))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	log.Info().Str("url", tun.URL()).Msg("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// apiAvailable reports whether a pairs API answers at baseURL
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening
// on the configured address; otherwise it starts an internal one on a random
// loopback port.
func runStdioMCP(ctx context.Context, cfg appConfig) error {
	baseURL := "http://" + cfg.Addr()

	if apiAvailable(baseURL) {
		log.Info().Str("url", baseURL).Msg("using external API server for MCP")
	} else {
		svcs, err := initializeServices(cfg)
		if err != nil {
			return err
		}
		defer svcs.Close()
		go svcs.hub.Run()
		go sessionCleanupRoutine(ctx, svcs.sessions, sessionCleanupInterval, sessionMaxAge)

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		httpServer := &http.Server{Handler: api.NewServer(svcs.game, svcs.hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		log.Info().Str("url", baseURL).Msg("started internal API server for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info().Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// runEvents prints every event published for sessionID (all sessions when
// empty) as one JSON line on out until ctx is done.
func runEvents(ctx context.Context, natsURL, sessionID string, out io.Writer) error {
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}

	nc, err := events.Connect(natsURL, AppName+" events")
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", natsURL, err)
	}
	defer nc.Close()

	log.Info().Str("url", natsURL).Str("session", sessionID).Msg("watching game events")

	var mu sync.Mutex
	enc := json.NewEncoder(out)
	return events.Watch(ctx, nc, sessionID, func(subject string, ev events.Event) {
		mu.Lock()
		defer mu.Unlock()
		if err := enc.Encode(ev); err != nil {
			log.Warn().Err(err).Str("subject", subject).Msg("failed to write event")
		}
	})
}
