// Command sokoban-game serves Sokoban puzzles.
//
// Commands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket and an /mcp endpoint
//  2. "mcp" runs an MCP stdio server, starting an internal HTTP API if none is reachable
//  3. "validate" checks level packs and can prove every level solvable
//  4. "solve" prints the shortest solution of one level
//
// Every flag can also be set through the environment variable named in its help text,
// and a .env file in the working directory is loaded first.
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
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/sokoban-game/api"
	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/levels"
	"github.com/wricardo/sokoban-game/game/records"
	"github.com/wricardo/sokoban-game/game/service"
	"github.com/wricardo/sokoban-game/game/session"
	"github.com/wricardo/sokoban-game/game/solver"
	"github.com/wricardo/sokoban-game/transport/mcp"
	"github.com/wricardo/sokoban-game/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Sokoban Puzzle Server"
)

// Config holds the settings shared by all commands
type Config struct {
	Host        string
	Port        int
	LevelsDir   string
	DefaultPack string
	RecordsDB   string
	SessionTTL  time.Duration

	NgrokEnabled bool
	NgrokAuth    string
	NgrokDomain  string
}

// Addr returns the host:port the HTTP server binds to
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "sokoban-game",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "levels-dir", Usage: "Directory of YAML level packs (embedded packs are always available)", Sources: cli.EnvVars("LEVELS_DIR")},
			&cli.StringFlag{Name: "default-pack", Value: levels.DefaultPack, Usage: "Pack used when a session names none", Sources: cli.EnvVars("DEFAULT_PACK")},
			&cli.StringFlag{Name: "records-db", Usage: "SQLite file for solved-level records (in memory when empty)", Sources: cli.EnvVars("RECORDS_DB")},
			&cli.DurationFlag{Name: "session-ttl", Value: 24 * time.Hour, Usage: "Remove sessions idle for longer than this", Sources: cli.EnvVars("SESSION_TTL")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "trace, debug, info, warn or error", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.BoolFlag{Name: "log-json", Usage: "Write JSON logs instead of console output", Sources: cli.EnvVars("LOG_JSON")},
		},
		Before:         setupLogging,
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the HTTP server with REST API, WebSocket and MCP endpoint",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
					&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
					&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain", Sources: cli.EnvVars("NGROK_DOMAIN")},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runHTTPServer(ctx, configFromCommand(cmd))
				},
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run an MCP stdio server backed by the HTTP API",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStdioMCP(ctx, configFromCommand(cmd))
				},
			},
			{
				Name:      "validate",
				Usage:     "Validate level packs",
				ArgsUsage: "[pack...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "solve", Usage: "Also search a solution for every level"},
					&cli.IntFlag{Name: "max-states", Value: solver.DefaultMaxStates, Usage: "Solver search limit per level"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runValidate(cmd.Root().Writer, configFromCommand(cmd), cmd.Args().Slice(), cmd.Bool("solve"), int(cmd.Int("max-states")))
				},
			},
			{
				Name:      "solve",
				Usage:     "Print the shortest solution of a level",
				ArgsUsage: "<pack> <level>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "max-states", Value: solver.DefaultMaxStates, Usage: "Solver search limit"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 2 {
						return fmt.Errorf("usage: solve <pack> <level>")
					}
					level, err := strconv.Atoi(cmd.Args().Get(1))
					if err != nil {
						return fmt.Errorf("invalid level %q: %w", cmd.Args().Get(1), err)
					}
					return runSolve(cmd.Root().Writer, configFromCommand(cmd), cmd.Args().Get(0), level, int(cmd.Int("max-states")))
				},
			},
		},
	}
}

// setupLogging configures the global zerolog logger. Logs go to stderr so
// that stdout stays free for the MCP stdio protocol.
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level, err := zerolog.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return ctx, fmt.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	if cmd.Bool("log-json") {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
	return ctx, nil
}

func configFromCommand(cmd *cli.Command) Config {
	return Config{
		Host:         cmd.String("host"),
		Port:         int(cmd.Int("port")),
		LevelsDir:    cmd.String("levels-dir"),
		DefaultPack:  cmd.String("default-pack"),
		RecordsDB:    cmd.String("records-db"),
		SessionTTL:   cmd.Duration("session-ttl"),
		NgrokEnabled: cmd.Bool("ngrok"),
		NgrokAuth:    cmd.String("ngrok-auth"),
		NgrokDomain:  cmd.String("ngrok-domain"),
	}
}

// services bundles everything the transports share
type services struct {
	game     service.GameService
	sessions *session.Manager
	packs    *levels.Manager
	records  records.Store
}

func (s *services) Close() error {
	return s.records.Close()
}

// initializeServices wires the pack manager, session manager, records store and game service
func initializeServices(cfg Config) (*services, error) {
	packs, err := levels.NewManager(cfg.LevelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create pack manager: %w", err)
	}
	if cfg.DefaultPack != "" && cfg.DefaultPack != packs.DefaultPackName() {
		if err := packs.SetDefault(cfg.DefaultPack); err != nil {
			return nil, fmt.Errorf("default pack %q: %w", cfg.DefaultPack, err)
		}
	}

	var store records.Store
	if cfg.RecordsDB != "" {
		store, err = records.OpenSQLite(cfg.RecordsDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open records database: %w", err)
		}
		log.Info().Str("path", cfg.RecordsDB).Msg("records stored in sqlite")
	} else {
		store = records.NewMemoryStore()
	}

	sessions := session.NewManager()

	return &services{
		game:     service.NewGameService(sessions, packs, store),
		sessions: sessions,
		packs:    packs,
		records:  store,
	}, nil
}

// startBackground runs the session cleanup loop and the levels directory watcher until ctx is done
func startBackground(ctx context.Context, svc *services, ttl time.Duration) {
	go sessionCleanupRoutine(ctx, svc.sessions, ttl)
	go func() {
		if err := svc.packs.Watch(ctx); err != nil {
			log.Warn().Err(err).Msg("levels directory watcher stopped")
		}
	}()
}

// sessionCleanupRoutine periodically removes sessions idle for longer than ttl
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration) {
	interval := ttl / 24
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				log.Info().Int("removed", removed).Int("remaining", manager.Count()).Msg("cleaned up expired sessions")
			}
		}
	}
}

// newHandler builds the HTTP handler: REST API, WebSocket and the /mcp endpoint
func newHandler(svc *services, hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(svc.game, hub)
	mcpClient := mcp.NewClient(baseURL)

	router := apiServer.Router()
	router.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
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

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
	return router
}

// runHTTPServer serves the API until SIGINT/SIGTERM. With ngrok enabled the
// same handler is also served through a public tunnel.
func runHTTPServer(ctx context.Context, cfg Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := initializeServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	startBackground(ctx, svc, cfg.SessionTTL)

	hub := websocket.NewHub()
	hub.OnIntent(svc.game.HandleIntent)
	go hub.Run(ctx)

	addr := cfg.Addr()
	handler := newHandler(svc, hub, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().Str("addr", addr).Str("pack", svc.packs.DefaultPackName()).Msg("HTTP server listening")
		log.Info().Msgf("REST API: http://%s/api", addr)
		log.Info().Msgf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Info().Msgf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cfg, handler)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	stop()
	wg.Wait()
	log.Info().Msg("server stopped")
	return runErr
}

// runNgrok exposes handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, cfg Config, handler http.Handler) {
	if cfg.NgrokAuth == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	log.Info().Str("domain", cfg.NgrokDomain).Msg("starting ngrok tunnel")
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

	url := tun.URL()
	log.Info().Str("url", url).Msg("ngrok tunnel established")
	log.Info().Msgf("  REST API (ngrok): %s/api", url)
	log.Info().Msgf("  MCP endpoint (ngrok): %s/mcp", url)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening on
// the configured address, or starts an internal one on a random loopback port.
func runStdioMCP(ctx context.Context, cfg Config) error {
	externalURL := "http://" + cfg.Addr()
	baseURL := externalURL

	if !apiReachable(externalURL) {
		log.Info().Str("url", externalURL).Msg("no external API server found, starting internal HTTP server")

		svc, err := initializeServices(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		startBackground(ctx, svc, cfg.SessionTTL)

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		hub := websocket.NewHub()
		hub.OnIntent(svc.game.HandleIntent)
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: newHandler(svc, hub, baseURL)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer httpServer.Close()
	} else {
		log.Info().Str("url", externalURL).Msg("external API server found, using it for MCP")
	}

	log.Info().Str("api", baseURL).Msg("MCP stdio server ready")
	mcpClient := mcp.NewClient(baseURL)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/healthz")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runValidate reports on every level of the named packs, or of all packs when
// none are named. It fails when any level has issues.
func runValidate(w io.Writer, cfg Config, names []string, solve bool, maxStates int) error {
	packs, err := levels.NewManager(cfg.LevelsDir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		if names, err = packs.PackNames(); err != nil {
			return err
		}
	}

	failed := 0
	for _, name := range names {
		pack, err := packs.InspectPack(name)
		if err != nil {
			fmt.Fprintf(w, "✗ %s: %v\n", name, err)
			failed++
			continue
		}

		fmt.Fprintf(w, "%s (%s, %d levels)\n", pack.Name, pack.ID, pack.Count())
		if pack.Count() == 0 {
			fmt.Fprintf(w, "  ✗ pack has no levels\n")
			failed++
		}

		for _, report := range levels.ValidatePackLevels(pack) {
			status := "✓"
			if !report.OK() {
				status = "✗"
				failed++
			}
			fmt.Fprintf(w, "  %s %d. %s  %dx%d crates=%d goals=%d\n",
				status, report.Number, report.Title, report.Width, report.Height, report.Crates, report.Goals)
			label := "issue"
			if levels.IsParseError(report.Err) {
				label = "parse error"
			}
			for _, issue := range report.Issues {
				fmt.Fprintf(w, "      %s: %s\n", label, issue)
			}
			for _, note := range report.Notes {
				fmt.Fprintf(w, "      note: %s\n", note)
			}

			if solve && report.OK() {
				text, _ := pack.LevelText(report.Number)
				line, ok := solveLine(text, maxStates)
				if !ok {
					failed++
				}
				fmt.Fprintf(w, "      %s\n", line)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d problem(s) found", failed)
	}
	return nil
}

// solveLine describes the solver's verdict for one level text
func solveLine(text string, maxStates int) (string, bool) {
	gs, err := newGameState(text)
	if err != nil {
		return "unsolvable: " + err.Error(), false
	}
	sol, err := solver.Solve(gs, solver.Options{MaxStates: maxStates})
	switch {
	case errors.Is(err, solver.ErrSearchLimit):
		return fmt.Sprintf("unknown: search limit of %d states reached", maxStates), true
	case err != nil:
		return "unsolvable: " + err.Error(), false
	}
	return fmt.Sprintf("solution: %d moves, %d pushes (%d states explored)", len(sol.Moves), sol.Pushes, sol.Explored), true
}

// runSolve prints the shortest solution of one level
func runSolve(w io.Writer, cfg Config, packName string, level int, maxStates int) error {
	packs, err := levels.NewManager(cfg.LevelsDir)
	if err != nil {
		return err
	}
	pack, err := packs.LoadPack(packName)
	if err != nil {
		return err
	}
	text, err := pack.LevelText(level)
	if err != nil {
		return err
	}

	gs, err := newGameState(text)
	if err != nil {
		return err
	}
	sol, err := solver.Solve(gs, solver.Options{MaxStates: maxStates})
	if err != nil {
		return fmt.Errorf("%s level %d: %w", pack.ID, level, err)
	}

	fmt.Fprintf(w, "%s level %d (%s)\n%s\n\n", pack.ID, level, pack.Title(level), text)
	fmt.Fprintf(w, "%d moves, %d pushes, %d states explored\n", len(sol.Moves), sol.Pushes, sol.Explored)
	fmt.Fprintln(w, strings.Join(sol.Strings(), " "))
	return nil
}

func newGameState(text string) (*engine.GameState, error) {
	level, err := engine.ParseLevel(text)
	if err != nil {
		return nil, err
	}
	return engine.NewGameState(level), nil
}
