// Command snakeboard serves a real-time snake board.
//
// It supports three commands:
//  1. "serve" (default) – runs the HTTP server exposing the REST API, the /ws
//     canvas transport, /metrics and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if
//     none is available
//  3. "play" – plays the board in the terminal
//
// Flags can also be set through SNAKEBOARD_* environment variables or a .env
// file, and serve can publish itself through an ngrok tunnel.
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
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/snakeboard/api"
	"github.com/wricardo/mcp-training/snakeboard/game/config"
	"github.com/wricardo/mcp-training/snakeboard/game/engine"
	"github.com/wricardo/mcp-training/snakeboard/game/service"
	"github.com/wricardo/mcp-training/snakeboard/game/session"
	"github.com/wricardo/mcp-training/snakeboard/telemetry"
	"github.com/wricardo/mcp-training/snakeboard/transport/mcp"
	"github.com/wricardo/mcp-training/snakeboard/transport/terminal"
	"github.com/wricardo/mcp-training/snakeboard/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Snakeboard"
)

// main loads .env, then runs the selected command
func main() {
	// Load .env file if it exists (ignore error if not found)
	envErr := godotenv.Load()

	app := newApp()
	if envErr != nil && !os.IsNotExist(envErr) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", app.Name, err)
		os.Exit(1)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:           "snakeboard",
		Usage:          "A real-time snake board for browsers, terminals and agents",
		Version:        Version,
		Flags:          commonFlags(),
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server with REST API, WebSocket canvas and MCP endpoint",
				Flags:  serveFlags(),
				Action: runServe,
			},
			{
				Name:  "mcp",
				Usage: "Run an MCP stdio server, starting an internal HTTP API if none is reachable",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Value:   "http://localhost:8080",
						Usage:   "REST API to proxy when it is already running",
						Sources: cli.EnvVars("SNAKEBOARD_API_URL"),
					},
				},
				Action: runMCP,
			},
			{
				Name:  "play",
				Usage: "Play in the terminal",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "size",
						Value:   400,
						Usage:   "Board size in pixels; the grid is size / cell_size",
						Sources: cli.EnvVars("SNAKEBOARD_SIZE"),
					},
				},
				Action: runPlay,
			},
		},
	}
}

// commonFlags are shared by every command
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config-dir",
			Value:   "configs",
			Usage:   "Directory containing tuning profiles",
			Sources: cli.EnvVars("SNAKEBOARD_CONFIG_DIR", "CONFIG_DIR"),
		},
		&cli.StringFlag{
			Name:    "profile",
			Usage:   "Default tuning profile",
			Sources: cli.EnvVars("SNAKEBOARD_PROFILE"),
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "Enable debug logging",
			Sources: cli.EnvVars("SNAKEBOARD_DEBUG"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format: text or json",
			Sources: cli.EnvVars("SNAKEBOARD_LOG_FORMAT"),
		},
	}
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "HTTP server host",
			Sources: cli.EnvVars("SNAKEBOARD_HOST"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "HTTP server port",
			Sources: cli.EnvVars("SNAKEBOARD_PORT", "PORT"),
		},
		&cli.StringFlag{
			Name:    "static-dir",
			Value:   "./static/",
			Usage:   "Directory with the browser client",
			Sources: cli.EnvVars("SNAKEBOARD_STATIC_DIR"),
		},
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "Enable ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "Ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "Custom ngrok domain (optional)",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
	}
}

// runtime is everything the serving commands share
type runtime struct {
	log       *logrus.Logger
	collector *telemetry.Collector
	profiles  *config.Manager
	keys      *engine.KeyBroadcaster
	holder    *session.Holder
	hub       *websocket.Hub
	surface   *websocket.RemoteSurface
	service   service.BoardService
}

// newLogger builds the logger selected by --debug and --log-format
func newLogger(cmd *cli.Command) (*logrus.Logger, error) {
	level := "info"
	if cmd.Bool("debug") {
		level = "debug"
	}
	return telemetry.NewLogger(level, cmd.String("log-format"))
}

// loadProfiles opens the profile directory and applies --profile
func loadProfiles(cmd *cli.Command) (*config.Manager, error) {
	profiles, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if name := cmd.String("profile"); name != "" {
		if err := profiles.SetDefault(name); err != nil {
			return nil, err
		}
	}
	return profiles, nil
}

// initializeServices wires profiles, the board holder, the hub and the
// board service
func initializeServices(cmd *cli.Command, logger *logrus.Logger) (*runtime, error) {
	profiles, err := loadProfiles(cmd)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		log:       logger,
		collector: telemetry.NewCollector("snakeboard"),
		profiles:  profiles,
		keys:      engine.NewKeyBroadcaster(),
	}
	rt.holder = session.NewHolder(engine.Options{
		Input:   rt.keys,
		Logger:  logger,
		Metrics: rt.collector,
		OnError: func(err error) {
			logger.WithError(err).Debug("render error")
		},
	})
	session.SetDefault(rt.holder)

	rt.hub = websocket.NewHub(logger, rt.collector)
	rt.surface = websocket.NewRemoteSurface(rt.hub)
	rt.service = service.NewBoardService(rt.holder, profiles, rt.keys,
		service.WithLogger(logger),
		service.WithHeadlessSurface(rt.surface, service.DefaultHeadlessSize),
	)
	return rt, nil
}

// handler returns the full HTTP handler: API, /ws, /metrics and /mcp
func (rt *runtime) handler(staticDir, baseURL string) http.Handler {
	apiServer := api.NewServer(rt.service, rt.hub,
		api.WithSurface(rt.surface),
		api.WithMetrics(rt.collector.Handler()),
		api.WithStaticDir(staticDir),
		api.WithLogger(rt.log),
	)

	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
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

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return rt.collector.InstrumentHandler(mainRouter)
}

// runServe starts the HTTP server and, when enabled, an ngrok tunnel. It
// returns after ctx is cancelled and the server has shut down.
func runServe(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	rt, err := initializeServices(cmd, logger)
	if err != nil {
		return err
	}
	defer rt.holder.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go rt.hub.Run(ctx)

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port")))
	handler := rt.handler(cmd.String("static-dir"), "http://"+addr)

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	logger.WithFields(logrus.Fields{"app": AppName, "version": Version}).Info("starting")

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.WithFields(logrus.Fields{
			"rest":    fmt.Sprintf("http://%s/api", addr),
			"ws":      fmt.Sprintf("ws://%s/ws?size=<px>", addr),
			"mcp":     fmt.Sprintf("http://%s/mcp", addr),
			"metrics": fmt.Sprintf("http://%s/metrics", addr),
		}).Infof("HTTP server listening on %s", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
			cancel()
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, logger, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), handler)
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	logger.Info("server stopped")

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, logger logrus.FieldLogger, authToken, domain string, handler http.Handler) {
	log := logger.WithField("component", "ngrok")
	if authToken == "" {
		log.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.WithField("domain", domain).Info("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.WithError(err).Error("failed to start ngrok tunnel")
		return
	}

	server := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		server.Close()
	}()

	ngrokURL := tun.URL()
	log.WithFields(logrus.Fields{
		"rest": ngrokURL + "/api",
		"ws":   ngrokURL + "/ws?size=<px>",
		"ui":   ngrokURL + "/",
	}).Infof("ngrok tunnel established: %s", ngrokURL)

	if err := server.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Warn("ngrok server error")
	}
	log.Info("ngrok tunnel closed")
}

// runMCP runs an MCP stdio server. It reuses the API at --api-url when it
// answers; otherwise it starts an internal HTTP API on a random loopback port.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	// stdout carries the protocol
	logger.SetOutput(os.Stderr)

	baseURL := cmd.String("api-url")
	logger.Infof("checking for external API server at %s", baseURL)

	if !apiReachable(baseURL) {
		logger.Info("no external API server found, starting internal HTTP server")

		rt, err := initializeServices(cmd, logger)
		if err != nil {
			return err
		}
		defer rt.holder.Release()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		internalAddr := listener.Addr().String()
		baseURL = "http://" + internalAddr

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go rt.hub.Run(ctx)

		httpServer := &http.Server{Handler: rt.handler("./static/", baseURL)}
		defer httpServer.Close()
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("internal HTTP server error")
			}
		}()
		logger.Infof("internal HTTP server on %s", internalAddr)
	}

	logger.WithField("api", baseURL).Info("MCP stdio server ready")
	return mcp.NewClient(baseURL).ServeStdio()
}

// apiReachable reports whether a snakeboard API answers at baseURL
func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// runPlay runs one board on a tcell screen
func runPlay(ctx context.Context, cmd *cli.Command) error {
	// Log lines would tear the screen
	logger := telemetry.Discard()

	profiles, err := loadProfiles(cmd)
	if err != nil {
		return err
	}
	profile := profiles.GetDefault()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	defer screen.Fini()

	keys := engine.NewKeyBroadcaster()
	tuning := profile.Tuning.WithDefaults()
	board, err := engine.NewBoard(engine.Config{
		Surface:  terminal.NewSurface(screen, tuning.CellSize),
		Size:     int(cmd.Int("size")),
		Controls: profile.ControlsOrDefault(),
	}, engine.Options{
		Tuning: tuning,
		Input:  keys,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer board.Close()

	if err := board.Start(); err != nil {
		return err
	}
	return terminal.NewPlayer(screen, board, keys, logger).Run(ctx)
}
