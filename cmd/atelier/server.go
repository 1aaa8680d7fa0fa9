package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/iceiceblakey1/atelier/internal/api"
	"github.com/iceiceblakey1/atelier/internal/authgate"
	"github.com/iceiceblakey1/atelier/internal/config"
	"github.com/iceiceblakey1/atelier/internal/gallery"
	"github.com/iceiceblakey1/atelier/internal/gemini"
	"github.com/iceiceblakey1/atelier/internal/prompt"
	"github.com/iceiceblakey1/atelier/internal/relay"
	"github.com/iceiceblakey1/atelier/internal/router"
	"github.com/iceiceblakey1/atelier/internal/routes"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the atelier daemon (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running atelier daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show atelier system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the studio tools over MCP on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "atelier.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func setupLogging(level string) {
	logLevel := slog.LevelInfo
	if strings.EqualFold(level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

// buildDeps wires the routing core from configuration. The returned cleanup
// closes the preference store.
func buildDeps(ctx context.Context, cfg config.Config) (api.Deps, func(), error) {
	store, err := routes.Open(cfg.Storage.DataDir)
	if err != nil {
		return api.Deps{}, nil, fmt.Errorf("opening preference store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing preference store", "error", err)
		}
	}

	cat, err := prompt.LoadCatalog(cfg.Personas.Path)
	if err != nil {
		slog.Warn("persona override unusable, using defaults", "path", cfg.Personas.Path, "error", err)
	}

	cloud := gemini.NewClientWithBaseURL(cfg.Gemini.APIKey, cfg.Gemini.BaseURL)
	gate := authgate.New(ctx, &authgate.StaticSource{
		HasKey: cfg.Gemini.APIKey != "",
		Hint:   "set ATELIER_GEMINI_API_KEY (or GEMINI_API_KEY) and restart",
	})

	return api.Deps{
		Router:  router.New(cloud, relay.New(), gate),
		Shaper:  prompt.NewShaper(cat),
		Routes:  store,
		Gallery: gallery.New(cfg.Gallery.Limit),
		Token:   cfg.Server.Token,
	}, cleanup, nil
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "atelier version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	pidPath := pidFilePath(cfg.Storage.DataDir)
	if healthCheck(cfg.Server.Port) {
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Gemini.APIKey == "" {
		slog.Warn("no API credential configured, cloud features will fail until one is set")
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewHandler(deps),
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "atelier listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Logs must not pollute the stdio transport; keep them on stderr.
	setupLogging(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	mcpSrv := api.NewMCPServer(deps, version)
	stdioSrv := server.NewStdioServer(mcpSrv)
	if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("atelier is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop atelier (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to atelier (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	if healthCheck(cfg.Server.Port) {
		printStatus("Server", "running on port %d", cfg.Server.Port)
	} else {
		printStatus("Server", "stopped")
	}

	if cfg.Gemini.APIKey != "" {
		printStatus("Credential", "configured")
	} else {
		printStatus("Credential", "missing")
	}

	client, err := newAPIClient()
	if err == nil {
		resp, rerr := client.get(context.Background(), "/v1/routes")
		if rerr == nil {
			var rec routes.Record
			if decodeJSON(resp, &rec) == nil {
				for _, f := range routes.Features() {
					rt := rec.Get(f)
					if rt.Enabled {
						printStatus(string(f), "local (%s @ %s)", rt.ModelName, rt.Endpoint)
					} else {
						printStatus(string(f), "cloud")
					}
				}
			}
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
