// ABOUTME: Entry point for the trapperkeeper server
// ABOUTME: Serves the JSON API and the admin UI over one HTTP listener

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/solatis/trapperkeeper/internal/auth"
	"github.com/solatis/trapperkeeper/internal/config"
	"github.com/solatis/trapperkeeper/internal/store"
	"github.com/solatis/trapperkeeper/internal/web"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _                                        _
| |_ _ __ __ _ _ __  _ __   ___ _ __| | _____  ___ _ __   ___ _ __
| __| '__/ _' | '_ \| '_ \ / _ \ '__| |/ / _ \/ _ \ '_ \ / _ \ '__|
| |_| | | (_| | |_) | |_) |  __/ |  |   <  __/  __/ |_) |  __/ |
 \__|_|  \__,_| .__/| .__/ \___|_|  |_|\_\___|\___| .__/ \___|_|
              |_|   |_|                           |_|
`

// getConfigPath returns the path to the config file.
// Priority: TK_CONFIG env var > ./trapperkeeper.yaml
func getConfigPath() string {
	if envPath := os.Getenv("TK_CONFIG"); envPath != "" {
		return envPath
	}
	return "trapperkeeper.yaml"
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: trapperkeeper <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve   Start the server")
		fmt.Println("  init    Write a default config file")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Debug)
	slog.SetDefault(logger)

	addr := net.JoinHostPort(cfg.API.Addr, strconv.Itoa(cfg.API.Port))

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.URL)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", addr)
	if cfg.Debug {
		yellow := color.New(color.FgYellow)
		yellow.Print("    ▶ ")
		fmt.Println("Debug mode: session keys are NOT secure")
	}
	fmt.Println()

	logger.Info("starting trapperkeeper",
		"config", configPath,
		"addr", addr,
		"debug", cfg.Debug,
	)

	pool, err := store.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer pool.Close()

	signer := auth.NewSigner(cfg.Debug)
	server := web.New(pool, signer, cfg)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	if err := config.WriteDefault(configPath); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Wrote %s\n", configPath)
	fmt.Println("Edit the admin credentials before serving.")
	return nil
}

func setupLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
