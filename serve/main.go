// Command ghostlined is the ghostline daemon.
// It listens on a Unix domain socket for completion requests from editor clients,
// gathers cross-file context, and returns inline completions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	ghostline "github.com/Paranoid-AF/ghostline"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	verbose := flag.Bool("verbose", false, "log every request and response to stderr")
	traceSpans := flag.Bool("trace", false, "write service call spans to stderr")
	flag.Parse()

	if *showVersion {
		fmt.Println("ghostlined", Version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	shutdownTracing := func(context.Context) error { return nil }
	if *traceSpans {
		shutdown, err := setupTracing(os.Stderr)
		if err != nil {
			slog.Error("failed to set up tracing", "error", err)
			os.Exit(1)
		}
		shutdownTracing = shutdown
	}

	if cfg, err := ghostline.LoadConfig(); err != nil {
		slog.Warn("failed to load config", "path", ghostline.ConfigPath(), "error", err)
	} else {
		for _, w := range ghostline.ValidateConfig(cfg) {
			slog.Warn("config", "warning", w)
		}
	}

	socketPath := resolveSocketPath()

	slog.Info("starting", "socket", socketPath)

	srv, err := NewServer(socketPath)
	if err != nil {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}
	defer srv.Close()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("shutting down")
		srv.Close()
		shutdownTracing(context.Background())
		os.Exit(0)
	}()

	slog.Info("ready")
	if err := srv.Serve(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func resolveSocketPath() string {
	if path := os.Getenv("GHOSTLINE_SOCKET"); path != "" {
		return path
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir + "/ghostline.sock"
	}
	return fmt.Sprintf("/tmp/ghostline-%d.sock", os.Getuid())
}
