package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/cauce-ai/cauce-go/internal/config"
	"github.com/cauce-ai/cauce-go/internal/httpapi"
	"github.com/cauce-ai/cauce-go/internal/hub"
)

const (
	appName    = "caucehub"
	appVersion = "1.0.0"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file (optional)")
		listenAddr  = flag.String("listen", "", "Listen address override, e.g. :8080")
		logLevel    = flag.String("log-level", "", "Log level override (trace, debug, info, warn, error)")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", appName, appVersion)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath, *listenAddr, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       appName,
		Level:      hclog.LevelFromString(cfg.Log.Level),
		JSONFormat: cfg.Log.JSON,
	})

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path, listenAddr, logLevel string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if listenAddr != "" {
		cfg.Server.Addr = listenAddr
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.Config, logger hclog.Logger) error {
	logger.Info("starting", "version", appVersion, "addr", cfg.Server.Addr)

	h, err := hub.New(cfg.ToHubConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to create hub: %w", err)
	}
	defer func() {
		if err := h.Close(); err != nil {
			logger.Error("error closing hub", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := h.Start(ctx); err != nil {
		return fmt.Errorf("failed to start hub: %w", err)
	}

	server := httpapi.NewServer(h, httpapi.Config{
		Addr:              cfg.Server.Addr,
		KeepaliveInterval: time.Duration(cfg.Server.KeepaliveInterval),
	}, logger)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http api listening", "addr", cfg.Server.Addr)
		serverErr <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-serverErr:
		return fmt.Errorf("http server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("error during http shutdown", "error", err)
	}
	if err := h.Stop(shutdownCtx); err != nil {
		logger.Error("error during hub stop", "error", err)
	}

	logger.Info("stopped")
	return nil
}
