package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anycrawl/anycrawl-core/internal/app"
	"github.com/anycrawl/anycrawl-core/internal/common"
	"github.com/anycrawl/anycrawl-core/internal/httpapi"
)

// version is stamped at build time via -ldflags; "dev" otherwise.
var version = "dev"

var (
	configPath  = flag.String("config", "", "Configuration file path (TOML)")
	serverPort  = flag.Int("port", 0, "Server port (overrides config)")
	serverHost  = flag.String("host", "", "Server host (overrides config)")
	showVersion = flag.Bool("version", false, "Print version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("anycrawl version %s\n", version)
		os.Exit(0)
	}

	// Startup sequence (required order): load config -> apply CLI overrides ->
	// initialize logger -> build the app -> start serving.
	cfg, err := common.Load(*configPath)
	if err != nil {
		tempLogger := common.GetLogger()
		tempLogger.Fatal().Err(err).Str("path", *configPath).Msg("failed to load configuration")
		os.Exit(1)
	}

	if *serverPort != 0 {
		cfg.Server.Port = *serverPort
	}
	if *serverHost != "" {
		cfg.Server.Host = *serverHost
	}

	logger := common.SetupLogger(cfg)

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("db_dialect", cfg.Database.Dialect).
		Str("version", version).
		Msg("anycrawl starting")

	ctx := context.Background()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}

	if err := application.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start worker pool")
	}

	srv := httpapi.New(application)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Msg("anycrawl ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("shutdown signal received")

	// Bounded drain: stop accepting new work, quiesce engines, then force
	// exit if shutdown doesn't complete within the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("http server shutdown failed")
		}
		if err := application.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("application shutdown failed")
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logger.Error().Msg("shutdown deadline exceeded, forcing exit")
		os.Exit(1)
	}

	logger.Info().Msg("anycrawl stopped")
}
