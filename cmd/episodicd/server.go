package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vmunix/episodic/internal/config"
	"github.com/vmunix/episodic/internal/logging"
	"github.com/vmunix/episodic/internal/server"
	"github.com/vmunix/episodic/pkg/imdbapi"
)

func runServer(configPath string) error {
	cfg, path, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, closer := logging.New(cfg.Log, os.Stdout)
	defer func() { _ = closer.Close() }()

	upstream := imdbapi.New(
		imdbapi.WithBaseURL(cfg.Upstream.BaseURL),
		imdbapi.WithHTTPClient(&http.Client{Timeout: cfg.Upstream.Timeout}),
		imdbapi.WithRetry(uint(cfg.Upstream.RetryAttempts), cfg.Upstream.RetryDelay),
		imdbapi.WithLogger(logger.With("component", "imdbapi")),
	)

	api := server.New(upstream, logger.With("component", "api"))
	runner := server.NewRunner(api.Handler(), server.Config{Addr: cfg.Server.Addr()}, logger.With("component", "runner"))

	if path == "" {
		path = "(defaults)"
	}
	logger.Info("episodicd starting",
		"version", version,
		"config", path,
		"upstream", cfg.Upstream.BaseURL,
		"addr", cfg.Server.Addr(),
		"log_level", cfg.Log.Level,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runner.Run(ctx)
}
