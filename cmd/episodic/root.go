package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vmunix/episodic/internal/config"
	"github.com/vmunix/episodic/internal/logging"
	"github.com/vmunix/episodic/pkg/imdbapi"
)

var version = "dev"

var (
	configPath string
	serverURL  string
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "episodic",
	Short: "Browse titles, seasons and episodes of the title catalog",
	Long: `episodic - browse a title catalog season by season

Loads a title's detail, its season index and the episodes of one season
at a time, paging on demand.

Run 'episodicd' to serve the season grouping endpoint.`,
	SilenceUsage: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: discovered)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "episodicd URL (default: from config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("episodic {{.Version}}\n")
}

// loadConfig returns the discovered or given config, or defaults when none
// exists.
func loadConfig() (*config.Config, error) {
	cfg, _, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger logs to stderr unless the config names a file.
func newLogger(cfg *config.Config) (*slog.Logger, io.Closer) {
	logCfg := cfg.Log
	if verbose {
		logCfg.Level = "debug"
	}
	return logging.New(logCfg, os.Stderr)
}

func newUpstream(cfg *config.Config, log *slog.Logger) *imdbapi.Client {
	return imdbapi.New(
		imdbapi.WithBaseURL(cfg.Upstream.BaseURL),
		imdbapi.WithHTTPClient(&http.Client{Timeout: cfg.Upstream.Timeout}),
		imdbapi.WithRetry(uint(cfg.Upstream.RetryAttempts), cfg.Upstream.RetryDelay),
		imdbapi.WithLogger(log),
	)
}

func daemonURL(cfg *config.Config) string {
	if serverURL != "" {
		return serverURL
	}
	return cfg.Server.URL()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
