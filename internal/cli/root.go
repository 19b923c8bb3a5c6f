// Package cli implements the site-analytics CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rcliao/site-analytics/internal/analytics"
	"github.com/rcliao/site-analytics/internal/config"
	"github.com/rcliao/site-analytics/internal/store"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	dbPath      string
	backendFlag string
	verbose     bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "site-analytics",
	Short: "Local usage analytics for a documentation site",
	Long: "Records page views and search queries in a bounded on-device store and reports " +
		"top pages, recent and zero-result searches. Nothing leaves the device unless you export it.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $SITE_ANALYTICS_CONFIG or ~/.site-analytics/config.toml)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Store path (default: $SITE_ANALYTICS_DB or ~/.site-analytics/analytics.db)")
	RootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Storage backend: sqlite or file")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log storage diagnostics to stderr")
}

func logger() *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if backendFlag != "" {
		cfg.Storage.Backend = backendFlag
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func openBackend(cfg *config.Config) (store.Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendFile:
		return store.NewFileBackend(cfg.Storage.Path, cfg.Storage.MaxBytes)
	default:
		return store.NewSQLiteBackend(cfg.Storage.Path, cfg.Storage.MaxBytes)
	}
}

// openTracker opens the configured store. Commands that must never fail
// pass bestEffort; an unopenable store then behaves as an empty store that
// drops writes.
func openTracker(bestEffort bool) (*analytics.Tracker, *config.Config, error) {
	log := logger()

	cfg, err := loadConfig()
	if err != nil {
		if !bestEffort {
			return nil, nil, err
		}
		log.Debug("config unusable, using defaults", slog.Any("error", err))
		cfg = config.Default()
	}

	backend, err := openBackend(cfg)
	if err != nil {
		if !bestEffort {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		log.Debug("store unavailable", slog.String("path", cfg.Storage.Path), slog.Any("error", err))
		mem := store.NewMemoryBackend()
		mem.Fail(fmt.Errorf("%w: %v", store.ErrUnavailable, err))
		backend = mem
	}

	acc := store.NewAccessor(backend, cfg.Storage.Key, log)
	return analytics.New(acc, analytics.Options{Logger: log}), cfg, nil
}

func closeTracker(t *analytics.Tracker) {
	t.Store().Backend().Close()
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
