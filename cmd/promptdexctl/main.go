// Package main implements promptdexctl, the operator CLI for promptdex storage.
// It talks to the configured backend directly rather than through the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/app"
	"github.com/kailas-cloud/promptdex/internal/config"
	logpkg "github.com/kailas-cloud/promptdex/internal/logger"
	"github.com/kailas-cloud/promptdex/internal/version"
)

var (
	// configPath overrides the env-based config lookup
	configPath string
	// logLevel for CLI diagnostics on stderr
	logLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "promptdexctl",
	Short: "Operate promptdex template storage",
	Long: `promptdexctl manages the template store behind the promptdex API.
It creates the ranked text index, bulk loads templates, and runs searches
with the same ranking the server uses.`,
	Version:      version.Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: config/<PROMPTDEX_ENV>.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for diagnostics")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(searchCmd)
}

// env carries the opened config, logger and backend for one command run.
type env struct {
	cfg     config.Config
	logger  *zap.Logger
	backend *app.Backend
}

func (e *env) close() {
	_ = e.backend.Close()
	_ = e.logger.Sync()
}

func loadConfig() (config.Config, string, error) {
	name := config.GetEnv()
	if configPath != "" {
		cfg, err := config.LoadFile(configPath)
		return cfg, name, err
	}
	cfg, err := config.Load(name)
	return cfg, name, err
}

// open loads configuration and connects to the configured backend.
func open(ctx context.Context) (*env, error) {
	cfg, name, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(name, logLevel)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	backend, err := app.OpenBackend(ctx, cfg.Database, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open backend: %w", err)
	}

	return &env{cfg: cfg, logger: logger, backend: backend}, nil
}
