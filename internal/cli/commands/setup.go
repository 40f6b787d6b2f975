package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/ledgerline/expensed/internal/cli/config"
	"github.com/ledgerline/expensed/internal/store"
)

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back
// to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	port := config.DefaultPort
	if v, err := strconv.Atoi(os.Getenv("EXPENSED_PORT")); err == nil {
		port = v
	}

	return &config.Config{
		Port: port,
		Database: config.DatabaseConfig{
			Host:    getEnvOrDefault("EXPENSED_DATABASE__HOST", config.DefaultDBHost),
			Port:    config.DefaultDBPort,
			User:    os.Getenv("EXPENSED_DATABASE__USER"),
			Name:    getEnvOrDefault("EXPENSED_DATABASE__NAME", config.DefaultDBName),
			SSLMode: config.DefaultSSLMode,
		},
		RedisURL:    os.Getenv("EXPENSED_REDIS_URL"),
		Environment: getEnvOrDefault("EXPENSED_ENVIRONMENT", config.DefaultEnv),
		Verbose:     os.Getenv("EXPENSED_VERBOSE") == "true",
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// openStore connects to Postgres using the configured settings.
func openStore(ctx context.Context, cfg *config.Config) (*store.PostgresStore, error) {
	st, err := store.Open(ctx, cfg.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return st, nil
}
