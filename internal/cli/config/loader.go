package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ledgerline/expensed/internal/auth"
	"github.com/ledgerline/expensed/internal/cache"
)

// loggerKey is used to store the logger in the command context.
type loggerKey struct{}

// Package-level koanf instance and config file tracking.
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// findConfigFile finds the config file to use.
// Priority: explicit path > expensed.yaml > expensed.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("expensed.yaml"); err == nil {
		return "expensed.yaml"
	}
	if _, err := os.Stat("expensed.yml"); err == nil {
		return "expensed.yml"
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and
// flags. Precedence (highest to lowest): flags > env vars > config
// file > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"addr":                    DefaultAddr,
		"port":                    DefaultPort,
		"database.host":           DefaultDBHost,
		"database.port":           DefaultDBPort,
		"database.name":           DefaultDBName,
		"database.sslmode":        DefaultSSLMode,
		"database.max_open_conns": 25,
		"database.max_idle_conns": 5,
		"redis_url":               "",
		"cache_ttl":               cache.DefaultTTL.String(),
		"jwt.access_ttl":          auth.DefaultAccessTTL.String(),
		"jwt.refresh_ttl":         auth.DefaultRefreshTTL.String(),
		"mail.base_url":           "",
		"environment":             DefaultEnv,
		"verbose":                 false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (EXPENSED_ prefix)
	// Transform: EXPENSED_DATABASE__HOST -> database.host
	if err := k.Load(env.Provider("EXPENSED_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "EXPENSED_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			return flagConfigKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// flagConfigKey maps a CLI flag name onto its config key.
func flagConfigKey(name string) string {
	switch name {
	case "db-host":
		return "database.host"
	case "db-port":
		return "database.port"
	case "db-user":
		return "database.user"
	case "db-password":
		return "database.password"
	case "db-name":
		return "database.name"
	case "jwt-secret":
		return "jwt.secret"
	default:
		return strings.ReplaceAll(name, "-", "_")
	}
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from the
// command context without creating an import cycle with the cli
// package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
