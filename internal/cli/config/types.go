// Package config provides configuration management for the expensed
// CLI and server.
package config

import (
	"time"

	"github.com/ledgerline/expensed/internal/auth"
	"github.com/ledgerline/expensed/internal/cache"
	"github.com/ledgerline/expensed/internal/store"
)

// Config holds all CLI configuration options.
type Config struct {
	Addr        string         `koanf:"addr"`
	Port        int            `koanf:"port"`
	Database    DatabaseConfig `koanf:"database"`
	RedisURL    string         `koanf:"redis_url"`
	CacheTTL    time.Duration  `koanf:"cache_ttl"`
	JWT         JWTConfig      `koanf:"jwt"`
	Mail        MailConfig     `koanf:"mail"`
	Environment string         `koanf:"environment"`
	Verbose     bool           `koanf:"verbose"`
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	Host         string `koanf:"host"`
	Port         int    `koanf:"port"`
	User         string `koanf:"user"`
	Password     string `koanf:"password"`
	Name         string `koanf:"name"`
	SSLMode      string `koanf:"sslmode"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
}

// JWTConfig holds the token signing settings.
type JWTConfig struct {
	Secret     string        `koanf:"secret"`
	AccessTTL  time.Duration `koanf:"access_ttl"`
	RefreshTTL time.Duration `koanf:"refresh_ttl"`
}

// MailConfig holds the outbound email settings.
type MailConfig struct {
	APIKey   string `koanf:"api_key"`
	From     string `koanf:"from"`
	FromName string `koanf:"from_name"`
	BaseURL  string `koanf:"base_url"`
}

// Default configuration values.
const (
	DefaultAddr    = ""
	DefaultPort    = 8000
	DefaultDBHost  = "localhost"
	DefaultDBPort  = 5432
	DefaultDBName  = "expensed"
	DefaultSSLMode = "disable"
	DefaultEnv     = "dev"
)

// StoreConfig converts the database section into store settings.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Host:         c.Database.Host,
		Port:         c.Database.Port,
		User:         c.Database.User,
		Password:     c.Database.Password,
		Database:     c.Database.Name,
		SSLMode:      c.Database.SSLMode,
		MaxOpenConns: c.Database.MaxOpenConns,
		MaxIdleConns: c.Database.MaxIdleConns,
	}
}

// Issuer builds a token issuer from the JWT section.
func (c *Config) Issuer() *auth.Issuer {
	return auth.NewIssuer(c.JWT.Secret, c.JWT.AccessTTL, c.JWT.RefreshTTL)
}

// Cache opens the configured cache. An empty redis_url yields the
// no-op cache, which also disables token revocation.
func (c *Config) Cache() (cache.Cache, error) {
	if c.RedisURL == "" {
		return cache.Noop{}, nil
	}
	return cache.NewRedis(c.RedisURL, c.CacheTTL)
}
