package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "expensed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultDBHost, cfg.Database.Host)
	assert.Equal(t, DefaultDBPort, cfg.Database.Port)
	assert.Equal(t, DefaultDBName, cfg.Database.Name)
	assert.Equal(t, DefaultSSLMode, cfg.Database.SSLMode)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 48*time.Hour, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, DefaultEnv, cfg.Environment)
	assert.False(t, cfg.Verbose)
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, `
port: 9000
database:
  host: db.internal
  name: spending
jwt:
  secret: file-secret
  access_ttl: 1h
redis_url: redis://cache:6379/0
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "spending", cfg.Database.Name)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTTL)
	assert.Equal(t, "redis://cache:6379/0", cfg.RedisURL)
	assert.Equal(t, path, GetConfigFileUsed())

	// Unspecified keys keep their defaults
	assert.Equal(t, DefaultDBPort, cfg.Database.Port)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	ResetConfig()

	path := writeConfig(t, "port: 9000\n")

	t.Setenv("EXPENSED_PORT", "9100")
	t.Setenv("EXPENSED_DATABASE__HOST", "env-host")
	t.Setenv("EXPENSED_JWT__SECRET", "env-secret")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
}

func TestLoadConfig_FlagsOverrideEverything(t *testing.T) {
	ResetConfig()

	t.Setenv("EXPENSED_PORT", "9100")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", DefaultPort, "")
	flags.String("db-host", "", "")
	flags.Bool("verbose", false, "")
	require.NoError(t, flags.Parse([]string{"--port=9200", "--db-host=flag-host", "--verbose"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Port)
	assert.Equal(t, "flag-host", cfg.Database.Host)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_UnchangedFlagsIgnored(t *testing.T) {
	ResetConfig()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 1234, "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid",
			cfg:  Config{Port: 8000, Database: DatabaseConfig{Name: "expensed"}},
		},
		{
			name:    "port out of range",
			cfg:     Config{Port: 0, Database: DatabaseConfig{Name: "expensed"}},
			wantErr: "port",
		},
		{
			name:    "missing database name",
			cfg:     Config{Port: 8000},
			wantErr: "database.name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateServe(t *testing.T) {
	cfg := Config{Port: 8000, Database: DatabaseConfig{Name: "expensed"}}
	assert.Error(t, cfg.ValidateServe())

	cfg.JWT.Secret = "secret"
	assert.NoError(t, cfg.ValidateServe())
}

func TestConfig_Cache(t *testing.T) {
	t.Run("empty url yields noop", func(t *testing.T) {
		cfg := Config{}
		c, err := cfg.Cache()
		require.NoError(t, err)
		assert.NotNil(t, c)
	})

	t.Run("bad url fails", func(t *testing.T) {
		cfg := Config{RedisURL: "http://not-redis"}
		_, err := cfg.Cache()
		assert.Error(t, err)
	})
}
