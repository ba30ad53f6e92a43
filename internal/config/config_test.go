package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:     AppConfig{Environment: "development"},
		Logger:  LoggerConfig{Level: "info"},
		Storage: StorageConfig{DataPath: "/some/path", Driver: DriverBadger},
		Auth:    AuthConfig{LoginSecret: "secret", LoginRatePerMinute: 10},
		GraphQL: GraphQLConfig{MaxDepth: 10},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Logger.Level = "verbose" }},
		{"empty data path", func(c *Config) { c.Storage.DataPath = "" }},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"missing secret", func(c *Config) { c.Auth.LoginSecret = "" }},
		{"negative token duration", func(c *Config) { c.Auth.TokenDuration = -time.Second }},
		{"zero login rate", func(c *Config) { c.Auth.LoginRatePerMinute = 0 }},
		{"zero depth", func(c *Config) { c.GraphQL.MaxDepth = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LOGIN_SECRET", "secret")
	t.Setenv("DATA_PATH", "")

	cfg, err := Load([]string{"-env-file", filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, filepath.Join(home, "LibraryServer", "data"), cfg.Storage.DataPath)
	assert.Equal(t, DriverBadger, cfg.Storage.Driver)
	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, time.Duration(0), cfg.Server.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, time.Duration(0), cfg.Auth.TokenDuration)
	assert.Equal(t, 10, cfg.Auth.LoginRatePerMinute)
	assert.Equal(t, 10, cfg.GraphQL.MaxDepth)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"LOGIN_SECRET=from-file\nSERVER_PORT=5000\nSTORE_DRIVER=sqlite\n"), 0o600))

	t.Setenv("SERVER_PORT", "6000")
	// godotenv never overrides a variable that is set, even to "".
	for _, key := range []string{"LOGIN_SECRET", "STORE_DRIVER"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load([]string{
		"-env-file", envFile,
		"-data-path", dir,
		"-token-duration", "24h",
		"-cors-origins", "http://localhost:3000, https://library.example",
	})
	require.NoError(t, err)

	// Flag beats everything, env beats .env, .env beats default.
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenDuration)
	assert.Equal(t, "6000", cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.Auth.LoginSecret)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, dir, cfg.Storage.DataPath)
	assert.Equal(t, []string{"http://localhost:3000", "https://library.example"}, cfg.Server.CORSOrigins)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("LOGIN_SECRET", "secret")

	_, err := Load([]string{"-env-file", filepath.Join(t.TempDir(), "missing.env"), "-read-timeout", "soon"})
	require.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/books", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "books"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)
}

func TestIsProduction(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.IsProduction())

	cfg.App.Environment = "staging"
	assert.False(t, cfg.IsProduction())

	cfg.App.Environment = "production"
	assert.True(t, cfg.IsProduction())
}
