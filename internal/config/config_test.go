package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	t.Setenv("ASSESSLY_API_URL", "")
	t.Setenv("ASSESSLY_DB", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.APIURL)
	assert.Equal(t, filepath.Join("/tmp/xdg", "assessly", "assessly.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join("/tmp/xdg", "assessly", "assessly.log"), cfg.LogFile)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ASSESSLY_API_URL", "https://api.example.com")
	t.Setenv("ASSESSLY_LOG_LEVEL", "debug")
	t.Setenv("ASSESSLY_REQUEST_TIMEOUT_SECONDS", "3")
	t.Setenv("ASSESSLY_JWT_EXPIRY_HOURS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad url", func(c *Config) { c.APIURL = "not a url" }, "APIURL"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "LogLevel"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "LogFormat"},
		{"short secret", func(c *Config) { c.JWTSecret = "abc" }, "JWTSecret"},
		{"bad addr", func(c *Config) { c.ServerAddr = "nope" }, "ServerAddr"},
		{"bad version", func(c *Config) { c.MinAPIVersion = "1.0.0" }, "MinAPIVersion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
