package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"FORMDESK_CONFIG", "MONGO_URI", "MONGO_DB", "REDIS_URI", "PORT",
		"PUBLIC_BASE_URL", "COMPLIANCE_THRESHOLD", "LOG_LEVEL", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_URI", "redis://cache:6379")
	t.Setenv("PUBLIC_BASE_URL", "https://forms.example.com/")
	t.Setenv("COMPLIANCE_THRESHOLD", "80")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, "https://forms.example.com", cfg.PublicBaseURL)
	assert.Equal(t, 80, cfg.ComplianceThreshold)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
}

func TestLoadTOMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "formdesk.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mongo_db = "catalog"
port = "9090"
compliance_threshold = 60
log_level = "debug"
`), 0o644))
	t.Setenv("FORMDESK_CONFIG", path)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "catalog", cfg.MongoDB)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, 60, cfg.ComplianceThreshold)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]map[string]string{
		"threshold not a number": {"COMPLIANCE_THRESHOLD": "high"},
		"threshold over 100":     {"COMPLIANCE_THRESHOLD": "101"},
		"bad log level":          {"LOG_LEVEL": "chatty"},
		"missing file":           {"FORMDESK_CONFIG": "/nonexistent/formdesk.toml"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"
	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
	assert.True(t, logger.Core().Enabled(1))
}
