package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "APP_ENV", "TEMPLATE_DIR", "OUTPUT_DIR", "FORGE_BIN", "COMPILE_CACHE_SIZE", "LOG_JSON"} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "template", cfg.TemplateDir)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, "forge", cfg.ForgeBin)
	assert.Equal(t, 128, cfg.CompileCacheSize)
	assert.False(t, cfg.LogJSON)
	assert.True(t, cfg.IsLocal())
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("TEMPLATE_DIR", "/srv/template")
	t.Setenv("OUTPUT_DIR", "/srv/out")
	t.Setenv("FORGE_BIN", "/usr/local/bin/forge")
	t.Setenv("COMPILE_CACHE_SIZE", "16")
	t.Setenv("LOG_JSON", "true")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, "prod", cfg.Env)
	assert.False(t, cfg.IsLocal())
	assert.Equal(t, "/srv/template", cfg.TemplateDir)
	assert.Equal(t, "/srv/out", cfg.OutputDir)
	assert.Equal(t, "/usr/local/bin/forge", cfg.ForgeBin)
	assert.Equal(t, 16, cfg.CompileCacheSize)
	assert.True(t, cfg.LogJSON)
}

func TestFromEnvKeepsHostPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:7000")
	assert.Equal(t, "127.0.0.1:7000", FromEnv().Port)
}

func TestFromEnvRejectsNonPositiveCacheSize(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMPILE_CACHE_SIZE", "0")
	assert.Equal(t, 128, FromEnv().CompileCacheSize)
}

func TestLoadWithoutDotEnv(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Port)
}

func TestFromEnvSeesLaterChanges(t *testing.T) {
	clearEnv(t)
	assert.Equal(t, ":8080", FromEnv().Port)

	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "prod")
	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, "prod", cfg.Env)
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	_ = FromEnv()
	require.NoError(t, os.Unsetenv("OUTPUT_DIR"))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OUTPUT_DIR=/from/dotenv\n"), 0o644))
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.OutputDir)
}
