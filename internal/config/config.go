package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/xyproto/env/v2"
)

type Config struct {
	Port             string
	Env              string
	TemplateDir      string
	OutputDir        string
	ForgeBin         string
	CompileCacheSize int
	LogJSON          bool
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment without touching .env.
// env/v2 snapshots the environment, so it is reloaded on every call to see
// variables set since the last read, including those from .env.
func FromEnv() *Config {
	env.Load()
	cacheSize := env.Int("COMPILE_CACHE_SIZE", 128)
	if cacheSize <= 0 {
		cacheSize = 128
	}
	return &Config{
		Port:             normalizePort(env.Str("PORT", ":8080")),
		Env:              firstNonEmpty(strings.TrimSpace(env.Str("APP_ENV")), "local"),
		TemplateDir:      firstNonEmpty(strings.TrimSpace(env.Str("TEMPLATE_DIR")), "template"),
		OutputDir:        firstNonEmpty(strings.TrimSpace(env.Str("OUTPUT_DIR")), "output"),
		ForgeBin:         firstNonEmpty(strings.TrimSpace(env.Str("FORGE_BIN")), "forge"),
		CompileCacheSize: cacheSize,
		LogJSON:          env.Bool("LOG_JSON"),
	}
}

// IsLocal reports whether the service runs in a developer environment.
func (c *Config) IsLocal() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "local")
}

func normalizePort(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ":8080"
	}
	if strings.Contains(p, ":") {
		return p
	}
	return ":" + p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
