package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Document sources
	DocsDir string
	Watch   bool

	// Auth (optional; empty disables the bearer check)
	PreviewAPIKey string

	// HTTP dispatch for discovered GET-JSON descriptors
	DispatchHTTP bool
	HTTPTimeout  time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8080"),

		DocsDir: envOr("DOCS_DIR", "./docs"),
		Watch:   envBool("WATCH", true),

		PreviewAPIKey: os.Getenv("PREVIEW_API_KEY"),

		DispatchHTTP: envBool("DISPATCH_HTTP", true),
		HTTPTimeout:  envDuration("HTTP_TIMEOUT", 30*time.Second),
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DocsDir == "" {
		return fmt.Errorf("DOCS_DIR is required")
	}
	info, err := os.Stat(c.DocsDir)
	if err != nil {
		return fmt.Errorf("DOCS_DIR: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("DOCS_DIR %s is not a directory", c.DocsDir)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
