package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DOCS_DIR", "WATCH", "PREVIEW_API_KEY", "DISPATCH_HTTP", "HTTP_TIMEOUT"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.DocsDir != "./docs" {
		t.Errorf("expected default docs dir ./docs, got %s", cfg.DocsDir)
	}
	if !cfg.Watch || !cfg.DispatchHTTP {
		t.Error("expected watch and dispatch enabled by default")
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %s", cfg.HTTPTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("WATCH", "false")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("PREVIEW_API_KEY", "secret")

	cfg := Load()
	if cfg.Port != "9191" {
		t.Errorf("expected port 9191, got %s", cfg.Port)
	}
	if cfg.Watch {
		t.Error("expected watch disabled")
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %s", cfg.HTTPTimeout)
	}
	if cfg.PreviewAPIKey != "secret" {
		t.Errorf("expected api key set, got %q", cfg.PreviewAPIKey)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{DocsDir: t.TempDir()}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.DocsDir = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for empty docs dir")
	}

	cfg.DocsDir = "/definitely/not/a/dir"
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a missing docs dir")
	}
}
