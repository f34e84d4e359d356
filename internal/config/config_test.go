package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(New(""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr() != "127.0.0.1:3001" {
		t.Errorf("Addr() = %q", cfg.Server.Addr())
	}
	if cfg.Render.Threshold != 0.4 {
		t.Errorf("threshold = %v", cfg.Render.Threshold)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.MaxBodyBytes != 8<<20 {
		t.Errorf("max body = %d", cfg.Server.MaxBodyBytes)
	}
	if strings.Join(cfg.Library.Ignore, ",") != "node_modules,vendor" {
		t.Errorf("ignore = %v", cfg.Library.Ignore)
	}
	if !cfg.Render.LineNumbers || cfg.Render.DarkStyle != "github-dark" {
		t.Errorf("render = %+v", cfg.Render)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("MDBROWSER_SERVER_PORT", "9999")
	t.Setenv("MDBROWSER_RENDER_THRESHOLD", "0.6")
	t.Setenv("MDBROWSER_LOG_LEVEL", "debug")

	cfg, err := Load(New(""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Render.Threshold != 0.6 {
		t.Errorf("threshold = %v", cfg.Render.Threshold)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "mdbrowser.yaml")
	content := `
root: /srv/docs
server:
  port: 8080
  read_timeout: 5s
render:
  threshold: 0.25
  hard_wraps: true
library:
  ignore: ["drafts/**"]
  locale: fa
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(New(path))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Root != "/srv/docs" || cfg.Server.Port != 8080 || cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Render.Threshold != 0.25 || !cfg.Render.HardWraps {
		t.Errorf("render = %+v", cfg.Render)
	}
	if len(cfg.Library.Ignore) != 1 || cfg.Library.Locale != "fa" {
		t.Errorf("library = %+v", cfg.Library)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := Load(New(filepath.Join(t.TempDir(), "missing.yaml"))); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			LogLevel: "info",
			Server:   ServerConfig{Port: 3001, MaxBodyBytes: 1024},
			Render:   RenderConfig{Threshold: 0.4},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"threshold zero", func(c *Config) { c.Render.Threshold = 0 }, ""},
		{"threshold one", func(c *Config) { c.Render.Threshold = 1 }, ""},
		{"negative threshold", func(c *Config) { c.Render.Threshold = -0.1 }, "render.threshold"},
		{"threshold above one", func(c *Config) { c.Render.Threshold = 1.5 }, "render.threshold"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero body", func(c *Config) { c.Server.MaxBodyBytes = 0 }, "max_body_bytes"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("WARN")
	if err != nil || level != slog.LevelWarn {
		t.Errorf("ParseLevel(WARN) = %v, %v", level, err)
	}
}
