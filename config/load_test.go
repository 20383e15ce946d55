package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Editor.StyleProp != "style" {
		t.Errorf("expected default style_prop 'style', got %q", cfg.Editor.StyleProp)
	}
	if cfg.Editor.WarningTTL != 5*time.Second {
		t.Errorf("expected default warning_ttl 5s, got %s", cfg.Editor.WarningTTL)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("expected default store driver 'sqlite', got %q", cfg.Store.Driver)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level 'info', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestInterpolateEnv(t *testing.T) {
	getenv := func(key string) string {
		switch key {
		case "TEST_HOST":
			return "example.com"
		case "TEST_PORT":
			return "9000"
		}
		return ""
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple substitution",
			input:    "host: ${TEST_HOST}",
			expected: "host: example.com",
		},
		{
			name:     "default used when unset",
			input:    "driver: ${STORE_DRIVER:-sqlite}",
			expected: "driver: sqlite",
		},
		{
			name:     "default ignored when set",
			input:    "port: ${TEST_PORT:-8080}",
			expected: "port: 9000",
		},
		{
			name:     "unset without default",
			input:    "dsn: ${MISSING}",
			expected: "dsn: ",
		},
		{
			name:     "multiple substitutions",
			input:    "addr: ${TEST_HOST}:${TEST_PORT}",
			expected: "addr: example.com:9000",
		},
		{
			name:     "no substitution needed",
			input:    "static: value",
			expected: "static: value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := string(interpolateEnv([]byte(tt.input), getenv))
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "jsxplay.yaml")

	configContent := `
server:
  host: localhost
  port: 9090

source:
  file: app.jsx
  watch: true

editor:
  strict: true
  style_prop: sx

store:
  dsn: data/snapshots.db

logging:
  level: debug
  format: json

locale: de_DE
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, path, err := LoadWithPath(configPath, os.Getenv)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if path != configPath {
		t.Errorf("expected resolved path %q, got %q", configPath, path)
	}
	if cfg.BaseDir != dir {
		t.Errorf("expected base dir %q, got %q", dir, cfg.BaseDir)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Source.File != filepath.Join(dir, "app.jsx") {
		t.Errorf("expected source file resolved against config dir, got %q", cfg.Source.File)
	}
	if !cfg.Source.Watch {
		t.Error("expected source.watch true")
	}
	if !cfg.Editor.Strict || cfg.Editor.StyleProp != "sx" {
		t.Errorf("unexpected editor config %+v", cfg.Editor)
	}
	if cfg.Editor.WarningTTL != 5*time.Second {
		t.Errorf("expected default warning_ttl to survive, got %s", cfg.Editor.WarningTTL)
	}
	if cfg.Store.DSN != filepath.Join(dir, "data", "snapshots.db") {
		t.Errorf("expected store dsn resolved against config dir, got %q", cfg.Store.DSN)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Locale != "de_DE" {
		t.Errorf("expected locale de_DE, got %q", cfg.Locale)
	}
}

func TestLoadWithEnvInterpolation(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "jsxplay.yaml")

	configContent := `
store:
  driver: ${STORE_DRIVER:-sqlite}
  dsn: "${STORE_DSN:-:memory:}"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	getenv := func(key string) string {
		switch key {
		case "STORE_DRIVER":
			return "postgres"
		case "STORE_DSN":
			return "postgres://localhost/jsxplay"
		}
		return ""
	}

	cfg, err := Load(configPath, getenv)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Driver != "postgres" || cfg.Store.DSN != "postgres://localhost/jsxplay" {
		t.Errorf("unexpected store config %+v", cfg.Store)
	}

	getenvEmpty := func(key string) string { return "" }
	cfg, err = Load(configPath, getenvEmpty)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.DSN != ":memory:" {
		t.Errorf("expected in-memory sqlite default, got %+v", cfg.Store)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "jsxplay.yaml")

	if err := os.WriteFile(configPath, []byte("server:\n  port: 0\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath, os.Getenv)
	if err == nil || !strings.Contains(err.Error(), "invalid port: 0") {
		t.Errorf("expected port validation error, got %v", err)
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Run("explicit missing", func(t *testing.T) {
		_, err := resolveConfigPath("/nonexistent/jsxplay.yaml", func(string) string { return "" })
		if err == nil || !strings.Contains(err.Error(), "config file not found") {
			t.Errorf("expected not found error, got %v", err)
		}
	})

	t.Run("env var", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
		got, err := resolveConfigPath("", func(key string) string {
			if key == "JSXPLAY_CONFIG" {
				return path
			}
			return ""
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("none found", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		t.Setenv("HOME", dir)
		_, err := resolveConfigPath("", func(string) string { return "" })
		if !errors.Is(err, ErrNoConfig) {
			t.Errorf("expected ErrNoConfig, got %v", err)
		}
	})
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"512", 512, false},
		{"10MB", 10 * 1024 * 1024, false},
		{"1 gb", 1024 * 1024 * 1024, false},
		{"64KB", 64 * 1024, false},
		{"lots", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseSize(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestApplyDeveloper(t *testing.T) {
	cfg := Defaults()
	cfg.BaseDir = "/srv/jsxplay"
	cfg.Developers = map[string]DeveloperConfig{
		"alice": {Port: 3001, Source: "alice.jsx", StoreDB: "alice.db", Logging: LoggingConfig{Level: "debug"}},
		"bob":   {Port: 3002},
	}

	if err := ApplyDeveloper(cfg, "alice"); err != nil {
		t.Fatalf("ApplyDeveloper failed: %v", err)
	}
	if cfg.Server.Port != 3001 {
		t.Errorf("expected port 3001, got %d", cfg.Server.Port)
	}
	if cfg.Source.File != "/srv/jsxplay/alice.jsx" {
		t.Errorf("unexpected source file %q", cfg.Source.File)
	}
	if cfg.Store.DSN != "/srv/jsxplay/alice.db" {
		t.Errorf("unexpected store dsn %q", cfg.Store.DSN)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}

	err := ApplyDeveloper(cfg, "carol")
	if err == nil || err.Error() != `unknown developer profile "carol" (available: alice, bob)` {
		t.Errorf("unexpected error %v", err)
	}
}
