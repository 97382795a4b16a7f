package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/democrat/internal/errors"
	"github.com/vango-dev/democrat/pkg/codec"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should default to true")
	}
	if cfg.Format() != codec.FormatJSON {
		t.Errorf("Format() = %q, want json", cfg.Format())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_YAML(t *testing.T) {
	tmpDir := t.TempDir()

	// Test loading non-existent config
	_, err := Load(tmpDir)
	if err == nil {
		t.Fatal("Expected error for missing config")
	}
	if e, ok := err.(*errors.Error); !ok || e.Code != "DEM023" {
		t.Errorf("error = %v, want DEM023", err)
	}

	configYAML := `server:
  host: 0.0.0.0
  port: 8080
metrics:
  enabled: false
codec:
  format: yml
log:
  level: DEBUG
demo:
  tree: todos
  drive: 500ms
archive:
  location: s3://bucket/democrat
  keep: 3
  restore: true
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Address() != "0.0.0.0:8080" {
		t.Errorf("Address() = %q, want %q", cfg.Address(), "0.0.0.0:8080")
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be false")
	}
	if cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics.Path = %q, want default", cfg.Metrics.Path)
	}
	if cfg.Format() != codec.FormatYAML {
		t.Errorf("Format() = %q, want yaml", cfg.Format())
	}
	if level, _ := cfg.LogLevel(); level != slog.LevelDebug {
		t.Errorf("LogLevel() = %v, want DEBUG", level)
	}
	if d, _ := cfg.DriveInterval(); d != 500*time.Millisecond {
		t.Errorf("DriveInterval() = %v, want 500ms", d)
	}
	if cfg.Demo.Tree != "todos" {
		t.Errorf("Demo.Tree = %q, want todos", cfg.Demo.Tree)
	}
	if cfg.Archive.Location != "s3://bucket/democrat" || cfg.Archive.Keep != 3 || !cfg.Archive.Restore {
		t.Errorf("Archive = %+v", cfg.Archive)
	}
	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoad_JSON(t *testing.T) {
	tmpDir := t.TempDir()
	configJSON := `{"server": {"port": 9090}, "codec": {"format": "msgpack"}}`
	if err := os.WriteFile(filepath.Join(tmpDir, "democrat.json"), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.URL() != "http://localhost:9090" {
		t.Errorf("URL() = %q", cfg.URL())
	}
	if cfg.Format() != codec.FormatMsgPack {
		t.Errorf("Format() = %q, want msgpack", cfg.Format())
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		code    string
	}{
		{"bad yaml", "democrat.yaml", "server: [", "DEM020"},
		{"bad json", "democrat.json", "{", "DEM020"},
		{"port range", "democrat.yaml", "server:\n  port: 70000\n", "DEM024"},
		{"metrics path", "democrat.yaml", "metrics:\n  path: metrics\n", "DEM024"},
		{"format", "democrat.yaml", "codec:\n  format: xml\n", "DEM021"},
		{"log level", "democrat.yaml", "log:\n  level: loud\n", "DEM024"},
		{"drive", "democrat.yaml", "demo:\n  drive: soon\n", "DEM024"},
		{"archive keep", "democrat.yaml", "archive:\n  location: snaps\n  keep: -1\n", "DEM024"},
		{"archive restore", "democrat.yaml", "archive:\n  restore: true\n", "DEM024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFile(path)
			e, ok := err.(*errors.Error)
			if !ok {
				t.Fatalf("error = %v (%T), want *errors.Error", err, err)
			}
			if e.Code != tt.code {
				t.Errorf("Code = %q, want %q (%v)", e.Code, tt.code, err)
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOrDefault error: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want default", cfg.Server.Port)
	}

	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("server: ["), 0644)
	if _, err := LoadOrDefault(tmpDir); err == nil {
		t.Error("expected parse error to be returned")
	}
}

func TestSave(t *testing.T) {
	for _, name := range []string{"democrat.yaml", "democrat.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := New()
			cfg.Server.Port = 4000
			cfg.Demo.Drive = "1s"
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo error: %v", err)
			}

			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile error: %v", err)
			}
			if loaded.Server.Port != 4000 || loaded.Demo.Drive != "1s" {
				t.Errorf("round trip lost values: %+v", loaded)
			}

			loaded.Log.Level = "warn"
			if err := loaded.Save(); err != nil {
				t.Fatalf("Save error: %v", err)
			}
			data, _ := os.ReadFile(path)
			if !strings.Contains(string(data), "warn") {
				t.Errorf("saved file missing log level:\n%s", data)
			}
		})
	}

	if err := New().Save(); err == nil {
		t.Error("Save without a path should fail")
	}
}
