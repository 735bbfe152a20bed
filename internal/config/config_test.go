package config

import (
	"os"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	tmpFile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := tmpFile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `check:
  interval: 15m
  fetch_timeout: 5s
  concurrency: 2
default_location:
  name: "Salt Lake City"
  latitude: 40.7608
  longitude: -111.8910
server:
  addr: ":9090"
notifications:
  backend: log
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Check.Interval != 15*time.Minute {
		t.Errorf("Expected interval 15m, got %v", cfg.Check.Interval)
	}
	if cfg.Check.FetchTimeout != 5*time.Second {
		t.Errorf("Expected fetch timeout 5s, got %v", cfg.Check.FetchTimeout)
	}
	if cfg.Check.Concurrency != 2 {
		t.Errorf("Expected concurrency 2, got %d", cfg.Check.Concurrency)
	}
	if cfg.DefaultLocation.Name != "Salt Lake City" {
		t.Errorf("Expected default location 'Salt Lake City', got '%s'", cfg.DefaultLocation.Name)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Expected server addr ':9090', got '%s'", cfg.Server.Addr)
	}
	if cfg.Notifications.Backend != "log" {
		t.Errorf("Expected backend 'log', got '%s'", cfg.Notifications.Backend)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "debug: true\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	if cfg.Check != want.Check {
		t.Errorf("Check = %+v, want %+v", cfg.Check, want.Check)
	}
	if cfg.DefaultLocation != want.DefaultLocation {
		t.Errorf("DefaultLocation = %+v, want %+v", cfg.DefaultLocation, want.DefaultLocation)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be true")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid YAML, got nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "interval too short",
			mutate:  func(c *Config) { c.Check.Interval = 10 * time.Second },
			wantErr: true,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Check.Concurrency = 0 },
			wantErr: true,
		},
		{
			name:    "latitude out of range",
			mutate:  func(c *Config) { c.DefaultLocation.Latitude = 91 },
			wantErr: true,
		},
		{
			name:    "missing default location name",
			mutate:  func(c *Config) { c.DefaultLocation.Name = "" },
			wantErr: true,
		},
		{
			name:    "unknown notification backend",
			mutate:  func(c *Config) { c.Notifications.Backend = "smoke-signal" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
