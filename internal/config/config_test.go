package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "default config should be valid", modify: func(*Config) {}},
		{name: "invalid http port", modify: func(c *Config) { c.Server.HTTPPort = 0 }, wantErr: true},
		{name: "same http and grpc port", modify: func(c *Config) { c.Server.GRPCPort = c.Server.HTTPPort }, wantErr: true},
		{name: "grpc disabled", modify: func(c *Config) { c.Server.GRPCPort = 0 }},
		{name: "zero default order", modify: func(c *Config) { c.Forecast.DefaultOrder = 0 }, wantErr: true},
		{name: "negative default q", modify: func(c *Config) { c.Forecast.DefaultQ = -1 }, wantErr: true},
		{name: "max horizon below default", modify: func(c *Config) { c.Forecast.MaxHorizon = 3 }, wantErr: true},
		{name: "empty storage path", modify: func(c *Config) { c.Storage.Path = "" }, wantErr: true},
		{name: "bad timezone", modify: func(c *Config) { c.Storage.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "memory storage without path", modify: func(c *Config) {
			c.Storage.Type = "memory"
			c.Storage.Path = ""
		}},
		{name: "unknown storage type", modify: func(c *Config) { c.Storage.Type = "postgres" }, wantErr: true},
		{name: "negative lease ttl", modify: func(c *Config) {
			c.Etcd.Enabled = true
			c.Etcd.LeaseTTL = -1
		}, wantErr: true},
		{name: "etcd enabled without endpoints", modify: func(c *Config) {
			c.Etcd.Enabled = true
			c.Etcd.Endpoints = nil
		}, wantErr: true},
		{name: "etcd disabled without endpoints", modify: func(c *Config) { c.Etcd.Endpoints = nil }},
		{name: "unknown queue type", modify: func(c *Config) {
			c.Queue.Enabled = true
			c.Queue.Type = "rabbitmq"
		}, wantErr: true},
		{name: "kafka without brokers", modify: func(c *Config) {
			c.Queue.Enabled = true
			c.Queue.Type = "kafka"
		}, wantErr: true},
		{name: "bad cron spec", modify: func(c *Config) {
			c.Scheduler.Enabled = true
			c.Scheduler.Spec = "every day"
		}, wantErr: true},
		{name: "five field cron spec", modify: func(c *Config) {
			c.Scheduler.Enabled = true
			c.Scheduler.Spec = "30 2 * * *"
		}},
		{name: "import refresh without workers", modify: func(c *Config) {
			c.Scheduler.RefreshOnImport = true
			c.Scheduler.Workers = 0
		}, wantErr: true},
		{name: "import refresh alone", modify: func(c *Config) { c.Scheduler.RefreshOnImport = true }},
		{name: "auth without keys", modify: func(c *Config) { c.Auth.Enabled = true }, wantErr: true},
		{name: "bad log level", modify: func(c *Config) { c.Logging.Level = "trace" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  http_port: 9000
  grpc_port: 9001
forecast:
  default_horizon: 14
  arima_backend: true
storage:
  path: /tmp/depotcast-test.db
  timezone: "+09:00"
scheduler:
  enabled: true
  spec: "@daily"
logging:
  level: debug
  format: console
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPPort != 9000 || cfg.Server.GRPCPort != 9001 {
		t.Errorf("Unexpected ports %d/%d", cfg.Server.HTTPPort, cfg.Server.GRPCPort)
	}
	if cfg.Forecast.DefaultHorizon != 14 || !cfg.Forecast.ARIMABackend {
		t.Errorf("Unexpected forecast config %+v", cfg.Forecast)
	}
	if cfg.Forecast.DefaultOrder != 1 {
		t.Errorf("Expected default order from defaults, got %d", cfg.Forecast.DefaultOrder)
	}
	if cfg.Queue.EventSubject != "depotcast.forecast.completed" {
		t.Errorf("Expected default event subject, got %q", cfg.Queue.EventSubject)
	}
	if cfg.Scheduler.Timeout != 10*time.Minute {
		t.Errorf("Expected default scheduler timeout, got %v", cfg.Scheduler.Timeout)
	}
	if !cfg.IsDevelopment() {
		t.Error("Expected debug console logging to count as development")
	}

	loc, err := cfg.Storage.Location()
	if err != nil {
		t.Fatalf("Location failed: %v", err)
	}
	_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, loc).Zone()
	if offset != 9*3600 {
		t.Errorf("Expected +09:00 offset, got %d", offset)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DEPOTCAST_SERVER_HTTP_PORT", "7070")
	t.Setenv("DEPOTCAST_FORECAST_DEFAULT_ORDER", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.HTTPPort != 7070 {
		t.Errorf("Expected env port 7070, got %d", cfg.Server.HTTPPort)
	}
	if cfg.Forecast.DefaultOrder != 3 {
		t.Errorf("Expected env order 3, got %d", cfg.Forecast.DefaultOrder)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("forecast:\n  default_order: 0\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected validation error")
	}
	if cfg := LoadOrDefault(path); cfg.Forecast.DefaultOrder != 1 {
		t.Errorf("Expected LoadOrDefault to fall back to defaults, got %d", cfg.Forecast.DefaultOrder)
	}
}

func TestAddresses(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Host = "127.0.0.1"

	if got := cfg.HTTPAddress(); got != "127.0.0.1:8080" {
		t.Errorf("Unexpected HTTP address %q", got)
	}
	if got := cfg.GRPCAddress(); got != "127.0.0.1:8081" {
		t.Errorf("Unexpected gRPC address %q", got)
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "nested", "db", "depotcast.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(cfg.Storage.Path)); err != nil {
		t.Errorf("Expected directory to exist: %v", err)
	}
}

func TestParseOffsetTimezone(t *testing.T) {
	if _, err := parseOffsetTimezone("-05:30"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	for _, bad := range []string{"09:00", "+9:00", "+15:00", "+09:75"} {
		if _, err := parseOffsetTimezone(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}
