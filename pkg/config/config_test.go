package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Engine.Timeout != 30*time.Second {
		t.Errorf("default engine timeout = %v", cfg.Engine.Timeout)
	}
	if cfg.RateLimit.DailyLimit != 50 || cfg.RateLimit.Buffer != 5 {
		t.Errorf("default rate limit = %+v", cfg.RateLimit)
	}
	if cfg.RateLimit.MinInterval != time.Second {
		t.Errorf("default min interval = %v, want 1s", cfg.RateLimit.MinInterval)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load without file failed: %v", err)
	}
	if cfg.Cache.MemoryCapacityBytes != 64*1024*1024 {
		t.Errorf("memory capacity = %d", cfg.Cache.MemoryCapacityBytes)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.yaml")
	content := `
engine:
  timeout: 10s
  workflow_cache_enabled: false
cache:
  memory_capacity_bytes: 1048576
  disk_dir: /tmp/prism-cache
rate_limit:
  daily_limit: 100
  buffer: 10
  min_interval: 2s
telemetry:
  log_level: debug
  log_format: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Engine.Timeout != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", cfg.Engine.Timeout)
	}
	if cfg.Engine.WorkflowCacheEnabled {
		t.Error("workflow cache should be disabled")
	}
	if cfg.Cache.MemoryCapacityBytes != 1048576 {
		t.Errorf("memory capacity = %d", cfg.Cache.MemoryCapacityBytes)
	}
	if cfg.Cache.DiskDir != "/tmp/prism-cache" {
		t.Errorf("disk dir = %q", cfg.Cache.DiskDir)
	}
	if cfg.RateLimit.DailyLimit != 100 {
		t.Errorf("daily limit = %d", cfg.RateLimit.DailyLimit)
	}
	if cfg.RateLimit.MinInterval != 2*time.Second {
		t.Errorf("min interval = %v, want 2s", cfg.RateLimit.MinInterval)
	}
	if cfg.Telemetry.LogLevel != "debug" || cfg.Telemetry.LogFormat != "json" {
		t.Errorf("telemetry = %+v", cfg.Telemetry)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Store.Path != "./data/prism.db" {
		t.Errorf("store path = %q, want default", cfg.Store.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PRISM_ENGINE_TIMEOUT", "5s")
	t.Setenv("PRISM_RATE_LIMIT_DAILY", "200")
	t.Setenv("PRISM_CACHE_DISK_ENABLED", "false")
	t.Setenv("PRISM_LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Engine.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", cfg.Engine.Timeout)
	}
	if cfg.RateLimit.DailyLimit != 200 {
		t.Errorf("daily limit = %d, want 200", cfg.RateLimit.DailyLimit)
	}
	if cfg.Cache.DiskEnabled {
		t.Error("disk tier should be disabled via env")
	}
	if cfg.Telemetry.LogLevel != "warn" {
		t.Errorf("log level = %q, want warn", cfg.Telemetry.LogLevel)
	}
}

func TestEnvOverridesBeatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.yaml")
	if err := os.WriteFile(path, []byte("engine:\n  timeout: 10s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PRISM_ENGINE_TIMEOUT", "2s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Engine.Timeout != 2*time.Second {
		t.Errorf("timeout = %v, env must beat file", cfg.Engine.Timeout)
	}
}

func TestEnvParseError(t *testing.T) {
	t.Setenv("PRISM_RATE_LIMIT_DAILY", "not-a-number")
	if _, err := Load(""); err == nil {
		t.Fatal("expected parse error from malformed env value")
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Telemetry.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown log level")
	}
}

func TestValidateRejectsBufferAboveLimit(t *testing.T) {
	cfg := Default()
	cfg.RateLimit.DailyLimit = 5
	cfg.RateLimit.Buffer = 5
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error when buffer swallows the whole budget")
	}
	if !strings.Contains(err.Error(), "buffer") {
		t.Errorf("error should mention the buffer: %v", err)
	}
}

func TestValidateRequiresOTLPEndpoint(t *testing.T) {
	cfg := Default()
	cfg.Telemetry.TracingEnabled = true
	cfg.Telemetry.TracingExporter = "otlp"
	cfg.Telemetry.TracingEndpoint = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for otlp exporter without endpoint")
	}
}

func TestToTelemetry(t *testing.T) {
	cfg := Default()
	cfg.Telemetry.LogLevel = "debug"
	cfg.Telemetry.MetricsEnabled = true
	cfg.Telemetry.MetricsListen = ":9100"

	tc := cfg.ToTelemetry("1.0.0", "test")
	if tc.ServiceName != "prism" {
		t.Errorf("service name = %q", tc.ServiceName)
	}
	if tc.ServiceVersion != "1.0.0" || tc.Environment != "test" {
		t.Errorf("version/env = %q/%q", tc.ServiceVersion, tc.Environment)
	}
	if tc.Logging.Level != "debug" {
		t.Errorf("log level = %q", tc.Logging.Level)
	}
	if !tc.Metrics.Enabled || tc.Metrics.ListenAddress != ":9100" {
		t.Errorf("metrics = %+v", tc.Metrics)
	}
	if err := tc.Validate(); err != nil {
		t.Errorf("converted telemetry config must validate: %v", err)
	}
}
