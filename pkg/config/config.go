package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the top-level Prism configuration.
type Config struct {
	// Engine configures workflow execution.
	Engine EngineConfig `yaml:"engine"`

	// Cache configures the tiered result cache.
	Cache CacheConfig `yaml:"cache"`

	// RateLimit configures the daily request budget for metered engines.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Store configures execution history persistence.
	Store StoreConfig `yaml:"store"`

	// Telemetry configures logging, metrics, and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EngineConfig configures the workflow executor.
type EngineConfig struct {
	// Timeout is the per-engine calculation timeout.
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`

	// WorkflowCacheEnabled controls memoization of complete workflow
	// outputs.
	WorkflowCacheEnabled bool `yaml:"workflow_cache_enabled"`
}

// CacheConfig configures the tiered cache.
type CacheConfig struct {
	// MemoryCapacityBytes is the L1 byte budget.
	MemoryCapacityBytes int64 `yaml:"memory_capacity_bytes" validate:"gt=0"`

	// DiskDir is the L3 directory for precomputed results.
	DiskDir string `yaml:"disk_dir" validate:"required"`

	// DiskEnabled controls whether the L3 tier is active.
	DiskEnabled bool `yaml:"disk_enabled"`

	// WatchDisk enables the filesystem watcher that evicts stale
	// read-through entries when L3 files change externally.
	WatchDisk bool `yaml:"watch_disk"`
}

// RateLimitConfig configures the daily request budget.
type RateLimitConfig struct {
	// DailyLimit is the number of remote requests allowed per day.
	DailyLimit int64 `yaml:"daily_limit" validate:"gt=0"`

	// Buffer is the number of requests held in reserve. Acquisition is
	// refused once only the buffer remains.
	Buffer int64 `yaml:"buffer" validate:"gte=0"`

	// MinInterval is the minimum spacing between remote requests.
	// Zero disables spacing.
	MinInterval time.Duration `yaml:"min_interval" validate:"gte=0"`
}

// StoreConfig configures execution history persistence.
type StoreConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" validate:"required"`
}

// TelemetryConfig configures the observability stack.
type TelemetryConfig struct {
	// LogLevel sets the minimum log level.
	LogLevel string `yaml:"log_level" validate:"oneof=trace debug info warn error fatal"`

	// LogFormat selects console or json output.
	LogFormat string `yaml:"log_format" validate:"oneof=console json"`

	// MetricsEnabled controls Prometheus metrics collection.
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// MetricsListen is the address for the metrics HTTP endpoint.
	MetricsListen string `yaml:"metrics_listen"`

	// TracingEnabled controls OpenTelemetry tracing.
	TracingEnabled bool `yaml:"tracing_enabled"`

	// TracingExporter selects the trace exporter (otlp, stdout, none).
	TracingExporter string `yaml:"tracing_exporter" validate:"oneof=otlp stdout none"`

	// TracingEndpoint is the OTLP collector endpoint.
	TracingEndpoint string `yaml:"tracing_endpoint"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Timeout:              30 * time.Second,
			WorkflowCacheEnabled: true,
		},
		Cache: CacheConfig{
			MemoryCapacityBytes: 64 * 1024 * 1024,
			DiskDir:             "./data/precomputed",
			DiskEnabled:         true,
			WatchDisk:           false,
		},
		RateLimit: RateLimitConfig{
			DailyLimit:  50,
			Buffer:      5,
			MinInterval: time.Second,
		},
		Store: StoreConfig{
			Path: "./data/prism.db",
		},
		Telemetry: TelemetryConfig{
			LogLevel:        "info",
			LogFormat:       "console",
			MetricsEnabled:  false,
			MetricsListen:   ":9090",
			TracingEnabled:  false,
			TracingExporter: "stdout",
			TracingEndpoint: "",
		},
	}
}

// Load builds a configuration from defaults, an optional YAML file, and
// PRISM_* environment variables, in that order of precedence. An empty
// path skips the file layer.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays PRISM_* environment variables onto the configuration.
func (c *Config) applyEnv() error {
	var err error

	setDuration := func(key string, dst *time.Duration) {
		if err != nil {
			return
		}
		if v, ok := os.LookupEnv(key); ok {
			d, parseErr := time.ParseDuration(v)
			if parseErr != nil {
				err = fmt.Errorf("%s: %w", key, parseErr)
				return
			}
			*dst = d
		}
	}
	setInt64 := func(key string, dst *int64) {
		if err != nil {
			return
		}
		if v, ok := os.LookupEnv(key); ok {
			n, parseErr := strconv.ParseInt(v, 10, 64)
			if parseErr != nil {
				err = fmt.Errorf("%s: %w", key, parseErr)
				return
			}
			*dst = n
		}
	}
	setBool := func(key string, dst *bool) {
		if err != nil {
			return
		}
		if v, ok := os.LookupEnv(key); ok {
			b, parseErr := strconv.ParseBool(v)
			if parseErr != nil {
				err = fmt.Errorf("%s: %w", key, parseErr)
				return
			}
			*dst = b
		}
	}
	setString := func(key string, dst *string) {
		if err != nil {
			return
		}
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	setDuration("PRISM_ENGINE_TIMEOUT", &c.Engine.Timeout)
	setBool("PRISM_WORKFLOW_CACHE_ENABLED", &c.Engine.WorkflowCacheEnabled)

	setInt64("PRISM_CACHE_MEMORY_CAPACITY", &c.Cache.MemoryCapacityBytes)
	setString("PRISM_CACHE_DISK_DIR", &c.Cache.DiskDir)
	setBool("PRISM_CACHE_DISK_ENABLED", &c.Cache.DiskEnabled)
	setBool("PRISM_CACHE_WATCH_DISK", &c.Cache.WatchDisk)

	setInt64("PRISM_RATE_LIMIT_DAILY", &c.RateLimit.DailyLimit)
	setInt64("PRISM_RATE_LIMIT_BUFFER", &c.RateLimit.Buffer)
	setDuration("PRISM_RATE_LIMIT_MIN_INTERVAL", &c.RateLimit.MinInterval)

	setString("PRISM_STORE_PATH", &c.Store.Path)

	setString("PRISM_LOG_LEVEL", &c.Telemetry.LogLevel)
	setString("PRISM_LOG_FORMAT", &c.Telemetry.LogFormat)
	setBool("PRISM_METRICS_ENABLED", &c.Telemetry.MetricsEnabled)
	setString("PRISM_METRICS_LISTEN", &c.Telemetry.MetricsListen)
	setBool("PRISM_TRACING_ENABLED", &c.Telemetry.TracingEnabled)
	setString("PRISM_TRACING_EXPORTER", &c.Telemetry.TracingExporter)
	setString("PRISM_TRACING_ENDPOINT", &c.Telemetry.TracingEndpoint)

	return err
}

var validate = validator.New()

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid config: field %s fails %q constraint", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.RateLimit.Buffer >= c.RateLimit.DailyLimit {
		return fmt.Errorf("invalid config: rate limit buffer (%d) must be below the daily limit (%d)",
			c.RateLimit.Buffer, c.RateLimit.DailyLimit)
	}

	if c.Telemetry.TracingEnabled && c.Telemetry.TracingExporter == "otlp" && c.Telemetry.TracingEndpoint == "" {
		return fmt.Errorf("invalid config: tracing endpoint is required for the otlp exporter")
	}

	return nil
}
