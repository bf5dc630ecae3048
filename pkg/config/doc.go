// Package config loads and validates Prism configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML
// file, then PRISM_* environment variables. The merged result is
// validated before use.
//
//	cfg, err := config.Load("prism.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// A minimal YAML file:
//
//	engine:
//	  timeout: 30s
//	cache:
//	  memory_capacity_bytes: 67108864
//	  disk_dir: ./data/precomputed
//	  disk_enabled: true
//	rate_limit:
//	  daily_limit: 50
//	  buffer: 5
//	  min_interval: 1s
//	store:
//	  path: ./data/prism.db
//	telemetry:
//	  log_level: info
//	  log_format: console
//
// Environment overrides use the PRISM_ prefix, for example
// PRISM_ENGINE_TIMEOUT=10s or PRISM_CACHE_DISK_ENABLED=false.
package config
