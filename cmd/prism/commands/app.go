package commands

import (
	"context"
	"fmt"

	"github.com/prism-engine/prism/pkg/cache"
	"github.com/prism-engine/prism/pkg/config"
	"github.com/prism-engine/prism/pkg/engine"
	"github.com/prism-engine/prism/pkg/stores"
	"github.com/prism-engine/prism/pkg/telemetry"
)

// app wires the shared runtime used by the subcommands: configuration,
// telemetry, the tiered result cache and the orchestrator.
type app struct {
	cfg   *config.Config
	tel   *telemetry.Telemetry
	cache *cache.Tiered
	orch  *engine.Orchestrator
}

func newApp(version string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if verbose {
		cfg.Telemetry.LogLevel = "debug"
	}

	tel, err := telemetry.NewTelemetry(cfg.ToTelemetry(version, "cli"))
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	zlog := tel.Logger.Zerolog()
	tiered := cache.NewTiered(cache.Options{
		MemoryCapacity: int(cfg.Cache.MemoryCapacityBytes),
		DiskDir:        cfg.Cache.DiskDir,
		DiskEnabled:    cfg.Cache.DiskEnabled,
		Logger:         zlog,
	})
	if cfg.Cache.WatchDisk {
		if err := tiered.Disk().StartWatcher(); err != nil {
			return nil, fmt.Errorf("starting disk cache watcher: %w", err)
		}
	}

	orch := engine.NewOrchestrator(engine.OrchestratorOptions{
		Cache:                tiered,
		EngineTimeout:        cfg.Engine.Timeout,
		Logger:               zlog,
		Observer:             tel.Metrics,
		Events:               tel.Events,
		DisableWorkflowCache: !cfg.Engine.WorkflowCacheEnabled,
	})

	return &app{cfg: cfg, tel: tel, cache: tiered, orch: orch}, nil
}

// openStore opens the execution history database at the configured (or
// overridden) path, running any pending migrations.
func (a *app) openStore(ctx context.Context, pathOverride string) (*stores.SQLiteStore, error) {
	path := a.cfg.Store.Path
	if pathOverride != "" {
		path = pathOverride
	}

	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, fmt.Errorf("creating history store: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrating history store: %w", err)
	}
	return store, nil
}

func (a *app) close(ctx context.Context) {
	_ = a.cache.Disk().Close()
	_ = a.tel.Shutdown(ctx)
}
