package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/prism-engine/prism/pkg/cache"
)

// OrchestratorOptions configures the orchestration facade.
type OrchestratorOptions struct {
	// Cache is the tiered result cache. Nil disables engine result
	// memoization.
	Cache *cache.Tiered

	// EngineTimeout bounds each engine calculation. Zero selects
	// DefaultEngineTimeout; negative disables the timeout.
	EngineTimeout time.Duration

	// Logger is the structured logger. Defaults to a no-op logger.
	Logger *zerolog.Logger

	// Observer receives execution measurements. Optional.
	Observer ExecObserver

	// Events receives domain events. Optional.
	Events EventSink

	// DisableWorkflowCache turns off whole-workflow memoization.
	DisableWorkflowCache bool
}

// Orchestrator is the top-level facade: it owns the engine and workflow
// registries, the workflow executor, and the caches, and exposes the
// operations callers use directly.
type Orchestrator struct {
	engines   *Registry
	workflows *WorkflowRegistry
	executor  *Executor
	cache     *cache.Tiered
	results   *WorkflowCache
	events    EventSink
	log       zerolog.Logger
}

// NewOrchestrator creates an orchestrator with the canonical workflow
// catalog and an empty engine registry.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	engines := NewRegistry()
	workflows := NewWorkflowRegistry()

	var resultCache ResultCache
	if opts.Cache != nil {
		resultCache = &tieredAdapter{cache: opts.Cache, log: log}
	}
	var results *WorkflowCache
	if !opts.DisableWorkflowCache {
		results = NewWorkflowCache()
	}

	executor := NewExecutor(ExecutorOptions{
		Engines:       engines,
		Workflows:     workflows,
		Cache:         resultCache,
		Results:       results,
		EngineTimeout: opts.EngineTimeout,
		Logger:        &log,
		Observer:      opts.Observer,
		Events:        opts.Events,
	})

	return &Orchestrator{
		engines:   engines,
		workflows: workflows,
		executor:  executor,
		cache:     opts.Cache,
		results:   results,
		events:    opts.Events,
		log:       log,
	}
}

// RegisterEngine adds an engine to the registry, replacing any engine
// with the same id.
func (o *Orchestrator) RegisterEngine(e Engine) {
	o.engines.Register(e)
	o.log.Info().Str("engine_id", e.ID()).Str("name", e.Name()).Msg("engine registered")
}

// Engines returns the engine registry.
func (o *Orchestrator) Engines() *Registry { return o.engines }

// Workflows returns the workflow registry.
func (o *Orchestrator) Workflows() *WorkflowRegistry { return o.workflows }

// ExecuteWorkflow runs the named workflow at the caller's phase.
func (o *Orchestrator) ExecuteWorkflow(ctx context.Context, workflowID string, input Input, callerPhase int) (*WorkflowOutput, error) {
	return o.executor.Execute(ctx, workflowID, input, callerPhase)
}

// CalculateSingle invokes one engine directly, outside any workflow.
// Unlike workflow fan-out, an unknown engine id is an error here.
func (o *Orchestrator) CalculateSingle(ctx context.Context, engineID string, input Input, callerPhase int) (*Output, error) {
	eng, ok := o.engines.Get(engineID)
	if !ok {
		return nil, NewEngineNotFoundError(engineID)
	}
	if eng.RequiredPhase() > callerPhase {
		return nil, &Error{
			Class:   ErrorClassPermanent,
			Code:    ErrCodePhaseAccessDenied,
			Message: "engine not accessible at caller phase",
			Engine:  engineID,
		}
	}
	return o.executor.invokeEngine(ctx, eng, input)
}

// InvalidateWorkflow drops memoized results for one workflow and
// reports how many entries were removed.
func (o *Orchestrator) InvalidateWorkflow(workflowID string) int {
	if o.results == nil {
		return 0
	}
	removed := o.results.Invalidate(workflowID)
	if removed > 0 {
		o.log.Info().Str("workflow_id", workflowID).Int("entries", removed).Msg("workflow cache invalidated")
		if o.events != nil {
			if err := o.events.PublishCacheInvalidated(workflowID, removed); err != nil {
				o.log.Debug().Err(err).Msg("cache invalidation event not published")
			}
		}
	}
	return removed
}

// Cache returns the tiered result cache, or nil when caching is off.
func (o *Orchestrator) Cache() *cache.Tiered { return o.cache }

// CacheStats returns aggregate cache counters. Zero stats when caching
// is off.
func (o *Orchestrator) CacheStats() cache.Stats {
	if o.cache == nil {
		return cache.Stats{}
	}
	return o.cache.Stats()
}

// WorkflowCacheStats returns the workflow memo counters. Zero stats
// when the workflow cache is off.
func (o *Orchestrator) WorkflowCacheStats() WorkflowCacheStats {
	if o.results == nil {
		return WorkflowCacheStats{}
	}
	return o.results.Stats()
}

// tieredAdapter narrows the tiered cache to the executor's ResultCache
// surface: raw string keys, failures absorbed.
type tieredAdapter struct {
	cache *cache.Tiered
	log   zerolog.Logger
}

func (a *tieredAdapter) Get(ctx context.Context, rawKey string) ([]byte, bool) {
	payload, ok := a.cache.Get(ctx, cache.NewKey(rawKey))
	return payload, ok
}

func (a *tieredAdapter) Store(ctx context.Context, rawKey string, payload []byte) {
	if err := a.cache.Store(ctx, cache.NewKey(rawKey), json.RawMessage(payload)); err != nil {
		a.log.Warn().Err(err).Msg("result cache store failed")
	}
}
