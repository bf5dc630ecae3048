package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/prism-engine/prism/pkg/ratelimit"
)

// DefaultEngineTimeout is the per-engine calculation budget applied when
// no timeout is configured. A timed-out engine is treated like a failed
// one: absent from the result map, recorded in Failures.
const DefaultEngineTimeout = 30 * time.Second

// ExecObserver receives execution measurements. telemetry.Metrics
// satisfies it; a nil observer disables observation.
type ExecObserver interface {
	// WorkflowExecuted records one completed workflow execution.
	WorkflowExecuted(workflowID string, succeeded, failed, skipped int, d time.Duration)

	// EngineCalculated records one engine invocation.
	EngineCalculated(engineID string, cached, failed bool, d time.Duration)
}

// EventSink receives domain events raised during execution.
// telemetry.EventPublisher satisfies it; a nil sink disables publishing.
type EventSink interface {
	PublishEngineFailed(executionID, workflowID, engineID, reason string) error
	PublishEngineSkipped(executionID, workflowID, engineID, reason string) error
	PublishBudgetExhausted(engineID string, used int64) error
	PublishCacheInvalidated(workflowID string, entries int) error
}

// budgeted is implemented by engines that expose a daily request
// budget, such as Metered.
type budgeted interface {
	Budget() ratelimit.Status
}

// ExecutorOptions configures a workflow executor.
type ExecutorOptions struct {
	// Engines is the engine registry. Required.
	Engines *Registry

	// Workflows is the workflow registry. Defaults to the canonical
	// catalog.
	Workflows *WorkflowRegistry

	// Cache memoizes per-engine outputs. Optional.
	Cache ResultCache

	// Results memoizes whole workflow outputs. Optional.
	Results *WorkflowCache

	// EngineTimeout bounds each engine calculation. Zero selects
	// DefaultEngineTimeout; negative disables the timeout.
	EngineTimeout time.Duration

	// Logger is the structured logger. Defaults to a no-op logger.
	Logger *zerolog.Logger

	// Observer receives execution measurements. Optional.
	Observer ExecObserver

	// Events receives domain events (engine skipped/failed, budget
	// exhausted). Optional.
	Events EventSink
}

// Executor resolves a workflow to its engines, invokes them concurrently,
// tolerates missing or failing engines, and assembles the combined
// output.
type Executor struct {
	engines   *Registry
	workflows *WorkflowRegistry
	cache     ResultCache
	results   *WorkflowCache
	timeout   time.Duration
	log       zerolog.Logger
	obs       ExecObserver
	events    EventSink
	tracer    trace.Tracer
}

// NewExecutor creates a workflow executor.
func NewExecutor(opts ExecutorOptions) *Executor {
	if opts.Engines == nil {
		opts.Engines = NewRegistry()
	}
	if opts.Workflows == nil {
		opts.Workflows = NewWorkflowRegistry()
	}
	timeout := opts.EngineTimeout
	switch {
	case timeout == 0:
		timeout = DefaultEngineTimeout
	case timeout < 0:
		timeout = 0
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &Executor{
		engines:   opts.Engines,
		workflows: opts.Workflows,
		cache:     opts.Cache,
		results:   opts.Results,
		timeout:   timeout,
		log:       log,
		obs:       opts.Observer,
		events:    opts.Events,
		tracer:    otel.Tracer("prism/engine"),
	}
}

// Execute runs the named workflow for the given input and caller phase.
//
// The only hard failures are WorkflowNotFound and PhaseAccessDenied, both
// raised before any engine runs. Per-engine failures degrade the result
// map and are recorded in WorkflowOutput.Failures; ids that are not
// registered or not accessible at the caller's phase are recorded in
// WorkflowOutput.Skipped.
func (e *Executor) Execute(ctx context.Context, workflowID string, input Input, callerPhase int) (*WorkflowOutput, error) {
	def, ok := e.workflows.Get(workflowID)
	if !ok {
		return nil, NewWorkflowNotFoundError(workflowID)
	}
	if callerPhase < def.RequiredPhase {
		return nil, NewPhaseAccessDeniedError(workflowID, def.RequiredPhase, callerPhase)
	}

	var fingerprint string
	if e.results != nil {
		// The caller phase is part of the memo key: phase-gated engines
		// mean a phase-3 output must never be served to a phase-0 caller.
		fingerprint = InputFingerprint(input)
		if out, ok := e.results.Get(workflowID, fingerprint, callerPhase); ok {
			e.log.Debug().Str("workflow_id", workflowID).Msg("workflow result served from cache")
			return out, nil
		}
	}

	executionID := uuid.New().String()
	ctx, span := e.tracer.Start(ctx, "workflow.execute",
		trace.WithAttributes(
			attribute.String("workflow.id", workflowID),
			attribute.String("execution.id", executionID),
			attribute.Int("workflow.engine_count", len(def.EngineIDs)),
			attribute.Int("caller.phase", callerPhase),
		))
	defer span.End()

	start := time.Now()
	e.log.Info().
		Str("workflow_id", workflowID).
		Str("execution_id", executionID).
		Int("engine_count", len(def.EngineIDs)).
		Msg("starting parallel workflow execution")

	results, failures, skipped := e.runEngines(ctx, executionID, def, mergeOptions(def, input), callerPhase)

	synthesis := Synthesize(def.Strategy, results)
	prompts := GenerateWitnessPrompts(def.Strategy, synthesis, callerPhase)

	out := &WorkflowOutput{
		WorkflowID:     workflowID,
		EngineResults:  results,
		Failures:       failures,
		Skipped:        skipped,
		Synthesis:      synthesis,
		WitnessPrompts: prompts,
		Duration:       time.Since(start),
		Timestamp:      time.Now().UTC(),
	}

	if e.results != nil {
		e.results.Put(workflowID, fingerprint, callerPhase, out)
	}
	if e.obs != nil {
		e.obs.WorkflowExecuted(workflowID, len(results), len(failures), len(skipped), out.Duration)
	}

	e.log.Info().
		Str("workflow_id", workflowID).
		Int("engines_completed", len(results)).
		Int("engines_failed", len(failures)).
		Dur("duration", out.Duration).
		Msg("workflow execution complete")

	return out, nil
}

// runEngines fans one goroutine out per resolved engine and joins them
// all before returning. Total wall time is governed by the slowest
// engine, not the sum.
func (e *Executor) runEngines(ctx context.Context, executionID string, def WorkflowDefinition, input Input, callerPhase int) (map[string]*Output, map[string]string, []string) {
	var skipped []string
	resolved := make([]Engine, 0, len(def.EngineIDs))
	byID := make(map[string]Engine, len(def.EngineIDs))
	for _, id := range def.EngineIDs {
		eng, ok := e.engines.Get(id)
		if !ok {
			e.log.Warn().Str("engine_id", id).Msg("engine not registered, skipping")
			skipped = append(skipped, id)
			e.publishSkipped(executionID, def.ID, id, "engine not registered")
			continue
		}
		if eng.RequiredPhase() > callerPhase {
			e.log.Warn().
				Str("engine_id", id).
				Int("required_phase", eng.RequiredPhase()).
				Int("caller_phase", callerPhase).
				Msg("engine not accessible at caller phase, skipping")
			skipped = append(skipped, id)
			e.publishSkipped(executionID, def.ID, id, "engine not accessible at caller phase")
			continue
		}
		resolved = append(resolved, eng)
		byID[eng.ID()] = eng
	}

	type engineResult struct {
		id  string
		out *Output
		err error
	}
	resCh := make(chan engineResult, len(resolved))

	var wg sync.WaitGroup
	for _, eng := range resolved {
		wg.Add(1)
		go func(eng Engine) {
			defer wg.Done()
			out, err := e.invokeEngine(ctx, eng, input)
			resCh <- engineResult{id: eng.ID(), out: out, err: err}
		}(eng)
	}
	wg.Wait()
	close(resCh)

	results := make(map[string]*Output, len(resolved))
	failures := make(map[string]string)
	for r := range resCh {
		if r.err != nil {
			e.log.Warn().Str("engine_id", r.id).Err(r.err).Msg("engine failed")
			failures[r.id] = r.err.Error()
			e.publishFailed(executionID, def.ID, r.id, r.err, byID[r.id])
			continue
		}
		results[r.id] = r.out
	}
	return results, failures, skipped
}

// publishSkipped forwards a skipped-engine event when a sink is wired.
func (e *Executor) publishSkipped(executionID, workflowID, engineID, reason string) {
	if e.events == nil {
		return
	}
	if err := e.events.PublishEngineSkipped(executionID, workflowID, engineID, reason); err != nil {
		e.log.Debug().Err(err).Str("engine_id", engineID).Msg("skipped event not published")
	}
}

// publishFailed forwards a failed-engine event, plus a budget-exhausted
// event when the failure was a refused daily budget.
func (e *Executor) publishFailed(executionID, workflowID, engineID string, cause error, eng Engine) {
	if e.events == nil {
		return
	}
	if err := e.events.PublishEngineFailed(executionID, workflowID, engineID, cause.Error()); err != nil {
		e.log.Debug().Err(err).Str("engine_id", engineID).Msg("failed event not published")
	}

	var classified *Error
	if !errors.As(cause, &classified) || classified.Code != ErrCodeRateLimited {
		return
	}
	var used int64
	if b, ok := eng.(budgeted); ok {
		used = int64(b.Budget().UsedToday)
	}
	if err := e.events.PublishBudgetExhausted(engineID, used); err != nil {
		e.log.Debug().Err(err).Str("engine_id", engineID).Msg("budget event not published")
	}
}

// invokeEngine runs one engine calculation, consulting the result cache
// before computing and populating it after a successful computation.
func (e *Executor) invokeEngine(ctx context.Context, eng Engine, input Input) (*Output, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.calculate",
		trace.WithAttributes(attribute.String("engine.id", eng.ID())))
	defer span.End()

	rawKey := eng.CacheKey(input)
	if e.cache != nil && rawKey != "" {
		if payload, ok := e.cache.Get(ctx, rawKey); ok {
			var out Output
			if err := json.Unmarshal(payload, &out); err == nil {
				out.Metadata.Cached = true
				span.SetAttributes(attribute.Bool("engine.cached", true))
				if e.obs != nil {
					e.obs.EngineCalculated(eng.ID(), true, false, time.Since(start))
				}
				return &out, nil
			}
			// Undecodable payload: recompute and overwrite below.
			e.log.Warn().Str("engine_id", eng.ID()).Msg("discarding undecodable cached output")
		}
	}

	calcCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		calcCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	out, err := eng.Calculate(calcCtx, input)
	elapsed := time.Since(start)
	if e.obs != nil {
		e.obs.EngineCalculated(eng.ID(), false, err != nil, elapsed)
	}
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewTimeoutError(eng.ID(), err)
		}
		var classified *Error
		if errors.As(err, &classified) {
			return nil, classified
		}
		return nil, NewCalculationError(eng.ID(), err)
	}
	if out == nil {
		return nil, NewCalculationError(eng.ID(), errors.New("engine returned no output"))
	}

	if e.cache != nil && rawKey != "" {
		if payload, err := json.Marshal(out); err == nil {
			e.cache.Store(ctx, rawKey, payload)
		}
	}
	return out, nil
}

// mergeOptions merges a definition's default options under the caller's
// input options. Caller options win.
func mergeOptions(def WorkflowDefinition, input Input) Input {
	if len(def.DefaultOptions) == 0 {
		return input
	}
	merged := make(map[string]interface{}, len(def.DefaultOptions)+len(input.Options))
	for k, v := range def.DefaultOptions {
		merged[k] = v
	}
	for k, v := range input.Options {
		merged[k] = v
	}
	input.Options = merged
	return input
}
