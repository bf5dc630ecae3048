// Package telemetry provides observability instrumentation for Prism.
//
// The telemetry package integrates structured logging (zerolog), distributed
// tracing (OpenTelemetry), metrics (Prometheus), and event publishing into a
// unified system for monitoring and debugging workflow executions.
//
// # Architecture
//
// The telemetry system is built on four pillars:
//
//  1. Structured Logging - Context-aware logging with zerolog
//  2. Distributed Tracing - OpenTelemetry traces with multiple exporters
//  3. Metrics Collection - Prometheus metrics for operational insights
//  4. Event Publishing - Async event system for audit and notifications
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceName = "prism"
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
//	// Start metrics server
//	if err := tel.StartMetricsServer(); err != nil {
//	    log.Fatal(err)
//	}
//
// Add telemetry to context:
//
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
// The logger provides component-specific logging with automatic context propagation:
//
//	logger := tel.Logger.NewComponentLogger("executor")
//	logger = logger.WithWorkflowID("daily-practice").WithEngineID("panchanga")
//	logger.Info("Starting engine calculation")
//	logger.WithError(err).Error("Calculation failed")
//
// Log levels: trace, debug, info, warn, error, fatal
//
// # Distributed Tracing
//
// Tracing provides visibility into workflow execution flow and performance:
//
//	ctx, span := tel.Tracer.StartWorkflowSpan(ctx, workflowID, executionID)
//	defer span.End()
//
//	// Add attributes
//	span.SetAttributes(
//	    telemetry.AttrEngineID.String("numerology"),
//	    telemetry.AttrEngineCached.Bool(true),
//	)
//
//	// Record errors
//	if err != nil {
//	    telemetry.RecordError(span, err)
//	}
//
// Supported exporters: OTLP (production), Stdout (development), None (testing)
//
// # Metrics
//
// Prometheus metrics track system behavior and performance. The Metrics type
// satisfies the executor's observer contract, so it can be wired directly into
// the orchestrator:
//
//	orch, err := engine.NewOrchestrator(engine.OrchestratorOptions{
//	    Observer: tel.Metrics,
//	})
//
// Key metrics exposed:
//
//   - prism_workflows_started_total{workflow}
//   - prism_workflows_completed_total{workflow,status}
//   - prism_workflow_duration_seconds{workflow}
//   - prism_workflow_engine_results_total{workflow,outcome}
//   - prism_engine_calculations_total{engine,status}
//   - prism_engine_calculation_duration_seconds{engine}
//   - prism_cache_requests_total{tier,result}
//   - prism_errors_by_class_total{class}
//   - prism_budget_used{engine}
//   - prism_active_workflows
//
// Metrics are exposed via HTTP at /metrics (default: :9090/metrics)
//
// # Event Publishing
//
// The event system provides async publishing with buffering and filtering:
//
//	// Publish events
//	tel.Events.PublishWorkflowStarted(executionID, workflowID)
//	tel.Events.PublishEngineFailed(executionID, workflowID, engineID, reason)
//	tel.Events.PublishBudgetExhausted("panchanga", 45)
//
//	// Subscribe to events
//	tel.Events.Subscribe(func(event telemetry.Event) {
//	    fmt.Printf("Event: %s - %s\n", event.Type, event.Message)
//	}, telemetry.FilterByLevel("warning"))
//
// Event filters: FilterByLevel, FilterByType, FilterByWorkflowID, FilterByEngineID
//
// # Context Helpers
//
// High-level helpers simplify common instrumentation patterns:
//
//	// Instrument an operation
//	ic := telemetry.StartOperation(ctx, "synthesis.extract_themes")
//	defer ic.End(err)
//
//	ic.Logger.Info("Extracting themes")
//
//	// Workflow context
//	ctx = telemetry.WithWorkflowContext(ctx, executionID, workflowID)
//	defer telemetry.EndWorkflowContext(ctx, executionID, workflowID, status, err)
//
// The EventPublisher satisfies the executor's event sink contract, so
// engine-level skip, failure, and budget events flow from the
// orchestrator when it is wired in:
//
//	orch := engine.NewOrchestrator(engine.OrchestratorOptions{
//	    Observer: tel.Metrics,
//	    Events:   tel.Events,
//	})
//
// # Configuration
//
// The package provides pre-configured setups for different environments:
//
//	// Development (verbose logging, stdout traces, full sampling)
//	cfg := telemetry.DevelopmentConfig()
//
//	// Production (JSON logs, OTLP traces, 10% sampling)
//	cfg := telemetry.ProductionConfig()
//
// # Graceful Shutdown
//
// Always shut down telemetry gracefully to flush pending data:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	if err := tel.Shutdown(ctx); err != nil {
//	    log.Printf("Telemetry shutdown error: %v", err)
//	}
//
// This ensures all buffered events are published and all pending traces are
// exported.
package telemetry
