package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for Prism.
type Metrics struct {
	config MetricsConfig

	// Workflow metrics
	workflowsStarted   *prometheus.CounterVec
	workflowsCompleted *prometheus.CounterVec
	workflowDuration   *prometheus.HistogramVec
	engineResults      *prometheus.CounterVec

	// Engine metrics
	engineCalculations *prometheus.CounterVec
	engineDuration     *prometheus.HistogramVec

	// Cache metrics
	cacheRequests *prometheus.CounterVec

	// Error metrics
	errorsByClass *prometheus.CounterVec
	errorsByCode  *prometheus.CounterVec

	// Budget metrics
	budgetUsed *prometheus.GaugeVec

	// System metrics
	activeWorkflows prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	// Create a new registry
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		// Workflow metrics
		workflowsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflows_started_total",
				Help:      "Total number of workflow executions started",
			},
			[]string{"workflow"},
		),
		workflowsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflows_completed_total",
				Help:      "Total number of workflow executions completed",
			},
			[]string{"workflow", "status"},
		),
		workflowDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "workflow_duration_seconds",
				Help:      "Duration of workflow execution in seconds",
				Buckets:   buckets,
			},
			[]string{"workflow"},
		),
		engineResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_engine_results_total",
				Help:      "Per-engine outcomes within workflow executions",
			},
			[]string{"workflow", "outcome"},
		),

		// Engine metrics
		engineCalculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "engine_calculations_total",
				Help:      "Total number of engine calculations",
			},
			[]string{"engine", "status"},
		),
		engineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "engine_calculation_duration_seconds",
				Help:      "Duration of engine calculations in seconds",
				Buckets:   buckets,
			},
			[]string{"engine"},
		),

		// Cache metrics
		cacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Total number of cache lookups by tier and result",
			},
			[]string{"tier", "result"},
		),

		// Error metrics
		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),
		errorsByCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_code_total",
				Help:      "Total number of errors by error code",
			},
			[]string{"code"},
		),

		// Budget metrics
		budgetUsed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "budget_used",
				Help:      "Daily request budget consumed per engine",
			},
			[]string{"engine"},
		),

		// System metrics
		activeWorkflows: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_workflows",
				Help:      "Current number of in-flight workflow executions",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.workflowsStarted,
		m.workflowsCompleted,
		m.workflowDuration,
		m.engineResults,
		m.engineCalculations,
		m.engineDuration,
		m.cacheRequests,
		m.errorsByClass,
		m.errorsByCode,
		m.budgetUsed,
		m.activeWorkflows,
	)

	return m, nil
}

// Workflow Metrics

// RecordWorkflowStarted increments the counter for started workflow executions.
func (m *Metrics) RecordWorkflowStarted(workflowID string) {
	if m.workflowsStarted == nil {
		return
	}
	m.workflowsStarted.WithLabelValues(workflowID).Inc()
	m.activeWorkflows.Inc()
}

// RecordWorkflowCompleted records a completed workflow execution with its
// status and duration.
func (m *Metrics) RecordWorkflowCompleted(workflowID, status string, duration time.Duration) {
	if m.workflowsCompleted == nil {
		return
	}
	m.workflowsCompleted.WithLabelValues(workflowID, status).Inc()
	m.workflowDuration.WithLabelValues(workflowID).Observe(duration.Seconds())
	m.activeWorkflows.Dec()
}

// WorkflowExecuted records a finished workflow execution with per-engine
// outcome counts. It satisfies the executor's observer contract.
func (m *Metrics) WorkflowExecuted(workflowID string, succeeded, failed, skipped int, d time.Duration) {
	if m.workflowsCompleted == nil {
		return
	}
	status := "succeeded"
	switch {
	case succeeded == 0 && failed > 0:
		status = "failed"
	case failed > 0:
		status = "partial"
	}
	m.workflowsCompleted.WithLabelValues(workflowID, status).Inc()
	m.workflowDuration.WithLabelValues(workflowID).Observe(d.Seconds())
	m.engineResults.WithLabelValues(workflowID, "succeeded").Add(float64(succeeded))
	m.engineResults.WithLabelValues(workflowID, "failed").Add(float64(failed))
	m.engineResults.WithLabelValues(workflowID, "skipped").Add(float64(skipped))
}

// Engine Metrics

// EngineCalculated records a single engine calculation. It satisfies the
// executor's observer contract.
func (m *Metrics) EngineCalculated(engineID string, cached, failed bool, d time.Duration) {
	if m.engineCalculations == nil {
		return
	}
	status := "success"
	switch {
	case failed:
		status = "failure"
	case cached:
		status = "cached"
	}
	m.engineCalculations.WithLabelValues(engineID, status).Inc()
	if !cached {
		m.engineDuration.WithLabelValues(engineID).Observe(d.Seconds())
	}
}

// Cache Metrics

// RecordCacheRequest records a cache lookup outcome for a given tier
// (l1, l2, l3) and result (hit, miss).
func (m *Metrics) RecordCacheRequest(tier, result string) {
	if m.cacheRequests == nil {
		return
	}
	m.cacheRequests.WithLabelValues(tier, result).Inc()
}

// Error Metrics

// RecordError records an error by class and optionally by code.
func (m *Metrics) RecordError(errorClass, errorCode string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass).Inc()
	if errorCode != "" && m.errorsByCode != nil {
		m.errorsByCode.WithLabelValues(errorCode).Inc()
	}
}

// Budget Metrics

// SetBudgetUsed sets the consumed daily budget for an engine.
func (m *Metrics) SetBudgetUsed(engineID string, used float64) {
	if m.budgetUsed == nil {
		return
	}
	m.budgetUsed.WithLabelValues(engineID).Set(used)
}

// System Metrics

// SetActiveWorkflows sets the current number of in-flight executions.
func (m *Metrics) SetActiveWorkflows(count float64) {
	if m.activeWorkflows == nil {
		return
	}
	m.activeWorkflows.Set(count)
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration is a helper to time an operation and record it.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Duration().Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Log error but don't fail the application
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
