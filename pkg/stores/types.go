package stores

import (
	"context"
	"database/sql"
	"time"
)

// ExecutionStatus represents the outcome of a workflow execution.
type ExecutionStatus string

const (
	ExecutionStatusSucceeded ExecutionStatus = "succeeded"
	ExecutionStatusPartial   ExecutionStatus = "partial"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// EngineResultStatus represents the outcome of a single engine calculation
// within an execution.
type EngineResultStatus string

const (
	EngineResultStatusSucceeded EngineResultStatus = "succeeded"
	EngineResultStatusFailed    EngineResultStatus = "failed"
	EngineResultStatusSkipped   EngineResultStatus = "skipped"
)

// Execution represents a recorded workflow execution.
type Execution struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflow_id"`
	Fingerprint string          `json:"fingerprint"`
	Phase       int             `json:"phase"`
	Status      ExecutionStatus `json:"status"`
	Summary     string          `json:"summary"`
	Output      string          `json:"output"` // JSON blob of the full workflow output
	DurationMS  int64           `json:"duration_ms"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       *string         `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// EngineResult represents a single engine's outcome within an execution.
type EngineResult struct {
	ID          int64              `json:"id"`
	ExecutionID string             `json:"execution_id"`
	EngineID    string             `json:"engine_id"`
	Status      EngineResultStatus `json:"status"`
	Cached      bool               `json:"cached"`
	DurationMS  int64              `json:"duration_ms"`
	Error       *string            `json:"error,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Store defines the interface for the execution history persistence layer.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Transaction support
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(tx *sql.Tx) error
	RollbackTx(tx *sql.Tx) error

	// Execution operations
	CreateExecution(ctx context.Context, exec *Execution) error
	GetExecution(ctx context.Context, id string) (*Execution, error)
	ListExecutions(ctx context.Context, workflowID *string, limit, offset int) ([]*Execution, error)
	DeleteExecution(ctx context.Context, id string) error
	PruneExecutionsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// EngineResult operations
	AppendEngineResult(ctx context.Context, result *EngineResult) error
	ListEngineResultsByExecution(ctx context.Context, executionID string) ([]*EngineResult, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
