package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prism-engine/prism/pkg/engine"
)

// Recorder persists workflow executions and their per-engine outcomes.
type Recorder struct {
	store Store
}

// NewRecorder creates a recorder backed by the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// RecordWorkflow persists one workflow execution and returns its id.
func (r *Recorder) RecordWorkflow(ctx context.Context, out *engine.WorkflowOutput, fingerprint string, phase int) (string, error) {
	payload, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encoding workflow output: %w", err)
	}

	completedAt := out.Timestamp
	exec := &Execution{
		ID:          uuid.New().String(),
		WorkflowID:  out.WorkflowID,
		Fingerprint: fingerprint,
		Phase:       phase,
		Status:      executionStatus(out),
		Summary:     out.Synthesis.Summary,
		Output:      string(payload),
		DurationMS:  out.Duration.Milliseconds(),
		StartedAt:   out.Timestamp.Add(-out.Duration),
		CompletedAt: &completedAt,
		CreatedAt:   time.Now().UTC(),
	}

	if err := r.store.CreateExecution(ctx, exec); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	for engineID, output := range out.EngineResults {
		result := &EngineResult{
			ExecutionID: exec.ID,
			EngineID:    engineID,
			Status:      EngineResultStatusSucceeded,
			Cached:      output.Metadata.Cached,
			DurationMS:  output.Metadata.Duration.Milliseconds(),
			CreatedAt:   now,
		}
		if err := r.store.AppendEngineResult(ctx, result); err != nil {
			return exec.ID, err
		}
	}
	for engineID, reason := range out.Failures {
		msg := reason
		result := &EngineResult{
			ExecutionID: exec.ID,
			EngineID:    engineID,
			Status:      EngineResultStatusFailed,
			Error:       &msg,
			CreatedAt:   now,
		}
		if err := r.store.AppendEngineResult(ctx, result); err != nil {
			return exec.ID, err
		}
	}
	for _, engineID := range out.Skipped {
		result := &EngineResult{
			ExecutionID: exec.ID,
			EngineID:    engineID,
			Status:      EngineResultStatusSkipped,
			CreatedAt:   now,
		}
		if err := r.store.AppendEngineResult(ctx, result); err != nil {
			return exec.ID, err
		}
	}

	return exec.ID, nil
}

// executionStatus derives the stored status from engine outcomes.
func executionStatus(out *engine.WorkflowOutput) ExecutionStatus {
	switch {
	case len(out.EngineResults) == 0 && len(out.Failures) > 0:
		return ExecutionStatusFailed
	case len(out.Failures) > 0:
		return ExecutionStatusPartial
	default:
		return ExecutionStatusSucceeded
	}
}
