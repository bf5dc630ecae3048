package engine

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of an error for containment and
// retry decisions.
type ErrorClass string

const (
	// ErrorClassTransient indicates a temporary failure that may succeed on
	// retry. Examples: engine timeouts, distributed-cache unavailability.
	ErrorClassTransient ErrorClass = "transient"

	// ErrorClassThrottled indicates rate limiting or daily quota exhaustion.
	ErrorClassThrottled ErrorClass = "throttled"

	// ErrorClassPermanent indicates a non-recoverable error.
	// Examples: unknown workflow, access denied, invalid engine output.
	ErrorClassPermanent ErrorClass = "permanent"
)

// Error represents a classified engine or workflow error with context.
type Error struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Engine is the engine id involved, if applicable.
	Engine string `json:"engine,omitempty"`

	// Workflow is the workflow id involved, if applicable.
	Workflow string `json:"workflow,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Workflow != "" {
		msg += fmt.Sprintf(" (workflow=%s)", e.Workflow)
	}
	if e.Engine != "" {
		msg += fmt.Sprintf(" (engine=%s)", e.Engine)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// Common error codes.
const (
	ErrCodeWorkflowNotFound  = "WORKFLOW_NOT_FOUND"
	ErrCodeEngineNotFound    = "ENGINE_NOT_FOUND"
	ErrCodePhaseAccessDenied = "PHASE_ACCESS_DENIED"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeCache             = "CACHE_ERROR"
	ErrCodeCalculation       = "CALCULATION_ERROR"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeRateLimited       = "RATE_LIMITED"
)

// NewWorkflowNotFoundError reports that no workflow with the given id is
// registered. It aborts the whole execute call.
func NewWorkflowNotFoundError(workflowID string) *Error {
	return &Error{
		Class:    ErrorClassPermanent,
		Code:     ErrCodeWorkflowNotFound,
		Message:  "workflow not found",
		Workflow: workflowID,
	}
}

// NewEngineNotFoundError reports that no engine with the given id is
// registered. Returned only for direct engine queries; workflow fan-out
// silently skips unregistered ids.
func NewEngineNotFoundError(engineID string) *Error {
	return &Error{
		Class:   ErrorClassPermanent,
		Code:    ErrCodeEngineNotFound,
		Message: "engine not found",
		Engine:  engineID,
	}
}

// NewPhaseAccessDeniedError reports that the caller's phase is below the
// workflow's required phase.
func NewPhaseAccessDeniedError(workflowID string, required, current int) *Error {
	return &Error{
		Class:    ErrorClassPermanent,
		Code:     ErrCodePhaseAccessDenied,
		Message:  fmt.Sprintf("requires phase %d, caller is at phase %d", required, current),
		Workflow: workflowID,
	}
}

// NewValidationError reports that an engine's self-validation rejected an
// output.
func NewValidationError(engineID, message string) *Error {
	return &Error{
		Class:   ErrorClassPermanent,
		Code:    ErrCodeValidation,
		Message: message,
		Engine:  engineID,
	}
}

// NewCalculationError wraps a failed engine calculation.
func NewCalculationError(engineID string, err error) *Error {
	return &Error{
		Class:   ErrorClassPermanent,
		Code:    ErrCodeCalculation,
		Message: "calculation failed",
		Engine:  engineID,
		Err:     err,
	}
}

// NewTimeoutError reports that an engine calculation exceeded its budget.
func NewTimeoutError(engineID string, err error) *Error {
	return &Error{
		Class:   ErrorClassTransient,
		Code:    ErrCodeTimeout,
		Message: "calculation timed out",
		Engine:  engineID,
		Err:     err,
	}
}

// NewRateLimitedError reports that an engine's request budget is exhausted.
func NewRateLimitedError(engineID string) *Error {
	return &Error{
		Class:   ErrorClassThrottled,
		Code:    ErrCodeRateLimited,
		Message: "daily request budget exhausted",
		Engine:  engineID,
	}
}

// IsWorkflowNotFound returns true if err reports an unknown workflow id.
func IsWorkflowNotFound(err error) bool {
	return hasCode(err, ErrCodeWorkflowNotFound)
}

// IsEngineNotFound returns true if err reports an unknown engine id.
func IsEngineNotFound(err error) bool {
	return hasCode(err, ErrCodeEngineNotFound)
}

// IsPhaseAccessDenied returns true if err reports a phase gate rejection.
func IsPhaseAccessDenied(err error) bool {
	return hasCode(err, ErrCodePhaseAccessDenied)
}

// IsRateLimited returns true if err reports budget exhaustion.
func IsRateLimited(err error) bool {
	return hasCode(err, ErrCodeRateLimited)
}

func hasCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
