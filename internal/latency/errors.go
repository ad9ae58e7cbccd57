package latency

import (
	"errors"
	"fmt"
)

// ModelError reports a workload that violates an analysis precondition.
// Analysis never starts on such a workload: instance windows would overlap
// or be undefined.
type ModelError struct {
	// Code identifies the violated precondition.
	Code ModelErrorCode

	// Message is a human-readable description.
	Message string

	// Flow identifies the offending flow, if any.
	Flow string
}

// ModelErrorCode categorizes model errors.
type ModelErrorCode string

const (
	ErrCodeNoFlows          ModelErrorCode = "NO_FLOWS"
	ErrCodePathTooShort     ModelErrorCode = "PATH_TOO_SHORT"
	ErrCodeInvalidPeriod    ModelErrorCode = "INVALID_PERIOD"
	ErrCodeInvalidDeadline  ModelErrorCode = "INVALID_DEADLINE"
	ErrCodeAttemptsMismatch ModelErrorCode = "ATTEMPTS_MISMATCH"
	ErrCodeMissingColumn    ModelErrorCode = "MISSING_COLUMN"
	ErrCodeDuplicateFlow    ModelErrorCode = "DUPLICATE_FLOW"
	ErrCodeInvalidPhase     ModelErrorCode = "INVALID_PHASE"
)

// Error implements the error interface.
func (e *ModelError) Error() string {
	if e.Flow != "" {
		return fmt.Sprintf("%s: %s (flow=%s)", e.Code, e.Message, e.Flow)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsModelError returns true if err is, or wraps, a ModelError.
func IsModelError(err error) bool {
	var me *ModelError
	return errors.As(err, &me)
}

func newModelError(code ModelErrorCode, flow, format string, args ...any) *ModelError {
	return &ModelError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Flow:    flow,
	}
}
