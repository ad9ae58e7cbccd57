package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/ttverify/internal/model"
)

// ValidationFailed is returned when the workload or its mapping onto the
// schedule violates an analysis precondition.
type ValidationFailed struct {
	Errors []model.ValidationError
}

// Error implements the error interface.
func (e *ValidationFailed) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("workload invalid: %s", e.Errors[0].Error())
	}
	return fmt.Sprintf("workload invalid: %d errors, first: %s", len(e.Errors), e.Errors[0].Error())
}

// IsValidationFailed returns true if err is, or wraps, a ValidationFailed.
func IsValidationFailed(err error) bool {
	var vf *ValidationFailed
	return errors.As(err, &vf)
}
