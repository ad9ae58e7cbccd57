package workload

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error code constants shared with the CLI's exit reporting.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeNotFound     = "E002" // Path not found
	ErrCodeUnsupported  = "E003" // Unknown file extension
	ErrCodeParseFailed  = "E004" // YAML/TOML/CUE syntax error
	ErrCodeBuildFailed  = "E005" // CUE evaluation failed
	ErrCodeMissingField = "E006" // Required flow field absent
	ErrCodeInvalidType  = "E007" // Field has the wrong type (e.g. float)
	ErrCodeUnknownField = "E008" // Field not part of the workload schema
)

// LoadError represents an error that occurred while loading a workload.
type LoadError struct {
	Code    string
	Message string
	Path    string    // file being loaded, if known
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// fromCUEError extracts position info from CUE errors.
func fromCUEError(code string, err error) *LoadError {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}

	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
