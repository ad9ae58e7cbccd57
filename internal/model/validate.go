package model

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// Validation error codes (E200-E299)
const (
	ErrNoFlows         = "E200" // workload has no flows
	ErrFlowNameEmpty   = "E201" // flow name is required
	ErrDuplicateFlow   = "E202" // duplicate flow name
	ErrPathTooShort    = "E203" // path needs a source and a sink
	ErrInvalidPeriod   = "E204" // period must be positive
	ErrInvalidDeadline = "E205" // deadline must be in (0, period]
	ErrInvalidPhase    = "E206" // phase must be in [0, period)
	ErrAttemptsLength  = "E207" // one attempt count per hop
	ErrInvalidAttempts = "E208" // attempt counts must be positive
	ErrRepeatedNode    = "E209" // path visits a node twice
	ErrMissingColumn   = "E210" // path node has no schedule column
	ErrInvalidName     = "E211" // name contains an instruction delimiter
)

// ValidationError represents a workload validation error.
type ValidationError struct {
	Flow    string `json:"flow,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Flow != "" {
		return fmt.Sprintf("[%s] flow %s: %s: %s", e.Code, e.Flow, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a workload against the analysis preconditions.
// Returns all errors found (does not fail-fast).
func Validate(w *Workload) []ValidationError {
	var errs []ValidationError

	if len(w.Flows) == 0 {
		return []ValidationError{{
			Field:   "flows",
			Message: "at least one flow is required",
			Code:    ErrNoFlows,
		}}
	}

	seen := make(map[string]bool)
	for i, f := range w.Flows {
		if strings.TrimSpace(f.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("flows[%d].name", i),
				Message: "flow name is required",
				Code:    ErrFlowNameEmpty,
			})
		} else if seen[f.Name] {
			errs = append(errs, ValidationError{
				Flow:    f.Name,
				Field:   fmt.Sprintf("flows[%d].name", i),
				Message: fmt.Sprintf("duplicate flow name: %q", f.Name),
				Code:    ErrDuplicateFlow,
			})
		}
		seen[f.Name] = true

		errs = append(errs, validateFlow(f)...)
	}

	return errs
}

func validateFlow(f Flow) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Flow:    f.Name,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	if !decodableFlowName(f.Name) {
		add("name", ErrInvalidName, "flow name %q contains whitespace or one of %q", f.Name, flowNameDelims)
	}
	for i, n := range f.Path {
		if !decodableUnitName(n) {
			add(fmt.Sprintf("path[%d]", i), ErrInvalidName,
				"unit name %q is empty or contains whitespace, \"->\" or one of %q", n, unitNameDelims)
		}
	}

	if len(f.Path) < 2 {
		add("path", ErrPathTooShort, "path must name at least a source and a sink, got %d node(s)", len(f.Path))
	}
	nodes := make(map[string]bool)
	for _, n := range f.Path {
		if nodes[n] {
			add("path", ErrRepeatedNode, "node %q appears more than once", n)
		}
		nodes[n] = true
	}

	if f.Period <= 0 {
		add("period", ErrInvalidPeriod, "period must be positive, got %d", f.Period)
	} else {
		if f.Deadline <= 0 || f.Deadline > f.Period {
			add("deadline", ErrInvalidDeadline, "deadline %d must be in (0, %d]", f.Deadline, f.Period)
		}
		if f.Phase < 0 || f.Phase >= f.Period {
			add("phase", ErrInvalidPhase, "phase %d must be in [0, %d)", f.Phase, f.Period)
		}
	}

	if hops := len(f.Path) - 1; hops >= 1 && len(f.Attempts) != hops {
		add("attempts", ErrAttemptsLength, "expected %d attempt count(s), one per hop, got %d", hops, len(f.Attempts))
	}
	for i, a := range f.Attempts {
		if a < 1 {
			add(fmt.Sprintf("attempts[%d]", i), ErrInvalidAttempts, "attempt count must be at least 1, got %d", a)
		}
	}

	return errs
}

// Characters that delimit fields of a push/pull instruction. A name that
// contains one can never be matched back out of a schedule cell.
const (
	flowNameDelims = ":(),;"
	unitNameDelims = "(),;"
)

func decodableFlowName(name string) bool {
	return !strings.ContainsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(flowNameDelims, r)
	})
}

func decodableUnitName(name string) bool {
	if name == "" || strings.Contains(name, "->") {
		return false
	}
	return !strings.ContainsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(unitNameDelims, r)
	})
}

// ValidateColumns checks that every path node maps to a schedule column.
func ValidateColumns(w *Workload, hasColumn func(unit string) bool) []ValidationError {
	var errs []ValidationError
	for _, f := range w.Flows {
		for i, n := range f.Path {
			if !hasColumn(n) {
				errs = append(errs, ValidationError{
					Flow:    f.Name,
					Field:   fmt.Sprintf("path[%d]", i),
					Message: fmt.Sprintf("unit %q has no column in the schedule", n),
					Code:    ErrMissingColumn,
				})
			}
		}
	}
	return errs
}

// Ordered returns the flows in analysis order: ascending priority, with
// declaration order breaking ties.
func (w *Workload) Ordered() []Flow {
	flows := slices.Clone(w.Flows)
	slices.SortStableFunc(flows, func(a, b Flow) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
	return flows
}
