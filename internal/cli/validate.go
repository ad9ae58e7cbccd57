package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ttverify/internal/engine"
	"github.com/roach88/ttverify/internal/model"
	"github.com/roach88/ttverify/internal/schedule"
	"github.com/roach88/ttverify/internal/timing"
	"github.com/roach88/ttverify/internal/workload"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                    `json:"valid"`
	Flows       int                     `json:"flows,omitempty"`
	Hyperperiod int                     `json:"hyperperiod,omitempty"`
	Errors      []model.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <workload> [schedule]",
		Short: "Validate a workload without running the analysis",
		Long: `Check a workload against the analysis preconditions: non-empty paths,
positive periods, deadlines within the period, one attempt count per hop.

With a schedule, also check that every path node has a schedule column.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			schedulePath := ""
			if len(args) == 2 {
				schedulePath = args[1]
			}
			return runValidate(rootOpts, args[0], schedulePath, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, workloadPath, schedulePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	w, errs, err := workload.LoadValidated(workloadPath)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded workload %s with %d flow(s)", w.Name, len(w.Flows))

	if schedulePath != "" {
		sched, err := schedule.LoadCSV(schedulePath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load schedule", err)
		}
		formatter.VerboseLog("Loaded schedule with %d slot(s) and %d unit(s)", sched.Rows(), sched.Columns())
		errs = engine.Check(engine.Input{Workload: w, Schedule: sched})
	}

	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	oracle, err := timing.New(w)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compute hyperperiod", err)
	}
	return outputValidateSuccess(formatter, ValidationResult{
		Valid:       true,
		Flows:       len(w.Flows),
		Hyperperiod: oracle.Hyperperiod(),
	})
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Workload valid (%d flows, hyperperiod %d)\n", result.Flows, result.Hyperperiod)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []model.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Flow != "" {
			fmt.Fprintf(formatter.Writer, "flow %s\n", err.Flow)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
