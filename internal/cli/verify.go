package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/ttverify/internal/config"
	"github.com/roach88/ttverify/internal/engine"
	"github.com/roach88/ttverify/internal/latency"
	"github.com/roach88/ttverify/internal/metrics"
	"github.com/roach88/ttverify/internal/runid"
	"github.com/roach88/ttverify/internal/schedule"
	"github.com/roach88/ttverify/internal/store"
	"github.com/roach88/ttverify/internal/workload"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Table       bool
	Database    string
	MetricsFile string
	Strict      bool
	Separator   string
	NoCache     bool

	// Generator allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Generator runid.Generator
}

// VerifyOutput is the JSON payload of the verify command.
type VerifyOutput struct {
	Run      store.Run         `json:"run"`
	Report   []string          `json:"report"`
	Outcomes []latency.Outcome `json:"outcomes"`
	Table    *TableView        `json:"table,omitempty"`
	Drift    []store.LineDiff  `json:"drift,omitempty"`
	Previous string            `json:"previous_run,omitempty"`
}

// TableView is the latency table as rows of token symbols.
type TableView struct {
	Flows []string   `json:"flows"`
	Cells [][]string `json:"cells"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <workload> <schedule>",
		Short: "Verify a schedule against a flow workload",
		Long: `Analyze every release instance of every flow within one hyperperiod and
print the latency report: one line per instance followed by a separator
line per flow.

The workload is a CUE, YAML or TOML file (or a directory of CUE files).
The schedule is a CSV grid with one column per unit and one row per slot.

With --db the run is stored, and the report is compared against the
previous run over the same inputs.

Exit codes:
  0 - Report produced (and, with --strict, every instance met its deadline)
  1 - Invalid workload, or a deadline miss or unknown latency with --strict
  2 - Command error (unreadable inputs, database errors, etc.)

Examples:
  ttverify verify plant.cue plant.csv
  ttverify verify plant.yaml plant.csv --table
  ttverify verify plant.toml plant.csv --db runs.db --strict`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Table, "table", false, "also print the latency table")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for run history")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 on any deadline miss or unknown latency")
	cmd.Flags().StringVar(&opts.Separator, "separator", "", "report separator line")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "decode every schedule cell without memoization")

	return cmd
}

// mergeFlags overrides config values with explicitly set flags.
func (opts *VerifyOptions) mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DB = opts.Database
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = opts.MetricsFile
	}
	if flags.Changed("strict") {
		cfg.Strict = opts.Strict
	}
	if flags.Changed("separator") && opts.Separator != "" {
		cfg.Separator = opts.Separator
	}
	if flags.Changed("no-cache") {
		enabled := !opts.NoCache
		cfg.Decoder.Cache = &enabled
	}
}

func runVerify(opts *VerifyOptions, workloadPath, schedulePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	opts.mergeFlags(cmd, cfg)

	w, err := workload.Load(workloadPath)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	logger.Debug("workload loaded", "name", w.Name, "flows", len(w.Flows))

	sched, err := schedule.LoadCSV(schedulePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load schedule", err)
	}
	logger.Debug("schedule loaded", "slots", sched.Rows(), "units", sched.Columns())

	engOpts := []engine.EngineOption{
		engine.WithLogger(logger),
		engine.WithSeparator(cfg.Separator),
		engine.WithDecoderCache(cfg.Decoder.CacheEnabled()),
	}
	if opts.Generator != nil {
		engOpts = append(engOpts, engine.WithGenerator(opts.Generator))
	}

	if cfg.DB != "" {
		st, err := store.Open(cfg.DB)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		engOpts = append(engOpts, engine.WithStore(st))
	}

	var recorder *metrics.Recorder
	if cfg.MetricsFile != "" {
		recorder, err = metrics.NewRecorder()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create metrics", err)
		}
		engOpts = append(engOpts, engine.WithMetrics(recorder))
	}

	ctx, stop := signalContext(cmd, logger)
	defer stop()

	res, err := engine.New(engOpts...).Verify(ctx, engine.Input{Workload: w, Schedule: sched})
	if err != nil {
		var vf *engine.ValidationFailed
		switch {
		case errors.As(err, &vf):
			return outputValidationErrors(formatter, vf.Errors)
		case errors.Is(err, context.Canceled):
			return WrapExitError(ExitCommandError, "verification interrupted", err)
		default:
			return WrapExitError(ExitCommandError, "verification failed", err)
		}
	}

	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
		logger.Debug("metrics written", "path", cfg.MetricsFile)
	}

	if err := outputVerify(formatter, opts, res, logger); err != nil {
		return err
	}

	s := res.Record.Summary
	if cfg.Strict && !s.Verified() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d deadline miss(es), %d unknown latency(ies)", s.Misses, s.Unknown))
	}
	return nil
}

func outputVerify(formatter *OutputFormatter, opts *VerifyOptions, res *engine.Result, logger *slog.Logger) error {
	if formatter.Format == "json" {
		out := VerifyOutput{
			Run:      res.Record.Run,
			Report:   res.Record.Report,
			Outcomes: res.Record.Outcomes,
			Drift:    res.Drift,
			Previous: res.Previous,
		}
		if opts.Table {
			out.Table = &TableView{Flows: res.Table.Flows(), Cells: res.Table.Strings()}
		}
		return formatter.Success(out)
	}

	for _, line := range res.Record.Report {
		fmt.Fprintln(formatter.Writer, line)
	}
	if opts.Table {
		fmt.Fprintln(formatter.Writer)
		if err := renderTable(formatter.Writer, res.Table); err != nil {
			return err
		}
	}

	if len(res.Drift) > 0 {
		logger.Warn("report changed since previous run", "previous_run", res.Previous, "lines", len(res.Drift))
		for _, d := range res.Drift {
			formatter.VerboseLog("  line %d: %q -> %q", d.Line, d.Want, d.Got)
		}
	}
	return nil
}

// outputLoadError reports a workload load failure with its error code.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *workload.LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load workload", err)
	}
	_ = formatter.Error(workload.ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, "failed to load workload", err)
}
