package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ttverify/internal/store"
)

// HistoryOptions holds flags for the history and show commands.
type HistoryOptions struct {
	*RootOptions
	Database string
	Table    bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored verification runs",
		Long: `List the runs stored by verify --db, oldest first.

Example:
  ttverify history --db runs.db
  ttverify history --db runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a stored verification run",
		Long: `Print the report of a stored run. The run id may be any unique prefix.

Example:
  ttverify show --db runs.db 01928c3a
  ttverify show --db runs.db 01928c3a --table`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().BoolVar(&opts.Table, "table", false, "also print the latency table")

	return cmd
}

// openExisting opens the database named by --db or the config file.
// Unlike verify, it never creates a new database.
func (opts *HistoryOptions) openExisting() (*store.Store, error) {
	path := opts.Database
	if path == "" {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load config", err)
		}
		path = cfg.DB
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no database: pass --db or set db in the config file")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	st, err := opts.openExisting()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if formatter.Format == "json" {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs found.")
		return nil
	}
	return renderRuns(formatter.Writer, runs)
}

func runShow(opts *HistoryOptions, prefix string, cmd *cobra.Command) error {
	st, err := opts.openExisting()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	id, err := st.ResolveRunID(ctx, prefix)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", prefix))
		}
		return WrapExitError(ExitCommandError, "failed to resolve run", err)
	}

	rec, err := st.ReadRun(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if formatter.Format == "json" {
		return formatter.Success(rec)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s (seq %d)\n", rec.ID, rec.Seq)
	fmt.Fprintf(w, "Workload: %s %s\n", rec.WorkloadName, shortHash(rec.WorkloadHash))
	fmt.Fprintf(w, "Schedule: %s (%d slots, hyperperiod %d)\n", shortHash(rec.ScheduleHash), rec.Slots, rec.Hyperperiod)
	fmt.Fprintln(w)
	for _, line := range rec.Report {
		fmt.Fprintln(w, line)
	}
	if opts.Table {
		fmt.Fprintln(w)
		return renderMarkers(w, rec)
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
